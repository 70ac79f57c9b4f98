package authutil_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pragatiboard/pragati/internal/app/system/auth"
	"github.com/pragatiboard/pragati/internal/app/system/authutil"
	"github.com/pragatiboard/pragati/internal/app/system/joins"
	"github.com/pragatiboard/pragati/internal/domain/models"
	"github.com/pragatiboard/pragati/internal/testutil"
	"go.uber.org/zap"
)

type completerEnv struct {
	sm   *auth.SessionManager
	fx   *testutil.Fixtures
	comp *authutil.Completer
}

func newEnv(t *testing.T) completerEnv {
	t.Helper()
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "test-session", "test-intent", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	fx := testutil.NewFixtures(t)
	flow := joins.NewFlow(fx.Joins, zap.NewNop())
	return completerEnv{sm: sm, fx: fx, comp: authutil.NewCompleter(sm, flow, zap.NewNop())}
}

// pendingRequest returns a request carrying an intent cookie for groupID.
func (e completerEnv) pendingRequest(t *testing.T, groupID string) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	fs := e.sm.FlowSession(rec, httptest.NewRequest(http.MethodGet, "/join/"+groupID, nil))
	fs.SetPendingJoin(joins.Intent{GroupID: groupID})
	if err := fs.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return testutil.CarryCookies(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
}

func TestCompleteWithoutPendingJoin(t *testing.T) {
	e := newEnv(t)
	user := testutil.NewUser("a@example.com")

	rec := httptest.NewRecorder()
	done, err := e.comp.Complete(context.Background(), rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil), user)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Join != nil {
		t.Errorf("Join = %+v, want nil", done.Join)
	}

	var got *models.User
	e.sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	})).ServeHTTP(httptest.NewRecorder(), testutil.CarryCookies(rec, httptest.NewRequest(http.MethodGet, "/board", nil)))
	if got == nil || got.ID != user.ID {
		t.Errorf("signed-in user = %+v, want %s", got, user.ID)
	}
}

func TestCompleteResumesPendingJoin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := testutil.NewUser("owner@example.com")
	e.fx.CreateGroup(ctx, owner, "team-x")
	user := testutil.NewUser("b@example.com")

	rec := httptest.NewRecorder()
	done, err := e.comp.Complete(ctx, rec, e.pendingRequest(t, "team-x"), user)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Join == nil || done.Join.State != joins.StateJoined.String() || done.Join.GroupID != "team-x" {
		t.Fatalf("Join = %+v", done.Join)
	}
	if _, err := e.fx.Members.Get(ctx, user.ID, "team-x"); err != nil {
		t.Errorf("membership not written: %v", err)
	}

	next := testutil.CarryCookies(rec, httptest.NewRequest(http.MethodGet, "/view", nil))
	if v := e.sm.View(next); v.Mode != models.ViewGroup || v.GroupID != "team-x" {
		t.Errorf("view = %+v, want group team-x", v)
	}
	if _, ok := e.sm.FlowSession(httptest.NewRecorder(), next).PendingJoin(); ok {
		t.Error("intent should be cleared after resuming")
	}
}

func TestCompleteReportsFailedJoin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.fx.Docs.FailWrites(errors.New("permission denied"))
	user := testutil.NewUser("c@example.com")

	rec := httptest.NewRecorder()
	done, err := e.comp.Complete(ctx, rec, e.pendingRequest(t, "team-y"), user)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Join == nil || done.Join.State != joins.StateJoinFailed.String() || done.Join.Error == "" {
		t.Fatalf("Join = %+v, want a failure", done.Join)
	}

	next := testutil.CarryCookies(rec, httptest.NewRequest(http.MethodGet, "/view", nil))
	if v := e.sm.View(next); v != models.PrivateView() {
		t.Errorf("view = %+v, want private after a failed join", v)
	}
	if _, ok := e.sm.FlowSession(httptest.NewRecorder(), next).PendingJoin(); ok {
		t.Error("intent should be cleared even when the join fails")
	}
}

func TestFailedKeepsIntent(t *testing.T) {
	e := newEnv(t)
	req := e.pendingRequest(t, "team-z")

	if st := e.comp.Failed(httptest.NewRecorder(), req); st != joins.StatePendingJoin {
		t.Errorf("state = %v, want PendingJoin", st)
	}
	st, gid := e.comp.Begin(httptest.NewRecorder(), req)
	if st != joins.StateAuthenticating || gid != "team-z" {
		t.Errorf("Begin = %v, %q", st, gid)
	}
}

func TestJoinMessage(t *testing.T) {
	if authutil.JoinMessage(nil) != "" {
		t.Error("nil error should have no message")
	}
	if got := authutil.JoinMessage(&joins.ValidationError{Reason: "group id is required"}); got != "Error: group id is required" {
		t.Errorf("validation message = %q", got)
	}
	if got := authutil.JoinMessage(errors.New("boom")); got == "" || got == "boom" {
		t.Errorf("write failure message = %q", got)
	}
}
