package groups_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/pragatiboard/pragati/internal/app/features/errors"
	"github.com/pragatiboard/pragati/internal/app/features/groups"
	"github.com/pragatiboard/pragati/internal/app/features/invites"
	"github.com/pragatiboard/pragati/internal/app/system/auth"
	"github.com/pragatiboard/pragati/internal/app/system/joins"
	"github.com/pragatiboard/pragati/internal/domain/models"
	"github.com/pragatiboard/pragati/internal/testutil"
	"go.uber.org/zap"
)

type env struct {
	fx     *testutil.Fixtures
	sm     *auth.SessionManager
	router http.Handler
}

func newEnv(t *testing.T) env {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "test-session", "test-intent", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	fx := testutil.NewFixtures(t)
	h := groups.NewHandler(groups.Deps{
		SessionMgr: sm,
		Docs:       fx.Docs,
		Listener:   fx.Hub,
		Paths:      fx.Paths,
		Members:    fx.Members,
		Joins:      fx.Joins,
		ErrLog:     uierrors.NewErrorLogger(logger),
		BaseURL:    "https://board.example.com/",
	}, logger)
	return env{fx: fx, sm: sm, router: groups.Routes(h)}
}

func (e env) do(req *http.Request, user *models.User) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.WithUser(req, user))
	return rec
}

type createdBody struct {
	GroupID   string `json:"group_id"`
	Role      string `json:"role"`
	ShareLink string `json:"share_link"`
}

type listBody struct {
	Groups []struct {
		ID        string `json:"id"`
		Role      string `json:"role"`
		ShareLink string `json:"share_link"`
		Active    bool   `json:"active"`
	} `json:"groups"`
}

func TestCreateGroup(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := testutil.NewUser("ana@example.com")

	rec := e.do(testutil.NewJSONRequest(http.MethodPost, "/", map[string]string{"group_id": " team-1 "}), user)
	rec.AssertStatus(t, http.StatusCreated)
	var body createdBody
	rec.DecodeJSON(t, &body)
	want := createdBody{GroupID: "team-1", Role: "owner", ShareLink: "https://board.example.com/join/team-1"}
	if body != want {
		t.Fatalf("body = %+v, want %+v", body, want)
	}

	m, err := e.fx.Members.Get(ctx, user.ID, "team-1")
	if err != nil || m.Role != models.RoleOwner {
		t.Fatalf("membership = %+v, %v", m, err)
	}
	roster, err := e.fx.Members.ListByGroup(ctx, "team-1")
	if err != nil || len(roster) != 1 || roster[0].UserID != user.ID {
		t.Fatalf("roster = %+v, %v", roster, err)
	}

	next := testutil.CarryCookies(rec.ResponseRecorder, testutil.NewRequest(http.MethodGet, "/"))
	if v := e.sm.View(next); v.Mode != models.ViewGroup || v.GroupID != "team-1" {
		t.Errorf("view = %+v, want group team-1", v)
	}
}

func TestCreateGroupRejectsTakenID(t *testing.T) {
	e := newEnv(t)
	e.fx.CreateGroup(context.Background(), testutil.NewUser("owner@example.com"), "team-1")

	rec := e.do(testutil.NewJSONRequest(http.MethodPost, "/", map[string]string{"group_id": "team-1"}), testutil.NewUser("bob@example.com"))
	rec.AssertStatus(t, http.StatusConflict)
}

func TestCreateGroupRejectsBadID(t *testing.T) {
	e := newEnv(t)
	user := testutil.NewUser("ana@example.com")

	for _, id := range []string{"", "   ", "a/b"} {
		rec := e.do(testutil.NewJSONRequest(http.MethodPost, "/", map[string]string{"group_id": id}), user)
		rec.AssertStatus(t, http.StatusBadRequest)
	}
	if e.fx.Docs.Writes() != 0 {
		t.Errorf("rejected creates wrote %d documents", e.fx.Docs.Writes())
	}
}

func TestCreateGroupWriteFailure(t *testing.T) {
	e := newEnv(t)
	e.fx.Docs.FailWrites(errors.New("backend down"))

	rec := e.do(testutil.NewJSONRequest(http.MethodPost, "/", map[string]string{"group_id": "team-1"}), testutil.NewUser("ana@example.com"))
	rec.AssertStatus(t, http.StatusInternalServerError)
}

func TestListGroups(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := testutil.NewUser("ana@example.com")
	e.fx.CreateGroup(ctx, user, "alpha")
	e.fx.JoinGroup(ctx, user, "beta")

	rec := e.do(testutil.NewRequest(http.MethodGet, "/"), user)
	rec.AssertStatus(t, http.StatusOK)
	var body listBody
	rec.DecodeJSON(t, &body)
	if len(body.Groups) != 2 {
		t.Fatalf("groups = %+v", body.Groups)
	}
	if body.Groups[0].ID != "alpha" || body.Groups[0].Role != "owner" {
		t.Errorf("first = %+v", body.Groups[0])
	}
	if body.Groups[1].ID != "beta" || body.Groups[1].Role != "member" {
		t.Errorf("second = %+v", body.Groups[1])
	}
	if body.Groups[1].ShareLink != "https://board.example.com/join/beta" {
		t.Errorf("share link = %q", body.Groups[1].ShareLink)
	}
}

func TestLeaveActiveGroupFallsBackToPrivate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := testutil.NewUser("owner@example.com")
	user := testutil.NewUser("ana@example.com")
	e.fx.CreateGroup(ctx, owner, "team-1")
	e.fx.JoinGroup(ctx, user, "team-1")
	setView := testutil.NewRecorder()
	if err := e.sm.SetView(setView, testutil.NewRequest(http.MethodGet, "/"), models.View{Mode: models.ViewGroup, GroupID: "team-1"}); err != nil {
		t.Fatalf("SetView: %v", err)
	}

	req := testutil.CarryCookies(setView.ResponseRecorder, testutil.NewRequest(http.MethodDelete, "/team-1"))
	rec := e.do(req, user)
	rec.AssertStatus(t, http.StatusOK)

	if _, err := e.fx.Members.Get(ctx, user.ID, "team-1"); err == nil {
		t.Error("owner-side record still present after leave")
	}
	roster, err := e.fx.Members.ListByGroup(ctx, "team-1")
	if err != nil || len(roster) != 1 || roster[0].UserID != owner.ID {
		t.Errorf("roster after leave = %+v, %v", roster, err)
	}

	next := testutil.CarryCookies(rec.ResponseRecorder, testutil.NewRequest(http.MethodGet, "/"))
	if v := e.sm.View(next); v.Mode != models.ViewPrivate {
		t.Errorf("view = %+v, want private", v)
	}
}

func TestLeaveRequiresMembership(t *testing.T) {
	e := newEnv(t)
	rec := e.do(testutil.NewRequest(http.MethodDelete, "/team-1"), testutil.NewUser("ana@example.com"))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestMembersRequiresMembership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := testutil.NewUser("owner@example.com")
	e.fx.CreateGroup(ctx, owner, "team-1")

	e.do(testutil.NewRequest(http.MethodGet, "/team-1/members"), testutil.NewUser("bob@example.com")).
		AssertStatus(t, http.StatusForbidden)

	rec := e.do(testutil.NewRequest(http.MethodGet, "/team-1/members"), owner)
	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		GroupID string               `json:"group_id"`
		Members []models.GroupMember `json:"members"`
	}
	rec.DecodeJSON(t, &body)
	if body.GroupID != "team-1" || len(body.Members) != 1 || body.Members[0].Email != "owner@example.com" {
		t.Errorf("body = %+v", body)
	}
}

func TestMembersStreamFollowsJoins(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := testutil.NewUser("owner@example.com")
	e.fx.CreateGroup(ctx, owner, "team-1")

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	req := testutil.WithUser(testutil.NewRequest(http.MethodGet, "/team-1/members/stream").WithContext(reqCtx), owner)
	sr := testutil.NewStreamRecorder()
	done := make(chan struct{})
	go func() {
		e.router.ServeHTTP(sr, req)
		close(done)
	}()

	if !sr.WaitFor("event: snapshot", 1, 2*time.Second) {
		t.Fatalf("no initial snapshot: %q", sr.Body())
	}
	e.fx.JoinGroup(ctx, testutil.NewUser("bob@example.com"), "team-1")
	if !sr.WaitFor("bob@example.com", 1, 2*time.Second) {
		t.Fatalf("join not streamed: %q", sr.Body())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after the client went away")
	}
}

func TestMembersStreamRequiresMembership(t *testing.T) {
	e := newEnv(t)
	e.fx.CreateGroup(context.Background(), testutil.NewUser("owner@example.com"), "team-1")

	rec := e.do(testutil.NewRequest(http.MethodGet, "/team-1/members/stream"), testutil.NewUser("bob@example.com"))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestListStream(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := testutil.NewUser("ana@example.com")

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	req := testutil.WithUser(testutil.NewRequest(http.MethodGet, "/stream").WithContext(reqCtx), user)
	sr := testutil.NewStreamRecorder()
	done := make(chan struct{})
	go func() {
		e.router.ServeHTTP(sr, req)
		close(done)
	}()

	if !sr.WaitFor(`"groups":[]`, 1, 2*time.Second) {
		t.Fatalf("no empty snapshot: %q", sr.Body())
	}
	e.fx.CreateGroup(ctx, user, "team-1")
	if !sr.WaitFor(`"id":"team-1"`, 1, 2*time.Second) {
		t.Fatalf("new group not streamed: %q", sr.Body())
	}
	cancel()
	<-done
}

func TestShareLinkOpensSameGroup(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	logger := zap.NewNop()

	join := chi.NewRouter()
	join.Mount("/join", invites.Routes(invites.NewHandler(e.sm, joins.NewFlow(e.fx.Joins, logger), uierrors.NewErrorLogger(logger), logger)))

	for i, gid := range []string{"Q#1", "team?x", "50%", "a,b", "a%41", "café bar"} {
		owner := testutil.NewUser("owner" + string(rune('a'+i)) + "@example.com")
		rec := e.do(testutil.NewJSONRequest(http.MethodPost, "/", map[string]string{"group_id": gid}), owner)
		rec.AssertStatus(t, http.StatusCreated)
		var created createdBody
		rec.DecodeJSON(t, &created)

		u, err := url.Parse(created.ShareLink)
		if err != nil {
			t.Fatalf("share link %q does not parse: %v", created.ShareLink, err)
		}
		if u.Fragment != "" || u.RawQuery != "" {
			t.Errorf("share link %q spills into query or fragment", created.ShareLink)
		}

		guest := testutil.NewUser("guest" + string(rune('a'+i)) + "@example.com")
		out := testutil.NewRecorder()
		join.ServeHTTP(out, testutil.WithUser(testutil.NewRequest(http.MethodGet, u.RequestURI()), guest))
		out.AssertStatus(t, http.StatusOK)
		var res struct {
			GroupID string `json:"group_id"`
		}
		out.DecodeJSON(t, &res)
		if res.GroupID != gid {
			t.Errorf("link for %q joined %q", gid, res.GroupID)
		}
		if _, err := e.fx.Members.Get(ctx, guest.ID, gid); err != nil {
			t.Errorf("guest not a member of %q: %v", gid, err)
		}
	}
}
