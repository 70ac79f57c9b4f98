package login_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/pragatiboard/pragati/internal/app/features/errors"
	"github.com/pragatiboard/pragati/internal/app/features/login"
	"github.com/pragatiboard/pragati/internal/app/system/auth"
	"github.com/pragatiboard/pragati/internal/app/system/authutil"
	"github.com/pragatiboard/pragati/internal/app/system/identity"
	"github.com/pragatiboard/pragati/internal/app/system/joins"
	"github.com/pragatiboard/pragati/internal/app/system/ratelimit"
	"github.com/pragatiboard/pragati/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

type env struct {
	fx     *testutil.Fixtures
	sm     *auth.SessionManager
	router http.Handler
}

func newEnv(t *testing.T, limiter *ratelimit.LoginLimiter) env {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "test-session", "test-intent", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	fx := testutil.NewFixtures(t)
	id := identity.New(fx.Accounts, logger).WithCost(bcrypt.MinCost)
	comp := authutil.NewCompleter(sm, joins.NewFlow(fx.Joins, logger), logger)
	h := login.NewHandler(id, comp, limiter, uierrors.NewErrorLogger(logger), false, logger)
	return env{fx: fx, sm: sm, router: login.Routes(h)}
}

func (e env) post(path string, body any, prev *httptest.ResponseRecorder) *testutil.ResponseRecorder {
	req := testutil.NewJSONRequest(http.MethodPost, path, body)
	if prev != nil {
		req = testutil.CarryCookies(prev, req)
	}
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type signedInBody struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	Join *struct {
		State   string `json:"state"`
		GroupID string `json:"group_id"`
		Error   string `json:"error"`
	} `json:"join"`
	Redirect string `json:"redirect"`
}

type failureBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	State string `json:"state"`
}

func creds(email, password string) map[string]string {
	return map[string]string{"email": email, "password": password}
}

func TestSignUpThenSignIn(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.post("/signup", creds("ana@example.com", "secret1"), nil)
	rec.AssertStatus(t, http.StatusOK)
	var up signedInBody
	rec.DecodeJSON(t, &up)
	if up.User.ID == "" || up.User.Email != "ana@example.com" || up.Join != nil {
		t.Fatalf("sign-up body = %+v", up)
	}
	if up.Redirect != "/board" {
		t.Errorf("redirect = %q, want /board", up.Redirect)
	}

	rec = e.post("/login", creds("ana@example.com", "secret1"), nil)
	rec.AssertStatus(t, http.StatusOK)
	var in signedInBody
	rec.DecodeJSON(t, &in)
	if in.User.ID != up.User.ID {
		t.Errorf("sign-in uid = %q, want %q", in.User.ID, up.User.ID)
	}
}

func TestSignUpRejections(t *testing.T) {
	e := newEnv(t, nil)
	e.post("/signup", creds("ana@example.com", "secret1"), nil).AssertStatus(t, http.StatusOK)

	tests := []struct {
		name     string
		email    string
		password string
		status   int
		kind     identity.Kind
		msg      string
	}{
		{"taken", "ana@example.com", "secret1", http.StatusConflict, identity.KindEmailInUse, "This email is already registered."},
		{"bad email", "not-an-email", "secret1", http.StatusBadRequest, identity.KindInvalidEmail, "Invalid email format."},
		{"short password", "bo@example.com", "123", http.StatusBadRequest, identity.KindWeakPassword, "Authentication failed. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.post("/signup", creds(tt.email, tt.password), nil)
			rec.AssertStatus(t, tt.status)
			var body failureBody
			rec.DecodeJSON(t, &body)
			if body.Kind != string(tt.kind) || body.Error != tt.msg {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestShortPasswordLoggedAsRejection(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "test-session", "test-intent", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	fx := testutil.NewFixtures(t)
	id := identity.New(fx.Accounts, logger).WithCost(bcrypt.MinCost)
	comp := authutil.NewCompleter(sm, joins.NewFlow(fx.Joins, logger), logger)
	router := login.Routes(login.NewHandler(id, comp, nil, uierrors.NewErrorLogger(logger), false, logger))

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(http.MethodPost, "/signup", creds("bo@example.com", "12345")))
	rec.AssertStatus(t, http.StatusBadRequest)

	if n := logs.FilterLevelExact(zap.ErrorLevel).Len(); n != 0 {
		t.Errorf("short password logged %d errors", n)
	}
	if logs.FilterMessage("sign-up rejected").Len() != 1 {
		t.Errorf("rejection not logged at info: %v", logs.All())
	}
}

func TestFormEncodedSignIn(t *testing.T) {
	e := newEnv(t, nil)
	e.post("/signup", creds("ana@example.com", "secret1"), nil).AssertStatus(t, http.StatusOK)

	form := url.Values{"email": {"ana@example.com"}, "password": {"secret1"}, "return": {"/board?q=x"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	var body signedInBody
	rec.DecodeJSON(t, &body)
	if body.Redirect != "/board?q=x" {
		t.Errorf("redirect = %q", body.Redirect)
	}
}

func TestInviteSurvivesFailedSignInAndResumes(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	owner := testutil.NewUser("owner@example.com")
	e.fx.CreateGroup(ctx, owner, "team-x")

	// Visitor followed an invite before signing in.
	inviteRec := httptest.NewRecorder()
	fs := e.sm.FlowSession(inviteRec, httptest.NewRequest(http.MethodGet, "/join/team-x", nil))
	fs.SetPendingJoin(joins.Intent{GroupID: "team-x"})
	if err := fs.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	screen := testutil.NewRecorder()
	e.router.ServeHTTP(screen, testutil.CarryCookies(inviteRec, httptest.NewRequest(http.MethodGet, "/", nil)))
	screen.AssertContains(t, `"state":"Authenticating"`)
	screen.AssertContains(t, `"pending_group":"team-x"`)

	e.post("/signup", creds("bo@example.com", "secret1"), nil).AssertStatus(t, http.StatusOK)

	bad := e.post("/login", creds("bo@example.com", "wrong-password"), inviteRec)
	bad.AssertStatus(t, http.StatusUnauthorized)
	var fail failureBody
	bad.DecodeJSON(t, &fail)
	if fail.State != joins.StatePendingJoin.String() || fail.Error != "Invalid email or password." {
		t.Errorf("failure body = %+v", fail)
	}

	good := e.post("/login", creds("bo@example.com", "secret1"), inviteRec)
	good.AssertStatus(t, http.StatusOK)
	var body signedInBody
	good.DecodeJSON(t, &body)
	if body.Join == nil || body.Join.State != joins.StateJoined.String() || body.Join.GroupID != "team-x" {
		t.Fatalf("join = %+v", body.Join)
	}

	roster, err := e.fx.Members.ListByGroup(ctx, "team-x")
	if err != nil {
		t.Fatalf("ListByGroup: %v", err)
	}
	if len(roster) != 2 {
		t.Errorf("roster = %+v, want owner and new member", roster)
	}
}

func TestSignInRateLimited(t *testing.T) {
	limiter := ratelimit.NewLoginLimiter(ratelimit.New(100, time.Minute), ratelimit.New(2, time.Minute))
	e := newEnv(t, limiter)

	for i := 0; i < 2; i++ {
		e.post("/login", creds("ana@example.com", "nope-nope"), nil).AssertStatus(t, http.StatusUnauthorized)
	}
	e.post("/login", creds("ana@example.com", "nope-nope"), nil).AssertStatus(t, http.StatusTooManyRequests)
}
