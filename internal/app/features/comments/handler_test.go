package comments_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pragatiboard/pragati/internal/app/features/comments"
	uierrors "github.com/pragatiboard/pragati/internal/app/features/errors"
	"github.com/pragatiboard/pragati/internal/app/system/workspace"
	"github.com/pragatiboard/pragati/internal/domain/models"
	"github.com/pragatiboard/pragati/internal/testutil"
	"go.uber.org/zap"
)

type env struct {
	fx     *testutil.Fixtures
	router http.Handler
}

func newEnv(t *testing.T) env {
	t.Helper()
	logger := zap.NewNop()
	fx := testutil.NewFixtures(t)
	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	fx.Docs.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	})

	h := comments.NewHandler(fx.Comments, fx.Tasks, fx.Docs, fx.Hub, uierrors.NewErrorLogger(logger), logger)
	r := chi.NewRouter()
	r.Mount("/tasks/{taskID}/comments", comments.Routes(h))
	return env{fx: fx, router: r}
}

func (e env) do(req *http.Request, user *models.User, v models.View) *testutil.ResponseRecorder {
	req = workspace.WithTestWorkspace(testutil.WithUser(req, user), e.fx.Paths, user, v, "")
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type threadBody struct {
	TaskID   string           `json:"task_id"`
	Comments []models.Comment `json:"comments"`
}

func TestAddAndListComments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := testutil.NewUser("ana@example.com")
	task := e.fx.CreateTask(ctx, user, models.PrivateView(), "Write report")
	base := "/tasks/" + task.ID + "/comments"

	for _, text := range []string{"first", "  second  "} {
		rec := e.do(testutil.NewJSONRequest(http.MethodPost, base, map[string]string{"text": text}), user, models.PrivateView())
		rec.AssertStatus(t, http.StatusCreated)
	}

	rec := e.do(testutil.NewRequest(http.MethodGet, base), user, models.PrivateView())
	rec.AssertStatus(t, http.StatusOK)
	var body threadBody
	rec.DecodeJSON(t, &body)
	if body.TaskID != task.ID || len(body.Comments) != 2 {
		t.Fatalf("body = %+v", body)
	}
	if body.Comments[0].Text != "first" || body.Comments[1].Text != "second" {
		t.Errorf("comments out of order or untrimmed: %+v", body.Comments)
	}
	if body.Comments[0].CreatedBy != "ana@example.com" {
		t.Errorf("author = %q", body.Comments[0].CreatedBy)
	}
}

func TestAuthorWithoutEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := &models.User{ID: "abcdef1234567890"}
	task := e.fx.CreateTask(ctx, user, models.PrivateView(), "x")

	rec := e.do(testutil.NewJSONRequest(http.MethodPost, "/tasks/"+task.ID+"/comments", map[string]string{"text": "hi"}), user, models.PrivateView())
	rec.AssertStatus(t, http.StatusCreated)
	var c models.Comment
	rec.DecodeJSON(t, &c)
	if c.CreatedBy != "User abcdef12" {
		t.Errorf("author = %q", c.CreatedBy)
	}
}

func TestAddCommentRejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := testutil.NewUser("ana@example.com")
	task := e.fx.CreateTask(ctx, user, models.PrivateView(), "x")

	e.do(testutil.NewJSONRequest(http.MethodPost, "/tasks/"+task.ID+"/comments", map[string]string{"text": "   "}), user, models.PrivateView()).
		AssertStatus(t, http.StatusBadRequest)
	e.do(testutil.NewJSONRequest(http.MethodPost, "/tasks/missing/comments", map[string]string{"text": "hi"}), user, models.PrivateView()).
		AssertStatus(t, http.StatusNotFound)
}

func TestGroupCommentsAreShared(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := testutil.NewUser("owner@example.com")
	member := testutil.NewUser("bob@example.com")
	group := models.View{Mode: models.ViewGroup, GroupID: "team-1"}
	task := e.fx.CreateTask(ctx, owner, group, "Shared")
	base := "/tasks/" + task.ID + "/comments"

	e.do(testutil.NewJSONRequest(http.MethodPost, base, map[string]string{"text": "from owner"}), owner, group).
		AssertStatus(t, http.StatusCreated)

	rec := e.do(testutil.NewRequest(http.MethodGet, base), member, group)
	var body threadBody
	rec.DecodeJSON(t, &body)
	if len(body.Comments) != 1 || body.Comments[0].CreatedBy != "owner@example.com" {
		t.Errorf("member sees %+v", body.Comments)
	}
}

func TestCommentStream(t *testing.T) {
	e := newEnv(t)
	user := testutil.NewUser("ana@example.com")
	task := e.fx.CreateTask(context.Background(), user, models.PrivateView(), "x")
	base := "/tasks/" + task.ID + "/comments"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := testutil.NewRequest(http.MethodGet, base+"/stream").WithContext(ctx)
	req = workspace.WithTestWorkspace(testutil.WithUser(req, user), e.fx.Paths, user, models.PrivateView(), "")
	sr := testutil.NewStreamRecorder()
	done := make(chan struct{})
	go func() {
		e.router.ServeHTTP(sr, req)
		close(done)
	}()

	if !sr.WaitFor(`"comments":[]`, 1, 2*time.Second) {
		t.Fatalf("no initial snapshot: %q", sr.Body())
	}
	e.do(testutil.NewJSONRequest(http.MethodPost, base, map[string]string{"text": "live"}), user, models.PrivateView()).
		AssertStatus(t, http.StatusCreated)
	if !sr.WaitFor(`"text":"live"`, 1, 2*time.Second) {
		t.Fatalf("comment not streamed: %q", sr.Body())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end")
	}
}
