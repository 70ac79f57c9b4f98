package testutil

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	accountstore "github.com/pragatiboard/pragati/internal/app/store/accounts"
	commentstore "github.com/pragatiboard/pragati/internal/app/store/comments"
	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	"github.com/pragatiboard/pragati/internal/app/store/docstore/memdocs"
	membershipstore "github.com/pragatiboard/pragati/internal/app/store/memberships"
	taskstore "github.com/pragatiboard/pragati/internal/app/store/tasks"
	"github.com/pragatiboard/pragati/internal/app/system/joins"
	"github.com/pragatiboard/pragati/internal/app/system/paths"
	"github.com/pragatiboard/pragati/internal/app/system/realtime"
	"github.com/pragatiboard/pragati/internal/domain/models"
	"go.uber.org/zap"
)

// TestAppID is the app id fixtures build paths under.
const TestAppID = "test-app"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures is an in-memory backend with every store wired to it.
type Fixtures struct {
	t *testing.T

	Hub      *realtime.Hub
	Docs     *memdocs.Store
	Paths    paths.Resolver
	Tasks    *taskstore.Store
	Comments *commentstore.Store
	Members  *membershipstore.Store
	Accounts *accountstore.Store
	Joins    *joins.Coordinator
}

// NewFixtures builds a fresh in-memory backend.
func NewFixtures(t *testing.T) *Fixtures {
	t.Helper()
	hub := realtime.NewHub()
	docs := memdocs.New(hub)
	r := paths.New(TestAppID)
	return &Fixtures{
		t:        t,
		Hub:      hub,
		Docs:     docs,
		Paths:    r,
		Tasks:    taskstore.New(docs),
		Comments: commentstore.New(docs),
		Members:  membershipstore.New(docs, r),
		Accounts: accountstore.New(docs, r),
		Joins:    joins.NewCoordinator(docs, r, zap.NewNop()),
	}
}

// TaskCollection resolves the task collection of user in view, failing the
// test when it has no address.
func (f *Fixtures) TaskCollection(user *models.User, v models.View) docstore.Collection {
	f.t.Helper()
	c, ok := f.Paths.TaskCollection(user.ID, v.Mode, v.GroupID)
	if !ok {
		f.t.Fatalf("no task collection for user %q in view %+v", user.ID, v)
	}
	return c
}

// CreateTask adds a task with the given title to user's board in view v.
func (f *Fixtures) CreateTask(ctx context.Context, user *models.User, v models.View, title string) models.Task {
	f.t.Helper()
	task, err := f.Tasks.Create(ctx, f.TaskCollection(user, v), taskstore.NewTask{Title: title}, user.Email)
	if err != nil {
		f.t.Fatalf("create task %q: %v", title, err)
	}
	return task
}

// CreateGroup makes owner the owner of groupID.
func (f *Fixtures) CreateGroup(ctx context.Context, owner *models.User, groupID string) {
	f.t.Helper()
	if err := f.Joins.Create(ctx, groupID, owner); err != nil {
		f.t.Fatalf("create group %q: %v", groupID, err)
	}
}

// JoinGroup adds user to groupID as a member.
func (f *Fixtures) JoinGroup(ctx context.Context, user *models.User, groupID string) {
	f.t.Helper()
	if err := f.Joins.Join(ctx, groupID, user); err != nil {
		f.t.Fatalf("join group %q: %v", groupID, err)
	}
}
