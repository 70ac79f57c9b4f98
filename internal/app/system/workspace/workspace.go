// Package workspace resolves the board a request operates on: the signed-in
// user's private board, or the shared board of the group they are viewing.
package workspace

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	membershipstore "github.com/pragatiboard/pragati/internal/app/store/memberships"
	"github.com/pragatiboard/pragati/internal/app/system/auth"
	"github.com/pragatiboard/pragati/internal/app/system/paths"
	"github.com/pragatiboard/pragati/internal/app/system/timeouts"
	"github.com/pragatiboard/pragati/internal/domain/models"
	"go.uber.org/zap"
)

type ctxKey string

const workspaceKey ctxKey = "workspace"

// Info holds the active workspace for the current request.
type Info struct {
	UserID string
	View   models.View
	Role   models.Role         // empty on the private board
	Tasks  docstore.Collection // task collection of the view

	paths paths.Resolver
}

// Task returns the address of a task on this board.
func (i *Info) Task(taskID string) (docstore.Doc, bool) {
	return i.paths.Task(i.UserID, i.View.Mode, i.View.GroupID, taskID)
}

// Comments returns the comment collection of a task on this board.
func (i *Info) Comments(taskID string) (docstore.Collection, bool) {
	return i.paths.CommentCollection(i.UserID, i.View.Mode, i.View.GroupID, taskID)
}

// MembershipLookup is satisfied by *membershipstore.Store.
type MembershipLookup interface {
	Get(ctx context.Context, userID, groupID string) (models.GroupMembership, error)
}

// Resolve works out the workspace of user in view v. A group view with a
// blank group id, or one the user no longer belongs to, resolves to the
// private board; fellBack reports that.
func Resolve(ctx context.Context, r paths.Resolver, members MembershipLookup, user *models.User, v models.View) (info *Info, fellBack bool, err error) {
	if v.Mode == models.ViewGroup {
		if gid, ok := paths.NormalizeGroupID(v.GroupID); ok {
			v.GroupID = gid
			m, err := members.Get(ctx, user.ID, gid)
			switch {
			case err == nil:
				if c, ok := r.TaskCollection(user.ID, v.Mode, gid); ok {
					return &Info{UserID: user.ID, View: v, Role: m.Role, Tasks: c, paths: r}, false, nil
				}
			case errors.Is(err, membershipstore.ErrNotMember):
			default:
				return nil, false, err
			}
		}
		fellBack = true
	}

	v = models.PrivateView()
	c, ok := r.TaskCollection(user.ID, v.Mode, "")
	if !ok {
		return nil, fellBack, errors.New("workspace: user has no private board")
	}
	return &Info{UserID: user.ID, View: v, Tasks: c, paths: r}, fellBack, nil
}

// Middleware resolves the workspace of the signed-in user from the view in
// their session. It must run after auth.RequireSignedIn.
//
// When the remembered group view is no longer valid (the user left the group
// elsewhere, or the group was removed) the session falls back to the private
// board.
func Middleware(sm *auth.SessionManager, r paths.Resolver, members MembershipLookup, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			user, ok := auth.CurrentUser(req)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx, cancel := context.WithTimeout(req.Context(), timeouts.Short())
			defer cancel()

			info, fellBack, err := Resolve(ctx, r, members, user, sm.View(req))
			if err != nil {
				logger.Error("resolve workspace failed",
					zap.String("user_id", user.ID),
					zap.Error(err))
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"Unable to load your board."}`))
				return
			}
			if fellBack {
				logger.Info("group view no longer valid, using private board",
					zap.String("user_id", user.ID))
				if err := sm.SetView(w, req, info.View); err != nil {
					logger.Warn("reset view failed", zap.Error(err))
				}
			}

			next.ServeHTTP(w, withWorkspace(req, info))
		})
	}
}

// FromRequest returns the workspace info from the request context.
// Returns nil if no workspace context is set.
func FromRequest(r *http.Request) *Info {
	if ws, ok := r.Context().Value(workspaceKey).(*Info); ok {
		return ws
	}
	return nil
}

// WithTestWorkspace resolves user's workspace for view v without a session
// and stores it on the request.
func WithTestWorkspace(req *http.Request, r paths.Resolver, user *models.User, v models.View, role models.Role) *http.Request {
	c, _ := r.TaskCollection(user.ID, v.Mode, v.GroupID)
	return withWorkspace(req, &Info{UserID: user.ID, View: v, Role: role, Tasks: c, paths: r})
}

// withWorkspace adds workspace info to the request context.
func withWorkspace(r *http.Request, ws *Info) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), workspaceKey, ws))
}

// URLParam returns the decoded value of a routed path parameter. chi routes
// on the escaped path when the request carries one, leaving the parameter
// escaped; otherwise the parameter is already decoded and is returned as is.
func URLParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if s, err := url.PathUnescape(v); err == nil {
		return s
	}
	return v
}
