// Package authutil finishes a successful authentication: it signs the
// browser in and resumes any join the visitor asked for before signing in.
package authutil

import (
	"context"
	"errors"
	"net/http"

	"github.com/pragatiboard/pragati/internal/app/system/auth"
	"github.com/pragatiboard/pragati/internal/app/system/joins"
	"github.com/pragatiboard/pragati/internal/domain/models"
	"go.uber.org/zap"
)

// JoinResult describes a resumed join.
type JoinResult struct {
	State   string `json:"state"`
	GroupID string `json:"group_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Completion is what the client learns after signing in.
type Completion struct {
	User *models.User `json:"user"`
	Join *JoinResult  `json:"join,omitempty"`
}

// Completer signs users in through the session manager and the join flow.
type Completer struct {
	sm   *auth.SessionManager
	flow *joins.Flow
	log  *zap.Logger
}

// NewCompleter constructs a Completer.
func NewCompleter(sm *auth.SessionManager, flow *joins.Flow, log *zap.Logger) *Completer {
	return &Completer{sm: sm, flow: flow, log: log}
}

// Complete signs user in and resumes a pending join. A failed join does not
// undo the sign-in; it is reported in the completion instead.
func (c *Completer) Complete(ctx context.Context, w http.ResponseWriter, r *http.Request, user *models.User) (Completion, error) {
	fs := c.sm.FlowSession(w, r)
	fs.SignIn(user)

	done := Completion{User: user}
	if out, resumed := c.flow.Authenticated(ctx, fs, user); resumed {
		done.Join = &JoinResult{
			State:   out.State.String(),
			GroupID: out.GroupID,
			Error:   JoinMessage(out.Err),
		}
	}

	if err := fs.Save(); err != nil {
		return Completion{}, err
	}
	c.log.Info("signed in",
		zap.String("user_id", user.ID),
		zap.Bool("resumed_join", done.Join != nil))
	return done, nil
}

// Failed records a failed authentication attempt. A pending join stays in
// place so the next attempt can resume it.
func (c *Completer) Failed(w http.ResponseWriter, r *http.Request) joins.State {
	return c.flow.AuthenticationFailed(c.sm.FlowSession(w, r))
}

// Begin reports the flow state for the sign-in screen.
func (c *Completer) Begin(w http.ResponseWriter, r *http.Request) (joins.State, string) {
	fs := c.sm.FlowSession(w, r)
	in, _ := fs.PendingJoin()
	return c.flow.BeginAuthentication(fs), in.GroupID
}

// JoinMessage is the user-facing text for a failed join, or "" for nil.
func JoinMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *joins.ValidationError
	if errors.As(err, &ve) {
		return "Error: " + ve.Reason
	}
	return "Error: could not join the group. Please try again."
}
