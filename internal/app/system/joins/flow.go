package joins

import (
	"context"

	"github.com/pragatiboard/pragati/internal/app/system/paths"
	"github.com/pragatiboard/pragati/internal/domain/models"
	"go.uber.org/zap"
)

// State is a step of the deferred join flow.
type State int

const (
	StateAnonymous State = iota
	StatePendingJoin
	StateAuthenticating
	StateJoined
	StateJoinFailed
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "Anonymous"
	case StatePendingJoin:
		return "PendingJoin"
	case StateAuthenticating:
		return "Authenticating"
	case StateJoined:
		return "Joined"
	case StateJoinFailed:
		return "JoinFailed"
	}
	return "Unknown"
}

// Intent is a join requested before the visitor was signed in.
type Intent struct {
	GroupID string
}

// Session is the per-visitor state the flow reads and mutates. The HTTP layer
// backs it with cookies; tests use an in-memory value.
type Session interface {
	User() *models.User
	PendingJoin() (Intent, bool)
	SetPendingJoin(Intent)
	ClearPendingJoin()
	SetView(models.View)
}

// Joiner performs the actual membership write.
type Joiner interface {
	Join(ctx context.Context, groupID string, user *models.User) error
}

// Outcome reports where the flow ended up.
type Outcome struct {
	State   State
	GroupID string
	Err     error
}

// Reason is the user-facing message of a failed outcome.
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Flow drives invite links through authentication.
type Flow struct {
	joiner Joiner
	log    *zap.Logger
}

// NewFlow returns a flow that joins through j.
func NewFlow(j Joiner, log *zap.Logger) *Flow {
	return &Flow{joiner: j, log: log}
}

// OpenInvite handles a visitor following an invite for groupID. A signed-in
// visitor is joined immediately; anyone else gets a pending intent and is
// expected to authenticate next.
func (f *Flow) OpenInvite(ctx context.Context, sess Session, groupID string) Outcome {
	gid, ok := paths.NormalizeGroupID(groupID)
	if !ok {
		return Outcome{State: StateJoinFailed, Err: &ValidationError{Reason: "group id is required"}}
	}

	user := sess.User()
	if user == nil {
		sess.SetPendingJoin(Intent{GroupID: gid})
		f.log.Info("join deferred until sign-in", zap.String("group_id", gid))
		return Outcome{State: StatePendingJoin, GroupID: gid}
	}
	return f.join(ctx, sess, gid, user)
}

// BeginAuthentication reports the state while the visitor is on the sign-in
// screen.
func (f *Flow) BeginAuthentication(sess Session) State {
	if _, ok := sess.PendingJoin(); ok {
		return StateAuthenticating
	}
	return StateAnonymous
}

// AuthenticationFailed leaves any pending intent in place so a retry can
// resume it.
func (f *Flow) AuthenticationFailed(sess Session) State {
	if _, ok := sess.PendingJoin(); ok {
		return StatePendingJoin
	}
	return StateAnonymous
}

// Authenticated resumes a pending join for the newly signed-in user. The
// intent is cleared whatever the join outcome. resumed is false when there
// was nothing to resume.
func (f *Flow) Authenticated(ctx context.Context, sess Session, user *models.User) (out Outcome, resumed bool) {
	intent, ok := sess.PendingJoin()
	if !ok {
		return Outcome{State: StateAnonymous}, false
	}
	sess.ClearPendingJoin()

	if user == nil {
		return Outcome{State: StateJoinFailed, GroupID: intent.GroupID, Err: &ValidationError{Reason: "user is not signed in"}}, true
	}
	return f.join(ctx, sess, intent.GroupID, user), true
}

func (f *Flow) join(ctx context.Context, sess Session, gid string, user *models.User) Outcome {
	if err := f.joiner.Join(ctx, gid, user); err != nil {
		f.log.Warn("join failed",
			zap.String("group_id", gid),
			zap.String("user_id", user.ID),
			zap.Error(err))
		return Outcome{State: StateJoinFailed, GroupID: gid, Err: err}
	}
	sess.SetView(models.View{Mode: models.ViewGroup, GroupID: gid})
	return Outcome{State: StateJoined, GroupID: gid}
}
