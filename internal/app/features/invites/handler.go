// internal/app/features/invites/handler.go
package invites

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	uierrors "github.com/pragatiboard/pragati/internal/app/features/errors"
	"github.com/pragatiboard/pragati/internal/app/system/auth"
	"github.com/pragatiboard/pragati/internal/app/system/authutil"
	"github.com/pragatiboard/pragati/internal/app/system/joins"
	"github.com/pragatiboard/pragati/internal/app/system/timeouts"
	"github.com/pragatiboard/pragati/internal/app/system/workspace"
	"go.uber.org/zap"
)

// Handler serves invite links. An invite is just /join/{groupID}; anyone
// holding the link may join.
type Handler struct {
	SessionMgr *auth.SessionManager
	Flow       *joins.Flow
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(sm *auth.SessionManager, flow *joins.Flow, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{SessionMgr: sm, Flow: flow, ErrLog: errLog, Log: logger}
}

type inviteResult struct {
	State   string `json:"state"`
	GroupID string `json:"group_id,omitempty"`
	Next    string `json:"next"`
	Error   string `json:"error,omitempty"`
}

// ServeJoin handles GET /join/{groupID}.
//
// Signed-in visitors are joined right away and switched to the group board.
// Anonymous visitors get a pending join and are sent to /auth; the join runs
// once they sign in.
func (h *Handler) ServeJoin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	fs := h.SessionMgr.FlowSession(w, r)
	out := h.Flow.OpenInvite(ctx, fs, workspace.URLParam(r, "groupID"))
	if err := fs.Save(); err != nil {
		h.ErrLog.LogServerError(w, r, "invite: save session", err, "Unable to open the invite.", "/board")
		return
	}

	res := inviteResult{State: out.State.String(), GroupID: out.GroupID}
	status := http.StatusOK
	switch out.State {
	case joins.StatePendingJoin:
		res.Next = "/auth"
		status = http.StatusAccepted
	case joins.StateJoined:
		res.Next = "/board"
	default:
		res.Error = authutil.JoinMessage(out.Err)
		res.Next = "/board?join_error=" + url.QueryEscape(res.Error)
		status = http.StatusInternalServerError
		var ve *joins.ValidationError
		if errors.As(out.Err, &ve) {
			status = http.StatusBadRequest
		}
	}

	if wantsHTML(r) {
		http.Redirect(w, r, res.Next, http.StatusSeeOther)
		return
	}
	uierrors.WriteJSON(w, status, res)
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
