// internal/app/features/view/handler.go
package view

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/pragatiboard/pragati/internal/app/features/errors"
	"github.com/pragatiboard/pragati/internal/app/system/auth"
	"github.com/pragatiboard/pragati/internal/app/system/paths"
	"github.com/pragatiboard/pragati/internal/app/system/timeouts"
	"github.com/pragatiboard/pragati/internal/app/system/workspace"
	"github.com/pragatiboard/pragati/internal/domain/models"
	"go.uber.org/zap"
)

// Handler switches the board between the private and a group view.
type Handler struct {
	SessionMgr *auth.SessionManager
	Paths      paths.Resolver
	Members    workspace.MembershipLookup
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(sm *auth.SessionManager, r paths.Resolver, members workspace.MembershipLookup, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{SessionMgr: sm, Paths: r, Members: members, ErrLog: errLog, Log: logger}
}

type viewBody struct {
	Mode    models.ViewMode `json:"mode"`
	GroupID string          `json:"group_id,omitempty"`
	Role    models.Role     `json:"role,omitempty"`
}

func bodyFor(ws *workspace.Info) viewBody {
	return viewBody{Mode: ws.View.Mode, GroupID: ws.View.GroupID, Role: ws.Role}
}

// ServeView handles GET /view.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	ws := workspace.FromRequest(r)
	if ws == nil {
		h.ErrLog.LogServerError(w, r, "view: no workspace in context", nil, "Unable to load your board.", "/board")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, bodyFor(ws))
}

type switchRequest struct {
	Mode    string `json:"mode"`
	GroupID string `json:"group_id"`
}

// HandleSwitch handles POST /view. Switching to a group requires a
// membership; the private view is always allowed.
func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	var in switchRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "view: unreadable body", err, "Invalid request.", "/board")
		return
	}

	v := models.View{Mode: models.ParseViewMode(in.Mode)}
	if v.Mode == models.ViewGroup {
		gid, ok := paths.NormalizeGroupID(in.GroupID)
		if !ok {
			h.ErrLog.LogBadRequest(w, r, "view: blank group id", nil, "Choose a group to view.", "/board")
			return
		}
		v.GroupID = gid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ws, fellBack, err := workspace.Resolve(ctx, h.Paths, h.Members, user, v)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "view: resolve workspace", err, "Unable to switch boards.", "/board")
		return
	}
	if fellBack {
		h.ErrLog.LogForbidden(w, r, "view: not a member", nil, "You are not a member of this group.", "/board")
		return
	}

	if err := h.SessionMgr.SetView(w, r, ws.View); err != nil {
		h.ErrLog.LogServerError(w, r, "view: save session", err, "Unable to switch boards.", "/board")
		return
	}
	h.Log.Debug("view switched",
		zap.String("user_id", user.ID),
		zap.String("mode", string(ws.View.Mode)),
		zap.String("group_id", ws.View.GroupID))
	uierrors.WriteJSON(w, http.StatusOK, bodyFor(ws))
}
