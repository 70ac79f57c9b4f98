// internal/app/features/groups/leave.go
package groups

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/pragatiboard/pragati/internal/app/features/errors"
	membershipstore "github.com/pragatiboard/pragati/internal/app/store/memberships"
	"github.com/pragatiboard/pragati/internal/app/system/auth"
	"github.com/pragatiboard/pragati/internal/app/system/timeouts"
	"github.com/pragatiboard/pragati/internal/app/system/workspace"
	"github.com/pragatiboard/pragati/internal/domain/models"
	"go.uber.org/zap"
)

// HandleLeave handles DELETE /groups/{groupID}. Both membership records go
// in one batch. Leaving the group on screen switches back to the private
// board.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	gid := workspace.URLParam(r, "groupID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	m, err := h.Members.Get(ctx, user.ID, gid)
	if errors.Is(err, membershipstore.ErrNotMember) {
		h.ErrLog.LogNotFound(w, r, "leave group: not a member", err, "You are not a member of this group.", "/groups")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "leave group: read membership", err, "Unable to leave the group.", "/groups")
		return
	}

	if err := h.Joins.Leave(ctx, m.GroupID, user); err != nil {
		h.ErrLog.LogServerError(w, r, "leave group: write", err, "Unable to leave the group.", "/groups")
		return
	}

	v := h.SessionMgr.View(r)
	if v.Mode == models.ViewGroup && v.GroupID == m.GroupID {
		v = models.PrivateView()
		if err := h.SessionMgr.SetView(w, r, v); err != nil {
			h.Log.Warn("leave group: reset view", zap.Error(err))
		}
	}
	h.Log.Info("left group", zap.String("group_id", m.GroupID), zap.String("user_id", user.ID))
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"left": m.GroupID, "view": v})
}
