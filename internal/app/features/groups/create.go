// internal/app/features/groups/create.go
package groups

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/pragatiboard/pragati/internal/app/features/errors"
	"github.com/pragatiboard/pragati/internal/app/system/auth"
	"github.com/pragatiboard/pragati/internal/app/system/joins"
	"github.com/pragatiboard/pragati/internal/app/system/paths"
	"github.com/pragatiboard/pragati/internal/app/system/timeouts"
	"github.com/pragatiboard/pragati/internal/domain/models"
	"go.uber.org/zap"
)

type createRequest struct {
	GroupID string `json:"group_id"`
}

type created struct {
	GroupID   string      `json:"group_id"`
	Role      models.Role `json:"role"`
	ShareLink string      `json:"share_link"`
}

// HandleCreate handles POST /groups. The caller becomes the owner and the
// board switches to the new group. A group id that already has a roster is
// refused.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	var in createRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			h.ErrLog.LogBadRequest(w, r, "create group: unreadable body", err, "Invalid request.", "/groups")
			return
		}
	} else {
		in.GroupID = r.PostFormValue("group_id")
	}

	gid, ok := paths.NormalizeGroupID(in.GroupID)
	if !ok {
		h.ErrLog.LogBadRequest(w, r, "create group: bad id", nil, "Enter a group name without slashes.", "/groups")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	roster, err := h.Members.ListByGroup(ctx, gid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create group: read roster", err, "Unable to create the group.", "/groups")
		return
	}
	if len(roster) > 0 {
		h.Log.Info("create group: id taken", zap.String("group_id", gid), zap.String("user_id", user.ID))
		uierrors.WriteJSON(w, http.StatusConflict, uierrors.Body{
			Error: "A group with this name already exists. Ask a member for the invite link.",
			Back:  "/groups",
		})
		return
	}

	if err := h.Joins.Create(ctx, gid, user); err != nil {
		var ve *joins.ValidationError
		if errors.As(err, &ve) {
			h.ErrLog.LogBadRequest(w, r, "create group: invalid", err, "Error: "+ve.Reason, "/groups")
			return
		}
		h.ErrLog.LogServerError(w, r, "create group: write", err, "Unable to create the group.", "/groups")
		return
	}

	if err := h.SessionMgr.SetView(w, r, models.View{Mode: models.ViewGroup, GroupID: gid}); err != nil {
		h.Log.Warn("create group: save view", zap.Error(err))
	}
	uierrors.WriteJSON(w, http.StatusCreated, created{
		GroupID:   gid,
		Role:      models.RoleOwner,
		ShareLink: h.ShareLink(gid),
	})
}
