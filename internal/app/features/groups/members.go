// internal/app/features/groups/members.go
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
)

type rosterData struct {
	GroupID string               `json:"group_id"`
	Members []models.GroupMember `json:"members"`
}

// requireMember answers 403 and returns false unless the signed-in user
// belongs to the group in the URL.
func (h *Handler) requireMember(w http.ResponseWriter, r *http.Request) (models.GroupMembership, bool) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Members.Get(ctx, user.ID, workspace.URLParam(r, "groupID"))
	switch {
	case errors.Is(err, membershipstore.ErrNotMember):
		h.ErrLog.LogForbidden(w, r, "roster: not a member", err, "You are not a member of this group.", "/groups")
		return m, false
	case err != nil:
		h.ErrLog.LogServerError(w, r, "roster: read membership", err, "Unable to load the group.", "/groups")
		return m, false
	}
	return m, true
}

// ServeMembers handles GET /groups/{groupID}/members.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	m, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	roster, err := h.Members.ListByGroup(ctx, m.GroupID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "roster: list", err, "Unable to load the group.", "/groups")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, rosterData{GroupID: m.GroupID, Members: roster})
}
