// internal/app/features/groups/list.go
package groups

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/pragatiboard/pragati/internal/app/features/errors"
	"github.com/pragatiboard/pragati/internal/app/system/auth"
	"github.com/pragatiboard/pragati/internal/app/system/timeouts"
	"github.com/pragatiboard/pragati/internal/domain/models"
)

type groupItem struct {
	ID        string      `json:"id"`
	Role      models.Role `json:"role"`
	JoinedAt  time.Time   `json:"joined_at"`
	ShareLink string      `json:"share_link"`
	Active    bool        `json:"active"`
}

type listData struct {
	Groups []groupItem `json:"groups"`
	View   models.View `json:"view"`
}

func (h *Handler) listData(ms []models.GroupMembership, v models.View) listData {
	items := make([]groupItem, 0, len(ms))
	for _, m := range ms {
		items = append(items, groupItem{
			ID:        m.GroupID,
			Role:      m.Role,
			JoinedAt:  m.JoinedAt,
			ShareLink: h.ShareLink(m.GroupID),
			Active:    v.Mode == models.ViewGroup && v.GroupID == m.GroupID,
		})
	}
	return listData{Groups: items, View: v}
}

// ServeList handles GET /groups: the groups the signed-in user belongs to.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ms, err := h.Members.ListByUser(ctx, user.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list groups failed", err, "Unable to load your groups.", "/board")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, h.listData(ms, h.SessionMgr.View(r)))
}
