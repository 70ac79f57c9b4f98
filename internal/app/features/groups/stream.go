// internal/app/features/groups/stream.go
package groups

import (
	"net/http"

	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	membershipstore "github.com/pragatiboard/pragati/internal/app/store/memberships"
	"github.com/pragatiboard/pragati/internal/app/system/auth"
	"github.com/pragatiboard/pragati/internal/app/system/sse"
)

// ServeListStream handles GET /groups/stream: the group list, re-sent
// whenever the user joins or leaves a group.
func (h *Handler) ServeListStream(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	c, ok := h.Paths.UserGroups(user.ID)
	if !ok {
		h.ErrLog.LogServerError(w, r, "groups stream: no address", nil, "Unable to load your groups.", "/board")
		return
	}
	v := h.SessionMgr.View(r)
	sub := docstore.Subscribe(r.Context(), h.Docs, h.Listener, c, docstore.ListOptions{})
	sse.Stream(w, r, sub, func(s docstore.Snapshot) any {
		return h.listData(membershipstore.MembershipsFromDocuments(s.Docs), v)
	}, h.Log)
}

// ServeMembersStream handles GET /groups/{groupID}/members/stream.
func (h *Handler) ServeMembersStream(w http.ResponseWriter, r *http.Request) {
	m, ok := h.requireMember(w, r)
	if !ok {
		return
	}
	c, ok := h.Paths.Roster(m.GroupID)
	if !ok {
		h.ErrLog.LogServerError(w, r, "roster stream: no address", nil, "Unable to load the group.", "/groups")
		return
	}
	sub := docstore.Subscribe(r.Context(), h.Docs, h.Listener, c, docstore.ListOptions{})
	sse.Stream(w, r, sub, func(s docstore.Snapshot) any {
		return rosterData{GroupID: m.GroupID, Members: membershipstore.MembersFromDocuments(s.Docs)}
	}, h.Log)
}
