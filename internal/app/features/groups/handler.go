// internal/app/features/groups/handler.go
package groups

import (
	"strings"

	uierrors "github.com/pragatiboard/pragati/internal/app/features/errors"
	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	membershipstore "github.com/pragatiboard/pragati/internal/app/store/memberships"
	"github.com/pragatiboard/pragati/internal/app/system/auth"
	"github.com/pragatiboard/pragati/internal/app/system/joins"
	"github.com/pragatiboard/pragati/internal/app/system/paths"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the groups feature:
// creating, leaving and listing group workspaces and their rosters.
type Handler struct {
	SessionMgr *auth.SessionManager
	Docs       docstore.Reader
	Listener   docstore.Listener
	Paths      paths.Resolver
	Members    *membershipstore.Store
	Joins      *joins.Coordinator
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger

	// BaseURL prefixes share links; empty yields site-relative links.
	BaseURL string
}

// Deps groups what NewHandler needs besides the logger.
type Deps struct {
	SessionMgr *auth.SessionManager
	Docs       docstore.Reader
	Listener   docstore.Listener
	Paths      paths.Resolver
	Members    *membershipstore.Store
	Joins      *joins.Coordinator
	ErrLog     *uierrors.ErrorLogger
	BaseURL    string
}

// NewHandler constructs a new groups Handler. It is called from the
// bootstrap BuildHandler function.
func NewHandler(d Deps, logger *zap.Logger) *Handler {
	return &Handler{
		SessionMgr: d.SessionMgr,
		Docs:       d.Docs,
		Listener:   d.Listener,
		Paths:      d.Paths,
		Members:    d.Members,
		Joins:      d.Joins,
		ErrLog:     d.ErrLog,
		Log:        logger,
		BaseURL:    strings.TrimRight(d.BaseURL, "/"),
	}
}

// ShareLink is the invite URL of groupID.
func (h *Handler) ShareLink(groupID string) string {
	return h.BaseURL + "/join/" + paths.EscapeGroupID(groupID)
}
