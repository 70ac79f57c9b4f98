// Package paths maps (user, view, group) to document store addresses.
//
// Every function here is pure: the same inputs always give the same address,
// and no input makes it panic. An unresolvable request yields ok == false,
// never a partial path.
package paths

import (
	"net/url"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	"github.com/pragatiboard/pragati/internal/domain/models"
)

// DefaultAppID namespaces data when no app id is configured.
const DefaultAppID = "default-app-id"

// Resolver builds addresses under one application namespace.
type Resolver struct {
	AppID string
}

// New returns a resolver for appID (DefaultAppID when blank).
func New(appID string) Resolver {
	appID = strings.TrimSpace(appID)
	if appID == "" || strings.Contains(appID, "/") {
		appID = DefaultAppID
	}
	return Resolver{AppID: appID}
}

// NormalizeGroupID trims surrounding whitespace. ok is false for a blank id
// or one that would escape its path segment.
func NormalizeGroupID(groupID string) (string, bool) {
	gid := strings.TrimSpace(groupID)
	if !validSegment(gid) {
		return "", false
	}
	return gid, true
}

// EscapeGroupID encodes groupID as a single URL path segment, so ids holding
// '#', '?' or '%' survive an invite link.
func EscapeGroupID(groupID string) string {
	return url.PathEscape(groupID)
}

func validSegment(s string) bool {
	return s != "" && !strings.Contains(s, "/")
}

func (r Resolver) appID() string {
	if r.AppID == "" {
		return DefaultAppID
	}
	return r.AppID
}

func (r Resolver) base() string {
	return "artifacts/" + r.appID()
}

// TaskCollection returns the task collection for the given context:
//   - private mode: the user's personal collection (groupID ignored);
//   - group mode with a non-blank group id: the shared group collection;
//   - anything else, or an empty userID: none.
func (r Resolver) TaskCollection(userID string, mode models.ViewMode, groupID string) (docstore.Collection, bool) {
	if !validSegment(userID) {
		return "", false
	}
	switch mode {
	case models.ViewPrivate:
		return docstore.Collection(r.base() + "/users/" + userID + "/tasks"), true
	case models.ViewGroup:
		gid, ok := NormalizeGroupID(groupID)
		if !ok {
			return "", false
		}
		return docstore.Collection(r.base() + "/public/data/groups/" + gid + "/tasks"), true
	}
	return "", false
}

// CommentCollection returns the comment collection of one task, or none when
// the task id is blank or the task collection cannot be resolved.
func (r Resolver) CommentCollection(userID string, mode models.ViewMode, groupID, taskID string) (docstore.Collection, bool) {
	if !validSegment(strings.TrimSpace(taskID)) {
		return "", false
	}
	tc, ok := r.TaskCollection(userID, mode, groupID)
	if !ok {
		return "", false
	}
	return tc.Doc(strings.TrimSpace(taskID)).Collection("comments"), true
}

// Task addresses one task document.
func (r Resolver) Task(userID string, mode models.ViewMode, groupID, taskID string) (docstore.Doc, bool) {
	taskID = strings.TrimSpace(taskID)
	if !validSegment(taskID) {
		return "", false
	}
	tc, ok := r.TaskCollection(userID, mode, groupID)
	if !ok {
		return "", false
	}
	return tc.Doc(taskID), true
}

// UserGroups is the owner-side index of a user's groups.
func (r Resolver) UserGroups(userID string) (docstore.Collection, bool) {
	if !validSegment(userID) {
		return "", false
	}
	return docstore.Collection("users/" + userID + "/groups"), true
}

// Membership is the owner-side membership record of (user, group).
func (r Resolver) Membership(userID, groupID string) (docstore.Doc, bool) {
	gid, ok := NormalizeGroupID(groupID)
	if !ok {
		return "", false
	}
	c, ok := r.UserGroups(userID)
	if !ok {
		return "", false
	}
	return c.Doc(gid), true
}

// Roster is the group-side member collection of a group.
func (r Resolver) Roster(groupID string) (docstore.Collection, bool) {
	gid, ok := NormalizeGroupID(groupID)
	if !ok {
		return "", false
	}
	return docstore.Collection(r.base() + "/public/data/groups/" + gid + "/members"), true
}

// RosterEntry is the group-side member record of (group, user).
func (r Resolver) RosterEntry(groupID, userID string) (docstore.Doc, bool) {
	if !validSegment(userID) {
		return "", false
	}
	c, ok := r.Roster(groupID)
	if !ok {
		return "", false
	}
	return c.Doc(userID), true
}

// Accounts is the identity provider's account collection.
func (r Resolver) Accounts() docstore.Collection {
	return "accounts"
}

// Account addresses the account of an email, keyed case-insensitively.
func (r Resolver) Account(email string) (docstore.Doc, bool) {
	key := text.Fold(strings.TrimSpace(email))
	if !validSegment(key) {
		return "", false
	}
	return r.Accounts().Doc(key), true
}
