// Package joins adds users to group workspaces.
//
// A membership is two records: the owner-side entry under the user's own
// namespace and the group-side roster entry under the group. They are always
// written, and removed, together in one atomic batch.
package joins

import (
	"context"
	"fmt"

	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	"github.com/pragatiboard/pragati/internal/app/system/paths"
	"github.com/pragatiboard/pragati/internal/domain/models"
	"go.uber.org/zap"
)

// ValidationError is returned before any write when the input is unusable.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid join: " + e.Reason }

// WriteError is returned when the backend rejected the batch. Neither record
// was written.
type WriteError struct {
	GroupID string
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("join group %q: %v", e.GroupID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Coordinator writes membership record pairs.
type Coordinator struct {
	docs  docstore.Writer
	paths paths.Resolver
	log   *zap.Logger
}

// NewCoordinator returns a coordinator writing through docs.
func NewCoordinator(docs docstore.Writer, r paths.Resolver, log *zap.Logger) *Coordinator {
	return &Coordinator{docs: docs, paths: r, log: log}
}

// Join makes user a member of groupID. Repeating a join rewrites the same
// two records.
func (c *Coordinator) Join(ctx context.Context, groupID string, user *models.User) error {
	return c.commitPair(ctx, groupID, user, models.RoleMember)
}

// Create makes user the owner of a new group workspace.
func (c *Coordinator) Create(ctx context.Context, groupID string, user *models.User) error {
	return c.commitPair(ctx, groupID, user, models.RoleOwner)
}

// Leave removes both membership records of user in groupID. Group tasks are
// left in place for the remaining members.
func (c *Coordinator) Leave(ctx context.Context, groupID string, user *models.User) error {
	gid, mine, roster, err := c.addresses(groupID, user, false)
	if err != nil {
		return err
	}
	b := docstore.NewBatch().Delete(mine).Delete(roster)
	if err := c.docs.Commit(ctx, b); err != nil {
		c.log.Error("leave group batch failed",
			zap.String("group_id", gid),
			zap.String("user_id", user.ID),
			zap.Error(err))
		return &WriteError{GroupID: gid, Err: err}
	}
	return nil
}

func (c *Coordinator) commitPair(ctx context.Context, groupID string, user *models.User, role models.Role) error {
	gid, mine, roster, err := c.addresses(groupID, user, true)
	if err != nil {
		return err
	}

	b := docstore.NewBatch().
		Upsert(mine, docstore.Fields{
			"id":        gid,
			"role":      string(role),
			"joined_at": docstore.ServerTimestamp,
		}).
		Upsert(roster, docstore.Fields{
			"email": user.Email,
			"role":  string(role),
		})

	if err := c.docs.Commit(ctx, b); err != nil {
		c.log.Error("membership batch failed",
			zap.String("group_id", gid),
			zap.String("user_id", user.ID),
			zap.String("role", string(role)),
			zap.Error(err))
		return &WriteError{GroupID: gid, Err: err}
	}
	c.log.Info("membership written",
		zap.String("group_id", gid),
		zap.String("user_id", user.ID),
		zap.String("role", string(role)))
	return nil
}

func (c *Coordinator) addresses(groupID string, user *models.User, needEmail bool) (string, docstore.Doc, docstore.Doc, error) {
	gid, ok := paths.NormalizeGroupID(groupID)
	if !ok {
		return "", "", "", &ValidationError{Reason: "group id is required"}
	}
	if user == nil || user.ID == "" {
		return "", "", "", &ValidationError{Reason: "user is not signed in"}
	}
	if needEmail && user.Email == "" {
		return "", "", "", &ValidationError{Reason: "user has no email"}
	}
	mine, ok := c.paths.Membership(user.ID, gid)
	if !ok {
		return "", "", "", &ValidationError{Reason: "user id is not addressable"}
	}
	roster, ok := c.paths.RosterEntry(gid, user.ID)
	if !ok {
		return "", "", "", &ValidationError{Reason: "user id is not addressable"}
	}
	return gid, mine, roster, nil
}
