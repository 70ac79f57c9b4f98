// internal/app/store/memberships/membershipstore.go
package membershipstore

// Terminology: the two sides of a membership
//   - owner-side: users/{uid}/groups/{gid}, the user's index of their groups
//   - group-side: the group's roster entry for the user
// Writes go through joins.Coordinator so both sides change together; this
// store only reads.

import (
	"context"
	"errors"

	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	"github.com/pragatiboard/pragati/internal/app/system/paths"
	"github.com/pragatiboard/pragati/internal/domain/models"
)

// ErrNotMember is returned when the user has no owner-side record for a group.
var ErrNotMember = errors.New("user is not a member of this group")

var errBadAddress = errors.New("membership address cannot be resolved")

type Store struct {
	docs  docstore.Reader
	paths paths.Resolver
}

func New(docs docstore.Reader, r paths.Resolver) *Store {
	return &Store{docs: docs, paths: r}
}

// Get returns the owner-side record of (user, group).
func (s *Store) Get(ctx context.Context, userID, groupID string) (models.GroupMembership, error) {
	d, ok := s.paths.Membership(userID, groupID)
	if !ok {
		return models.GroupMembership{}, errBadAddress
	}
	doc, err := s.docs.Get(ctx, d)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.GroupMembership{}, ErrNotMember
	}
	if err != nil {
		return models.GroupMembership{}, err
	}
	return MembershipFromDocument(doc), nil
}

// ListByUser returns the groups userID belongs to, ordered by group id.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.GroupMembership, error) {
	c, ok := s.paths.UserGroups(userID)
	if !ok {
		return nil, errBadAddress
	}
	docs, err := s.docs.List(ctx, c, docstore.ListOptions{})
	if err != nil {
		return nil, err
	}
	return MembershipsFromDocuments(docs), nil
}

// ListByGroup returns the roster of groupID, ordered by user id.
func (s *Store) ListByGroup(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	c, ok := s.paths.Roster(groupID)
	if !ok {
		return nil, errBadAddress
	}
	docs, err := s.docs.List(ctx, c, docstore.ListOptions{})
	if err != nil {
		return nil, err
	}
	return MembersFromDocuments(docs), nil
}

func MembershipsFromDocuments(docs []docstore.Document) []models.GroupMembership {
	out := make([]models.GroupMembership, 0, len(docs))
	for _, d := range docs {
		out = append(out, MembershipFromDocument(d))
	}
	return out
}

func MembershipFromDocument(doc docstore.Document) models.GroupMembership {
	gid := doc.String("id")
	if gid == "" {
		gid = doc.ID()
	}
	return models.GroupMembership{
		GroupID:  gid,
		Role:     models.Role(doc.String("role")),
		JoinedAt: doc.Time("joined_at"),
	}
}

func MembersFromDocuments(docs []docstore.Document) []models.GroupMember {
	out := make([]models.GroupMember, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.GroupMember{
			UserID: d.ID(),
			Email:  d.String("email"),
			Role:   models.Role(d.String("role")),
		})
	}
	return out
}
