// internal/domain/models/group.go
package models

import "time"

// Role is a user's standing inside a group workspace.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// GroupMembership is the owner-side record kept under the user's namespace:
// the user's personal index of the workspaces they belong to.
// Exactly one per (user, group).
type GroupMembership struct {
	GroupID  string    `json:"id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// GroupMember is the group-side roster record kept under the group's
// namespace. Exactly one per (group, user).
//
// A join is only complete when both a GroupMembership and its paired
// GroupMember exist.
type GroupMember struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}
