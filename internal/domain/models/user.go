// internal/domain/models/user.go
package models

import "time"

// User is an authenticated identity as seen by the rest of the app.
// ID is the stable account uid; Email is what the user signed in with.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// DisplayName returns the author string stored on comments: the email when
// known, otherwise a short uid-derived label.
func (u User) DisplayName() string {
	if u.Email != "" {
		return u.Email
	}
	id := u.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return "User " + id
}

// Account is the identity provider's record for a user.
//
// NOTE:
//   - Accounts are keyed by the folded email so lookups are case-insensitive.
//   - PasswordHash is empty for accounts created through an external provider.
type Account struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Provider     string    `json:"provider"` // "password" | "google"
	CreatedAt    time.Time `json:"created_at"`
}

// Auth providers recorded on Account.Provider.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)
