// internal/app/store/accounts/accountstore.go
package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	"github.com/pragatiboard/pragati/internal/app/system/paths"
	"github.com/pragatiboard/pragati/internal/domain/models"
)

var (
	// ErrNotFound is returned when no account uses the email.
	ErrNotFound = errors.New("account not found")
	// ErrEmailTaken is returned by Create when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrBadEmail is returned when the email cannot be used as a key.
	ErrBadEmail = errors.New("email cannot be addressed")
)

// Store keeps identity provider accounts, one document per folded email.
type Store struct {
	docs  docstore.Store
	paths paths.Resolver
}

// New returns an account store on docs.
func New(docs docstore.Store, r paths.Resolver) *Store {
	return &Store{docs: docs, paths: r}
}

// GetByEmail loads the account registered for email (case-insensitive).
func (s *Store) GetByEmail(ctx context.Context, email string) (models.Account, error) {
	d, ok := s.paths.Account(email)
	if !ok {
		return models.Account{}, ErrBadEmail
	}
	doc, err := s.docs.Get(ctx, d)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.Account{}, ErrNotFound
	}
	if err != nil {
		return models.Account{}, err
	}
	return fromDocument(doc), nil
}

// Create registers a. CreatedAt is assigned by the store.
func (s *Store) Create(ctx context.Context, a models.Account) error {
	d, ok := s.paths.Account(a.Email)
	if !ok {
		return ErrBadEmail
	}
	err := s.docs.Create(ctx, d, docstore.Fields{
		"uid":           a.UID,
		"email":         strings.TrimSpace(a.Email),
		"password_hash": a.PasswordHash,
		"provider":      a.Provider,
		"created_at":    docstore.ServerTimestamp,
	})
	if errors.Is(err, docstore.ErrExists) {
		return ErrEmailTaken
	}
	return err
}

func fromDocument(doc docstore.Document) models.Account {
	return models.Account{
		UID:          doc.String("uid"),
		Email:        doc.String("email"),
		PasswordHash: doc.String("password_hash"),
		Provider:     doc.String("provider"),
		CreatedAt:    doc.Time("created_at"),
	}
}
