// Package identity is the email/password (and external provider) identity
// provider. Accounts live in the document store; passwords are bcrypt
// hashes.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/waffle/pantry/validate"
	"github.com/google/uuid"
	"github.com/pragatiboard/pragati/internal/app/store/accounts"
	"github.com/pragatiboard/pragati/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen is the shortest password SignUp accepts.
const MinPasswordLen = 6

// Kind classifies authentication failures for user-facing messages.
type Kind string

const (
	KindInvalidEmail       Kind = "invalid-email"
	KindInvalidCredentials Kind = "invalid-credentials"
	KindEmailInUse         Kind = "email-in-use"
	KindWeakPassword       Kind = "weak-password"
	KindFailed             Kind = "failed"
)

// AuthError is the only error type the provider returns.
type AuthError struct {
	Kind Kind
	Err  error
}

// Message is the text shown to the user.
func (e *AuthError) Message() string {
	switch e.Kind {
	case KindInvalidEmail:
		return "Invalid email format."
	case KindInvalidCredentials:
		return "Invalid email or password."
	case KindEmailInUse:
		return "This email is already registered."
	}
	return "Authentication failed. Please try again."
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or KindFailed for anything that is not an
// *AuthError.
func KindOf(err error) Kind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindFailed
}

// Provider signs users up and in.
type Provider struct {
	accounts *accounts.Store
	log      *zap.Logger
	cost     int
}

// New returns a provider backed by the account store.
func New(a *accounts.Store, log *zap.Logger) *Provider {
	return &Provider{accounts: a, log: log, cost: bcrypt.DefaultCost}
}

// WithCost sets the bcrypt cost for new hashes. Tests use bcrypt.MinCost.
func (p *Provider) WithCost(cost int) *Provider {
	p.cost = cost
	return p
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.Contains(email, "/") || !validate.SimpleEmailValid(email) {
		return "", &AuthError{Kind: KindInvalidEmail}
	}
	return email, nil
}

// SignUp registers a new password account and returns its user.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLen {
		return nil, &AuthError{Kind: KindWeakPassword, Err: fmt.Errorf("password shorter than %d characters", MinPasswordLen)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, &AuthError{Kind: KindFailed, Err: fmt.Errorf("hash password: %w", err)}
	}

	acct := models.Account{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Provider:     models.ProviderPassword,
	}
	if err := p.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, accounts.ErrEmailTaken) {
			return nil, &AuthError{Kind: KindEmailInUse, Err: err}
		}
		p.log.Error("create account failed", zap.Error(err))
		return nil, &AuthError{Kind: KindFailed, Err: err}
	}

	p.log.Info("account created", zap.String("uid", acct.UID))
	return &models.User{ID: acct.UID, Email: acct.Email}, nil
}

// SignIn checks a password and returns the account's user.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	acct, err := p.accounts.GetByEmail(ctx, email)
	if errors.Is(err, accounts.ErrNotFound) {
		return nil, &AuthError{Kind: KindInvalidCredentials}
	}
	if err != nil {
		p.log.Error("load account failed", zap.Error(err))
		return nil, &AuthError{Kind: KindFailed, Err: err}
	}
	if acct.PasswordHash == "" {
		// Account created through an external provider.
		return nil, &AuthError{Kind: KindInvalidCredentials}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, &AuthError{Kind: KindInvalidCredentials}
	}
	return &models.User{ID: acct.UID, Email: acct.Email}, nil
}

// SignInExternal signs in a user whose email was verified by an external
// provider, creating the account on first use.
func (p *Provider) SignInExternal(ctx context.Context, email, provider string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	acct, err := p.accounts.GetByEmail(ctx, email)
	if err == nil {
		return &models.User{ID: acct.UID, Email: acct.Email}, nil
	}
	if !errors.Is(err, accounts.ErrNotFound) {
		p.log.Error("load account failed", zap.Error(err))
		return nil, &AuthError{Kind: KindFailed, Err: err}
	}

	acct = models.Account{UID: uuid.NewString(), Email: email, Provider: provider}
	switch err := p.accounts.Create(ctx, acct); {
	case errors.Is(err, accounts.ErrEmailTaken):
		// Lost a race with a concurrent first sign-in; use the winner.
		existing, gerr := p.accounts.GetByEmail(ctx, email)
		if gerr != nil {
			return nil, &AuthError{Kind: KindFailed, Err: gerr}
		}
		return &models.User{ID: existing.UID, Email: existing.Email}, nil
	case err != nil:
		p.log.Error("create external account failed", zap.Error(err))
		return nil, &AuthError{Kind: KindFailed, Err: err}
	}

	p.log.Info("external account created",
		zap.String("uid", acct.UID),
		zap.String("provider", provider))
	return &models.User{ID: acct.UID, Email: acct.Email}, nil
}
