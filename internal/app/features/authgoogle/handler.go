// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pragatiboard/pragati/internal/app/system/auth"
	"github.com/pragatiboard/pragati/internal/app/system/authutil"
	"github.com/pragatiboard/pragati/internal/app/system/identity"
	"github.com/pragatiboard/pragati/internal/app/system/timeouts"
	"github.com/pragatiboard/pragati/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultUserInfoURL is Google's userinfo endpoint.
const DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Handler handles Google OAuth authentication.
type Handler struct {
	Identity   *identity.Provider
	Completer  *authutil.Completer
	SessionMgr *auth.SessionManager
	Log        *zap.Logger

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://pragati.example.com/auth/google/callback"

	// Endpoint and UserInfoURL default to Google's; tests point them at a
	// local server.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	id *identity.Provider,
	comp *authutil.Completer,
	sessionMgr *auth.SessionManager,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Identity:     id,
		Completer:    comp,
		SessionMgr:   sessionMgr,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		Endpoint:     google.Endpoint,
		UserInfoURL:  DefaultUserInfoURL,
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Initiates the Google OAuth flow by redirecting to Google's consent screen.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		redirectToAuth(w, r, "google_not_configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		redirectToAuth(w, r, "internal")
		return
	}
	if err := h.SessionMgr.SetOAuthState(w, r, state); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		redirectToAuth(w, r, "internal")
		return
	}

	http.Redirect(w, r, h.oauth2Config().AuthCodeURL(state), http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Exchanges the code, signs the user in and resumes any pending join.          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", q.Get("error_description")))
		h.fail(w, r, "google_denied")
		return
	}

	stored, err := h.SessionMgr.TakeOAuthState(w, r)
	if err != nil {
		h.Log.Warn("failed to clear OAuth state", zap.Error(err))
	}
	state := q.Get("state")
	if state == "" || stored == "" || subtle.ConstantTimeCompare([]byte(state), []byte(stored)) != 1 {
		h.Log.Warn("invalid or missing OAuth state")
		h.fail(w, r, "invalid_state")
		return
	}

	code := q.Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		h.fail(w, r, "invalid_code")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.fail(w, r, "token_exchange")
		return
	}

	info, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.fail(w, r, "user_info")
		return
	}
	if !info.EmailVerified {
		h.Log.Info("Google account email not verified")
		h.fail(w, r, "email_unverified")
		return
	}

	user, err := h.Identity.SignInExternal(ctx, info.Email, models.ProviderGoogle)
	if err != nil {
		h.Log.Warn("Google sign-in rejected", zap.Error(err))
		h.fail(w, r, string(identity.KindOf(err)))
		return
	}

	done, err := h.Completer.Complete(ctx, w, r, user)
	if err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", user.ID))
		redirectToAuth(w, r, "session")
		return
	}

	dest := "/board"
	if done.Join != nil && done.Join.Error != "" {
		dest += "?join_error=" + url.QueryEscape(done.Join.Error)
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// googleUserInfo is the part of Google's userinfo response the app uses.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

// fail keeps any pending join for the next attempt and returns to /auth.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, code string) {
	h.Completer.Failed(w, r)
	redirectToAuth(w, r, code)
}

func redirectToAuth(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/auth?error="+url.QueryEscape(code), http.StatusSeeOther)
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
