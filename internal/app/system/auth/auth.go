// Package auth keeps the signed-in user, the active board view and the
// pending join intent in cookies.
//
// Two cookie stores are used. The login cookie is persistent (MaxAge from
// config) and carries the user and the active view. The intent cookie has no
// MaxAge, so the browser drops it when the session ends; it only ever holds a
// join requested before sign-in.
package auth

import (
	"context"
	"encoding/gob"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/pragatiboard/pragati/internal/app/system/joins"
	"github.com/pragatiboard/pragati/internal/domain/models"
	"go.uber.org/zap"
)

const (
	isAuthKey  = "is_authenticated"
	userIDKey  = "user_id"
	userEmail  = "user_email"
	viewMode   = "view_mode"
	viewGroup  = "view_group"
	intentKey  = "pending_join"
	oauthState = "oauth_state"

	// DefaultIntentName is the intent cookie name when none is configured.
	DefaultIntentName = "pragati-intent"
)

func init() {
	gob.Register(joins.Intent{})
}

// SessionManager owns both cookie stores.
type SessionManager struct {
	store      *sessions.CookieStore
	intents    *sessions.CookieStore
	name       string
	intentName string
	log        *zap.Logger
}

// NewSessionManager builds the cookie stores. sessionKey signs both cookies;
// secure marks them Secure with SameSite=None (production over HTTPS).
func NewSessionManager(sessionKey, name, intentName, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if intentName == "" {
		intentName = DefaultIntentName
	}

	opts := func(age int) *sessions.Options {
		o := &sessions.Options{
			Domain:   domain,
			Path:     "/",
			MaxAge:   age,
			Secure:   secure,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
		if secure {
			o.SameSite = http.SameSiteNoneMode
		}
		return o
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = opts(int(maxAge.Seconds()))

	intents := sessions.NewCookieStore([]byte(sessionKey))
	intents.Options = opts(0)

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("max_age", maxAge))

	return &SessionManager{
		store:      store,
		intents:    intents,
		name:       name,
		intentName: intentName,
		log:        logger,
	}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the signed-in user and a found flag.
func CurrentUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*models.User)
	return u, ok && u != nil
}

// WithTestUser injects u into the request context, bypassing cookies.
func WithTestUser(r *http.Request, u *models.User) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// LoadSessionUser injects the user into context when the login cookie says
// they are signed in.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := sm.loginSession(r)
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			r = withUser(r, &models.User{
				ID:    getString(sess, userIDKey),
				Email: getString(sess, userEmail),
			})
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context.
// If not signed in:
//   - HTML: 303 redirect to /auth?return=...
//   - API:  401 with a JSON error body.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		if wantsHTML(r) {
			http.Redirect(w, r, "/auth?return="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Sign-in state                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// SignIn marks the browser as signed in as u.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u *models.User) error {
	sess := sm.markSignedIn(r, u)
	return sess.Save(r, w)
}

func (sm *SessionManager) markSignedIn(r *http.Request, u *models.User) *sessions.Session {
	sess := sm.loginSession(r)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userEmail] = u.Email
	return sess
}

// SignOut forgets the user and the remembered view.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess := sm.loginSession(r)
	for _, k := range []string{isAuthKey, userIDKey, userEmail, viewMode, viewGroup, oauthState} {
		delete(sess.Values, k)
	}
	return sess.Save(r, w)
}

// View returns the remembered active view (private by default).
func (sm *SessionManager) View(r *http.Request) models.View {
	sess := sm.loginSession(r)
	v := models.View{
		Mode:    models.ParseViewMode(getString(sess, viewMode)),
		GroupID: getString(sess, viewGroup),
	}
	if v.Mode == models.ViewPrivate {
		v.GroupID = ""
	}
	return v
}

// SetView remembers v as the active view.
func (sm *SessionManager) SetView(w http.ResponseWriter, r *http.Request, v models.View) error {
	sm.setView(r, v)
	sess := sm.loginSession(r)
	return sess.Save(r, w)
}

func (sm *SessionManager) setView(r *http.Request, v models.View) {
	sess := sm.loginSession(r)
	sess.Values[viewMode] = string(v.Mode)
	sess.Values[viewGroup] = v.GroupID
}

// SetOAuthState stores the state parameter of an OAuth round trip.
func (sm *SessionManager) SetOAuthState(w http.ResponseWriter, r *http.Request, state string) error {
	sess := sm.loginSession(r)
	sess.Values[oauthState] = state
	return sess.Save(r, w)
}

// TakeOAuthState returns and clears the stored OAuth state.
func (sm *SessionManager) TakeOAuthState(w http.ResponseWriter, r *http.Request) (string, error) {
	sess := sm.loginSession(r)
	state := getString(sess, oauthState)
	delete(sess.Values, oauthState)
	return state, sess.Save(r, w)
}

// loginSession returns the login cookie's session. A cookie that no longer
// decodes (rotated key, tampering) yields a fresh session.
func (sm *SessionManager) loginSession(r *http.Request) *sessions.Session {
	return sm.get(sm.store, r, sm.name)
}

func (sm *SessionManager) intentSession(r *http.Request) *sessions.Session {
	return sm.get(sm.intents, r, sm.intentName)
}

func (sm *SessionManager) get(store *sessions.CookieStore, r *http.Request, name string) *sessions.Session {
	sess, err := store.Get(r, name)
	if err != nil {
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			sm.log.Debug("session cookie invalid, using fresh session",
				zap.String("cookie", name), zap.Error(err))
		} else {
			sm.log.Warn("session store error, using fresh session",
				zap.String("cookie", name), zap.Error(err))
		}
	}
	return sess
}

// helpers

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
