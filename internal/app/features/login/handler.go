// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	uierrors "github.com/pragatiboard/pragati/internal/app/features/errors"
	"github.com/pragatiboard/pragati/internal/app/system/authutil"
	"github.com/pragatiboard/pragati/internal/app/system/identity"
	"github.com/pragatiboard/pragati/internal/app/system/ratelimit"
	"github.com/pragatiboard/pragati/internal/app/system/timeouts"
	"github.com/pragatiboard/pragati/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves the email/password sign-in screen.
type Handler struct {
	Identity      *identity.Provider
	Completer     *authutil.Completer
	Limiter       *ratelimit.LoginLimiter // nil disables rate limiting
	ErrLog        *uierrors.ErrorLogger
	Log           *zap.Logger
	GoogleEnabled bool
}

// NewHandler constructs a login Handler.
func NewHandler(id *identity.Provider, comp *authutil.Completer, limiter *ratelimit.LoginLimiter, errLog *uierrors.ErrorLogger, googleEnabled bool, logger *zap.Logger) *Handler {
	return &Handler{
		Identity:      id,
		Completer:     comp,
		Limiter:       limiter,
		ErrLog:        errLog,
		Log:           logger,
		GoogleEnabled: googleEnabled,
	}
}

type authScreen struct {
	State         string `json:"state"`
	PendingGroup  string `json:"pending_group,omitempty"`
	GoogleEnabled bool   `json:"google_enabled"`
	Return        string `json:"return"`
}

// ServeAuth handles GET /auth. It reports whether a join is waiting on this
// sign-in.
func (h *Handler) ServeAuth(w http.ResponseWriter, r *http.Request) {
	st, gid := h.Completer.Begin(w, r)
	uierrors.WriteJSON(w, http.StatusOK, authScreen{
		State:         st.String(),
		PendingGroup:  gid,
		GoogleEnabled: h.GoogleEnabled,
		Return:        urlutil.SafeReturn(query.Get(r, "return"), "", "/board"),
	})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Return   string `json:"return"`
}

func readCredentials(r *http.Request) (credentials, error) {
	var c credentials
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			return c, err
		}
		return c, nil
	}
	if err := r.ParseForm(); err != nil {
		return c, err
	}
	c.Email = r.PostFormValue("email")
	c.Password = r.PostFormValue("password")
	c.Return = r.PostFormValue("return")
	return c, nil
}

type signedIn struct {
	authutil.Completion
	Redirect string `json:"redirect"`
}

type authFailure struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	State string `json:"state"`
}

// HandleSignUp handles POST /auth/signup.
func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, "sign-up", h.Identity.SignUp)
}

// HandleSignIn handles POST /auth/login.
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, "sign-in", h.Identity.SignIn)
}

type authFunc func(ctx context.Context, email, password string) (*models.User, error)

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request, action string, do authFunc) {
	creds, err := readCredentials(r)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, action+": unreadable body", err, "Invalid request.", "/auth")
		return
	}

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, creds.Email); !ok {
			h.ErrLog.LogTooManyRequests(w, r, action+": rate limited", msg)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := do(ctx, creds.Email, creds.Password)
	if err != nil {
		kind := identity.KindOf(err)
		msg := "Authentication failed. Please try again."
		var ae *identity.AuthError
		if errors.As(err, &ae) {
			msg = ae.Message()
		}
		if kind == identity.KindFailed {
			h.Log.Error(action+" failed", zap.Error(err))
		} else {
			h.Log.Info(action+" rejected", zap.String("kind", string(kind)))
		}
		st := h.Completer.Failed(w, r)
		status := http.StatusUnauthorized
		switch kind {
		case identity.KindInvalidEmail, identity.KindWeakPassword:
			status = http.StatusBadRequest
		case identity.KindEmailInUse:
			status = http.StatusConflict
		case identity.KindFailed:
			status = http.StatusInternalServerError
		}
		uierrors.WriteJSON(w, status, authFailure{Error: msg, Kind: string(kind), State: st.String()})
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(ctx, creds.Email)
	}

	done, err := h.Completer.Complete(ctx, w, r, user)
	if err != nil {
		h.ErrLog.LogServerError(w, r, action+": save session failed", err, "", "/auth")
		return
	}

	redirect := urlutil.SafeReturn(creds.Return, "", "/board")
	if done.Join != nil && done.Join.Error == "" {
		redirect = "/board"
	}
	uierrors.WriteJSON(w, http.StatusOK, signedIn{Completion: done, Redirect: redirect})
}
