// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS); everything specific
// to the board lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Optional backends. Blank disables them.
	RedisURL     string // change relay between instances and shared rate limits
	RedisChannel string // pub/sub channel of the change relay
	MeiliURL     string // task search index
	MeiliAPIKey  string

	// Session management configuration
	SessionKey       string        // Secret key for signing session cookies (must be strong in production)
	SessionName      string        // Cookie name of the login session
	SessionDomain    string        // Cookie domain (blank means current host)
	SessionMaxAge    time.Duration // Lifetime of the login session and remembered view
	IntentCookieName string        // Cookie name of the pending-join intent

	// AppID namespaces every document path.
	AppID string

	// BaseURL prefixes invite links and the OAuth callback.
	BaseURL string

	// Google OAuth; sign-in with Google is offered only when both are set.
	GoogleClientID     string
	GoogleClientSecret string

	// Login attempts allowed per client IP (and per email) within the window.
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Store call timeouts.
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c AppConfig) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
