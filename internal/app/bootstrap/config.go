// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/pragatiboard/pragati/internal/app/system/paths"
	"github.com/pragatiboard/pragati/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for Pragati.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: PRAGATI_MONGO_URI, PRAGATI_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI (a replica set is required for group joins)"},
	{Name: "mongo_database", Default: "pragati", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},

	{Name: "redis_url", Default: "", Desc: "Redis URL for the change relay and shared rate limits (blank disables)"},
	{Name: "redis_channel", Default: "", Desc: "Redis pub/sub channel for change notifications"},
	{Name: "meili_url", Default: "", Desc: "Meilisearch URL for task search (blank disables)"},
	{Name: "meili_api_key", Default: "", Desc: "Meilisearch API key"},

	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "pragati-session", Desc: "Login session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Login session lifetime"},
	{Name: "intent_cookie_name", Default: "pragati-join", Desc: "Pending-join cookie name"},

	{Name: "app_id", Default: paths.DefaultAppID, Desc: "Application id that namespaces stored documents"},
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL for invite links and OAuth callbacks"},

	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts allowed per IP and per email within the window"},
	{Name: "login_rate_window", Default: "1m", Desc: "Login rate limit window"},

	{Name: "timeout_ping", Default: timeouts.DefaultPing.String(), Desc: "Health check timeout"},
	{Name: "timeout_short", Default: timeouts.DefaultShort.String(), Desc: "Single-document store call timeout"},
	{Name: "timeout_medium", Default: timeouts.DefaultMedium.String(), Desc: "Listing and batch timeout"},
	{Name: "timeout_long", Default: timeouts.DefaultLong.String(), Desc: "Multi-collection operation timeout"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// environment variables (WAFFLE_* for core, PRAGATI_* for app) and flags,
// with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PRAGATI", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		RedisURL:     appValues.String("redis_url"),
		RedisChannel: appValues.String("redis_channel"),
		MeiliURL:     appValues.String("meili_url"),
		MeiliAPIKey:  appValues.String("meili_api_key"),

		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),
		IntentCookieName: appValues.String("intent_cookie_name"),

		AppID:   appValues.String("app_id"),
		BaseURL: appValues.String("base_url"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		LoginRateLimit:  appValues.Int("login_rate_limit"),
		LoginRateWindow: appValues.Duration("login_rate_window", time.Minute),

		TimeoutPing:   appValues.Duration("timeout_ping", timeouts.DefaultPing),
		TimeoutShort:  appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutMedium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
		TimeoutLong:   appValues.Duration("timeout_long", timeouts.DefaultLong),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation. It runs before
// any backend is contacted so configuration mistakes fail fast.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database is required")
	}
	if appCfg.SessionKey == "" {
		return fmt.Errorf("session_key is required")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.SessionKey == devSessionKey {
		return fmt.Errorf("session_key must be changed from the development default in production")
	}
	if !urlutil.IsValidAbsHTTPURL(appCfg.BaseURL) {
		return fmt.Errorf("base_url must be an absolute http(s) URL, got %q", appCfg.BaseURL)
	}
	if appCfg.MeiliURL != "" && !urlutil.IsValidAbsHTTPURL(appCfg.MeiliURL) {
		return fmt.Errorf("meili_url must be an absolute http(s) URL, got %q", appCfg.MeiliURL)
	}
	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		logger.Warn("google sign-in needs both google_client_id and google_client_secret; disabling it")
	}
	if appCfg.LoginRateLimit <= 0 {
		return fmt.Errorf("login_rate_limit must be positive")
	}
	return nil
}
