// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	authgooglefeature "github.com/pragatiboard/pragati/internal/app/features/authgoogle"
	commentsfeature "github.com/pragatiboard/pragati/internal/app/features/comments"
	errorsfeature "github.com/pragatiboard/pragati/internal/app/features/errors"
	groupsfeature "github.com/pragatiboard/pragati/internal/app/features/groups"
	healthfeature "github.com/pragatiboard/pragati/internal/app/features/health"
	invitesfeature "github.com/pragatiboard/pragati/internal/app/features/invites"
	loginfeature "github.com/pragatiboard/pragati/internal/app/features/login"
	logoutfeature "github.com/pragatiboard/pragati/internal/app/features/logout"
	tasksfeature "github.com/pragatiboard/pragati/internal/app/features/tasks"
	viewfeature "github.com/pragatiboard/pragati/internal/app/features/view"
	accountstore "github.com/pragatiboard/pragati/internal/app/store/accounts"
	commentstore "github.com/pragatiboard/pragati/internal/app/store/comments"
	membershipstore "github.com/pragatiboard/pragati/internal/app/store/memberships"
	taskstore "github.com/pragatiboard/pragati/internal/app/store/tasks"
	"github.com/pragatiboard/pragati/internal/app/system/auth"
	"github.com/pragatiboard/pragati/internal/app/system/authutil"
	"github.com/pragatiboard/pragati/internal/app/system/identity"
	"github.com/pragatiboard/pragati/internal/app/system/joins"
	"github.com/pragatiboard/pragati/internal/app/system/paths"
	"github.com/pragatiboard/pragati/internal/app/system/ratelimit"
	"github.com/pragatiboard/pragati/internal/app/system/workspace"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Secure cookies are enabled in
// production mode.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	return buildRouter(appCfg, deps, deps.MongoClient, coreCfg.Env == "prod", logger)
}

func buildRouter(appCfg AppConfig, deps DBDeps, pinger healthfeature.Pinger, secure bool, logger *zap.Logger) (http.Handler, error) {
	sessionMgr, err := auth.NewSessionManager(
		appCfg.SessionKey,
		appCfg.SessionName,
		appCfg.IntentCookieName,
		appCfg.SessionDomain,
		appCfg.SessionMaxAge,
		secure,
		logger,
	)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Stores and services shared by the features.
	resolver := paths.New(appCfg.AppID)
	members := membershipstore.New(deps.Docs, resolver)
	tasks := taskstore.New(deps.Docs)
	comments := commentstore.New(deps.Docs)
	coordinator := joins.NewCoordinator(deps.Docs, resolver, logger)
	flow := joins.NewFlow(coordinator, logger)
	id := identity.New(accountstore.New(deps.Docs, resolver), logger)
	completer := authutil.NewCompleter(sessionMgr, flow, logger)
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	// Global auth middleware: loads the user into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	var searchStatus healthfeature.SearchStatus
	if deps.Meili != nil {
		searchStatus = deps.Meili
	}
	healthHandler := healthfeature.NewHandler(pinger, searchStatus, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		if _, ok := auth.CurrentUser(req); ok {
			http.Redirect(w, req, "/board", http.StatusSeeOther)
			return
		}
		http.Redirect(w, req, "/auth", http.StatusSeeOther)
	})

	// Authentication
	loginHandler := loginfeature.NewHandler(id, completer, loginLimiter(appCfg, deps, logger), errLog, appCfg.GoogleEnabled(), logger)
	authRouter := loginfeature.Routes(loginHandler)
	if appCfg.GoogleEnabled() {
		googleHandler := authgooglefeature.NewHandler(id, completer, sessionMgr,
			appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
		authRouter.Mount("/google", authgooglefeature.Routes(googleHandler))
	}
	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	authRouter.Mount("/logout", logoutfeature.Routes(logoutHandler))
	r.Mount("/auth", authRouter)

	// Invite links work signed in or not.
	invitesHandler := invitesfeature.NewHandler(sessionMgr, flow, errLog, logger)
	r.Mount("/join", invitesfeature.Routes(invitesHandler))

	// Everything else needs a user and a resolved workspace.
	r.Group(func(pr chi.Router) {
		pr.Use(sessionMgr.RequireSignedIn)
		pr.Use(workspace.Middleware(sessionMgr, resolver, members, logger))

		viewHandler := viewfeature.NewHandler(sessionMgr, resolver, members, errLog, logger)
		pr.Mount("/view", viewfeature.Routes(viewHandler))

		groupsHandler := groupsfeature.NewHandler(groupsfeature.Deps{
			SessionMgr: sessionMgr,
			Docs:       deps.Docs,
			Listener:   deps.Changes,
			Paths:      resolver,
			Members:    members,
			Joins:      coordinator,
			ErrLog:     errLog,
			BaseURL:    appCfg.BaseURL,
		}, logger)
		pr.Mount("/groups", groupsfeature.Routes(groupsHandler))

		tasksHandler := tasksfeature.NewHandler(tasks, deps.Docs, deps.Changes, deps.Search, errLog, logger)
		commentsHandler := commentsfeature.NewHandler(comments, tasks, deps.Docs, deps.Changes, errLog, logger)
		pr.Mount("/board", tasksfeature.BoardRoutes(tasksHandler))
		pr.Mount("/tasks", tasksfeature.Routes(tasksHandler, commentsfeature.Routes(commentsHandler)))
	})

	return r, nil
}

// loginLimiter counts attempts in Redis when it is connected, so every
// instance shares the limit, and in memory otherwise.
func loginLimiter(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *ratelimit.LoginLimiter {
	if deps.Redis != nil {
		return ratelimit.NewLoginLimiter(
			ratelimit.NewRedis(deps.Redis, "pragati:rl:ip:", appCfg.LoginRateLimit, appCfg.LoginRateWindow, logger),
			ratelimit.NewRedis(deps.Redis, "pragati:rl:email:", appCfg.LoginRateLimit, appCfg.LoginRateWindow, logger),
		)
	}
	return ratelimit.NewLoginLimiter(
		ratelimit.New(appCfg.LoginRateLimit, appCfg.LoginRateWindow),
		ratelimit.New(appCfg.LoginRateLimit, appCfg.LoginRateWindow),
	)
}
