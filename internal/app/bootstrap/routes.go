// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"
	"time"

	auditlogfeature "github.com/Saravanans7/PlaceMate/internal/app/features/auditlog"
	authgooglefeature "github.com/Saravanans7/PlaceMate/internal/app/features/authgoogle"
	blacklistfeature "github.com/Saravanans7/PlaceMate/internal/app/features/blacklist"
	chatbotfeature "github.com/Saravanans7/PlaceMate/internal/app/features/chatbot"
	companiesfeature "github.com/Saravanans7/PlaceMate/internal/app/features/companies"
	drivesfeature "github.com/Saravanans7/PlaceMate/internal/app/features/drives"
	errorsfeature "github.com/Saravanans7/PlaceMate/internal/app/features/errors"
	experiencesfeature "github.com/Saravanans7/PlaceMate/internal/app/features/experiences"
	healthfeature "github.com/Saravanans7/PlaceMate/internal/app/features/health"
	loginfeature "github.com/Saravanans7/PlaceMate/internal/app/features/login"
	logoutfeature "github.com/Saravanans7/PlaceMate/internal/app/features/logout"
	profilefeature "github.com/Saravanans7/PlaceMate/internal/app/features/profile"
	registrationsfeature "github.com/Saravanans7/PlaceMate/internal/app/features/registrations"
	studentsfeature "github.com/Saravanans7/PlaceMate/internal/app/features/students"
	userinfofeature "github.com/Saravanans7/PlaceMate/internal/app/features/userinfo"
	"github.com/Saravanans7/PlaceMate/internal/app/store/oauthstate"
	userstore "github.com/Saravanans7/PlaceMate/internal/app/store/users"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// PlaceMate builds the session manager (cookie sessions plus bearer tokens),
// applies it globally, and mounts every feature router under /api.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	tokens, err := auth.NewTokenIssuer(appCfg.JWTSecret, appCfg.JWTTTL)
	if err != nil {
		logger.Error("token issuer init failed", zap.Error(err))
		return nil, err
	}
	sessionMgr.SetTokenIssuer(tokens)

	// Resolve the user on each request so role changes and deleted
	// accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	return newRouter(appCfg, deps, sessionMgr, logger), nil
}

// newRouter mounts the feature routers. Split from BuildHandler so tests
// can supply their own session manager.
func newRouter(appCfg AppConfig, deps DBDeps, sessionMgr *auth.SessionManager, logger *zap.Logger) chi.Router {
	db := deps.MongoDatabase
	rt := deps.Runtime

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(appCfg.FrontendURL),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           int((12 * time.Hour).Seconds()),
	}))

	// Global auth middleware: loads the SessionUser from a bearer token or
	// the session cookie. Anonymous requests pass through.
	r.Use(sessionMgr.LoadSessionUser)

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, rt.Clock, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Route("/api", func(api chi.Router) {
		// Authentication
		loginHandler := loginfeature.NewHandler(db, sessionMgr, rt.Audit, rt.Limiter, logger)
		api.Mount("/auth/login", loginfeature.Routes(loginHandler))
		api.Mount("/auth/register", loginfeature.RegisterRoutes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, rt.Audit, logger)
		api.Mount("/auth/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

		userinfoHandler := userinfofeature.NewHandler(db, logger)
		api.Mount("/auth/me", userinfofeature.Routes(userinfoHandler))

		googleHandler := authgooglefeature.NewHandler(db, sessionMgr, rt.Audit, oauthstate.New(db),
			appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, appCfg.FrontendURL, logger)
		api.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

		// Students' own profile, and staff student management
		profileHandler := profilefeature.NewHandler(db, logger)
		api.Mount("/users/me", profilefeature.Routes(profileHandler, sessionMgr))

		studentsHandler := studentsfeature.NewHandler(db, rt.Placement, rt.Audit, logger)
		api.Mount("/users/students", studentsfeature.Routes(studentsHandler, sessionMgr))
		api.Mount("/stats", studentsfeature.StatsRoutes(studentsHandler, sessionMgr))

		// Placement workflow
		companiesHandler := companiesfeature.NewHandler(db, rt.Audit, logger)
		api.Mount("/companies", companiesfeature.Routes(companiesHandler, sessionMgr))

		registrationsHandler := registrationsfeature.NewHandler(db, rt.Placement, rt.Audit, logger)
		api.Mount("/registrations", registrationsfeature.Routes(registrationsHandler, sessionMgr))

		drivesHandler := drivesfeature.NewHandler(db, rt.Placement, rt.Audit, logger)
		api.Mount("/drives", drivesfeature.Routes(drivesHandler, sessionMgr))

		blacklistHandler := blacklistfeature.NewHandler(db, rt.Audit, logger)
		api.Mount("/blacklist", blacklistfeature.Routes(blacklistHandler, sessionMgr))

		// Interview experiences and the assistant built on them
		experiencesHandler := experiencesfeature.NewHandler(db, rt.Placement, rt.Audit, logger)
		api.Mount("/experiences", experiencesfeature.Routes(experiencesHandler, sessionMgr))

		chatbotHandler := chatbotfeature.NewHandler(db, chatbotfeature.Config{
			APIKey:  appCfg.ChatbotAPIKey,
			BaseURL: appCfg.ChatbotBaseURL,
			Model:   appCfg.ChatbotModel,
		}, logger)
		api.Mount("/chatbot", chatbotfeature.Routes(chatbotHandler, sessionMgr))

		auditHandler := auditlogfeature.NewHandler(db, rt.Clock, logger)
		api.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))
	})

	return r
}

// allowedOrigins splits a comma-separated frontend_url.
func allowedOrigins(v string) []string {
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}
