// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/system/authutil"
	"github.com/Saravanans7/PlaceMate/internal/app/system/tasks"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timezones"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for PlaceMate.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: PLACEMATE_MONGO_URI, PLACEMATE_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "placemate", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "placemate-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "168h", Desc: "Session cookie lifetime"},

	// Staff account bootstrap
	{Name: "staff_email", Default: "", Desc: "Email of the placement staff account ensured at startup (blank skips)"},
	{Name: "staff_name", Default: "Placement Office", Desc: "Display name for a newly created staff account"},
	{Name: "staff_password", Default: "", Desc: "Initial password for a newly created staff account (blank means Google sign-in only)"},

	// Bearer tokens
	{Name: "jwt_secret", Default: "dev-only-jwt-secret-change-me-0123456789", Desc: "HS256 signing secret for API tokens"},
	{Name: "jwt_ttl", Default: "168h", Desc: "API token lifetime"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank disables email)"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@placemate.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "PlaceMate", Desc: "From display name"},
	{Name: "notifier_workers", Default: 2, Desc: "Email delivery goroutines"},
	{Name: "notifier_queue", Default: 256, Desc: "Email queue depth"},

	// URLs
	{Name: "frontend_url", Default: "http://localhost:5173", Desc: "Frontend origin for CORS and email links"},
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public API origin for OAuth callbacks"},

	// Campus calendar and jobs
	{Name: "campus_timezone", Default: "Asia/Kolkata", Desc: "IANA zone that defines the campus day"},
	{Name: "drive_materialize_schedule", Default: "5 0 * * *", Desc: "Cron spec for creating today's drives"},
	{Name: "drive_reminder_schedule", Default: "0 9 * * *", Desc: "Cron spec for day-before drive reminders"},
	{Name: "oauth_cleanup_schedule", Default: "0 * * * *", Desc: "Cron spec for purging expired OAuth states"},

	// Placement policy
	{Name: "allow_closed_announcements", Default: false, Desc: "Allow announcements on closed drives"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Chatbot
	{Name: "chatbot_api_key", Default: "", Desc: "API key for the chat model (blank disables the chatbot)"},
	{Name: "chatbot_base_url", Default: "", Desc: "OpenAI-compatible endpoint (blank means OpenAI)"},
	{Name: "chatbot_model", Default: "gpt-4o-mini", Desc: "Chat model name"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_placement", Default: "all", Desc: "Drive event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, PLACEMATE_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PLACEMATE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 7*24*time.Hour),

		StaffEmail:    appValues.String("staff_email"),
		StaffName:     appValues.String("staff_name"),
		StaffPassword: appValues.String("staff_password"),

		JWTSecret: appValues.String("jwt_secret"),
		JWTTTL:    appValues.Duration("jwt_ttl", 7*24*time.Hour),

		// Email/SMTP
		MailSMTPHost:    appValues.String("mail_smtp_host"),
		MailSMTPPort:    appValues.Int("mail_smtp_port"),
		MailSMTPUser:    appValues.String("mail_smtp_user"),
		MailSMTPPass:    appValues.String("mail_smtp_pass"),
		MailFrom:        appValues.String("mail_from"),
		MailFromName:    appValues.String("mail_from_name"),
		NotifierWorkers: appValues.Int("notifier_workers"),
		NotifierQueue:   appValues.Int("notifier_queue"),

		FrontendURL: appValues.String("frontend_url"),
		BaseURL:     appValues.String("base_url"),

		CampusTimezone:           appValues.String("campus_timezone"),
		DriveMaterializeSchedule: appValues.String("drive_materialize_schedule"),
		DriveReminderSchedule:    appValues.String("drive_reminder_schedule"),
		OAuthCleanupSchedule:     appValues.String("oauth_cleanup_schedule"),

		AllowClosedAnnouncements: appValues.Bool("allow_closed_announcements"),

		// Google OAuth
		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		ChatbotAPIKey:  appValues.String("chatbot_api_key"),
		ChatbotBaseURL: appValues.String("chatbot_base_url"),
		ChatbotModel:   appValues.String("chatbot_model"),

		// Audit logging
		AuditLogAuth:      appValues.String("audit_log_auth"),
		AuditLogAdmin:     appValues.String("audit_log_admin"),
		AuditLogPlacement: appValues.String("audit_log_placement"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The Mongo URI, campus timezone and every cron spec are checked here so a
// typo fails at boot rather than at midnight.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if !timezones.Valid(appCfg.CampusTimezone) {
		return fmt.Errorf("campus_timezone %q is not a known IANA zone", appCfg.CampusTimezone)
	}
	for name, spec := range map[string]string{
		"drive_materialize_schedule": appCfg.DriveMaterializeSchedule,
		"drive_reminder_schedule":    appCfg.DriveReminderSchedule,
		"oauth_cleanup_schedule":     appCfg.OAuthCleanupSchedule,
	} {
		if err := tasks.ValidateSpec(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if appCfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret must be set")
	}
	if appCfg.StaffPassword != "" {
		if err := authutil.ValidatePassword(appCfg.StaffPassword); err != nil {
			return fmt.Errorf("staff_password: %w", err)
		}
	}
	for name, v := range map[string]string{
		"audit_log_auth":      appCfg.AuditLogAuth,
		"audit_log_admin":     appCfg.AuditLogAdmin,
		"audit_log_placement": appCfg.AuditLogPlacement,
	} {
		switch v {
		case "", "all", "db", "log", "off":
		default:
			return fmt.Errorf("%s must be all, db, log or off (got %q)", name, v)
		}
	}
	return nil
}
