// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - Request body size limits
//
// The struct is passed to most lifecycle hooks, so any configuration
// needed during startup, request handling, or shutdown should live here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: placemate-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Staff account ensured at startup. Blank email skips it.
	StaffEmail    string
	StaffName     string
	StaffPassword string

	// Bearer tokens for API clients
	JWTSecret string
	JWTTTL    time.Duration

	// Email/SMTP configuration. An empty host disables email.
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// FrontendURL is the SPA origin: CORS allow-list entry and base for
	// links in emails.
	FrontendURL string
	// BaseURL is this API's public origin, used for the OAuth callback.
	BaseURL string

	// Campus calendar and scheduled jobs
	CampusTimezone           string
	DriveMaterializeSchedule string // cron spec; creates today's drives
	DriveReminderSchedule    string // cron spec; emails tomorrow's applicants
	OAuthCleanupSchedule     string // cron spec; purges expired OAuth states

	// Placement policy
	AllowClosedAnnouncements bool

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// Interview-experience chatbot (OpenAI-compatible endpoint)
	ChatbotAPIKey  string
	ChatbotBaseURL string
	ChatbotModel   string

	// Audit logging: "all", "db", "log" or "off" per category
	AuditLogAuth      string
	AuditLogAdmin     string
	AuditLogPlacement string

	// Background email delivery
	NotifierWorkers int
	NotifierQueue   int
}
