// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/Saravanans7/PlaceMate/internal/app/store/audit"
	"github.com/Saravanans7/PlaceMate/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration. Each field takes one of
// "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off".
type Config struct {
	// Auth covers login, logout and self-registration.
	Auth string
	// Admin covers staff edits to students, companies, registrations,
	// the blacklist and experience moderation.
	Admin string
	// Placement covers drive progression: shortlists, results, finalization.
	Placement string
}

// Logger records audit events to MongoDB and/or zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	return ratelimit.ClientIP(r)
}

func userAgent(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.UserAgent()
}

func (l *Logger) setting(category string) string {
	var s string
	switch category {
	case audit.CategoryAuth:
		s = l.config.Auth
	case audit.CategoryAdmin:
		s = l.config.Admin
	case audit.CategoryPlacement:
		s = l.config.Placement
	}
	if s == "" {
		return "all"
	}
	return s
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.TargetID != nil {
		fields = append(fields, zap.String(event.TargetType+"_id", event.TargetID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	setting := l.setting(event.Category)
	if setting == "off" {
		return
	}
	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, method, identifier string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        clientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   map[string]string{"auth_method": method, "identifier": identifier},
	})
}

// LoginFailedUserNotFound logs a login attempt for an unknown account.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, identifier string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserNotFound,
		IP:            clientIP(r),
		UserAgent:     userAgent(r),
		FailureReason: "user not found",
		Details:       map[string]string{"identifier": identifier},
	})
}

// LoginFailedWrongPassword logs a failed login due to wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, identifier string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedWrongPassword,
		UserID:        &userID,
		IP:            clientIP(r),
		UserAgent:     userAgent(r),
		FailureReason: "wrong password",
		Details:       map[string]string{"identifier": identifier},
	})
}

// LoginFailedRateLimit logs a throttled login attempt.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, identifier string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedRateLimit,
		IP:            clientIP(r),
		UserAgent:     userAgent(r),
		FailureReason: "rate limited",
		Details:       map[string]string{"identifier": identifier},
	})
}

// Logout logs a sign-out. userIDStr may be empty or malformed.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	event := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		IP:        clientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
	}
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		event.UserID = &oid
	}
	l.Log(ctx, event)
}

// UserRegistered logs a new account created through sign-up or Google.
func (l *Logger) UserRegistered(ctx context.Context, r *http.Request, userID primitive.ObjectID, role, method string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventUserRegistered,
		UserID:    &userID,
		IP:        clientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   map[string]string{"role": role, "auth_method": method},
	})
}

// --- Staff actions ---

// Action describes a staff action on an entity.
type Action struct {
	EventType  string
	Actor      primitive.ObjectID
	TargetType string
	Target     primitive.ObjectID
	// Student is set when the action affects one student.
	Student *primitive.ObjectID
	Details map[string]string
}

func (l *Logger) action(ctx context.Context, r *http.Request, category string, a Action) {
	event := audit.Event{
		Category:   category,
		EventType:  a.EventType,
		ActorID:    &a.Actor,
		UserID:     a.Student,
		TargetType: a.TargetType,
		IP:         clientIP(r),
		UserAgent:  userAgent(r),
		Success:    true,
		Details:    a.Details,
	}
	if !a.Target.IsZero() {
		target := a.Target
		event.TargetID = &target
	}
	l.Log(ctx, event)
}

// Admin logs a staff edit to master data.
func (l *Logger) Admin(ctx context.Context, r *http.Request, a Action) {
	if l == nil {
		return
	}
	l.action(ctx, r, audit.CategoryAdmin, a)
}

// Placement logs a drive progression action.
func (l *Logger) Placement(ctx context.Context, r *http.Request, a Action) {
	if l == nil {
		return
	}
	l.action(ctx, r, audit.CategoryPlacement, a)
}
