package testutil

import (
	"testing"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/store/audit"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auditlog"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// TestSessionKey is a 32-byte key for cookie stores in tests.
const TestSessionKey = "placemate-test-session-key-32byt"

// NewSessionManager returns an insecure cookie session manager with bearer
// tokens enabled.
func NewSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(TestSessionKey, "placemate-test", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	tokens, err := auth.NewTokenIssuer("test-jwt-secret", time.Hour)
	if err != nil {
		t.Fatalf("token issuer: %v", err)
	}
	sm.SetTokenIssuer(tokens)
	return sm
}

// NewAuditLogger returns an audit logger writing every category to db only.
func NewAuditLogger(db *mongo.Database) *auditlog.Logger {
	return auditlog.New(audit.New(db), zap.NewNop(), auditlog.Config{Auth: "db", Admin: "db", Placement: "db"})
}

// AuditEvents returns the stored events of eventType.
func AuditEvents(t *testing.T, db *mongo.Database, eventType string) []audit.Event {
	t.Helper()
	ctx, cancel := TestContext()
	defer cancel()
	events, err := audit.New(db).Query(ctx, audit.QueryFilter{EventType: eventType, Limit: 100})
	if err != nil {
		t.Fatalf("query audit events: %v", err)
	}
	return events
}
