package logout_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/Saravanans7/PlaceMate/internal/app/features/logout"
	"github.com/Saravanans7/PlaceMate/internal/app/store/audit"
	"github.com/Saravanans7/PlaceMate/internal/testutil"
	"go.uber.org/zap"
)

func TestServeLogout_ClearsSessionCookie(t *testing.T) {
	db := testutil.SetupTestDB(t)
	sm := testutil.NewSessionManager(t)
	h := logout.NewHandler(sm, testutil.NewAuditLogger(db), zap.NewNop())

	user := testutil.StudentUser()
	rec := testutil.NewRecorder()
	h.ServeLogout(rec, testutil.NewAuthenticatedRequest(http.MethodPost, "/api/auth/logout", nil, user))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Logged out")

	cookie := rec.Header().Get("Set-Cookie")
	if !strings.Contains(cookie, "placemate-test=") || !strings.Contains(cookie, "Max-Age=0") {
		t.Errorf("expected an expiring session cookie, got %q", cookie)
	}

	events := testutil.AuditEvents(t, db, audit.EventLogout)
	if len(events) != 1 {
		t.Fatalf("logout events = %d, want 1", len(events))
	}
	if events[0].UserID == nil || events[0].UserID.Hex() != user.ID {
		t.Errorf("logout event user = %v, want %s", events[0].UserID, user.ID)
	}
}

func TestRoutes_RequireSignedIn(t *testing.T) {
	sm := testutil.NewSessionManager(t)
	r := logout.Routes(logout.NewHandler(sm, nil, zap.NewNop()), sm)

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodPost, "/"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}
