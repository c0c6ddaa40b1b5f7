package login_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/Saravanans7/PlaceMate/internal/app/features/login"
	"github.com/Saravanans7/PlaceMate/internal/app/store/audit"
	userstore "github.com/Saravanans7/PlaceMate/internal/app/store/users"
	"github.com/Saravanans7/PlaceMate/internal/app/system/authutil"
	"github.com/Saravanans7/PlaceMate/internal/app/system/ratelimit"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/Saravanans7/PlaceMate/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*login.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	limiter := ratelimit.NewLoginLimiter()
	t.Cleanup(limiter.Stop)
	h := login.NewHandler(db, testutil.NewSessionManager(t), testutil.NewAuditLogger(db), limiter, zap.NewNop())
	return h, db
}

func createUser(t *testing.T, db *mongo.Database, email, username, password string) models.User {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	hash, err := authutil.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u, err := userstore.New(db).Create(ctx, models.User{
		Name:         "Asha K",
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestHandleLogin(t *testing.T) {
	h, db := newTestHandler(t)
	createUser(t, db, "asha@campus.edu", "asha", "s3cret-pass")

	tests := []struct {
		name       string
		identifier string
		password   string
		wantStatus int
	}{
		{"email", "Asha@Campus.edu", "s3cret-pass", http.StatusOK},
		{"username", "asha", "s3cret-pass", http.StatusOK},
		{"wrong password", "asha", "nope-nope", http.StatusUnauthorized},
		{"unknown user", "ghost@campus.edu", "s3cret-pass", http.StatusUnauthorized},
		{"missing password", "asha", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			req := testutil.NewJSONRequest(http.MethodPost, "/api/auth/login", map[string]string{
				"identifier": tt.identifier,
				"password":   tt.password,
			})
			h.HandleLogin(rec, req)
			rec.AssertStatus(t, tt.wantStatus)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var sess login.Session
			rec.DecodeData(t, &sess)
			if sess.Token == "" || sess.ExpiresAt == nil {
				t.Error("expected a bearer token")
			}
			if sess.User.Email != "asha@campus.edu" {
				t.Errorf("user email = %q", sess.User.Email)
			}
			if strings.Contains(rec.Body.String(), "password") {
				t.Error("response leaks the password hash")
			}
			if rec.Header().Get("Set-Cookie") == "" {
				t.Error("expected a session cookie")
			}
		})
	}

	if got := len(testutil.AuditEvents(t, db, audit.EventLoginSuccess)); got != 2 {
		t.Errorf("login_success events = %d, want 2", got)
	}
	if got := len(testutil.AuditEvents(t, db, audit.EventLoginFailedWrongPassword)); got != 1 {
		t.Errorf("wrong password events = %d, want 1", got)
	}
	if got := len(testutil.AuditEvents(t, db, audit.EventLoginFailedUserNotFound)); got != 1 {
		t.Errorf("user not found events = %d, want 1", got)
	}
}

func TestHandleLogin_RateLimited(t *testing.T) {
	h, db := newTestHandler(t)
	createUser(t, db, "bala@campus.edu", "bala", "s3cret-pass")

	last := 0
	for i := 0; i < 6; i++ {
		rec := testutil.NewRecorder()
		h.HandleLogin(rec, testutil.NewJSONRequest(http.MethodPost, "/api/auth/login", map[string]string{
			"identifier": "bala",
			"password":   "wrong-pass",
		}))
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("sixth attempt status = %d, want 429", last)
	}
	if got := len(testutil.AuditEvents(t, db, audit.EventLoginFailedRateLimit)); got != 1 {
		t.Errorf("rate limit events = %d, want 1", got)
	}
}

func TestHandleRegister(t *testing.T) {
	h, db := newTestHandler(t)

	body := map[string]any{
		"name":       "  Chitra   R ",
		"email":      "chitra@campus.edu",
		"password":   "long-enough",
		"rollNumber": "21CS031",
		"batch":      2025,
		"cgpa":       8.4,
	}
	rec := testutil.NewRecorder()
	h.HandleRegister(rec, testutil.NewJSONRequest(http.MethodPost, "/api/auth/register", body))
	rec.AssertStatus(t, http.StatusCreated)

	var sess login.Session
	rec.DecodeData(t, &sess)
	if sess.User.Role != models.RoleStudent {
		t.Errorf("role = %q, want student", sess.User.Role)
	}
	if sess.User.Name != "Chitra R" || sess.User.Batch != 2025 {
		t.Errorf("user = %+v", sess.User)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	stored, err := userstore.New(db).GetByEmail(ctx, "chitra@campus.edu")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if !authutil.CheckPassword("long-enough", stored.PasswordHash) {
		t.Error("stored hash does not match the password")
	}

	// Same email again conflicts.
	rec = testutil.NewRecorder()
	h.HandleRegister(rec, testutil.NewJSONRequest(http.MethodPost, "/api/auth/register", body))
	rec.AssertStatus(t, http.StatusConflict)
}

func TestHandleRegister_Validation(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing email", map[string]any{"name": "A", "password": "long-enough"}},
		{"bad email", map[string]any{"name": "A", "email": "nope", "password": "long-enough"}},
		{"common password", map[string]any{"name": "A", "email": "a@campus.edu", "password": "password"}},
		{"cgpa out of range", map[string]any{"name": "A", "email": "a@campus.edu", "password": "long-enough", "cgpa": 11}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleRegister(rec, testutil.NewJSONRequest(http.MethodPost, "/api/auth/register", tt.body))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}
