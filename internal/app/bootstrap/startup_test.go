package bootstrap

import (
	"net/http"
	"testing"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/placement"
	userstore "github.com/Saravanans7/PlaceMate/internal/app/store/users"
	"github.com/Saravanans7/PlaceMate/internal/app/system/authutil"
	"github.com/Saravanans7/PlaceMate/internal/app/system/ratelimit"
	"github.com/Saravanans7/PlaceMate/internal/app/system/tasks"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timezones"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/Saravanans7/PlaceMate/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:                 "mongodb://localhost:27017",
		MongoDatabase:            "placemate_test",
		JWTSecret:                "test-secret-0123456789abcdef",
		FrontendURL:              "http://localhost:5173",
		CampusTimezone:           "Asia/Kolkata",
		DriveMaterializeSchedule: "5 0 * * *",
		DriveReminderSchedule:    "0 9 * * *",
		OAuthCleanupSchedule:     "0 * * * *",
		AuditLogAuth:             "all",
		AuditLogAdmin:            "db",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid", func(*AppConfig) {}, false},
		{"bad mongo uri", func(c *AppConfig) { c.MongoURI = "postgres://nope" }, true},
		{"unknown timezone", func(c *AppConfig) { c.CampusTimezone = "Mars/Olympus" }, true},
		{"bad materialize spec", func(c *AppConfig) { c.DriveMaterializeSchedule = "every day" }, true},
		{"six-field reminder spec", func(c *AppConfig) { c.DriveReminderSchedule = "0 0 9 * * *" }, true},
		{"empty jwt secret", func(c *AppConfig) { c.JWTSecret = "" }, true},
		{"bad audit mode", func(c *AppConfig) { c.AuditLogPlacement = "verbose" }, true},
		{"weak staff password", func(c *AppConfig) { c.StaffPassword = "short" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(nil, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}

	for i := 0; i < 2; i++ {
		if err := EnsureSchema(ctx, nil, validConfig(), deps, testLogger()); err != nil {
			t.Fatalf("EnsureSchema run %d: %v", i+1, err)
		}
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames: %v", err)
	}
	have := map[string]bool{}
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"users", "companies", "registrations", "applications", "drives", "blacklist"} {
		if !have[want] {
			t.Errorf("collection %q missing after EnsureSchema", want)
		}
	}
}

func TestEnsureStaff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}
	fx := testutil.NewFixtures(t, db)
	users := userstore.New(db)

	cfg := validConfig()
	cfg.StaffEmail = " TPO@College.edu "
	cfg.StaffName = "Placement Office"
	cfg.StaffPassword = "correct-horse-battery"

	if err := ensureStaff(ctx, deps, cfg, testLogger()); err != nil {
		t.Fatalf("ensureStaff create: %v", err)
	}
	u, err := users.GetByEmail(ctx, "tpo@college.edu")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.Role != models.RoleStaff {
		t.Errorf("role = %q, want staff", u.Role)
	}
	if !authutil.CheckPassword("correct-horse-battery", u.PasswordHash) {
		t.Error("password not set on new staff account")
	}

	// A second run leaves the account alone.
	cfg.StaffPassword = "another-password-entirely"
	if err := ensureStaff(ctx, deps, cfg, testLogger()); err != nil {
		t.Fatalf("ensureStaff rerun: %v", err)
	}
	again, _ := users.GetByEmail(ctx, "tpo@college.edu")
	if again.PasswordHash != u.PasswordHash {
		t.Error("rerun changed the staff password")
	}

	// An existing student is promoted.
	s := fx.CreateStudent(ctx, "Asha", "asha@college.edu", models.AcademicRecord{Batch: 2025})
	cfg.StaffEmail = s.Email
	if err := ensureStaff(ctx, deps, cfg, testLogger()); err != nil {
		t.Fatalf("ensureStaff promote: %v", err)
	}
	promoted, _ := users.GetByID(ctx, s.ID)
	if promoted.Role != models.RoleStaff {
		t.Errorf("promoted role = %q, want staff", promoted.Role)
	}

	// Blank email is a no-op.
	cfg.StaffEmail = ""
	if err := ensureStaff(ctx, deps, cfg, testLogger()); err != nil {
		t.Errorf("ensureStaff blank: %v", err)
	}
}

func testDeps(t *testing.T) DBDeps {
	t.Helper()
	db := testutil.SetupTestDB(t)
	clock := timezones.Fixed(time.UTC, time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC))
	limiter := ratelimit.NewLoginLimiter()
	t.Cleanup(limiter.Stop)
	return DBDeps{
		MongoClient:   db.Client(),
		MongoDatabase: db,
		Runtime: &Runtime{
			Clock:     clock,
			Placement: placement.New(db, nil, clock, testLogger(), placement.Config{}),
			Limiter:   limiter,
		},
	}
}

func TestJobs_MaterializeToday(t *testing.T) {
	deps := testDeps(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, deps.MongoDatabase)
	c := fx.CreateCompany(ctx, "Zoho", "Aptitude", "Technical")
	fx.CreateRegistration(ctx, c, 2025, time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC), models.EligibilityRule{})

	s := tasks.NewScheduler(time.UTC, testLogger())
	for _, job := range jobs(validConfig(), deps, testLogger()) {
		if err := s.Add(job); err != nil {
			t.Fatalf("Add(%s): %v", job.Name, err)
		}
	}
	for i := 0; i < 2; i++ {
		if err := s.RunNow(JobMaterializeDrives); err != nil {
			t.Fatalf("RunNow: %v", err)
		}
	}
	n, err := deps.MongoDatabase.Collection("drives").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count drives: %v", err)
	}
	if n != 1 {
		t.Errorf("drives = %d, want 1", n)
	}
	for _, name := range []string{JobDriveReminders, JobOAuthCleanup} {
		if err := s.RunNow(name); err != nil {
			t.Errorf("RunNow(%s): %v", name, err)
		}
	}
}

func TestRouter(t *testing.T) {
	deps := testDeps(t)
	r := newRouter(validConfig(), deps, testutil.NewSessionManager(t), testLogger())

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"health", testutil.NewRequest(http.MethodGet, "/health"), http.StatusOK},
		{"public companies", testutil.NewRequest(http.MethodGet, "/api/companies"), http.StatusOK},
		{"public registrations", testutil.NewRequest(http.MethodGet, "/api/registrations"), http.StatusOK},
		{"me anonymous", testutil.NewRequest(http.MethodGet, "/api/auth/me"), http.StatusOK},
		{"students need staff", testutil.NewRequest(http.MethodGet, "/api/users/students"), http.StatusUnauthorized},
		{"students as student", testutil.NewAuthenticatedRequest(http.MethodGet, "/api/users/students", nil, testutil.StudentUser()), http.StatusForbidden},
		{"stats as staff", testutil.NewAuthenticatedRequest(http.MethodGet, "/api/stats/batches", nil, testutil.StaffUser()), http.StatusOK},
		{"audit as staff", testutil.NewAuthenticatedRequest(http.MethodGet, "/api/audit", nil, testutil.StaffUser()), http.StatusOK},
		{"chatbot disabled", testutil.NewAuthenticatedRequest(http.MethodPost, "/api/chatbot", map[string]string{"userPrompt": "about zoho"}, testutil.StudentUser()), http.StatusServiceUnavailable},
		{"unknown route", testutil.NewRequest(http.MethodGet, "/api/nope"), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			r.ServeHTTP(rec, tt.req)
			rec.AssertStatus(t, tt.status)
		})
	}

	req := testutil.NewRequest(http.MethodOptions, "/api/companies")
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestAllowedOrigins(t *testing.T) {
	got := allowedOrigins(" https://a.example/ , ,https://b.example")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("allowedOrigins = %v", got)
	}
}
