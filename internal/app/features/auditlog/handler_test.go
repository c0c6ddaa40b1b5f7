package auditlog_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/features/auditlog"
	"github.com/Saravanans7/PlaceMate/internal/app/store/audit"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timezones"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/Saravanans7/PlaceMate/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type item struct {
	EventType   string `json:"eventType"`
	ActorName   string `json:"actorName"`
	SubjectName string `json:"subjectName"`
	TargetType  string `json:"targetType"`
}

type page struct {
	Items []item `json:"items"`
	Meta  struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

func setup(t *testing.T) (chi.Router, *testutil.Fixtures, *audit.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	clock := timezones.Fixed(time.UTC, time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC))
	h := auditlog.NewHandler(db, clock, zap.NewNop())
	return auditlog.Routes(h, testutil.NewSessionManager(t)), testutil.NewFixtures(t, db), audit.New(db)
}

func logEvent(t *testing.T, s *audit.Store, e audit.Event) {
	t.Helper()
	if err := s.Log(context.Background(), e); err != nil {
		t.Fatalf("Log: %v", err)
	}
}

func TestServeList(t *testing.T) {
	r, fx, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	officer := fx.CreateStaff(ctx, "Officer Ram", "ram@example.com")
	asha := fx.CreateStudent(ctx, "Asha", "asha@example.com", models.AcademicRecord{Batch: 2025})
	driveID := primitive.NewObjectID()

	logEvent(t, store, audit.Event{
		CreatedAt: time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC),
		Category:  audit.CategoryAuth, EventType: audit.EventLoginSuccess,
		UserID: &officer.ID, Success: true,
	})
	logEvent(t, store, audit.Event{
		CreatedAt: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		Category:  audit.CategoryAdmin, EventType: audit.EventBlacklistAdded,
		ActorID: &officer.ID, UserID: &asha.ID, Success: true,
	})
	logEvent(t, store, audit.Event{
		CreatedAt: time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
		Category:  audit.CategoryPlacement, EventType: audit.EventDriveFinalized,
		ActorID: &officer.ID, TargetType: "drive", TargetID: &driveID, Success: true,
	})

	staff := testutil.AsTestUser(officer)
	tests := []struct {
		name  string
		query string
		want  int64
		first string
	}{
		{"all newest first", "/", 3, audit.EventDriveFinalized},
		{"category", "/?category=admin", 1, audit.EventBlacklistAdded},
		{"event type", "/?event_type=login_success", 1, audit.EventLoginSuccess},
		{"day range", "/?start_date=2025-03-14&end_date=2025-03-14", 2, audit.EventDriveFinalized},
		{"student", "/?student=" + asha.ID.Hex(), 1, audit.EventBlacklistAdded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, tt.query, nil, staff))
			rec.AssertStatus(t, http.StatusOK)
			var got page
			rec.DecodeData(t, &got)
			if got.Meta.Total != tt.want || len(got.Items) == 0 || got.Items[0].EventType != tt.first {
				t.Errorf("page = %+v", got)
			}
		})
	}

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/?category=admin", nil, staff))
	var got page
	rec.DecodeData(t, &got)
	if got.Items[0].ActorName != "Officer Ram" || got.Items[0].SubjectName != "Asha" {
		t.Errorf("names not resolved: %+v", got.Items[0])
	}

	for _, q := range []string{"/?category=nope", "/?start_date=14-03-2025", "/?student=xyz"} {
		rec := testutil.NewRecorder()
		r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, q, nil, staff))
		rec.AssertStatus(t, http.StatusBadRequest)
	}
}

func TestAccess(t *testing.T) {
	r, _, _ := setup(t)

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", nil, testutil.StudentUser()))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/categories", nil, testutil.StaffUser()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, audit.EventDriveFinalized)
}
