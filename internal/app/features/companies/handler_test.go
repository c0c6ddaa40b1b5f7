package companies_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/features/companies"
	"github.com/Saravanans7/PlaceMate/internal/app/store/audit"
	"github.com/Saravanans7/PlaceMate/internal/app/system/paging"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/Saravanans7/PlaceMate/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (chi.Router, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := companies.NewHandler(db, testutil.NewAuditLogger(db), zap.NewNop())
	return companies.Routes(h, testutil.NewSessionManager(t)), db
}

func TestCreateAndGet(t *testing.T) {
	r, db := newTestRouter(t)
	staff := testutil.StaffUser()

	body := map[string]any{
		"name":      "  Zoho   Corp ",
		"role":      "Member Technical Staff",
		"salaryLPA": 8.4,
		"roundsTemplate": []map[string]string{
			{"name": "Aptitude"},
			{"name": "Technical"},
		},
	}
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodPost, "/", body, staff))
	rec.AssertStatus(t, http.StatusCreated)

	var c models.Company
	rec.DecodeData(t, &c)
	if c.Name != "Zoho Corp" || len(c.RoundsTemplate) != 2 || c.TotalDrives != 0 {
		t.Fatalf("created company = %+v", c)
	}

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"+c.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Member Technical Staff")

	if got := len(testutil.AuditEvents(t, db, audit.EventCompanyCreated)); got != 1 {
		t.Errorf("company_created events = %d, want 1", got)
	}
}

func TestCreate_Rejections(t *testing.T) {
	r, db := newTestRouter(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateCompany(ctx, "Zoho", "Aptitude")

	tests := []struct {
		name string
		user testutil.TestUser
		body map[string]any
		want int
	}{
		{"student", testutil.StudentUser(), map[string]any{"name": "Acme"}, http.StatusForbidden},
		{"duplicate name any case", testutil.StaffUser(), map[string]any{"name": "ZOHO"}, http.StatusConflict},
		{"missing name", testutil.StaffUser(), map[string]any{"role": "SDE"}, http.StatusBadRequest},
		{"unnamed round", testutil.StaffUser(), map[string]any{"name": "Acme", "roundsTemplate": []map[string]string{{"name": ""}}}, http.StatusBadRequest},
		{"negative salary", testutil.StaffUser(), map[string]any{"name": "Acme", "salaryLPA": -1}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodPost, "/", tt.body, tt.user))
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestList_Search(t *testing.T) {
	r, db := newTestRouter(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateCompany(ctx, "Zoho")
	fx.CreateCompany(ctx, "Zeta Systems")
	fx.CreateCompany(ctx, "Presidio")

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/?search=z&limit=1"))
	rec.AssertStatus(t, http.StatusOK)

	var page paging.Page[models.Company]
	rec.DecodeData(t, &page)
	if page.Meta.Total != 2 || len(page.Items) != 1 || page.Meta.Pages != 2 {
		t.Errorf("page = %+v", page)
	}
}

func TestUpdate(t *testing.T) {
	r, db := newTestRouter(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	c := fx.CreateCompany(ctx, "Zoho", "Aptitude")

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodPut, "/"+c.ID.Hex(),
		map[string]any{"location": "Chennai", "roundsTemplate": []map[string]string{{"name": "Coding"}, {"name": "HR"}}},
		testutil.StaffUser()))
	rec.AssertStatus(t, http.StatusOK)

	var got models.Company
	rec.DecodeData(t, &got)
	if got.Name != "Zoho" || got.Location != "Chennai" || len(got.RoundsTemplate) != 2 {
		t.Errorf("updated company = %+v", got)
	}

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodPut, "/not-an-id", map[string]any{}, testutil.StaffUser()))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestDelete(t *testing.T) {
	r, db := newTestRouter(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	busy := fx.CreateCompany(ctx, "Zoho")
	fx.CreateRegistration(ctx, busy, 2025, time.Now().Add(48*time.Hour), models.EligibilityRule{})
	idle := fx.CreateCompany(ctx, "Acme")

	tests := []struct {
		name string
		id   string
		want int
	}{
		{"has registrations", busy.ID.Hex(), http.StatusConflict},
		{"idle", idle.ID.Hex(), http.StatusOK},
		{"already gone", idle.ID.Hex(), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+tt.id, nil, testutil.StaffUser()))
			rec.AssertStatus(t, tt.want)
		})
	}
}
