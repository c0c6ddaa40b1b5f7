package profile_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/features/profile"
	userstore "github.com/Saravanans7/PlaceMate/internal/app/store/users"
	"github.com/Saravanans7/PlaceMate/internal/app/system/authutil"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/Saravanans7/PlaceMate/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (chi.Router, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := profile.NewHandler(db, zap.NewNop())
	return profile.Routes(h, testutil.NewSessionManager(t)), db
}

func TestServeProfile(t *testing.T) {
	r, db := newTestRouter(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := fx.CreateStudent(ctx, "Asha", "asha@example.com", models.AcademicRecord{CGPA: 8.4, Batch: 2025})

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", nil, testutil.AsTestUser(s)))
	rec.AssertStatus(t, http.StatusOK)
	var got models.User
	rec.DecodeData(t, &got)
	if got.Email != "asha@example.com" || got.CGPA != 8.4 {
		t.Errorf("profile = %+v", got)
	}

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", nil, testutil.StudentUser()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleUpdate_ContactOnly(t *testing.T) {
	r, db := newTestRouter(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := fx.CreateStudent(ctx, "Asha", "asha@example.com", models.AcademicRecord{CGPA: 8.4, Batch: 2025})

	body := map[string]any{"name": "Asha  R", "phone": "9876543210", "nativePlace": "Madurai", "cgpa": 10}
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodPut, "/", body, testutil.AsTestUser(s)))
	rec.AssertStatus(t, http.StatusOK)

	var got models.User
	rec.DecodeData(t, &got)
	if got.Name != "Asha R" || got.Phone != "9876543210" || got.NativePlace != "Madurai" {
		t.Errorf("updated = %+v", got)
	}
	if got.CGPA != 8.4 {
		t.Errorf("cgpa changed to %v; academic fields are staff-owned", got.CGPA)
	}

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodPut, "/", map[string]any{"name": "   "}, testutil.AsTestUser(s)))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServePlacement(t *testing.T) {
	r, db := newTestRouter(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := fx.CreateStudent(ctx, "Asha", "asha@example.com", models.AcademicRecord{CGPA: 8.4, Batch: 2025})
	c := fx.CreateCompany(ctx, "Zoho")
	if _, err := userstore.New(db).MarkPlaced(ctx, []primitive.ObjectID{s.ID}, c, time.Now().UTC()); err != nil {
		t.Fatalf("MarkPlaced: %v", err)
	}

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/placement", nil, testutil.AsTestUser(s)))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"isPlaced":true`)
	rec.AssertContains(t, `"placedCompanyName":"Zoho"`)
}

func TestHandleChangePassword(t *testing.T) {
	r, db := newTestRouter(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := fx.CreateStudent(ctx, "Asha", "asha@example.com", models.AcademicRecord{Batch: 2025})
	hash, err := authutil.HashPassword("oldSecret1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if _, err := db.Collection("users").UpdateByID(ctx, s.ID, bson.M{"$set": bson.M{"password_hash": hash}}); err != nil {
		t.Fatalf("set hash: %v", err)
	}
	googleOnly := fx.CreateStudent(ctx, "Ravi", "ravi@example.com", models.AcademicRecord{Batch: 2025})

	tests := []struct {
		name string
		user models.User
		body map[string]string
		want int
	}{
		{"wrong current", s, map[string]string{"currentPassword": "nope", "newPassword": "newSecret1"}, http.StatusBadRequest},
		{"too short", s, map[string]string{"currentPassword": "oldSecret1", "newPassword": "abc"}, http.StatusBadRequest},
		{"mismatch", s, map[string]string{"currentPassword": "oldSecret1", "newPassword": "newSecret1", "confirmPassword": "newSecret2"}, http.StatusBadRequest},
		{"same as current", s, map[string]string{"currentPassword": "oldSecret1", "newPassword": "oldSecret1"}, http.StatusBadRequest},
		{"no password account", googleOnly, map[string]string{"currentPassword": "x", "newPassword": "newSecret1"}, http.StatusForbidden},
		{"ok", s, map[string]string{"currentPassword": "oldSecret1", "newPassword": "newSecret1", "confirmPassword": "newSecret1"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			r.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodPost, "/password", tt.body, testutil.AsTestUser(tt.user)))
			rec.AssertStatus(t, tt.want)
		})
	}

	u, err := userstore.New(db).GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !authutil.CheckPassword("newSecret1", u.PasswordHash) {
		t.Error("password was not changed")
	}
}
