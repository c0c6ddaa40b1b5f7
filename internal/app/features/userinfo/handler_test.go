package userinfo_test

import (
	"net/http"
	"testing"

	"github.com/Saravanans7/PlaceMate/internal/app/features/userinfo"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/Saravanans7/PlaceMate/internal/testutil"
	"go.uber.org/zap"
)

func TestServeUserInfo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	student := fx.CreateStudent(ctx, "Asha K", "asha@campus.edu", models.AcademicRecord{CGPA: 8.1, Batch: 2025})

	h := userinfo.NewHandler(db, zap.NewNop())

	tests := []struct {
		name     string
		req      *http.Request
		wantAuth bool
	}{
		{"anonymous", testutil.NewRequest(http.MethodGet, "/api/auth/me"), false},
		{"signed in", testutil.WithUser(testutil.NewRequest(http.MethodGet, "/api/auth/me"), testutil.AsTestUser(student)), true},
		{"deleted user", testutil.WithUser(testutil.NewRequest(http.MethodGet, "/api/auth/me"), testutil.StudentUser()), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeUserInfo(rec, tt.req)
			rec.AssertStatus(t, http.StatusOK)

			var info userinfo.Info
			rec.DecodeData(t, &info)
			if info.IsAuthenticated != tt.wantAuth {
				t.Fatalf("isAuthenticated = %v, want %v", info.IsAuthenticated, tt.wantAuth)
			}
			if tt.wantAuth && (info.User == nil || info.User.CGPA != 8.1) {
				t.Errorf("user = %+v", info.User)
			}
		})
	}
}
