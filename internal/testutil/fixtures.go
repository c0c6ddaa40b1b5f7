package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/policy/drivepolicy"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateStudent inserts a student with the given academic record.
func (f *Fixtures) CreateStudent(ctx context.Context, name, email string, rec models.AcademicRecord) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:             primitive.NewObjectID(),
		Name:           name,
		NameCI:         text.Fold(name),
		Email:          email,
		Role:           models.RoleStudent,
		AcademicRecord: rec,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test student: %v", err)
	}
	return u
}

// CreateStaff inserts a staff user.
func (f *Fixtures) CreateStaff(ctx context.Context, name, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Email:     email,
		Role:      models.RoleStaff,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test staff: %v", err)
	}
	return u
}

// CreateCompany inserts a company whose round template has the given names.
func (f *Fixtures) CreateCompany(ctx context.Context, name string, rounds ...string) models.Company {
	f.t.Helper()

	tmpl := make([]models.RoundTemplate, 0, len(rounds))
	for _, r := range rounds {
		tmpl = append(tmpl, models.RoundTemplate{Name: r})
	}
	now := time.Now().UTC()
	c := models.Company{
		ID:             primitive.NewObjectID(),
		Name:           name,
		NameCI:         text.Fold(name),
		RoundsTemplate: tmpl,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("companies").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test company: %v", err)
	}
	return c
}

// CreateRegistration inserts an open registration for company.
func (f *Fixtures) CreateRegistration(ctx context.Context, company models.Company, batch int, driveDate time.Time, rule models.EligibilityRule) models.Registration {
	f.t.Helper()

	now := time.Now().UTC()
	reg := models.Registration{
		ID:                primitive.NewObjectID(),
		Company:           company.ID,
		CompanyNameCached: company.Name,
		CompanyNameCI:     company.NameCI,
		Batch:             batch,
		DriveDate:         driveDate,
		Eligibility:       rule,
		Status:            models.RegistrationOpen,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := f.db.Collection("registrations").InsertOne(ctx, reg); err != nil {
		f.t.Fatalf("failed to create test registration: %v", err)
	}
	return reg
}

// CreateApplication inserts a registered application.
func (f *Fixtures) CreateApplication(ctx context.Context, reg models.Registration, student models.User) models.Application {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Application{
		ID:           primitive.NewObjectID(),
		Registration: reg.ID,
		Student:      student.ID,
		Status:       models.ApplicationRegistered,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("applications").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test application: %v", err)
	}
	return a
}

// CreateDrive inserts a drive built from reg and company.
func (f *Fixtures) CreateDrive(ctx context.Context, reg models.Registration, company models.Company) models.Drive {
	f.t.Helper()

	d := drivepolicy.NewFromRegistration(reg, company, nil, time.Now().UTC())
	if _, err := f.db.Collection("drives").InsertOne(ctx, d); err != nil {
		f.t.Fatalf("failed to create test drive: %v", err)
	}
	return d
}

// Blacklist inserts an active blacklist entry for student.
func (f *Fixtures) Blacklist(ctx context.Context, student, staff models.User, reason string) models.BlacklistEntry {
	f.t.Helper()

	e := models.BlacklistEntry{
		ID:       primitive.NewObjectID(),
		Student:  student.ID,
		Reason:   reason,
		AddedBy:  staff.ID,
		AddedAt:  time.Now().UTC(),
		IsActive: true,
	}
	if _, err := f.db.Collection("blacklist").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create blacklist entry: %v", err)
	}
	return e
}
