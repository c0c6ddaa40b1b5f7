package applicationstore_test

import (
	"sync"
	"testing"
	"time"

	applicationstore "github.com/Saravanans7/PlaceMate/internal/app/store/applications"
	"github.com/Saravanans7/PlaceMate/internal/app/system/indexes"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/Saravanans7/PlaceMate/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type env struct {
	db    *mongo.Database
	store *applicationstore.Store
	fx    *testutil.Fixtures
	reg   models.Registration
	s1    models.User
	s2    models.User
}

func setup(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	fx := testutil.NewFixtures(t, db)
	company := fx.CreateCompany(ctx, "Zoho", "Aptitude")
	return env{
		db:    db,
		store: applicationstore.New(db),
		fx:    fx,
		reg:   fx.CreateRegistration(ctx, company, 2025, time.Now().UTC(), models.EligibilityRule{}),
		s1:    fx.CreateStudent(ctx, "S1", "s1@example.com", models.AcademicRecord{Batch: 2025}),
		s2:    fx.CreateStudent(ctx, "S2", "s2@example.com", models.AcademicRecord{Batch: 2025}),
	}
}

func TestStore_Register_Twice_Conflicts(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := e.store.Register(ctx, e.reg.ID, e.s1.ID, nil, time.Now().UTC()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := e.store.Register(ctx, e.reg.ID, e.s1.ID, nil, time.Now().UTC())
	if err != applicationstore.ErrAlreadyApplied {
		t.Errorf("expected ErrAlreadyApplied, got %v", err)
	}

	n, _ := e.db.Collection("applications").CountDocuments(ctx, bson.M{"registration": e.reg.ID, "student": e.s1.ID})
	if n != 1 {
		t.Errorf("ledger rows: got %d, want 1", n)
	}
}

func TestStore_Register_Concurrent_SingleRow(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.store.Register(ctx, e.reg.ID, e.s1.ID, nil, time.Now().UTC())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		switch err {
		case nil:
			ok++
		case applicationstore.ErrAlreadyApplied:
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("successful registrations: got %d, want 1", ok)
	}
}

func TestStore_WithdrawAndReapply_ReusesRow(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := e.store.Register(ctx, e.reg.ID, e.s1.ID, nil, time.Now().UTC())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	w, err := e.store.Withdraw(ctx, e.reg.ID, e.s1.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if w.Status != models.ApplicationWithdrawn || w.WithdrawnAt == nil {
		t.Errorf("withdrawn row: %+v", w)
	}
	if _, err := e.store.Withdraw(ctx, e.reg.ID, e.s1.ID, time.Now().UTC()); err != applicationstore.ErrNotFound {
		t.Errorf("second withdraw: got %v, want ErrNotFound", err)
	}

	again, err := e.store.Register(ctx, e.reg.ID, e.s1.ID, []models.Answer{{Key: "github", Value: "asha"}}, time.Now().UTC())
	if err != nil {
		t.Fatalf("re-Register: %v", err)
	}
	if again.ID != first.ID {
		t.Error("re-application should reactivate the same row")
	}
	if again.Status != models.ApplicationRegistered || again.WithdrawnAt != nil {
		t.Errorf("reactivated row: %+v", again)
	}
	if len(again.Answers) != 1 {
		t.Errorf("answers should be replaced, got %v", again.Answers)
	}
}

func TestStore_RegisteredFor_ExcludesWithdrawn(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.store.Register(ctx, e.reg.ID, e.s1.ID, nil, time.Now().UTC())
	e.store.Register(ctx, e.reg.ID, e.s2.ID, nil, time.Now().UTC())
	e.store.Withdraw(ctx, e.reg.ID, e.s2.ID, time.Now().UTC())

	ids, err := e.store.RegisteredStudents(ctx, e.reg.ID)
	if err != nil {
		t.Fatalf("RegisteredStudents: %v", err)
	}
	if len(ids) != 1 || ids[0] != e.s1.ID {
		t.Errorf("expected only s1, got %v", ids)
	}

	counts, err := e.store.CountRegistered(ctx, []primitive.ObjectID{e.reg.ID})
	if err != nil {
		t.Fatalf("CountRegistered: %v", err)
	}
	if counts[e.reg.ID] != 1 {
		t.Errorf("count: got %d, want 1", counts[e.reg.ID])
	}

	registered, err := e.store.IsRegistered(ctx, e.reg.ID, e.s2.ID)
	if err != nil || registered {
		t.Errorf("withdrawn student should not be registered: %v %v", registered, err)
	}
}

func TestStore_DeleteForRegistration(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.store.Register(ctx, e.reg.ID, e.s1.ID, nil, time.Now().UTC())
	e.store.Register(ctx, e.reg.ID, e.s2.ID, nil, time.Now().UTC())

	n, err := e.store.DeleteForRegistration(ctx, e.reg.ID)
	if err != nil {
		t.Fatalf("DeleteForRegistration: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted: got %d, want 2", n)
	}
}
