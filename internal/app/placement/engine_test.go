package placement_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/placement"
	"github.com/Saravanans7/PlaceMate/internal/app/policy/drivepolicy"
	drivestore "github.com/Saravanans7/PlaceMate/internal/app/store/drives"
	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"github.com/Saravanans7/PlaceMate/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type driveEnv struct {
	env
	company models.Company
	reg     models.Registration
	staff   models.User
	s1, s2  models.User
}

func setupDrive(t *testing.T, cfg placement.Config) driveEnv {
	t.Helper()
	e := newEnv(t, cfg)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := e.fx.CreateCompany(ctx, "Zoho", "Aptitude", "Technical")
	reg := e.fx.CreateRegistration(ctx, company, 2025, e.now, models.EligibilityRule{})
	s1 := e.fx.CreateStudent(ctx, "Asha", "asha@example.com", models.AcademicRecord{Batch: 2025})
	s2 := e.fx.CreateStudent(ctx, "Bala", "bala@example.com", models.AcademicRecord{Batch: 2025})
	e.fx.CreateApplication(ctx, reg, s1)
	e.fx.CreateApplication(ctx, reg, s2)
	return driveEnv{
		env:     e,
		company: company,
		reg:     reg,
		staff:   e.fx.CreateStaff(ctx, "Officer", "officer@example.com"),
		s1:      s1,
		s2:      s2,
	}
}

func (e driveEnv) drive(t *testing.T) models.Drive {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	d, _, err := e.svc.EnsureDrive(ctx, e.reg, &e.staff.ID)
	if err != nil {
		t.Fatalf("EnsureDrive: %v", err)
	}
	return d
}

func TestEnsureDrive_Idempotent(t *testing.T) {
	e := setupDrive(t, placement.Config{})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	d, created, err := e.svc.EnsureDrive(ctx, e.reg, &e.staff.ID)
	if err != nil {
		t.Fatalf("EnsureDrive: %v", err)
	}
	if !created {
		t.Error("first call should create")
	}
	if len(d.Rounds) != 2 || d.Rounds[0].Name != "Aptitude" || d.Rounds[1].Name != "Technical" {
		t.Errorf("rounds not cloned from template: %+v", d.Rounds)
	}
	if d.CurrentRoundIndex != 0 || d.IsClosed {
		t.Errorf("new drive state: index=%d closed=%v", d.CurrentRoundIndex, d.IsClosed)
	}

	again, created, err := e.svc.EnsureDriveFor(ctx, e.reg.ID, nil)
	if err != nil {
		t.Fatalf("EnsureDriveFor: %v", err)
	}
	if created || again.ID != d.ID {
		t.Errorf("second call: created=%v id=%v, want existing %v", created, again.ID, d.ID)
	}
}

func TestEnsureDrive_Concurrent(t *testing.T) {
	e := setupDrive(t, placement.Config{})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	const callers = 8
	ids := make([]primitive.ObjectID, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, _, err := e.svc.EnsureDrive(ctx, e.reg, nil)
			ids[i], errs[i] = d.ID, err
		}(i)
	}
	wg.Wait()

	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Errorf("caller %d got drive %v, want %v", i, ids[i], ids[0])
		}
	}
	n, err := e.db.Collection("drives").CountDocuments(ctx, bson.M{"registration": e.reg.ID})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("drives = %d, want 1", n)
	}
}

func TestRecordResults(t *testing.T) {
	e := setupDrive(t, placement.Config{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	d := e.drive(t)
	outsider := primitive.NewObjectID()

	tests := []struct {
		name     string
		round    int
		results  []models.RoundResult
		next     *int
		wantKind apperr.Kind
	}{
		{"future round", 1, nil, nil, apperr.KindValidation},
		{"out of range", 5, nil, nil, apperr.KindValidation},
		{"next past end", 0, nil, ptr(3), apperr.KindValidation},
		{"unknown status", 0, []models.RoundResult{{Student: e.s1.ID, Status: "maybe"}}, nil, apperr.KindValidation},
		{"not an applicant", 0, []models.RoundResult{{Student: outsider, Status: models.RoundPassed}}, nil, apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.RecordResults(ctx, d.ID, tt.round, tt.results, tt.next)
			if got := apperr.KindOf(err); got != tt.wantKind {
				t.Errorf("kind = %v, want %v (err %v)", got, tt.wantKind, err)
			}
		})
	}

	got, err := e.svc.RecordResults(ctx, d.ID, 0, []models.RoundResult{
		{Student: e.s1.ID, Status: "Passed"},
		{Student: e.s2.ID, Status: models.RoundRejected, Notes: "weak aptitude"},
	}, ptr(1))
	if err != nil {
		t.Fatalf("RecordResults: %v", err)
	}
	if got.CurrentRoundIndex != 1 {
		t.Errorf("index = %d, want 1", got.CurrentRoundIndex)
	}
	if got.Rounds[0].Results[0].Status != models.RoundPassed {
		t.Errorf("status not normalized: %q", got.Rounds[0].Results[0].Status)
	}

	// Round 0 is now in the past.
	if _, err := e.svc.RecordResults(ctx, d.ID, 0, nil, nil); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("past round: got %v", err)
	}
	if _, err := e.svc.RecordResults(ctx, d.ID, 1, nil, ptr(0)); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("backwards move: got %v", err)
	}
}

func TestRecordResults_ProgressScenario(t *testing.T) {
	e := setupDrive(t, placement.Config{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	d := e.drive(t)

	if _, err := e.svc.RecordResults(ctx, d.ID, 0, []models.RoundResult{
		{Student: e.s1.ID, Status: models.RoundPassed},
	}, ptr(1)); err != nil {
		t.Fatalf("RecordResults: %v", err)
	}

	view, err := e.svc.StudentProgress(ctx, "ZOHO", e.s1.ID)
	if err != nil {
		t.Fatalf("StudentProgress: %v", err)
	}
	if view.Status != drivepolicy.StatusInProgress {
		t.Errorf("status = %q, want in_progress", view.Status)
	}
	if view.Rounds[0].Status != drivepolicy.RoundCompleted || view.Rounds[1].Status != drivepolicy.RoundCurrent {
		t.Errorf("rounds = %+v", view.Rounds)
	}
	if view.State.Phase != drivepolicy.InRound || view.TotalRounds != 2 {
		t.Errorf("state = %+v total=%d", view.State, view.TotalRounds)
	}
}

func TestShortlist(t *testing.T) {
	e := setupDrive(t, placement.Config{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	d := e.drive(t)

	got, err := e.svc.Shortlist(ctx, d.ID, 1, []primitive.ObjectID{e.s1.ID, e.s1.ID})
	if err != nil {
		t.Fatalf("Shortlist: %v", err)
	}
	if len(got.Rounds[1].Shortlisted) != 1 {
		t.Errorf("shortlist = %v, want one deduped id", got.Rounds[1].Shortlisted)
	}

	if _, err := e.svc.Shortlist(ctx, d.ID, 0, []primitive.ObjectID{primitive.NewObjectID()}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("non-applicant: got %v", err)
	}
}

func TestAnnounce(t *testing.T) {
	e := setupDrive(t, placement.Config{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	d := e.drive(t)

	if _, err := e.svc.Announce(ctx, d.ID, "   ", e.staff.ID); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("empty text: got %v", err)
	}

	got, err := e.svc.Announce(ctx, d.ID, "Report at <b>9am</b><script>x()</script>", e.staff.ID)
	if err != nil {
		t.Fatalf("Announce: %v", err)
	}
	if len(got.Announcements) != 1 || got.Announcements[0].PostedBy != e.staff.ID {
		t.Errorf("announcements = %+v", got.Announcements)
	}

	mails := e.mail.emails()
	if len(mails) != 1 {
		t.Fatalf("emails = %d, want 1", len(mails))
	}
	if strings.Contains(mails[0].HTMLBody, "<script>") {
		t.Error("announcement HTML not sanitized")
	}
	rcpt := e.mail.recipients()
	if rcpt["asha@example.com"] != 1 || rcpt["bala@example.com"] != 1 {
		t.Errorf("recipients = %v", rcpt)
	}
}

func TestAnnounce_ClosedDrive(t *testing.T) {
	tests := []struct {
		name     string
		allow    bool
		wantKind apperr.Kind
	}{
		{"rejected by default", false, apperr.KindForbidden},
		{"allowed when configured", true, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setupDrive(t, placement.Config{AllowClosedAnnouncements: tt.allow})
			ctx, cancel := testutil.TestContext()
			defer cancel()
			d := e.drive(t)
			if _, err := e.svc.Finalize(ctx, d.ID, nil, true); err != nil {
				t.Fatalf("Finalize: %v", err)
			}

			_, err := e.svc.Announce(ctx, d.ID, "thanks all", e.staff.ID)
			if tt.wantKind < 0 {
				if err != nil {
					t.Errorf("Announce: %v", err)
				}
				return
			}
			if got := apperr.KindOf(err); got != tt.wantKind {
				t.Errorf("kind = %v, want %v (err %v)", got, tt.wantKind, err)
			}
		})
	}
}

func TestFinalize_CompanyStatsScenario(t *testing.T) {
	e := setupDrive(t, placement.Config{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := e.db.Collection("companies").UpdateByID(ctx, e.company.ID,
		bson.M{"$set": bson.M{"total_drives": 2, "total_placed": 3}}); err != nil {
		t.Fatalf("seed stats: %v", err)
	}
	d := e.drive(t)

	res, err := e.svc.Finalize(ctx, d.ID, []primitive.ObjectID{e.s1.ID}, true)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !res.Drive.IsClosed || len(res.Drive.FinalSelected) != 1 {
		t.Errorf("drive = closed:%v selected:%v", res.Drive.IsClosed, res.Drive.FinalSelected)
	}
	if res.Stats == nil {
		t.Fatal("stats not returned")
	}
	if res.Stats.TotalDrives != 3 || res.Stats.TotalPlaced != 4 || res.Stats.AvgPlacedPerDrive != 1.33 {
		t.Errorf("stats = %+v, want 3/4/1.33", *res.Stats)
	}
	if len(res.NewlyPlaced) != 1 || res.NewlyPlaced[0] != e.s1.ID {
		t.Errorf("newly placed = %v", res.NewlyPlaced)
	}

	var s1 models.User
	if err := e.db.Collection("users").FindOne(ctx, bson.M{"_id": e.s1.ID}).Decode(&s1); err != nil {
		t.Fatalf("load s1: %v", err)
	}
	if !s1.IsPlaced || s1.PlacedCompany == nil || *s1.PlacedCompany != e.company.ID || s1.PlacedCompanyName != "Zoho" {
		t.Errorf("s1 placement = %v %v %q", s1.IsPlaced, s1.PlacedCompany, s1.PlacedCompanyName)
	}

	var reg models.Registration
	if err := e.db.Collection("registrations").FindOne(ctx, bson.M{"_id": e.reg.ID}).Decode(&reg); err != nil {
		t.Fatalf("load reg: %v", err)
	}
	if reg.Status != models.RegistrationCompleted {
		t.Errorf("registration status = %q, want completed", reg.Status)
	}

	rcpt := e.mail.recipients()
	if rcpt["asha@example.com"] != 1 || rcpt["bala@example.com"] != 0 {
		t.Errorf("placement emails = %v", rcpt)
	}

	if _, err := e.svc.Finalize(ctx, d.ID, []primitive.ObjectID{e.s1.ID}, true); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("second finalize: got %v, want Forbidden", err)
	}
}

func TestFinalize_RetryAfterFailedStep(t *testing.T) {
	e := setupDrive(t, placement.Config{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	d := e.drive(t)

	// A counter that cannot be decoded fails the stats step after the
	// registration and placement writes.
	if _, err := e.db.Collection("companies").UpdateByID(ctx, e.company.ID,
		bson.M{"$set": bson.M{"total_drives": "broken"}}); err != nil {
		t.Fatalf("break stats: %v", err)
	}
	selected := []primitive.ObjectID{e.s1.ID}
	if _, err := e.svc.Finalize(ctx, d.ID, selected, true); apperr.KindOf(err) != apperr.KindInternal {
		t.Fatalf("first finalize: got %v, want Internal", err)
	}

	var mid models.Drive
	if err := e.db.Collection("drives").FindOne(ctx, bson.M{"_id": d.ID}).Decode(&mid); err != nil {
		t.Fatalf("load drive: %v", err)
	}
	if mid.IsClosed {
		t.Fatal("drive closed although finalize failed")
	}

	if _, err := e.db.Collection("companies").UpdateByID(ctx, e.company.ID,
		bson.M{"$set": bson.M{"total_drives": 2, "total_placed": 3}}); err != nil {
		t.Fatalf("repair stats: %v", err)
	}
	res, err := e.svc.Finalize(ctx, d.ID, selected, true)
	if err != nil {
		t.Fatalf("retry finalize: %v", err)
	}
	if !res.Drive.IsClosed {
		t.Error("drive not closed after retry")
	}
	if res.Stats == nil || res.Stats.TotalDrives != 3 || res.Stats.TotalPlaced != 4 || res.Stats.AvgPlacedPerDrive != 1.33 {
		t.Errorf("stats = %+v, want 3/4/1.33", res.Stats)
	}

	var s1 models.User
	if err := e.db.Collection("users").FindOne(ctx, bson.M{"_id": e.s1.ID}).Decode(&s1); err != nil {
		t.Fatalf("load s1: %v", err)
	}
	if !s1.IsPlaced || s1.PlacedCompany == nil || *s1.PlacedCompany != e.company.ID {
		t.Errorf("s1 placement = %v %v", s1.IsPlaced, s1.PlacedCompany)
	}
	var reg models.Registration
	if err := e.db.Collection("registrations").FindOne(ctx, bson.M{"_id": e.reg.ID}).Decode(&reg); err != nil {
		t.Fatalf("load reg: %v", err)
	}
	if reg.Status != models.RegistrationCompleted {
		t.Errorf("registration status = %q, want completed", reg.Status)
	}

	if _, err := e.svc.Finalize(ctx, d.ID, selected, true); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("finalize after close: got %v, want Forbidden", err)
	}
}

func TestFinalize_KeepsEarlierPlacement(t *testing.T) {
	e := setupDrive(t, placement.Config{})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	earlier := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	other := e.fx.CreateCompany(ctx, "Infosys")
	if _, err := e.db.Collection("users").UpdateByID(ctx, e.s2.ID, bson.M{"$set": bson.M{
		"is_placed":           true,
		"placed_at":           earlier,
		"placed_company":      other.ID,
		"placed_company_name": other.Name,
	}}); err != nil {
		t.Fatalf("seed placement: %v", err)
	}
	d := e.drive(t)

	res, err := e.svc.Finalize(ctx, d.ID, []primitive.ObjectID{e.s1.ID, e.s2.ID}, true)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(res.NewlyPlaced) != 1 {
		t.Errorf("newly placed = %v, want only s1", res.NewlyPlaced)
	}
	if res.Stats.TotalPlaced != 2 {
		t.Errorf("total placed = %d, want 2", res.Stats.TotalPlaced)
	}

	var s2 models.User
	if err := e.db.Collection("users").FindOne(ctx, bson.M{"_id": e.s2.ID}).Decode(&s2); err != nil {
		t.Fatalf("load s2: %v", err)
	}
	if *s2.PlacedCompany != other.ID || !s2.PlacedAt.Equal(earlier) {
		t.Errorf("earlier placement overwritten: %v %v", s2.PlacedCompany, s2.PlacedAt)
	}
}

func TestFinalize_WithoutClose(t *testing.T) {
	e := setupDrive(t, placement.Config{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	d := e.drive(t)

	res, err := e.svc.Finalize(ctx, d.ID, []primitive.ObjectID{e.s1.ID}, false)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if res.Drive.IsClosed || res.Stats != nil || len(res.NewlyPlaced) != 0 {
		t.Errorf("draft finalize changed state: %+v", res)
	}

	var s1 models.User
	if err := e.db.Collection("users").FindOne(ctx, bson.M{"_id": e.s1.ID}).Decode(&s1); err != nil {
		t.Fatalf("load s1: %v", err)
	}
	if s1.IsPlaced {
		t.Error("draft finalize placed a student")
	}

	view, err := e.svc.DriveProgress(ctx, d.ID, e.s1.ID)
	if err != nil {
		t.Fatalf("DriveProgress: %v", err)
	}
	if view.Status != drivepolicy.StatusSelected {
		t.Errorf("status = %q, want selected", view.Status)
	}
}

func TestFinalize_RejectsNonApplicant(t *testing.T) {
	e := setupDrive(t, placement.Config{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	d := e.drive(t)

	_, err := e.svc.Finalize(ctx, d.ID, []primitive.ObjectID{primitive.NewObjectID()}, true)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("got %v, want Validation", err)
	}
	got, err := drivestore.New(e.db).GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.IsClosed {
		t.Error("rejected finalize closed the drive")
	}
}

func TestUpdateDrive(t *testing.T) {
	e := setupDrive(t, placement.Config{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	d := e.drive(t)

	newDate := e.now.AddDate(0, 0, 2)
	got, err := e.svc.UpdateDrive(ctx, d.ID, placement.DriveEdit{
		Rounds: []models.RoundTemplate{{Name: " Coding "}, {Name: "HR"}, {Name: "Managerial"}},
		Date:   &newDate,
	})
	if err != nil {
		t.Fatalf("UpdateDrive: %v", err)
	}
	if len(got.Rounds) != 3 || got.Rounds[0].Name != "Coding" {
		t.Errorf("rounds = %+v", got.Rounds)
	}

	var reg models.Registration
	if err := e.db.Collection("registrations").FindOne(ctx, bson.M{"_id": e.reg.ID}).Decode(&reg); err != nil {
		t.Fatalf("load reg: %v", err)
	}
	if !reg.DriveDate.Equal(newDate.Truncate(time.Millisecond)) {
		t.Errorf("registration date = %v, want %v", reg.DriveDate, newDate)
	}

	if _, err := e.svc.UpdateDrive(ctx, d.ID, placement.DriveEdit{Rounds: []models.RoundTemplate{{Name: ""}}}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("unnamed round: got %v", err)
	}

	if _, err := e.svc.RecordResults(ctx, d.ID, 0, []models.RoundResult{{Student: e.s1.ID, Status: models.RoundPassed}}, nil); err != nil {
		t.Fatalf("RecordResults: %v", err)
	}
	if _, err := e.svc.UpdateDrive(ctx, d.ID, placement.DriveEdit{Date: &newDate}); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("started drive: got %v, want Forbidden", err)
	}
}

func TestDeleteDrive(t *testing.T) {
	e := setupDrive(t, placement.Config{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	d := e.drive(t)

	if _, err := e.svc.DeleteDrive(ctx, d.ID); err != nil {
		t.Fatalf("DeleteDrive: %v", err)
	}
	for coll, filter := range map[string]bson.M{
		"drives":        {"_id": d.ID},
		"registrations": {"_id": e.reg.ID},
		"applications":  {"registration": e.reg.ID},
	} {
		n, err := e.db.Collection(coll).CountDocuments(ctx, filter)
		if err != nil {
			t.Fatalf("count %s: %v", coll, err)
		}
		if n != 0 {
			t.Errorf("%s left behind: %d", coll, n)
		}
	}
	if _, err := e.svc.DeleteDrive(ctx, d.ID); err != drivestore.ErrNotFound {
		t.Errorf("second delete: got %v", err)
	}
}

func TestDeleteDrive_WithResults(t *testing.T) {
	e := setupDrive(t, placement.Config{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	d := e.drive(t)

	if _, err := e.svc.RecordResults(ctx, d.ID, 0, []models.RoundResult{{Student: e.s1.ID, Status: models.RoundOnHold}}, nil); err != nil {
		t.Fatalf("RecordResults: %v", err)
	}
	if _, err := e.svc.DeleteDrive(ctx, d.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("got %v, want Forbidden", err)
	}
}

func TestStudentProgress_Access(t *testing.T) {
	e := setupDrive(t, placement.Config{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.drive(t)
	stranger := e.fx.CreateStudent(ctx, "Chitra", "chitra@example.com", models.AcademicRecord{Batch: 2025})

	if _, err := e.svc.StudentProgress(ctx, "Zoho", stranger.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("non-applicant: got %v, want Forbidden", err)
	}
	if _, err := e.svc.StudentProgress(ctx, "Nobody Inc", e.s1.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("unknown company: got %v, want NotFound", err)
	}

	view, err := e.svc.StudentProgress(ctx, "zoho", e.s2.ID)
	if err != nil {
		t.Fatalf("StudentProgress: %v", err)
	}
	if view.Status != drivepolicy.StatusRegistered && view.Status != drivepolicy.StatusInProgress {
		t.Errorf("status = %q", view.Status)
	}
	if view.Company != "Zoho" || view.Announcements == nil {
		t.Errorf("view = %+v", view)
	}
}
