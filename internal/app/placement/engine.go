package placement

import (
	"context"
	"errors"
	"html/template"
	"strings"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/policy/drivepolicy"
	companystore "github.com/Saravanans7/PlaceMate/internal/app/store/companies"
	drivestore "github.com/Saravanans7/PlaceMate/internal/app/store/drives"
	registrationstore "github.com/Saravanans7/PlaceMate/internal/app/store/registrations"
	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/app/system/htmlsanitize"
	"github.com/Saravanans7/PlaceMate/internal/app/system/mailer"
	"github.com/Saravanans7/PlaceMate/internal/app/system/normalize"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// EnsureDrive returns the drive of reg, creating it from the company's
// round template when absent. Concurrent callers converge on one drive:
// the loser of the insert race reads the winner's drive.
func (s *Service) EnsureDrive(ctx context.Context, reg models.Registration, actor *primitive.ObjectID) (models.Drive, bool, error) {
	d, err := s.drives.GetByRegistration(ctx, reg.ID)
	if err == nil {
		return d, false, nil
	}
	if !errors.Is(err, drivestore.ErrNotFound) {
		return models.Drive{}, false, err
	}
	if reg.Status == models.RegistrationCompleted {
		return models.Drive{}, false, registrationstore.ErrCompleted
	}

	company, err := s.companies.GetByID(ctx, reg.Company)
	if err != nil {
		return models.Drive{}, false, err
	}
	d = drivepolicy.NewFromRegistration(reg, company, actor, s.now())
	switch err := s.drives.Insert(ctx, d); {
	case err == nil:
		s.log.Info("drive created",
			zap.String("drive", d.ID.Hex()),
			zap.String("registration", reg.ID.Hex()),
			zap.String("company", reg.CompanyNameCached))
		return d, true, nil
	case errors.Is(err, drivestore.ErrDuplicate):
		existing, gerr := s.drives.GetByRegistration(ctx, reg.ID)
		return existing, false, gerr
	default:
		return models.Drive{}, false, err
	}
}

// EnsureDriveFor is EnsureDrive by registration id.
func (s *Service) EnsureDriveFor(ctx context.Context, registrationID primitive.ObjectID, actor *primitive.ObjectID) (models.Drive, bool, error) {
	reg, err := s.regs.GetByID(ctx, registrationID)
	if err != nil {
		return models.Drive{}, false, err
	}
	return s.EnsureDrive(ctx, reg, actor)
}

func (s *Service) applicantSet(ctx context.Context, d models.Drive) (drivepolicy.ApplicantSet, error) {
	ids, err := s.apps.RegisteredStudents(ctx, d.Registration)
	if err != nil {
		return nil, err
	}
	return drivepolicy.NewApplicantSet(ids), nil
}

// RecordResults sets round i's results and optionally moves the current
// round pointer to next.
func (s *Service) RecordResults(ctx context.Context, driveID primitive.ObjectID, i int, results []models.RoundResult, next *int) (models.Drive, error) {
	d, err := s.drives.GetByID(ctx, driveID)
	if err != nil {
		return models.Drive{}, err
	}
	applicants, err := s.applicantSet(ctx, d)
	if err != nil {
		return models.Drive{}, err
	}
	clean, err := drivepolicy.CheckResults(d, i, results, next, applicants)
	if err != nil {
		return models.Drive{}, err
	}
	return s.drives.SetResults(ctx, d.ID, i, clean, next, s.now())
}

// Shortlist replaces round i's shortlist.
func (s *Service) Shortlist(ctx context.Context, driveID primitive.ObjectID, i int, students []primitive.ObjectID) (models.Drive, error) {
	d, err := s.drives.GetByID(ctx, driveID)
	if err != nil {
		return models.Drive{}, err
	}
	applicants, err := s.applicantSet(ctx, d)
	if err != nil {
		return models.Drive{}, err
	}
	clean, err := drivepolicy.CheckShortlist(d, i, students, applicants)
	if err != nil {
		return models.Drive{}, err
	}
	return s.drives.SetShortlist(ctx, d.ID, i, clean, s.now())
}

// Announce appends an announcement and emails the registered applicants.
func (s *Service) Announce(ctx context.Context, driveID primitive.ObjectID, text string, author primitive.ObjectID) (models.Drive, error) {
	text = strings.TrimSpace(text)
	d, err := s.drives.GetByID(ctx, driveID)
	if err != nil {
		return models.Drive{}, err
	}
	if err := drivepolicy.CheckAnnounce(d, text, s.cfg.AllowClosedAnnouncements); err != nil {
		return models.Drive{}, err
	}
	updated, err := s.drives.AddAnnouncement(ctx, d.ID, models.Announcement{
		Text:     text,
		PostedBy: author,
		PostedAt: s.now(),
	}, s.cfg.AllowClosedAnnouncements)
	if err != nil {
		return models.Drive{}, err
	}

	s.notifyApplicants(ctx, "announcement", d.Registration, mailer.BuildAnnouncementEmail(mailer.AnnouncementData{
		Company: d.CompanyNameCached,
		Text:    text,
		HTML:    template.HTML(htmlsanitize.ForEmail(text)),
		Link:    s.cfg.Links.Drive(d.CompanyNameCached),
	}))
	return updated, nil
}

// DriveEdit is a staff edit of an unstarted drive. Nil fields are left alone.
type DriveEdit struct {
	Rounds []models.RoundTemplate
	Date   *time.Time
}

// UpdateDrive edits the rounds or date of a drive that has not started.
// A date change is mirrored onto the registration.
func (s *Service) UpdateDrive(ctx context.Context, driveID primitive.ObjectID, edit DriveEdit) (models.Drive, error) {
	d, err := s.drives.GetByID(ctx, driveID)
	if err != nil {
		return models.Drive{}, err
	}
	if err := drivepolicy.CheckEditRounds(d); err != nil {
		return models.Drive{}, err
	}

	var rounds []models.Round
	if edit.Rounds != nil {
		for i := range edit.Rounds {
			edit.Rounds[i].Name = normalize.Name(edit.Rounds[i].Name)
		}
		if err := drivepolicy.CheckRounds(edit.Rounds); err != nil {
			return models.Drive{}, err
		}
		rounds = make([]models.Round, len(edit.Rounds))
		for i, t := range edit.Rounds {
			rounds[i] = models.Round{
				Name:        t.Name,
				Description: t.Description,
				Shortlisted: []primitive.ObjectID{},
				Results:     []models.RoundResult{},
			}
		}
	}

	var updated models.Drive
	err = s.inTxn(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.drives.ReplaceRounds(ctx, d.ID, rounds, edit.Date, s.now())
		if err != nil {
			return err
		}
		if edit.Date != nil {
			err = s.regs.SetDriveDate(ctx, d.Registration, *edit.Date)
			if errors.Is(err, registrationstore.ErrNotFound) {
				err = nil
			}
		}
		return err
	})
	if err != nil {
		return models.Drive{}, err
	}
	return updated, nil
}

// DeleteDrive removes a drive that has no results, along with its
// registration and that registration's applications.
func (s *Service) DeleteDrive(ctx context.Context, driveID primitive.ObjectID) (models.Drive, error) {
	d, err := s.drives.GetByID(ctx, driveID)
	if err != nil {
		return models.Drive{}, err
	}
	if err := drivepolicy.CheckDelete(d); err != nil {
		return models.Drive{}, err
	}
	err = s.inTxn(ctx, func(ctx context.Context) error {
		if err := s.drives.Delete(ctx, d.ID); err != nil {
			return err
		}
		if _, err := s.apps.DeleteForRegistration(ctx, d.Registration); err != nil {
			return err
		}
		err := s.regs.Delete(ctx, d.Registration)
		if errors.Is(err, registrationstore.ErrNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return models.Drive{}, err
	}
	return d, nil
}

// FinalizeResult reports what a finalization changed.
type FinalizeResult struct {
	Drive       models.Drive         `json:"drive"`
	NewlyPlaced []primitive.ObjectID `json:"newlyPlaced"`
	Stats       *models.CompanyStats `json:"stats,omitempty"`
}

// Finalize records the final selection. With close set it also closes the
// drive, completes the registration, places the selected students and
// folds the drive into the company's counters, all in one transaction when
// the deployment has them and as a retryable sequence otherwise.
// Students already placed elsewhere keep their placement. Each newly placed
// student is emailed afterwards.
func (s *Service) Finalize(ctx context.Context, driveID primitive.ObjectID, selected []primitive.ObjectID, close bool) (FinalizeResult, error) {
	d, err := s.drives.GetByID(ctx, driveID)
	if err != nil {
		return FinalizeResult{}, err
	}
	applicants, err := s.applicantSet(ctx, d)
	if err != nil {
		return FinalizeResult{}, err
	}
	clean, err := drivepolicy.CheckFinalize(d, selected, applicants)
	if err != nil {
		return FinalizeResult{}, err
	}

	now := s.now()
	company := models.Company{ID: d.Company, Name: d.CompanyNameCached}
	var res FinalizeResult
	err = s.inTxn(ctx, func(ctx context.Context) error {
		res = FinalizeResult{}
		if close {
			// Without a transaction these writes may land before a failure,
			// so each is idempotent and the drive closes last: a retry finds
			// it still open and converges.
			if err := s.regs.Complete(ctx, d.Registration, now); err != nil {
				return err
			}
			placed, err := s.users.MarkPlaced(ctx, clean, company, now)
			if err != nil {
				return err
			}
			res.NewlyPlaced = placed
			stats, err := s.companies.ApplyFinalize(ctx, d.Company, d.ID, drivepolicy.FinalizeEvent{Placed: len(clean), At: now})
			switch {
			case err == nil:
				res.Stats = &stats
			case errors.Is(err, companystore.ErrNotFound):
				s.log.Warn("company missing; stats not updated",
					zap.String("drive", d.ID.Hex()), zap.String("company", d.Company.Hex()))
			default:
				return err
			}
		}
		updated, err := s.drives.Finalize(ctx, d.ID, clean, close, now)
		if err != nil {
			return err
		}
		res.Drive = updated
		return nil
	})
	if err != nil {
		return FinalizeResult{}, err
	}

	if close {
		s.log.Info("drive finalized",
			zap.String("drive", d.ID.Hex()),
			zap.String("company", d.CompanyNameCached),
			zap.Int("selected", len(clean)),
			zap.Int("newly_placed", len(res.NewlyPlaced)))
		s.notifyPlaced(ctx, d.CompanyNameCached, res.NewlyPlaced)
	}
	if res.NewlyPlaced == nil {
		res.NewlyPlaced = []primitive.ObjectID{}
	}
	return res, nil
}

func (s *Service) notifyPlaced(ctx context.Context, company string, ids []primitive.ObjectID) {
	if len(ids) == 0 {
		return
	}
	users, err := s.users.ByIDs(ctx, ids)
	if err != nil {
		s.log.Warn("resolve placed students failed", zap.String("company", company), zap.Error(err))
		return
	}
	for _, u := range users {
		s.send("placed", mailer.BuildPlacedEmail(mailer.PlacedData{
			Name:    u.Name,
			Company: company,
			Link:    s.cfg.Links.Experience(company),
		}), u.Email)
	}
}

// ProgressView is the student-facing projection of a drive.
type ProgressView struct {
	DriveID           primitive.ObjectID    `json:"driveId"`
	Company           string                `json:"company"`
	Date              string                `json:"date"`
	State             drivepolicy.State     `json:"state"`
	CurrentRoundIndex int                   `json:"currentRoundIndex"`
	TotalRounds       int                   `json:"totalRounds"`
	Announcements     []models.Announcement `json:"announcements"`
	drivepolicy.Progress
}

var errNotApplicant = apperr.Forbidden("You are not registered for this drive")

// StudentProgress returns the student's view of the latest drive of the
// named company among the registrations they applied to.
func (s *Service) StudentProgress(ctx context.Context, companyName string, studentID primitive.ObjectID) (ProgressView, error) {
	ci := normalize.NameCI(companyName)
	apps, err := s.apps.RegisteredByStudent(ctx, studentID)
	if err != nil {
		return ProgressView{}, err
	}
	regIDs := make([]primitive.ObjectID, len(apps))
	for i, a := range apps {
		regIDs[i] = a.Registration
	}

	d, err := s.drives.LatestForCompany(ctx, ci, regIDs)
	if errors.Is(err, drivestore.ErrNotFound) {
		exists, xerr := s.drives.ExistsForCompany(ctx, ci)
		if xerr != nil {
			return ProgressView{}, xerr
		}
		if exists {
			return ProgressView{}, errNotApplicant
		}
		return ProgressView{}, err
	}
	if err != nil {
		return ProgressView{}, err
	}
	return s.progressView(d, studentID), nil
}

// DriveProgress projects a known drive for a student. The student must be
// a registered applicant.
func (s *Service) DriveProgress(ctx context.Context, driveID, studentID primitive.ObjectID) (ProgressView, error) {
	d, err := s.drives.GetByID(ctx, driveID)
	if err != nil {
		return ProgressView{}, err
	}
	ok, err := s.apps.IsRegistered(ctx, d.Registration, studentID)
	if err != nil {
		return ProgressView{}, err
	}
	if !ok {
		return ProgressView{}, errNotApplicant
	}
	return s.progressView(d, studentID), nil
}

func (s *Service) progressView(d models.Drive, studentID primitive.ObjectID) ProgressView {
	ann := d.Announcements
	if ann == nil {
		ann = []models.Announcement{}
	}
	return ProgressView{
		DriveID:           d.ID,
		Company:           d.CompanyNameCached,
		Date:              s.clock.DateKey(d.Date),
		State:             drivepolicy.StateOf(d),
		CurrentRoundIndex: d.CurrentRoundIndex,
		TotalRounds:       len(d.Rounds),
		Announcements:     ann,
		Progress:          drivepolicy.StudentProgress(d, studentID),
	}
}
