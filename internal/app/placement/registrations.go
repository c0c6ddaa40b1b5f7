package placement

import (
	"context"
	"errors"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/policy/drivepolicy"
	"github.com/Saravanans7/PlaceMate/internal/app/policy/eligibility"
	drivestore "github.com/Saravanans7/PlaceMate/internal/app/store/drives"
	registrationstore "github.com/Saravanans7/PlaceMate/internal/app/store/registrations"
	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/app/system/mailer"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const displayDateLayout = "02 Jan 2006"

func (s *Service) displayDate(t time.Time) string {
	return t.In(s.clock.Location()).Format(displayDateLayout)
}

// CreateRegistration opens a registration for a company and emails every
// eligible student of the notified batches.
func (s *Service) CreateRegistration(ctx context.Context, reg models.Registration, companyID, actor primitive.ObjectID) (models.Registration, error) {
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return models.Registration{}, err
	}
	reg.CreatedBy = &actor
	created, err := s.regs.Create(ctx, reg, company)
	if err != nil {
		return models.Registration{}, err
	}

	if s.notifyOpened(ctx, created) > 0 {
		if err := s.regs.MarkMailSent(ctx, created.ID); err != nil {
			s.log.Warn("mark mail sent failed", zap.String("registration", created.ID.Hex()), zap.Error(err))
		} else {
			created.MailSent = true
		}
	}
	return created, nil
}

// EligibleRecipients returns the students of the registration's notified
// batches who satisfy its rule and are not blacklisted.
func (s *Service) EligibleRecipients(ctx context.Context, reg models.Registration) ([]models.User, error) {
	students, err := s.users.StudentsInBatches(ctx, reg.NotificationBatches())
	if err != nil {
		return nil, err
	}
	eligible := eligibility.Filter(students, reg.Eligibility)
	ids := make([]primitive.ObjectID, len(eligible))
	for i, u := range eligible {
		ids[i] = u.ID
	}
	blocked, err := s.blacklist.ActiveAmong(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := eligible[:0]
	for _, u := range eligible {
		if !blocked[u.ID] {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Service) notifyOpened(ctx context.Context, reg models.Registration) int {
	recipients, err := s.EligibleRecipients(ctx, reg)
	if err != nil {
		s.log.Warn("resolve registration recipients failed", zap.String("registration", reg.ID.Hex()), zap.Error(err))
		return 0
	}
	e := mailer.BuildRegistrationOpenEmail(mailer.RegistrationOpenData{
		Company:   reg.CompanyNameCached,
		Batch:     reg.Batch,
		DriveDate: s.displayDate(reg.DriveDate),
		Link:      s.cfg.Links.Register(reg.CompanyNameCached),
	})
	return s.broadcast("registration_open", e, emailsOf(recipients, func(u models.User) string { return u.Email }))
}

// applicantEmails returns the emails of a registration's registered applicants.
func (s *Service) applicantEmails(ctx context.Context, registrationID primitive.ObjectID) ([]string, error) {
	ids, err := s.apps.RegisteredStudents(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	users, err := s.users.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return emailsOf(users, func(u models.User) string { return u.Email }), nil
}

func (s *Service) notifyApplicants(ctx context.Context, kind string, registrationID primitive.ObjectID, e mailer.Email) {
	emails, err := s.applicantEmails(ctx, registrationID)
	if err != nil {
		s.log.Warn("resolve applicant recipients failed",
			zap.String("kind", kind), zap.String("registration", registrationID.Hex()), zap.Error(err))
		return
	}
	s.broadcast(kind, e, emails)
}

// UpdateRegistration edits a registration and tells registered applicants.
// Moving the drive date also moves an unstarted drive; a started drive
// pins the date.
func (s *Service) UpdateRegistration(ctx context.Context, id primitive.ObjectID, upd registrationstore.Update) (models.Registration, error) {
	var drive *models.Drive
	if upd.DriveDate != nil {
		d, err := s.drives.GetByRegistration(ctx, id)
		switch {
		case err == nil:
			if err := drivepolicy.CheckEditRounds(d); err != nil {
				return models.Registration{}, apperr.Forbidden("drive has started; the date can no longer change")
			}
			drive = &d
		case !errors.Is(err, drivestore.ErrNotFound):
			return models.Registration{}, err
		}
	}

	var updated models.Registration
	err := s.inTxn(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.regs.Update(ctx, id, upd)
		if err != nil {
			return err
		}
		if drive != nil {
			_, err = s.drives.ReplaceRounds(ctx, drive.ID, nil, upd.DriveDate, s.now())
		}
		return err
	})
	if err != nil {
		return models.Registration{}, err
	}

	s.notifyApplicants(ctx, "registration_changed", updated.ID, mailer.BuildRegistrationChangedEmail(mailer.RegistrationChangedData{
		Company:   updated.CompanyNameCached,
		DriveDate: s.displayDate(updated.DriveDate),
		Link:      s.cfg.Links.Register(updated.CompanyNameCached),
	}))
	return updated, nil
}

// DeleteRegistration removes a registration with its applications and its
// drive, if one exists and has not started. Applicants are told afterwards.
func (s *Service) DeleteRegistration(ctx context.Context, id primitive.ObjectID) error {
	reg, err := s.regs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if reg.Status == models.RegistrationCompleted {
		return registrationstore.ErrCompleted
	}
	var drive *models.Drive
	d, err := s.drives.GetByRegistration(ctx, id)
	switch {
	case err == nil:
		if err := drivepolicy.CheckDelete(d); err != nil {
			return err
		}
		drive = &d
	case !errors.Is(err, drivestore.ErrNotFound):
		return err
	}

	emails, err := s.applicantEmails(ctx, id)
	if err != nil {
		s.log.Warn("resolve applicant recipients failed", zap.String("registration", id.Hex()), zap.Error(err))
	}

	err = s.inTxn(ctx, func(ctx context.Context) error {
		if drive != nil {
			if err := s.drives.Delete(ctx, drive.ID); err != nil {
				return err
			}
		}
		if _, err := s.apps.DeleteForRegistration(ctx, id); err != nil {
			return err
		}
		return s.regs.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.broadcast("registration_cancelled", mailer.BuildRegistrationChangedEmail(mailer.RegistrationChangedData{
		Company:   reg.CompanyNameCached,
		Cancelled: true,
	}), emails)
	return nil
}
