package placement

import (
	"context"
	"errors"
	"fmt"

	"github.com/Saravanans7/PlaceMate/internal/app/system/mailer"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MaterializeToday creates the missing drive of every open registration
// scheduled for the current campus day. It is safe to run concurrently
// with itself and with staff creating drives by hand. It returns the
// number of drives created; per-registration failures are joined.
func (s *Service) MaterializeToday(ctx context.Context) (int, error) {
	from, to := s.clock.Today()
	regs, err := s.regs.OpenBetween(ctx, from, to)
	if err != nil {
		return 0, err
	}

	created := 0
	var errs []error
	for _, reg := range regs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		_, ok, err := s.EnsureDrive(ctx, reg, nil)
		if err != nil {
			errs = append(errs, fmt.Errorf("registration %s: %w", reg.ID.Hex(), err))
			continue
		}
		if ok {
			created++
		}
	}
	return created, errors.Join(errs...)
}

// SendDriveReminders emails the applicants of every open registration whose
// drive is tomorrow. A registration is claimed for the day once its
// recipients are resolved and before its emails are queued, so a rerun on
// the same day sends nothing while a failed lookup is retried.
func (s *Service) SendDriveReminders(ctx context.Context) (int, error) {
	from, to := s.clock.Tomorrow()
	regs, err := s.regs.OpenBetween(ctx, from, to)
	if err != nil {
		return 0, err
	}

	day := s.clock.DateKey(s.now())
	sent := 0
	var errs []error
	for _, reg := range regs {
		emails, err := s.applicantEmails(ctx, reg.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("registration %s: %w", reg.ID.Hex(), err))
			continue
		}
		claimed, err := s.regs.ClaimReminder(ctx, reg.ID, day)
		if err != nil {
			errs = append(errs, fmt.Errorf("registration %s: %w", reg.ID.Hex(), err))
			continue
		}
		if !claimed {
			continue
		}
		if s.broadcast("reminder", mailer.BuildDriveReminderEmail(mailer.DriveReminderData{
			Company:   reg.CompanyNameCached,
			DriveDate: s.displayDate(reg.DriveDate),
			Link:      s.cfg.Links.Drive(reg.CompanyNameCached),
		}), emails) > 0 {
			sent++
		}
	}
	if sent > 0 {
		s.log.Info("drive reminders sent", zap.Int("registrations", sent), zap.String("day", day))
	}
	return sent, errors.Join(errs...)
}

// DeleteStudent removes a student and their applications.
func (s *Service) DeleteStudent(ctx context.Context, id primitive.ObjectID) error {
	return s.inTxn(ctx, func(ctx context.Context) error {
		if err := s.users.DeleteStudent(ctx, id); err != nil {
			return err
		}
		_, err := s.apps.DeleteForStudent(ctx, id)
		return err
	})
}
