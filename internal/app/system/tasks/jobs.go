// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DriveMaterializer creates drives for registrations whose drive date is
// the current campus day.
type DriveMaterializer interface {
	MaterializeToday(ctx context.Context) (int, error)
}

// ReminderSender emails applicants of drives scheduled for tomorrow.
type ReminderSender interface {
	SendDriveReminders(ctx context.Context) (int, error)
}

// StateCleaner removes expired OAuth state tokens.
type StateCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// DriveMaterializeJob runs the daily drive backfill.
func DriveMaterializeJob(m DriveMaterializer, logger *zap.Logger, schedule string) Job {
	return Job{
		Name:     "drive-materialize",
		Schedule: schedule,
		Timeout:  10 * time.Minute,
		Run: func(ctx context.Context) error {
			n, err := m.MaterializeToday(ctx)
			if err != nil {
				return err
			}
			logger.Info("materialized today's drives", zap.Int("created", n))
			return nil
		},
	}
}

// DriveReminderJob sends day-before reminders.
func DriveReminderJob(r ReminderSender, logger *zap.Logger, schedule string) Job {
	return Job{
		Name:     "drive-reminder",
		Schedule: schedule,
		Timeout:  10 * time.Minute,
		Run: func(ctx context.Context) error {
			n, err := r.SendDriveReminders(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("sent drive reminders", zap.Int("registrations", n))
			}
			return nil
		},
	}
}

// OAuthStateCleanupJob removes expired OAuth state tokens.
// This is a backup for when MongoDB's TTL index cleanup is delayed.
func OAuthStateCleanupJob(stateStore StateCleaner, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Schedule: "@hourly",
		Run: func(ctx context.Context) error {
			count, err := stateStore.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}
