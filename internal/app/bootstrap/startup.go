// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/placement"
	"github.com/Saravanans7/PlaceMate/internal/app/store/audit"
	"github.com/Saravanans7/PlaceMate/internal/app/store/oauthstate"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auditlog"
	"github.com/Saravanans7/PlaceMate/internal/app/system/mailer"
	"github.com/Saravanans7/PlaceMate/internal/app/system/ratelimit"
	"github.com/Saravanans7/PlaceMate/internal/app/system/tasks"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timeouts"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timezones"
	"github.com/Saravanans7/PlaceMate/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Job names, also used by RunNow in tests and ops tooling.
const (
	JobMaterializeDrives = "materialize_drives"
	JobDriveReminders    = "drive_reminders"
	JobOAuthCleanup      = "oauth_state_cleanup"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It builds
// the placement service and its collaborators, creates any drive due today
// that was missed while the server was down, and starts the scheduler.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts configured from environment", zap.Int("count", n))
	}

	if err := ensureStaff(ctx, deps, appCfg, logger); err != nil {
		return fmt.Errorf("ensure staff account: %w", err)
	}

	rt := deps.Runtime
	clock, err := timezones.Load(appCfg.CampusTimezone)
	if err != nil {
		return err
	}
	rt.Clock = clock

	rt.Audit = auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:      appCfg.AuditLogAuth,
		Admin:     appCfg.AuditLogAdmin,
		Placement: appCfg.AuditLogPlacement,
	})

	// A nil *Notifier must not reach the service as a non-nil interface.
	var notifier placement.Notifier
	mailCfg := mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}
	if mailCfg.Enabled() {
		rt.Notifier = workers.NewNotifier(mailer.New(mailCfg, logger), logger, appCfg.NotifierQueue, appCfg.NotifierWorkers)
		rt.Notifier.Start()
		notifier = rt.Notifier
	} else {
		logger.Warn("mail_smtp_host is empty; email notifications are disabled")
	}

	rt.Placement = placement.New(deps.MongoDatabase, notifier, clock, logger, placement.Config{
		AllowClosedAnnouncements: appCfg.AllowClosedAnnouncements,
		Links:                    mailer.Links{FrontendURL: appCfg.FrontendURL},
	})
	rt.Limiter = ratelimit.NewLoginLimiter()

	// Backfill before serving: the midnight job may have been missed.
	bctx, cancel := timeouts.WithTimeout(ctx, timeouts.Batch(), logger, "startup drive backfill")
	created, err := rt.Placement.MaterializeToday(bctx)
	cancel()
	if err != nil {
		logger.Warn("startup drive backfill incomplete", zap.Int("created", created), zap.Error(err))
	} else if created > 0 {
		logger.Info("startup drive backfill", zap.Int("created", created))
	}

	rt.Scheduler = tasks.NewScheduler(clock.Location(), logger)
	for _, job := range jobs(appCfg, deps, logger) {
		if err := rt.Scheduler.Add(job); err != nil {
			return fmt.Errorf("schedule jobs: %w", err)
		}
	}
	rt.Scheduler.Start()
	return nil
}

// jobs returns the periodic work of the placement calendar.
func jobs(appCfg AppConfig, deps DBDeps, logger *zap.Logger) []tasks.Job {
	svc := deps.Runtime.Placement
	states := oauthstate.New(deps.MongoDatabase)
	return []tasks.Job{
		{
			Name:     JobMaterializeDrives,
			Schedule: appCfg.DriveMaterializeSchedule,
			Timeout:  timeouts.Batch(),
			Run: func(ctx context.Context) error {
				n, err := svc.MaterializeToday(ctx)
				logger.Info("drives materialized", zap.Int("created", n))
				return err
			},
		},
		{
			Name:     JobDriveReminders,
			Schedule: appCfg.DriveReminderSchedule,
			Timeout:  timeouts.Batch(),
			Run: func(ctx context.Context) error {
				n, err := svc.SendDriveReminders(ctx)
				logger.Info("drive reminders queued", zap.Int("registrations", n))
				return err
			},
		},
		{
			Name:     JobOAuthCleanup,
			Schedule: appCfg.OAuthCleanupSchedule,
			Timeout:  time.Minute,
			Run: func(ctx context.Context) error {
				n, err := states.CleanupExpired(ctx)
				if n > 0 {
					logger.Debug("expired oauth states removed", zap.Int64("count", n))
				}
				return err
			},
		},
	}
}
