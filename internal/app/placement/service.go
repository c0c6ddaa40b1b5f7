// Package placement runs the operations that span more than one collection:
// the application ledger, the drive engine, registration and drive
// lifecycle, and experience moderation.
//
// Every method returns apperr kinds. Email is best-effort: recipients are
// resolved and queued after the primary write, and any failure there is
// logged and dropped.
package placement

import (
	"context"
	"time"

	applicationstore "github.com/Saravanans7/PlaceMate/internal/app/store/applications"
	blackliststore "github.com/Saravanans7/PlaceMate/internal/app/store/blacklist"
	companystore "github.com/Saravanans7/PlaceMate/internal/app/store/companies"
	drivestore "github.com/Saravanans7/PlaceMate/internal/app/store/drives"
	experiencestore "github.com/Saravanans7/PlaceMate/internal/app/store/experiences"
	registrationstore "github.com/Saravanans7/PlaceMate/internal/app/store/registrations"
	userstore "github.com/Saravanans7/PlaceMate/internal/app/store/users"
	"github.com/Saravanans7/PlaceMate/internal/app/system/mailer"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timezones"
	"github.com/Saravanans7/PlaceMate/internal/app/system/txn"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Notifier queues email for background delivery. Enqueue must not block.
type Notifier interface {
	Enqueue(e mailer.Email) bool
}

// Config holds the policy switches and link settings.
type Config struct {
	// AllowClosedAnnouncements lets staff post announcements on closed drives.
	AllowClosedAnnouncements bool
	Links                    mailer.Links
	// BccChunk caps recipients per broadcast email. Zero means 50.
	BccChunk int
}

// Service is the placement workflow over the stores.
type Service struct {
	client *mongo.Client

	users       *userstore.Store
	companies   *companystore.Store
	regs        *registrationstore.Store
	apps        *applicationstore.Store
	drives      *drivestore.Store
	blacklist   *blackliststore.Store
	experiences *experiencestore.Store

	notifier Notifier
	clock    *timezones.Clock
	log      *zap.Logger
	cfg      Config
}

// New builds a Service over db. notifier may be nil, which disables email.
func New(db *mongo.Database, notifier Notifier, clock *timezones.Clock, logger *zap.Logger, cfg Config) *Service {
	if cfg.BccChunk <= 0 {
		cfg.BccChunk = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:      db.Client(),
		users:       userstore.New(db),
		companies:   companystore.New(db),
		regs:        registrationstore.New(db),
		apps:        applicationstore.New(db),
		drives:      drivestore.New(db),
		blacklist:   blackliststore.New(db),
		experiences: experiencestore.New(db),
		notifier:    notifier,
		clock:       clock,
		log:         logger,
		cfg:         cfg,
	}
}

// Clock returns the campus clock the service computes days with.
func (s *Service) Clock() *timezones.Clock { return s.clock }

func (s *Service) now() time.Time { return s.clock.Now().UTC() }

func (s *Service) inTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	return txn.Run(ctx, s.client, s.log, fn)
}

// broadcast queues tmpl to recipients in Bcc chunks. Each chunk shares a
// batch id so a delivery failure can be traced back to the trigger.
func (s *Service) broadcast(kind string, tmpl mailer.Email, recipients []string) int {
	if s.notifier == nil || len(recipients) == 0 {
		return 0
	}
	batch := uuid.NewString()
	queued := 0
	for start := 0; start < len(recipients); start += s.cfg.BccChunk {
		end := min(start+s.cfg.BccChunk, len(recipients))
		e := tmpl
		e.Bcc = append([]string(nil), recipients[start:end]...)
		if s.notifier.Enqueue(e) {
			queued += end - start
		} else {
			s.log.Warn("notification dropped",
				zap.String("kind", kind),
				zap.String("batch", batch),
				zap.Int("recipients", end-start))
		}
	}
	s.log.Info("notification queued",
		zap.String("kind", kind),
		zap.String("batch", batch),
		zap.Int("recipients", queued))
	return queued
}

// send queues a single-recipient email.
func (s *Service) send(kind string, e mailer.Email, to string) {
	if s.notifier == nil || to == "" {
		return
	}
	e.To = to
	if !s.notifier.Enqueue(e) {
		s.log.Warn("notification dropped", zap.String("kind", kind), zap.String("to", to))
	}
}

func emailsOf[T any](items []T, email func(T) string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		e := email(it)
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
