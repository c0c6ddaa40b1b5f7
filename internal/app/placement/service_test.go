package placement_test

import (
	"sync"
	"testing"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/placement"
	"github.com/Saravanans7/PlaceMate/internal/app/system/indexes"
	"github.com/Saravanans7/PlaceMate/internal/app/system/mailer"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timezones"
	"github.com/Saravanans7/PlaceMate/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// outbox records queued email.
type outbox struct {
	mu   sync.Mutex
	sent []mailer.Email
}

func (o *outbox) Enqueue(e mailer.Email) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, e)
	return true
}

func (o *outbox) emails() []mailer.Email {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]mailer.Email(nil), o.sent...)
}

// recipients flattens To and Bcc of every queued email.
func (o *outbox) recipients() map[string]int {
	out := map[string]int{}
	for _, e := range o.emails() {
		for _, r := range e.Recipients() {
			out[r]++
		}
	}
	return out
}

type env struct {
	svc  *placement.Service
	fx   *testutil.Fixtures
	db   *mongo.Database
	mail *outbox
	now  time.Time
}

func newEnv(t *testing.T, cfg placement.Config) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	now := time.Now().UTC()
	mail := &outbox{}
	cfg.Links = mailer.Links{FrontendURL: "https://placemate.test"}
	return env{
		svc:  placement.New(db, mail, timezones.Fixed(time.UTC, now), zap.NewNop(), cfg),
		fx:   testutil.NewFixtures(t, db),
		db:   db,
		mail: mail,
		now:  now,
	}
}

func setup(t *testing.T) env {
	return newEnv(t, placement.Config{})
}

func ptr[T any](v T) *T { return &v }
