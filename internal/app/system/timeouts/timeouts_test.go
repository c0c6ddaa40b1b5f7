package timeouts_test

import (
	"context"
	"testing"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/system/timeouts"
	"go.uber.org/zap"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	t.Cleanup(timeouts.Reset)

	timeouts.Configure(timeouts.Config{Short: 7 * time.Second})

	if got := timeouts.Short(); got != 7*time.Second {
		t.Errorf("Short = %v, want 7s", got)
	}
	if got := timeouts.Long(); got != timeouts.DefaultLong {
		t.Errorf("Long = %v, want default %v", got, timeouts.DefaultLong)
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Cleanup(timeouts.Reset)
	t.Setenv("PLACEMATE_TIMEOUT_PING", "750ms")
	t.Setenv("PLACEMATE_TIMEOUT_BATCH", "5m")
	t.Setenv("PLACEMATE_TIMEOUT_MEDIUM", "garbage")
	t.Setenv("PLACEMATE_TIMEOUT_LONG", "-1s")

	if n := timeouts.ConfigureFromEnv(); n != 2 {
		t.Errorf("configured %d, want 2", n)
	}
	cur := timeouts.Current()
	if cur.Ping != 750*time.Millisecond || cur.Batch != 5*time.Minute {
		t.Errorf("unexpected config %+v", cur)
	}
	if cur.Medium != timeouts.DefaultMedium || cur.Long != timeouts.DefaultLong {
		t.Errorf("invalid values should be ignored: %+v", cur)
	}
}

func TestWithTimeout_Expires(t *testing.T) {
	ctx, cancel := timeouts.WithTimeout(context.Background(), time.Millisecond, zap.NewNop(), "test")
	defer cancel()

	<-ctx.Done()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("err = %v, want deadline exceeded", ctx.Err())
	}
}
