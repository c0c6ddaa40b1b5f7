package tasks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/system/tasks"
	"go.uber.org/zap"
)

type fakeMaterializer struct {
	calls int
	err   error
}

func (f *fakeMaterializer) MaterializeToday(context.Context) (int, error) {
	f.calls++
	return 2, f.err
}

func TestValidateSpec(t *testing.T) {
	tests := []struct {
		spec string
		ok   bool
	}{
		{"5 0 * * *", true},
		{"0 9 * * 1-5", true},
		{"@hourly", true},
		{"not a spec", false},
		{"* * * * * *", false},
	}
	for _, tc := range tests {
		if err := tasks.ValidateSpec(tc.spec); (err == nil) != tc.ok {
			t.Errorf("ValidateSpec(%q) err = %v", tc.spec, err)
		}
	}
}

func TestScheduler_RunNow(t *testing.T) {
	s := tasks.NewScheduler(time.UTC, zap.NewNop())
	m := &fakeMaterializer{}

	if err := s.Add(tasks.DriveMaterializeJob(m, zap.NewNop(), "5 0 * * *")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.RunNow("drive-materialize"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if m.calls != 1 {
		t.Errorf("calls = %d, want 1", m.calls)
	}

	m.err = errors.New("mongo down")
	if err := s.RunNow("drive-materialize"); err == nil {
		t.Error("expected job error to surface")
	}
	if err := s.RunNow("missing"); err == nil {
		t.Error("expected unknown job error")
	}
}

func TestScheduler_AddRejectsBadSpec(t *testing.T) {
	s := tasks.NewScheduler(time.UTC, zap.NewNop())
	err := s.Add(tasks.Job{Name: "bad", Schedule: "every day", Run: func(context.Context) error { return nil }})
	if err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := tasks.NewScheduler(time.UTC, zap.NewNop())
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
