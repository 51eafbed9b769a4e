package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestCronSchedulerRunsJobs(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler(time.UTC, nil)
	fired := make(chan struct{}, 1)

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "run")

	err := s.AddJob("tick", "@every 1s", func(jobCtx context.Context) {
		if jobCtx.Value(ctxKey{}) != "run" {
			t.Errorf("job did not receive the start context")
		}
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("AddJob returned error: %v", err)
	}
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.Stop(stopCtx); err != nil {
			t.Errorf("Stop returned error: %v", err)
		}
	}()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatalf("job did not fire")
	}
}

func TestCronSchedulerRejectsBadSpecs(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler(nil, nil)
	if err := s.AddJob("bad", "every hour please", func(context.Context) {}); err == nil {
		t.Fatalf("expected parse error")
	}
	if err := s.AddJob("fetch", "0 * * * *", func(context.Context) {}); err != nil {
		t.Fatalf("AddJob returned error: %v", err)
	}
	if err := s.AddJob("fetch", "0 * * * *", func(context.Context) {}); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}

func TestCronSchedulerNextActivation(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler(time.UTC, nil)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }
	if err := s.AddJob("cleanup", "0 2 * * *", func(context.Context) {}); err != nil {
		t.Fatalf("AddJob returned error: %v", err)
	}

	next, ok := s.Next("cleanup")
	if !ok {
		t.Fatalf("registered job must report an activation")
	}
	if want := time.Date(2024, 5, 2, 2, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("next activation %v, want %v", next, want)
	}
	if _, ok := s.Next("missing"); ok {
		t.Fatalf("unknown job must not report an activation")
	}
}
