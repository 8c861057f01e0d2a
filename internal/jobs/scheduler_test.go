package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestSchedulerRunsOnCadence(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler(testLogger(t), mock)

	var runs int64
	s.Add("counter", time.Minute, func(ctx context.Context) error {
		atomic.AddInt64(&runs, 1)
		return nil
	})

	s.Start(context.Background())
	defer s.Stop()

	mock.Add(time.Minute)
	waitFor(t, func() bool { return atomic.LoadInt64(&runs) == 1 })

	mock.Add(2 * time.Minute)
	waitFor(t, func() bool { return atomic.LoadInt64(&runs) == 3 })
}

func TestSchedulerSurvivesErrorsAndPanics(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler(testLogger(t), mock)

	var runs int64
	s.Add("flaky", time.Minute, func(ctx context.Context) error {
		n := atomic.AddInt64(&runs, 1)
		switch n {
		case 1:
			return errors.New("transient")
		case 2:
			panic("boom")
		}
		return nil
	})

	s.Start(context.Background())
	defer s.Stop()

	for want := int64(1); want <= 3; want++ {
		mock.Add(time.Minute)
		waitFor(t, func() bool { return atomic.LoadInt64(&runs) == want })
	}
}

func TestSchedulerStopHaltsJobs(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler(testLogger(t), mock)

	var runs int64
	s.Add("counter", time.Minute, func(ctx context.Context) error {
		atomic.AddInt64(&runs, 1)
		return nil
	})

	s.Start(context.Background())
	mock.Add(time.Minute)
	waitFor(t, func() bool { return atomic.LoadInt64(&runs) == 1 })

	s.Stop()
	mock.Add(5 * time.Minute)
	time.Sleep(10 * time.Millisecond)
	if got := atomic.LoadInt64(&runs); got != 1 {
		t.Fatalf("expected no runs after Stop, got %d", got)
	}
}

func TestSchedulerAddAfterStartIgnored(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler(testLogger(t), mock)
	s.Start(context.Background())
	defer s.Stop()

	var runs int64
	s.Add("late", time.Minute, func(ctx context.Context) error {
		atomic.AddInt64(&runs, 1)
		return nil
	})

	mock.Add(3 * time.Minute)
	time.Sleep(10 * time.Millisecond)
	if got := atomic.LoadInt64(&runs); got != 0 {
		t.Fatalf("late job should not run, got %d runs", got)
	}
}
