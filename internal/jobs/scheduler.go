package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
)

// JobFunc is one maintenance pass. Errors are logged and the cadence keeps
// ticking; a panic in one run does not disturb later runs or other jobs.
type JobFunc func(ctx context.Context) error

type job struct {
	name  string
	every time.Duration
	fn    JobFunc
}

// Scheduler runs registered jobs on fixed independent cadences. Jobs must be
// added before Start; Stop waits for in-flight runs to finish.
type Scheduler struct {
	log  *logger.Logger
	clk  clock.Clock
	jobs []job

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewScheduler(log *logger.Logger, clk clock.Clock) *Scheduler {
	return &Scheduler{
		log: log.With("component", "Scheduler"),
		clk: clk,
	}
}

func (s *Scheduler) Add(name string, every time.Duration, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.log.Warn("job added after start is ignored", "job", name)
		return
	}
	s.jobs = append(s.jobs, job{name: name, every: every, fn: fn})
}

// Start launches one ticker goroutine per job and returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
	s.log.Info("scheduler started", "jobs", len(s.jobs))
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j job) {
	defer s.wg.Done()
	ticker := s.clk.Ticker(j.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOne(ctx, j)
		}
	}
}

func (s *Scheduler) runOne(ctx context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("job panicked", "job", j.name, "panic", r)
		}
	}()
	start := s.clk.Now()
	if err := j.fn(ctx); err != nil {
		s.log.Error("job failed", "job", j.name, "error", err)
		return
	}
	s.log.Debug("job completed", "job", j.name, "took", s.clk.Since(start))
}
