package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Anika-Jha/Eterna/internal/artifact"
	"github.com/Anika-Jha/Eterna/internal/logging"
	"github.com/Anika-Jha/Eterna/internal/metrics"
	"github.com/Anika-Jha/Eterna/internal/store"
)

// Scheduler defaults.
const (
	DefaultDecayPeriod  = 5 * time.Minute
	DefaultDecayWorkers = 4
)

var (
	// ErrTickInProgress is returned by Tick while another tick is running.
	ErrTickInProgress = errors.New("decay tick already in progress")
	// ErrSchedulerStarted is returned by a second Start.
	ErrSchedulerStarted = errors.New("decay scheduler already started")
)

// TickResult summarises one decay pass.
type TickResult struct {
	Scanned int // artifacts listed
	Faded   int // fade level written
	Skipped int // supported between list and write, left alone
	Failed  int // write failed
}

// Scheduler periodically raises the fade level of artifacts nobody has
// supported in the last hour.
type Scheduler struct {
	store   Store
	period  time.Duration
	workers int
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *slog.Logger

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	ticks  sync.WaitGroup
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithPeriod sets the interval between ticks.
func WithPeriod(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.period = d
		}
	}
}

// WithWorkers bounds the number of concurrent per-artifact writes in a tick.
func WithWorkers(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// WithSchedulerMetrics attaches metrics.
func WithSchedulerMetrics(m *metrics.Metrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

// WithSchedulerLogger replaces the component logger.
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// NewScheduler creates a stopped scheduler over st.
func NewScheduler(st Store, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		store:   st,
		period:  DefaultDecayPeriod,
		workers: DefaultDecayWorkers,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.New("decay")
	}
	return s
}

// Period returns the interval between ticks.
func (s *Scheduler) Period() time.Duration { return s.period }

// Start launches the timer loop. Ticks run off the timer goroutine; a fire
// that lands while the previous tick is still running is dropped.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrSchedulerStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)
	s.logger.Info("decay scheduler started", "period", s.period, "workers", s.workers)
	return nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.running.CompareAndSwap(false, true) {
				s.metrics.TickSkipped()
				s.logger.Warn("decay tick skipped, previous tick still running")
				continue
			}
			s.ticks.Add(1)
			go func() {
				defer s.ticks.Done()
				defer s.running.Store(false)
				s.tick(ctx)
			}()
		case <-ctx.Done():
			return
		}
	}
}

// Stop cancels the timer loop and waits for an in-flight tick to return.
// It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.ticks.Wait()
	s.logger.Info("decay scheduler stopped")
}

// Tick runs one decay pass now. It returns ErrTickInProgress if a pass is
// already running, or the listing error; per-artifact write failures are
// counted in the result but do not fail the tick.
func (s *Scheduler) Tick(ctx context.Context) (TickResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.TickSkipped()
		return TickResult{}, ErrTickInProgress
	}
	defer s.running.Store(false)
	return s.tick(ctx)
}

func (s *Scheduler) tick(ctx context.Context) (TickResult, error) {
	started := time.Now()
	var res TickResult

	list, err := s.store.ListArtifacts(ctx)
	if err != nil {
		s.metrics.ObserveTick(metrics.TickListFailed, 0, 0, time.Since(started))
		s.logger.Error("decay tick: list artifacts", "err", err)
		return res, fmt.Errorf("decay tick: %w", err)
	}
	res.Scanned = len(list)

	now := s.now()
	var faded, skipped, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range list {
		a := list[i]
		fade, ok := artifact.Decay(a.Scores(), now)
		if !ok {
			continue
		}
		g.Go(func() error {
			// Guarded on the count we read: a support landing mid-tick wins.
			p := store.Patch{FadeLevel: &fade, IfSupportCount: &a.SupportCount}
			_, err := s.store.UpdateArtifact(ctx, a.ID, p)
			switch {
			case err == nil:
				faded.Add(1)
			case errors.Is(err, artifact.ErrConflict):
				skipped.Add(1)
				s.logger.Debug("decay skipped, artifact supported during tick", "artifact", a.ID)
			default:
				failed.Add(1)
				s.logger.Warn("decay update failed", "artifact", a.ID, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	res.Faded = int(faded.Load())
	res.Skipped = int(skipped.Load())
	res.Failed = int(failed.Load())

	result := metrics.TickOK
	if res.Failed > 0 {
		result = metrics.TickPartial
	}
	elapsed := time.Since(started)
	s.metrics.ObserveTick(result, res.Faded, res.Failed, elapsed)
	if res.Faded > 0 || res.Failed > 0 {
		s.logger.Info("decay tick", "scanned", res.Scanned, "faded", res.Faded,
			"skipped", res.Skipped, "failed", res.Failed, "took", elapsed)
	}
	return res, nil
}
