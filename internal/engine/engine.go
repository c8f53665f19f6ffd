// Package engine runs Eterna's artifact lifecycle: creation with a generated
// narrative, support actions and periodic decay.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Anika-Jha/Eterna/internal/artifact"
	"github.com/Anika-Jha/Eterna/internal/llm"
	"github.com/Anika-Jha/Eterna/internal/logging"
	"github.com/Anika-Jha/Eterna/internal/metrics"
	"github.com/Anika-Jha/Eterna/internal/store"
)

// DefaultNarrativeTimeout bounds one background narrative generation.
const DefaultNarrativeTimeout = 30 * time.Second

// maxSupportAttempts bounds compare-and-set retries for one support action.
const maxSupportAttempts = 8

// Engine orchestrates artifact creation, support and decay.
type Engine struct {
	store   Store
	llm     llm.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time

	randMu sync.Mutex
	rand   artifact.Rand

	narrativeTimeout time.Duration
	narratives       sync.WaitGroup

	schedOpts []SchedulerOption
	scheduler *Scheduler
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics attaches metrics to the engine and its scheduler.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger replaces the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRand replaces the source of initial risk, rarity and token draws.
func WithRand(r artifact.Rand) Option {
	return func(e *Engine) { e.rand = r }
}

// WithNow replaces time.Now for the engine and its scheduler.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithNarrativeTimeout bounds background narrative generation.
func WithNarrativeTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.narrativeTimeout = d
		}
	}
}

// WithDecay passes options through to the decay scheduler.
func WithDecay(opts ...SchedulerOption) Option {
	return func(e *Engine) { e.schedOpts = append(e.schedOpts, opts...) }
}

// New creates an Engine. A nil client disables narrative generation.
func New(st Store, client llm.Client, opts ...Option) *Engine {
	e := &Engine{
		store:            st,
		llm:              client,
		now:              time.Now,
		rand:             artifact.DefaultRand,
		narrativeTimeout: DefaultNarrativeTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.llm == nil {
		e.llm = llm.None{}
	}
	if e.logger == nil {
		e.logger = logging.New("engine")
	}

	sched := []SchedulerOption{WithClock(e.now), WithSchedulerMetrics(e.metrics)}
	e.scheduler = NewScheduler(st, append(sched, e.schedOpts...)...)
	return e
}

// Scheduler returns the decay scheduler.
func (e *Engine) Scheduler() *Scheduler {
	return e.scheduler
}

// Start starts the decay scheduler.
func (e *Engine) Start(ctx context.Context) error {
	return e.scheduler.Start(ctx)
}

// Stop shuts down the scheduler and waits for pending narratives.
func (e *Engine) Stop() {
	e.scheduler.Stop()
	e.narratives.Wait()
}

// Sweep runs one decay tick immediately.
func (e *Engine) Sweep(ctx context.Context) (TickResult, error) {
	return e.scheduler.Tick(ctx)
}

// Create validates in, assigns the creation-time draws and persists the new
// artifact. Its narrative is generated in the background afterwards.
func (e *Engine) Create(ctx context.Context, in artifact.NewArtifact) (*artifact.Artifact, error) {
	n, err := in.Normalize()
	if err != nil {
		return nil, err
	}

	e.randMu.Lock()
	risk := artifact.InitialRisk(e.rand)
	rarity := artifact.RandomRarity(e.rand)
	token := artifact.NewTokenID(e.rand)
	e.randMu.Unlock()

	a := &artifact.Artifact{
		Title:          n.Title,
		Type:           n.Type,
		Description:    n.Description,
		ImageURL:       n.ImageURL,
		Tags:           n.Tags,
		ExtinctionRisk: risk,
		CreatedAt:      e.now(),
		TokenID:        token,
		Rarity:         rarity,
	}
	if err := e.store.CreateArtifact(ctx, a); err != nil {
		return nil, fmt.Errorf("create artifact: %w", err)
	}
	e.logger.Info("artifact created", "artifact", a.ID, "type", a.Type, "risk", a.ExtinctionRisk, "rarity", a.Rarity)

	e.narratives.Add(1)
	go e.narrate(*a)
	return a, nil
}

func (e *Engine) narrate(a artifact.Artifact) {
	defer e.narratives.Done()

	ctx, cancel := context.WithTimeout(context.Background(), e.narrativeTimeout)
	defer cancel()

	text, err := llm.Narrate(ctx, e.llm, a.Title, a.Type, a.Description)
	if err != nil && !errors.Is(err, llm.ErrDisabled) {
		e.logger.Warn("narrative generation failed, using fallback", "artifact", a.ID, "err", err)
	}
	if _, err := e.store.UpdateArtifact(ctx, a.ID, store.Patch{Narrative: &text}); err != nil {
		e.logger.Error("store narrative", "artifact", a.ID, "err", err)
	}
}

// WaitNarratives blocks until background narrative generation has finished.
func (e *Engine) WaitNarratives() {
	e.narratives.Wait()
}

// Support applies action to the artifact with the given id and persists the
// result. Concurrent supports on one artifact are serialised by a
// compare-and-set on the support count, so none is lost.
func (e *Engine) Support(ctx context.Context, id int64, action artifact.Action) (*artifact.Artifact, error) {
	if !action.Valid() {
		e.metrics.ObserveSupport(string(action), "invalid")
		return nil, fmt.Errorf("%w: %q", artifact.ErrInvalidAction, action)
	}

	for attempt := 1; attempt <= maxSupportAttempts; attempt++ {
		cur, err := e.store.GetArtifact(ctx, id)
		if err != nil {
			e.metrics.ObserveSupport(string(action), supportResult(err))
			return nil, err
		}

		next := artifact.ApplySupport(cur.Scores(), action, e.now())
		p := store.ScoresPatch(next)
		p.IfSupportCount = &cur.SupportCount

		updated, err := e.store.UpdateArtifact(ctx, id, p)
		if errors.Is(err, artifact.ErrConflict) {
			e.logger.Debug("support conflict, retrying", "artifact", id, "attempt", attempt)
			continue
		}
		if err != nil {
			e.metrics.ObserveSupport(string(action), supportResult(err))
			return nil, fmt.Errorf("support artifact %d: %w", id, err)
		}
		e.metrics.ObserveSupport(string(action), "ok")
		return updated, nil
	}

	e.metrics.ObserveSupport(string(action), "conflict")
	return nil, fmt.Errorf("support artifact %d: %w: %w after %d attempts",
		id, artifact.ErrStorageUnavailable, artifact.ErrConflict, maxSupportAttempts)
}

func supportResult(err error) string {
	switch {
	case errors.Is(err, artifact.ErrNotFound):
		return "not_found"
	case errors.Is(err, artifact.ErrStorageUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
