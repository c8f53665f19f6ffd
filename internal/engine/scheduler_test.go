package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Anika-Jha/Eterna/internal/artifact"
	"github.com/Anika-Jha/Eterna/internal/logging"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func idle(risk, fade int, since time.Duration) artifact.Artifact {
	created := baseTime.Add(-48 * time.Hour)
	return artifact.Artifact{
		Title:           "artifact",
		ExtinctionRisk:  risk,
		FadeLevel:       fade,
		CreatedAt:       created,
		LastSupportedAt: baseTime.Add(-since),
	}
}

func newTestScheduler(st Store, opts ...SchedulerOption) *Scheduler {
	base := []SchedulerOption{WithClock(fixedClock(baseTime)), WithSchedulerLogger(logging.Discard())}
	return NewScheduler(st, append(base, opts...)...)
}

func TestTickDecaysIdleArtifacts(t *testing.T) {
	st := newFakeStore(
		idle(85, 0, 2*time.Hour),     // 1: +9
		idle(100, 95, 3*time.Hour),   // 2: capped at 100
		idle(5, 10, 90*time.Minute),  // 3: +1
		idle(90, 20, 30*time.Minute), // 4: supported recently
		idle(90, 100, 5*time.Hour),   // 5: already faded
	)

	res, err := newTestScheduler(st).Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if res.Scanned != 5 || res.Faded != 3 || res.Failed != 0 {
		t.Errorf("result = %+v", res)
	}

	want := map[int64]int{1: 9, 2: 100, 3: 11, 4: 20, 5: 100}
	for id, fade := range want {
		if got := st.get(id).FadeLevel; got != fade {
			t.Errorf("artifact %d fade = %d, want %d", id, got, fade)
		}
	}
	if st.updates != 3 {
		t.Errorf("updates = %d, want 3 (unchanged artifacts are not written)", st.updates)
	}
}

func TestTickWritesOnlyFade(t *testing.T) {
	a := idle(85, 0, 2*time.Hour)
	a.SupportCount = 4
	st := newFakeStore(a)

	if _, err := newTestScheduler(st).Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	got := st.get(1)
	if got.ExtinctionRisk != 85 || got.SupportCount != 4 || !got.LastSupportedAt.Equal(a.LastSupportedAt) {
		t.Errorf("decay touched more than fade: %+v", got)
	}
}

func TestTickIsolatesUpdateFailures(t *testing.T) {
	st := newFakeStore(
		idle(50, 0, 2*time.Hour),
		idle(50, 0, 2*time.Hour),
		idle(50, 0, 2*time.Hour),
	)
	st.updateErr[2] = artifact.ErrStorageUnavailable

	res, err := newTestScheduler(st, WithWorkers(1)).Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if res.Faded != 2 || res.Failed != 1 {
		t.Errorf("result = %+v, want 2 faded 1 failed", res)
	}
	if st.get(1).FadeLevel != 5 || st.get(3).FadeLevel != 5 {
		t.Errorf("A fade = %d, C fade = %d, want 5 and 5", st.get(1).FadeLevel, st.get(3).FadeLevel)
	}
	if st.get(2).FadeLevel != 0 {
		t.Errorf("B fade = %d, want unchanged 0", st.get(2).FadeLevel)
	}
}

func TestTickListFailure(t *testing.T) {
	st := newFakeStore(idle(50, 0, 2*time.Hour))
	st.listErr = artifact.ErrStorageUnavailable
	s := newTestScheduler(st)

	if _, err := s.Tick(context.Background()); !errors.Is(err, artifact.ErrStorageUnavailable) {
		t.Fatalf("err = %v, want ErrStorageUnavailable", err)
	}

	// The next tick works once storage is back.
	st.mu.Lock()
	st.listErr = nil
	st.mu.Unlock()
	res, err := s.Tick(context.Background())
	if err != nil || res.Faded != 1 {
		t.Errorf("recovery tick = %+v, %v", res, err)
	}
}

func TestSecondTickAfterSupportIsNoop(t *testing.T) {
	st := newFakeStore(idle(85, 60, 3*time.Hour))
	e := New(st, nil, WithNow(fixedClock(baseTime)), WithLogger(logging.Discard()),
		WithDecay(WithSchedulerLogger(logging.Discard())))

	supported, err := e.Support(context.Background(), 1, artifact.ActionVote)
	if err != nil {
		t.Fatalf("Support: %v", err)
	}

	for i := 0; i < 2; i++ {
		res, err := e.Sweep(context.Background())
		if err != nil {
			t.Fatalf("Sweep %d: %v", i, err)
		}
		if res.Faded != 0 {
			t.Errorf("sweep %d faded %d artifacts, want 0", i, res.Faded)
		}
	}
	if got := st.get(1); got.FadeLevel != supported.FadeLevel {
		t.Errorf("fade = %d, want %d", got.FadeLevel, supported.FadeLevel)
	}
}

func TestTickSkipsArtifactSupportedMidTick(t *testing.T) {
	st := newFakeStore(idle(85, 50, 3*time.Hour))
	var once atomic.Bool
	st.beforeUpdate = func(id int64) {
		if once.CompareAndSwap(false, true) {
			st.mu.Lock()
			a := st.artifacts[id]
			a.SupportCount++
			a.FadeLevel = 30
			st.artifacts[id] = a
			st.mu.Unlock()
		}
	}

	res, err := newTestScheduler(st).Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if res.Skipped != 1 || res.Faded != 0 {
		t.Errorf("result = %+v, want 1 skipped", res)
	}
	if got := st.get(1).FadeLevel; got != 30 {
		t.Errorf("fade = %d, want the supported value 30", got)
	}
}

func TestTickRejectsOverlap(t *testing.T) {
	st := newFakeStore(idle(50, 0, 2*time.Hour))
	entered := make(chan struct{})
	release := make(chan struct{})
	st.listHook = func() {
		close(entered)
		<-release
	}
	s := newTestScheduler(st)

	done := make(chan error, 1)
	go func() {
		_, err := s.Tick(context.Background())
		done <- err
	}()
	<-entered

	if _, err := s.Tick(context.Background()); !errors.Is(err, ErrTickInProgress) {
		t.Errorf("overlapping Tick err = %v, want ErrTickInProgress", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Errorf("first Tick: %v", err)
	}
}

func TestStartStop(t *testing.T) {
	st := newFakeStore(idle(50, 0, 2*time.Hour))
	ticked := make(chan struct{}, 16)
	st.listHook = func() {
		select {
		case ticked <- struct{}{}:
		default:
		}
	}
	s := newTestScheduler(st, WithPeriod(5*time.Millisecond))

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrSchedulerStarted) {
		t.Errorf("second Start err = %v, want ErrSchedulerStarted", err)
	}

	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler never ticked")
	}
	s.Stop()
	s.Stop()

	if got := st.get(1).FadeLevel; got < 5 {
		t.Errorf("fade = %d, want at least one decay applied", got)
	}
}
