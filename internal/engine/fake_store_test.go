package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Anika-Jha/Eterna/internal/artifact"
	"github.com/Anika-Jha/Eterna/internal/store"
)

// fakeStore is an in-memory Store with failure injection.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	artifacts map[int64]artifact.Artifact

	listErr   error
	updateErr map[int64]error
	// conflicts forces this many guarded updates to fail with ErrConflict.
	conflicts int
	// beforeUpdate runs outside the lock at the start of every update.
	beforeUpdate func(id int64)
	// listHook runs at the start of every list call.
	listHook func()

	updates int
}

func newFakeStore(list ...artifact.Artifact) *fakeStore {
	f := &fakeStore{artifacts: map[int64]artifact.Artifact{}, updateErr: map[int64]error{}}
	for _, a := range list {
		f.nextID++
		if a.ID == 0 {
			a.ID = f.nextID
		}
		f.artifacts[a.ID] = a
	}
	return f
}

func (f *fakeStore) ListArtifacts(ctx context.Context) ([]artifact.Artifact, error) {
	if f.listHook != nil {
		f.listHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]artifact.Artifact, 0, len(f.artifacts))
	for _, a := range f.artifacts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetArtifact(ctx context.Context, id int64) (*artifact.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.artifacts[id]
	if !ok {
		return nil, fmt.Errorf("artifact %d: %w", id, artifact.ErrNotFound)
	}
	return &a, nil
}

func (f *fakeStore) CreateArtifact(ctx context.Context, a *artifact.Artifact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a.ID = f.nextID
	if a.LastSupportedAt.IsZero() {
		a.LastSupportedAt = a.CreatedAt
	}
	f.artifacts[a.ID] = *a
	return nil
}

func (f *fakeStore) UpdateArtifact(ctx context.Context, id int64, p store.Patch) (*artifact.Artifact, error) {
	if f.beforeUpdate != nil {
		f.beforeUpdate(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++

	if err := f.updateErr[id]; err != nil {
		return nil, err
	}
	a, ok := f.artifacts[id]
	if !ok {
		return nil, fmt.Errorf("artifact %d: %w", id, artifact.ErrNotFound)
	}
	if p.IfSupportCount != nil {
		if f.conflicts > 0 {
			f.conflicts--
			return nil, artifact.ErrConflict
		}
		if a.SupportCount != *p.IfSupportCount {
			return nil, artifact.ErrConflict
		}
	}
	if p.FadeLevel != nil {
		a.FadeLevel = *p.FadeLevel
	}
	if p.ExtinctionRisk != nil {
		a.ExtinctionRisk = *p.ExtinctionRisk
	}
	if p.SupportCount != nil {
		a.SupportCount = *p.SupportCount
	}
	if p.LastSupportedAt != nil {
		a.LastSupportedAt = *p.LastSupportedAt
	}
	if p.Narrative != nil {
		a.Narrative = *p.Narrative
	}
	f.artifacts[id] = a
	return &a, nil
}

func (f *fakeStore) get(id int64) artifact.Artifact {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.artifacts[id]
}
