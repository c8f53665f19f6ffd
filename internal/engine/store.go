package engine

import (
	"context"

	"github.com/Anika-Jha/Eterna/internal/artifact"
	"github.com/Anika-Jha/Eterna/internal/store"
)

// Store is the persistence the engine needs. *store.DB implements it.
type Store interface {
	ListArtifacts(ctx context.Context) ([]artifact.Artifact, error)
	GetArtifact(ctx context.Context, id int64) (*artifact.Artifact, error)
	CreateArtifact(ctx context.Context, a *artifact.Artifact) error
	UpdateArtifact(ctx context.Context, id int64, p store.Patch) (*artifact.Artifact, error)
}

var _ Store = (*store.DB)(nil)
