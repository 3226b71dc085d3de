package repositories

import (
	"context"

	"github.com/hanko-field/schedule/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProjectRepository loads production project snapshots for analysis.
type ProjectRepository interface {
	// List returns every stored project ordered by id.
	List(ctx context.Context) ([]domain.ProductionProject, error)
	// FindByIDs returns the projects matching ids in the order requested. Unknown ids are omitted.
	FindByIDs(ctx context.Context, ids []string) ([]domain.ProductionProject, error)
	FindByID(ctx context.Context, id string) (domain.ProductionProject, error)
	Save(ctx context.Context, project domain.ProductionProject) error
	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
}
