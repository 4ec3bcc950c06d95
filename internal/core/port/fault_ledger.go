package port

import (
	"context"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
)

// FaultLedger persists internal failure records for later inspection.
type FaultLedger interface {
	// GetByCause returns an existing fault with the identical cause, or
	// repository.ErrNotFound.
	GetByCause(ctx context.Context, cause string) (*domain.Fault, error)
	Insert(ctx context.Context, fault domain.Fault) error
}
