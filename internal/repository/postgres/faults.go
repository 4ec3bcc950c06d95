package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
	"github.com/GitHubKaan/gju-jobs-api/internal/core/port"
	"github.com/GitHubKaan/gju-jobs-api/internal/repository"
)

const faultTable = "internal_faults"

// FaultRepository implements port.FaultLedger.
type FaultRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewFaultRepository constructs the ledger over any pgExecutor.
func NewFaultRepository(exec pgExecutor) *FaultRepository {
	return &FaultRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByCause returns an existing fault with the identical serialized cause so
// repeated failures reuse one reference identifier.
func (r *FaultRepository) GetByCause(ctx context.Context, cause string) (*domain.Fault, error) {
	stmt, args, err := r.builder.
		Select("fault_uuid", "cause", "backend", "created_at").
		From(faultTable).
		Where(squirrel.Eq{"cause": cause}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select fault sql: %w", err)
	}

	var fault domain.Fault
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&fault.UUID,
		&fault.Cause,
		&fault.Backend,
		&fault.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select fault: %w", err)
	}

	return &fault, nil
}

// Insert persists a new fault record.
func (r *FaultRepository) Insert(ctx context.Context, fault domain.Fault) error {
	stmt, args, err := r.builder.Insert(faultTable).
		Columns("fault_uuid", "cause", "backend").
		Values(fault.UUID, fault.Cause, fault.Backend).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert fault sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert fault: %w", err)
	}

	return nil
}

var _ port.FaultLedger = (*FaultRepository)(nil)
