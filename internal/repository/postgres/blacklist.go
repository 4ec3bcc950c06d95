package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/port"
	"github.com/GitHubKaan/gju-jobs-api/internal/repository"
)

const blacklistTable = "token_blacklist"

// BlacklistRepository implements port.RevocationLedger on a single table of
// keyed token digests. Raw tokens never reach the database.
type BlacklistRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
	digest  digester
}

// NewBlacklistRepository constructs the ledger over any pgExecutor.
func NewBlacklistRepository(exec pgExecutor, digest digester) *BlacklistRepository {
	return &BlacklistRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		digest:  digest,
	}
}

// ClaimOnce inserts the token digest if absent. ON CONFLICT DO NOTHING makes
// the insert itself the freshness check: when zero rows land the token was
// already claimed and repository.ErrAlreadyExists is returned. Two concurrent
// claims of the same token therefore race on the primary key, and exactly one
// wins.
func (r *BlacklistRepository) ClaimOnce(ctx context.Context, rawToken string, expiresAt time.Time) error {
	stmt := fmt.Sprintf(
		"INSERT INTO %s (token_hash, expires) VALUES ($1, $2) ON CONFLICT (token_hash) DO NOTHING",
		blacklistTable,
	)

	tag, err := r.exec.Exec(ctx, stmt, r.digest.Hash(rawToken), expiresAt.UTC().Truncate(time.Second))
	if err != nil {
		return fmt.Errorf("claim token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrAlreadyExists
	}

	return nil
}

// IsClaimed reports whether the token digest is already present.
func (r *BlacklistRepository) IsClaimed(ctx context.Context, rawToken string) (bool, error) {
	stmt, args, err := r.builder.
		Select("1").
		From(blacklistTable).
		Where(squirrel.Eq{"token_hash": r.digest.Hash(rawToken)}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select blacklist sql: %w", err)
	}

	var one int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("select blacklist entry: %w", err)
	}

	return true, nil
}

// SweepExpired deletes entries whose expiry has passed. Entries persist at
// least as long as their token could still verify, which the configuration
// guarantees by forcing the sweep interval above every token lifetime.
func (r *BlacklistRepository) SweepExpired(ctx context.Context) (int64, error) {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE expires < NOW()", blacklistTable)

	tag, err := r.exec.Exec(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("sweep expired blacklist entries: %w", err)
	}

	return tag.RowsAffected(), nil
}

var _ port.RevocationLedger = (*BlacklistRepository)(nil)
