package port

import (
	"context"
	"time"
)

// RevocationLedger tracks hashes of consumed single-use tokens so replays are
// rejected until the underlying token expires on its own.
type RevocationLedger interface {
	// ClaimOnce inserts the token's keyed digest if absent. The insert
	// outcome is the freshness check: a second claim of the same raw token
	// fails with repository.ErrAlreadyExists. This is deliberately the only
	// write operation; the ledger has no plain insert.
	ClaimOnce(ctx context.Context, rawToken string, expiresAt time.Time) error
	// IsClaimed reports whether the token's digest is already present.
	IsClaimed(ctx context.Context, rawToken string) (bool, error)
	// SweepExpired removes entries whose expiry has passed and returns the
	// number of rows deleted.
	SweepExpired(ctx context.Context) (int64, error)
}
