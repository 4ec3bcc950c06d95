package port

import (
	"context"
	"time"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
)

// CredentialStore exposes per-account authentication state for one account
// kind. Implementations are bound to a single kind at construction; callers
// pick the store through a CredentialStoreSet, never by interpolating the
// kind into queries.
type CredentialStore interface {
	// Kind reports the account kind this store is bound to.
	Kind() domain.UserType

	// Create inserts a new account row. Duplicate emails surface as
	// repository.ErrAlreadyExists.
	Create(ctx context.Context, account domain.Account) error
	// GetByEmail resolves the identifier pair for the given email.
	GetByEmail(ctx context.Context, email string) (*domain.AccountRef, error)
	// GetAccount loads the full account row.
	GetAccount(ctx context.Context, userUUID string) (*domain.Account, error)
	// IsValidAuthUUID reports whether any account still carries the given
	// rotating auth identifier.
	IsValidAuthUUID(ctx context.Context, authUUID string) (bool, error)

	// CooldownTimestamp returns the last code-issuance stamp, nil when the
	// account never requested a code.
	CooldownTimestamp(ctx context.Context, userUUID string) (*time.Time, error)
	// StampCooldown unconditionally records the current time as the last
	// code issuance.
	StampCooldown(ctx context.Context, userUUID string) error

	// IssueOneTimeCode generates a fresh code, stores only its keyed digest,
	// resets the attempt counter, and returns the plaintext for out-of-band
	// delivery. The plaintext is never persisted.
	IssueOneTimeCode(ctx context.Context, userUUID string) (string, error)
	// HasRemainingAttempts reports whether the attempt counter is still
	// below the configured maximum.
	HasRemainingAttempts(ctx context.Context, userUUID string) (bool, error)
	// ConsumeOneTimeCode atomically matches the supplied code against the
	// stored digest within the freshness window and clears the code fields
	// on success. A false return leaves the row untouched.
	ConsumeOneTimeCode(ctx context.Context, userUUID, code string) (bool, error)
	// RecordFailedAttempt increments the attempt counter.
	RecordFailedAttempt(ctx context.Context, userUUID string) error

	// RotateAuthUUID replaces the rotating identifier on every row matching
	// the old value and returns the new one, invalidating all tokens bound
	// to the previous identifier.
	RotateAuthUUID(ctx context.Context, oldAuthUUID string) (string, error)
	// Delete erases the account row; owned sub-resources cascade.
	Delete(ctx context.Context, userUUID string) error

	// EmailByUserUUID resolves the account email by stable identifier.
	EmailByUserUUID(ctx context.Context, userUUID string) (string, error)
	// EmailByAuthUUID resolves the account email by rotating identifier.
	EmailByAuthUUID(ctx context.Context, authUUID string) (string, error)
}

// CredentialStoreSet bundles the two kind-bound stores.
type CredentialStoreSet struct {
	Student CredentialStore
	Company CredentialStore
}

// ForKind selects the store matching the account kind, nil for unknown kinds.
func (s CredentialStoreSet) ForKind(kind domain.UserType) CredentialStore {
	switch kind {
	case domain.UserTypeStudent:
		return s.Student
	case domain.UserTypeCompany:
		return s.Company
	default:
		return nil
	}
}
