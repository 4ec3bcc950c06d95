package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
	"github.com/GitHubKaan/gju-jobs-api/internal/core/port"
	"github.com/GitHubKaan/gju-jobs-api/internal/repository"
)

const (
	studentTable = "accounts_student"
	companyTable = "accounts_company"
)

// CredentialOptions configures one-time code issuance and verification.
type CredentialOptions struct {
	// GenerateCode mints a fresh plaintext one-time code.
	GenerateCode func() (string, error)
	// MaxAttempts bounds failed verifications per issued code.
	MaxAttempts int
	// CodeTTL is the freshness window inside which a stored code still
	// matches. It equals the auth token lifetime so a valid auth token
	// always has a potentially redeemable code behind it.
	CodeTTL time.Duration
}

// CredentialRepository implements port.CredentialStore against one per-kind
// account table. The table name is fixed at construction; no query ever
// interpolates caller input into SQL identifiers.
type CredentialRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
	kind    domain.UserType
	table   string
	digest  digester
	opts    CredentialOptions
}

// NewStudentCredentialRepository binds a repository to the student table.
func NewStudentCredentialRepository(exec pgExecutor, digest digester, opts CredentialOptions) *CredentialRepository {
	return newCredentialRepository(exec, digest, opts, domain.UserTypeStudent, studentTable)
}

// NewCompanyCredentialRepository binds a repository to the company table.
func NewCompanyCredentialRepository(exec pgExecutor, digest digester, opts CredentialOptions) *CredentialRepository {
	return newCredentialRepository(exec, digest, opts, domain.UserTypeCompany, companyTable)
}

func newCredentialRepository(exec pgExecutor, digest digester, opts CredentialOptions, kind domain.UserType, table string) *CredentialRepository {
	return &CredentialRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		kind:    kind,
		table:   table,
		digest:  digest,
		opts:    opts,
	}
}

// Kind reports the account kind this repository is bound to.
func (r *CredentialRepository) Kind() domain.UserType {
	return r.kind
}

// Create persists a new account row. A colliding email surfaces as
// repository.ErrAlreadyExists.
func (r *CredentialRepository) Create(ctx context.Context, account domain.Account) error {
	stmt, args, err := r.builder.Insert(r.table).
		Columns("user_uuid", "auth_uuid", "email", "given_name", "surname", "company_name").
		Values(
			account.UserUUID,
			account.AuthUUID,
			account.Email,
			optionalString(account.GivenName),
			optionalString(account.Surname),
			optionalString(account.CompanyName),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert account sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// GetByEmail resolves the identifier pair for an email.
func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*domain.AccountRef, error) {
	stmt, args, err := r.builder.
		Select("user_uuid", "auth_uuid").
		From(r.table).
		Where(squirrel.Eq{"email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account ref sql: %w", err)
	}

	var ref domain.AccountRef
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&ref.UserUUID, &ref.AuthUUID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select account ref: %w", err)
	}

	return &ref, nil
}

// GetAccount loads the full account row.
func (r *CredentialRepository) GetAccount(ctx context.Context, userUUID string) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(
			"user_uuid",
			"auth_uuid",
			"email",
			"given_name",
			"surname",
			"company_name",
			"auth_code",
			"auth_code_created",
			"auth_code_attempt",
			"cooldown",
			"created_at",
		).
		From(r.table).
		Where(squirrel.Eq{"user_uuid": userUUID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	var (
		account         domain.Account
		givenName       sql.NullString
		surname         sql.NullString
		companyName     sql.NullString
		authCode        sql.NullString
		authCodeCreated sql.NullTime
		cooldown        sql.NullTime
	)
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&account.UserUUID,
		&account.AuthUUID,
		&account.Email,
		&givenName,
		&surname,
		&companyName,
		&authCode,
		&authCodeCreated,
		&account.AuthCodeAttempt,
		&cooldown,
		&account.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select account: %w", err)
	}

	account.GivenName = nullableStringPtr(givenName)
	account.Surname = nullableStringPtr(surname)
	account.CompanyName = nullableStringPtr(companyName)
	account.AuthCodeHash = nullableStringPtr(authCode)
	account.AuthCodeCreated = nullableTimePtr(authCodeCreated)
	account.Cooldown = nullableTimePtr(cooldown)

	return &account, nil
}

// IsValidAuthUUID reports whether any row still carries the rotating
// identifier. Tokens minted before a rotation fail this check.
func (r *CredentialRepository) IsValidAuthUUID(ctx context.Context, authUUID string) (bool, error) {
	stmt := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE auth_uuid = $1)", r.table)

	var exists bool
	if err := r.exec.QueryRow(ctx, stmt, authUUID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check auth uuid: %w", err)
	}

	return exists, nil
}

// CooldownTimestamp returns the last issuance stamp, nil when never stamped.
func (r *CredentialRepository) CooldownTimestamp(ctx context.Context, userUUID string) (*time.Time, error) {
	stmt, args, err := r.builder.
		Select("cooldown").
		From(r.table).
		Where(squirrel.Eq{"user_uuid": userUUID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select cooldown sql: %w", err)
	}

	var cooldown sql.NullTime
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&cooldown); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select cooldown: %w", err)
	}

	return nullableTimePtr(cooldown), nil
}

// StampCooldown records now as the last code issuance.
func (r *CredentialRepository) StampCooldown(ctx context.Context, userUUID string) error {
	tag, err := r.exec.Exec(ctx,
		fmt.Sprintf("UPDATE %s SET cooldown = NOW() WHERE user_uuid = $1", r.table),
		userUUID,
	)
	if err != nil {
		return fmt.Errorf("stamp cooldown: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// IssueOneTimeCode stores a fresh code digest, resets the attempt counter,
// and returns the plaintext for out-of-band delivery.
func (r *CredentialRepository) IssueOneTimeCode(ctx context.Context, userUUID string) (string, error) {
	code, err := r.opts.GenerateCode()
	if err != nil {
		return "", fmt.Errorf("generate one-time code: %w", err)
	}

	tag, err := r.exec.Exec(ctx,
		fmt.Sprintf(`UPDATE %s
		    SET auth_code = $2,
		        auth_code_created = NOW(),
		        auth_code_attempt = 0
		  WHERE user_uuid = $1`, r.table),
		userUUID, r.digest.Hash(code),
	)
	if err != nil {
		return "", fmt.Errorf("store one-time code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", repository.ErrNotFound
	}

	return code, nil
}

// HasRemainingAttempts reports whether the counter is still below the cap.
func (r *CredentialRepository) HasRemainingAttempts(ctx context.Context, userUUID string) (bool, error) {
	stmt, args, err := r.builder.
		Select("auth_code_attempt").
		From(r.table).
		Where(squirrel.Eq{"user_uuid": userUUID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select attempts sql: %w", err)
	}

	var attempts int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, repository.ErrNotFound
		}
		return false, fmt.Errorf("select attempts: %w", err)
	}

	return attempts < r.opts.MaxAttempts, nil
}

// ConsumeOneTimeCode matches and clears the stored code in one conditional
// update. Matching on the digest and the freshness window inside the same
// statement means two concurrent redemptions cannot both succeed.
func (r *CredentialRepository) ConsumeOneTimeCode(ctx context.Context, userUUID, code string) (bool, error) {
	tag, err := r.exec.Exec(ctx,
		fmt.Sprintf(`UPDATE %s
		    SET auth_code = NULL,
		        auth_code_created = NULL,
		        auth_code_attempt = 0
		  WHERE user_uuid = $1
		    AND auth_code = $2
		    AND auth_code_created > NOW() - make_interval(secs => $3)`, r.table),
		userUUID, r.digest.Hash(code), r.opts.CodeTTL.Seconds(),
	)
	if err != nil {
		return false, fmt.Errorf("consume one-time code: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// RecordFailedAttempt increments the attempt counter.
func (r *CredentialRepository) RecordFailedAttempt(ctx context.Context, userUUID string) error {
	tag, err := r.exec.Exec(ctx,
		fmt.Sprintf("UPDATE %s SET auth_code_attempt = auth_code_attempt + 1 WHERE user_uuid = $1", r.table),
		userUUID,
	)
	if err != nil {
		return fmt.Errorf("record failed attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RotateAuthUUID swaps the rotating identifier, invalidating every token that
// embeds the old value.
func (r *CredentialRepository) RotateAuthUUID(ctx context.Context, oldAuthUUID string) (string, error) {
	newAuthUUID := uuid.NewString()

	tag, err := r.exec.Exec(ctx,
		fmt.Sprintf("UPDATE %s SET auth_uuid = $2 WHERE auth_uuid = $1", r.table),
		oldAuthUUID, newAuthUUID,
	)
	if err != nil {
		return "", fmt.Errorf("rotate auth uuid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", repository.ErrNotFound
	}

	return newAuthUUID, nil
}

// Delete erases the account row.
func (r *CredentialRepository) Delete(ctx context.Context, userUUID string) error {
	stmt, args, err := r.builder.
		Delete(r.table).
		Where(squirrel.Eq{"user_uuid": userUUID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete account sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EmailByUserUUID resolves the email for the stable identifier.
func (r *CredentialRepository) EmailByUserUUID(ctx context.Context, userUUID string) (string, error) {
	return r.email(ctx, "user_uuid", userUUID)
}

// EmailByAuthUUID resolves the email for the rotating identifier.
func (r *CredentialRepository) EmailByAuthUUID(ctx context.Context, authUUID string) (string, error) {
	return r.email(ctx, "auth_uuid", authUUID)
}

func (r *CredentialRepository) email(ctx context.Context, column, value string) (string, error) {
	stmt, args, err := r.builder.
		Select("email").
		From(r.table).
		Where(squirrel.Eq{column: value}).
		Limit(1).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build select email sql: %w", err)
	}

	var email string
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("select email: %w", err)
	}

	return email, nil
}

var _ port.CredentialStore = (*CredentialRepository)(nil)
