package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
	"github.com/GitHubKaan/gju-jobs-api/internal/core/port"
	"github.com/GitHubKaan/gju-jobs-api/internal/infra/logger"
	"github.com/GitHubKaan/gju-jobs-api/internal/infra/security"
	"github.com/GitHubKaan/gju-jobs-api/internal/repository"
)

// SessionService coordinates the passwordless authentication flows: code
// issuance, redemption, account recovery, and account deletion.
type SessionService struct {
	stores         port.CredentialStoreSet
	ledger         port.RevocationLedger
	keyring        *security.Keyring
	mailer         port.Mailer
	events         port.EventPublisher
	cooldownWindow time.Duration
	now            func() time.Time
}

// NewSessionService constructs a SessionService instance.
func NewSessionService(
	stores port.CredentialStoreSet,
	ledger port.RevocationLedger,
	keyring *security.Keyring,
	mailer port.Mailer,
	events port.EventPublisher,
	cooldownWindow time.Duration,
) (*SessionService, error) {
	if ledger == nil {
		return nil, fmt.Errorf("revocation ledger is required")
	}
	if keyring == nil {
		return nil, fmt.Errorf("keyring is required")
	}
	if cooldownWindow <= 0 {
		return nil, fmt.Errorf("cooldown window must be positive")
	}

	return &SessionService{
		stores:         stores,
		ledger:         ledger,
		keyring:        keyring,
		mailer:         mailer,
		events:         events,
		cooldownWindow: cooldownWindow,
		now:            time.Now,
	}, nil
}

// Login issues a one-time code for the account behind the email and returns
// an auth token scoped to redeeming that code. The plaintext code goes out by
// mail; the returned copy exists only for the development echo.
func (s *SessionService) Login(ctx context.Context, kind domain.UserType, email string) (*domain.IssuedToken, string, error) {
	store, err := s.store(kind)
	if err != nil {
		return nil, "", err
	}
	if email == "" {
		return nil, "", fmt.Errorf("email is required")
	}

	ref, err := store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrAccountNotFound
		}
		return nil, "", fmt.Errorf("lookup account: %w", err)
	}

	if err := s.gateCooldown(ctx, store, ref.UserUUID); err != nil {
		return nil, "", err
	}

	code, err := store.IssueOneTimeCode(ctx, ref.UserUUID)
	if err != nil {
		return nil, "", fmt.Errorf("issue one-time code: %w", err)
	}

	issued, err := s.keyring.Issue(domain.TokenPurposeAuth, ref.UserUUID, ref.AuthUUID, kind)
	if err != nil {
		return nil, "", fmt.Errorf("issue auth token: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendLoginCode(email, code); err != nil {
			logger.WithContext(ctx).Warn("send login code failed",
				zap.String("email", logger.MaskEmail(email)),
				zap.Error(err),
			)
		}
	}

	return issued, code, nil
}

// RedeemCode exchanges a verified auth token plus the mailed code for an
// access token. The auth token is claimed exactly once on success only, so a
// mistyped code can be retried against the same token until the attempt
// budget runs out.
func (s *SessionService) RedeemCode(ctx context.Context, payload *domain.TokenPayload, rawToken, code string, device domain.DeviceInfo) (*domain.IssuedToken, error) {
	store, err := s.store(payload.UserType)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, ErrUnauthorized
	}

	remaining, err := store.HasRemainingAttempts(ctx, payload.UserUUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("check attempts: %w", err)
	}
	if !remaining {
		return nil, ErrAttemptsExhausted
	}

	matched, err := store.ConsumeOneTimeCode(ctx, payload.UserUUID, code)
	if err != nil {
		return nil, fmt.Errorf("consume one-time code: %w", err)
	}
	if !matched {
		if err := store.RecordFailedAttempt(ctx, payload.UserUUID); err != nil {
			return nil, fmt.Errorf("record failed attempt: %w", err)
		}
		return nil, ErrUnauthorized
	}

	if err := s.ledger.ClaimOnce(ctx, rawToken, payload.Expiry()); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("claim auth token: %w", err)
	}

	issued, err := s.keyring.Issue(domain.TokenPurposeAccess, payload.UserUUID, payload.AuthUUID, payload.UserType)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	s.notifyLogin(ctx, store, payload.UserUUID, device)
	s.publishAuthenticated(ctx, payload, device)

	return issued, nil
}

// RequestRecovery mails a single-use recovery link to the account's address.
func (s *SessionService) RequestRecovery(ctx context.Context, kind domain.UserType, email string) error {
	store, err := s.store(kind)
	if err != nil {
		return err
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	ref, err := store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if err := s.gateCooldown(ctx, store, ref.UserUUID); err != nil {
		return err
	}

	issued, err := s.keyring.Issue(domain.TokenPurposeRecovery, ref.UserUUID, ref.AuthUUID, kind)
	if err != nil {
		return fmt.Errorf("issue recovery token: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendRecoveryLink(email, issued.Token); err != nil {
			logger.WithContext(ctx).Warn("send recovery link failed",
				zap.String("email", logger.MaskEmail(email)),
				zap.Error(err),
			)
		}
	}

	return nil
}

// Recover redeems a verified recovery token by rotating the account's auth
// identifier. Every outstanding token bound to the old identifier dies with
// the rotation.
func (s *SessionService) Recover(ctx context.Context, payload *domain.TokenPayload, rawToken string) error {
	store, err := s.store(payload.UserType)
	if err != nil {
		return err
	}

	if err := s.ledger.ClaimOnce(ctx, rawToken, payload.Expiry()); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return ErrUnauthorized
		}
		return fmt.Errorf("claim recovery token: %w", err)
	}

	if _, err := store.RotateAuthUUID(ctx, payload.AuthUUID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("rotate auth uuid: %w", err)
	}

	if s.mailer != nil {
		if email, err := store.EmailByUserUUID(ctx, payload.UserUUID); err == nil {
			if err := s.mailer.SendRecoveryNotice(email); err != nil {
				logger.WithContext(ctx).Warn("send recovery notice failed",
					zap.String("email", logger.MaskEmail(email)),
					zap.Error(err),
				)
			}
		}
	}

	if s.events != nil {
		if err := s.events.PublishAccountRecovered(ctx, domain.AccountRecoveredEvent{
			EventID:     uuid.NewString(),
			UserUUID:    payload.UserUUID,
			UserType:    payload.UserType,
			RecoveredAt: s.now().UTC(),
		}); err != nil {
			logger.WithContext(ctx).Warn("publish account recovered failed", zap.Error(err))
		}
	}

	return nil
}

// RequestDeletion mails a single-use deletion link to the authenticated
// account's address.
func (s *SessionService) RequestDeletion(ctx context.Context, kind domain.UserType, userUUID string) error {
	store, err := s.store(kind)
	if err != nil {
		return err
	}

	account, err := store.GetAccount(ctx, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("load account: %w", err)
	}

	if err := s.gateCooldown(ctx, store, userUUID); err != nil {
		return err
	}

	issued, err := s.keyring.Issue(domain.TokenPurposeDeletion, account.UserUUID, account.AuthUUID, kind)
	if err != nil {
		return fmt.Errorf("issue deletion token: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendDeletionLink(account.Email, issued.Token); err != nil {
			logger.WithContext(ctx).Warn("send deletion link failed",
				zap.String("email", logger.MaskEmail(account.Email)),
				zap.Error(err),
			)
		}
	}

	return nil
}

// DeleteAccount redeems a verified deletion token by erasing the account.
func (s *SessionService) DeleteAccount(ctx context.Context, payload *domain.TokenPayload, rawToken string) error {
	store, err := s.store(payload.UserType)
	if err != nil {
		return err
	}

	if err := s.ledger.ClaimOnce(ctx, rawToken, payload.Expiry()); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return ErrUnauthorized
		}
		return fmt.Errorf("claim deletion token: %w", err)
	}

	email, emailErr := store.EmailByUserUUID(ctx, payload.UserUUID)

	if err := store.Delete(ctx, payload.UserUUID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("delete account: %w", err)
	}

	if s.mailer != nil && emailErr == nil {
		if err := s.mailer.SendDeletionNotice(email); err != nil {
			logger.WithContext(ctx).Warn("send deletion notice failed",
				zap.String("email", logger.MaskEmail(email)),
				zap.Error(err),
			)
		}
	}

	if s.events != nil {
		if err := s.events.PublishAccountDeleted(ctx, domain.AccountDeletedEvent{
			EventID:   uuid.NewString(),
			UserUUID:  payload.UserUUID,
			UserType:  payload.UserType,
			DeletedAt: s.now().UTC(),
		}); err != nil {
			logger.WithContext(ctx).Warn("publish account deleted failed", zap.Error(err))
		}
	}

	return nil
}

// SweepBlacklist prunes expired revocation entries.
func (s *SessionService) SweepBlacklist(ctx context.Context) (int64, error) {
	return s.ledger.SweepExpired(ctx)
}

func (s *SessionService) store(kind domain.UserType) (port.CredentialStore, error) {
	store := s.stores.ForKind(kind)
	if store == nil {
		return nil, fmt.Errorf("unknown account kind %q", kind)
	}
	return store, nil
}

// gateCooldown allows the request when the account never requested a code or
// the window elapsed, stamping the new issuance. Otherwise it rejects with
// the seconds left, rounded up.
func (s *SessionService) gateCooldown(ctx context.Context, store port.CredentialStore, userUUID string) error {
	stamp, err := store.CooldownTimestamp(ctx, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("read cooldown: %w", err)
	}

	if stamp != nil {
		elapsed := s.now().UTC().Sub(stamp.UTC())
		if elapsed < s.cooldownWindow {
			remaining := s.cooldownWindow - elapsed
			return &CooldownError{RemainingSeconds: int64(math.Ceil(remaining.Seconds()))}
		}
	}

	if err := store.StampCooldown(ctx, userUUID); err != nil {
		return fmt.Errorf("stamp cooldown: %w", err)
	}

	return nil
}

func (s *SessionService) notifyLogin(ctx context.Context, store port.CredentialStore, userUUID string, device domain.DeviceInfo) {
	if s.mailer == nil {
		return
	}

	email, err := store.EmailByUserUUID(ctx, userUUID)
	if err != nil {
		logger.WithContext(ctx).Warn("resolve email for login notification failed", zap.Error(err))
		return
	}

	if err := s.mailer.SendLoginNotification(email, device); err != nil {
		logger.WithContext(ctx).Warn("send login notification failed",
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
	}
}

func (s *SessionService) publishAuthenticated(ctx context.Context, payload *domain.TokenPayload, device domain.DeviceInfo) {
	if s.events == nil {
		return
	}

	if err := s.events.PublishAccountAuthenticated(ctx, domain.AccountAuthenticatedEvent{
		EventID:         uuid.NewString(),
		UserUUID:        payload.UserUUID,
		UserType:        payload.UserType,
		OS:              device.OS,
		Browser:         device.Browser,
		AuthenticatedAt: s.now().UTC(),
	}); err != nil {
		logger.WithContext(ctx).Warn("publish account authenticated failed", zap.Error(err))
	}
}
