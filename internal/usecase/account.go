package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
	"github.com/GitHubKaan/gju-jobs-api/internal/core/port"
	"github.com/GitHubKaan/gju-jobs-api/internal/infra/logger"
	"github.com/GitHubKaan/gju-jobs-api/internal/infra/security"
	"github.com/GitHubKaan/gju-jobs-api/internal/repository"
)

// SignupStudentInput carries the student registration payload.
type SignupStudentInput struct {
	Email     string
	GivenName string
	Surname   string
}

// SignupCompanyInput carries the company registration payload.
type SignupCompanyInput struct {
	Email       string
	CompanyName string
}

// AccountService handles registration and profile retrieval.
type AccountService struct {
	stores  port.CredentialStoreSet
	keyring *security.Keyring
	mailer  port.Mailer
	events  port.EventPublisher
	now     func() time.Time
}

// NewAccountService constructs an AccountService instance.
func NewAccountService(
	stores port.CredentialStoreSet,
	keyring *security.Keyring,
	mailer port.Mailer,
	events port.EventPublisher,
) (*AccountService, error) {
	if keyring == nil {
		return nil, fmt.Errorf("keyring is required")
	}

	return &AccountService{
		stores:  stores,
		keyring: keyring,
		mailer:  mailer,
		events:  events,
		now:     time.Now,
	}, nil
}

// SignupStudent registers a student account and starts its first login:
// the response carries an auth token and the verification code goes out by
// mail.
func (s *AccountService) SignupStudent(ctx context.Context, input SignupStudentInput) (*domain.IssuedToken, string, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return nil, "", fmt.Errorf("email is required")
	}
	given := strings.TrimSpace(input.GivenName)
	surname := strings.TrimSpace(input.Surname)
	if given == "" || surname == "" {
		return nil, "", fmt.Errorf("given name and surname are required")
	}

	account := domain.Account{
		UserUUID:  uuid.NewString(),
		AuthUUID:  uuid.NewString(),
		Email:     email,
		GivenName: &given,
		Surname:   &surname,
	}

	return s.signup(ctx, domain.UserTypeStudent, account)
}

// SignupCompany registers a company account the same way.
func (s *AccountService) SignupCompany(ctx context.Context, input SignupCompanyInput) (*domain.IssuedToken, string, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return nil, "", fmt.Errorf("email is required")
	}
	name := strings.TrimSpace(input.CompanyName)
	if name == "" {
		return nil, "", fmt.Errorf("company name is required")
	}

	account := domain.Account{
		UserUUID:    uuid.NewString(),
		AuthUUID:    uuid.NewString(),
		Email:       email,
		CompanyName: &name,
	}

	return s.signup(ctx, domain.UserTypeCompany, account)
}

// Get loads the profile for an authenticated account.
func (s *AccountService) Get(ctx context.Context, kind domain.UserType, userUUID string) (*domain.Account, error) {
	store := s.stores.ForKind(kind)
	if store == nil {
		return nil, fmt.Errorf("unknown account kind %q", kind)
	}

	account, err := store.GetAccount(ctx, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	return account, nil
}

func (s *AccountService) signup(ctx context.Context, kind domain.UserType, account domain.Account) (*domain.IssuedToken, string, error) {
	store := s.stores.ForKind(kind)
	if store == nil {
		return nil, "", fmt.Errorf("unknown account kind %q", kind)
	}

	if err := store.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, "", ErrDuplicateEmail
		}
		return nil, "", fmt.Errorf("create account: %w", err)
	}

	// The fresh account starts inside a cooldown window like any other code
	// issuance.
	if err := store.StampCooldown(ctx, account.UserUUID); err != nil {
		return nil, "", fmt.Errorf("stamp cooldown: %w", err)
	}

	code, err := store.IssueOneTimeCode(ctx, account.UserUUID)
	if err != nil {
		return nil, "", fmt.Errorf("issue one-time code: %w", err)
	}

	issued, err := s.keyring.Issue(domain.TokenPurposeAuth, account.UserUUID, account.AuthUUID, kind)
	if err != nil {
		return nil, "", fmt.Errorf("issue auth token: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendSignupCode(account.Email, code); err != nil {
			logger.WithContext(ctx).Warn("send signup code failed",
				zap.String("email", logger.MaskEmail(account.Email)),
				zap.Error(err),
			)
		}
	}

	if s.events != nil {
		if err := s.events.PublishAccountRegistered(ctx, domain.AccountRegisteredEvent{
			EventID:      uuid.NewString(),
			UserUUID:     account.UserUUID,
			UserType:     kind,
			Email:        account.Email,
			RegisteredAt: s.now().UTC(),
		}); err != nil {
			logger.WithContext(ctx).Warn("publish account registered failed", zap.Error(err))
		}
	}

	return issued, code, nil
}
