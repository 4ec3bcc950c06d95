package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
	"github.com/GitHubKaan/gju-jobs-api/internal/core/port"
	"github.com/GitHubKaan/gju-jobs-api/internal/infra/security"
	"github.com/GitHubKaan/gju-jobs-api/internal/repository"
)

type fakeStore struct {
	kind    domain.UserType
	ref     *domain.AccountRef
	account *domain.Account

	cooldown *time.Time
	stamped  bool

	code              string
	issueErr          error
	attemptsRemaining bool
	consumeResult     bool
	failedAttempts    int

	rotatedFrom string
	rotatedTo   string
	deleted     bool
	createErr   error
	created     *domain.Account
	email       string
}

func (f *fakeStore) Kind() domain.UserType { return f.kind }

func (f *fakeStore) Create(_ context.Context, account domain.Account) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = &account
	return nil
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (*domain.AccountRef, error) {
	if f.ref == nil || f.email != email {
		return nil, repository.ErrNotFound
	}
	return f.ref, nil
}

func (f *fakeStore) GetAccount(_ context.Context, userUUID string) (*domain.Account, error) {
	if f.account == nil || f.account.UserUUID != userUUID {
		return nil, repository.ErrNotFound
	}
	return f.account, nil
}

func (f *fakeStore) IsValidAuthUUID(_ context.Context, authUUID string) (bool, error) {
	return f.ref != nil && f.ref.AuthUUID == authUUID, nil
}

func (f *fakeStore) CooldownTimestamp(_ context.Context, _ string) (*time.Time, error) {
	return f.cooldown, nil
}

func (f *fakeStore) StampCooldown(_ context.Context, _ string) error {
	f.stamped = true
	return nil
}

func (f *fakeStore) IssueOneTimeCode(_ context.Context, _ string) (string, error) {
	if f.issueErr != nil {
		return "", f.issueErr
	}
	return f.code, nil
}

func (f *fakeStore) HasRemainingAttempts(_ context.Context, _ string) (bool, error) {
	return f.attemptsRemaining, nil
}

func (f *fakeStore) ConsumeOneTimeCode(_ context.Context, _, _ string) (bool, error) {
	return f.consumeResult, nil
}

func (f *fakeStore) RecordFailedAttempt(_ context.Context, _ string) error {
	f.failedAttempts++
	return nil
}

func (f *fakeStore) RotateAuthUUID(_ context.Context, oldAuthUUID string) (string, error) {
	if f.ref == nil || f.ref.AuthUUID != oldAuthUUID {
		return "", repository.ErrNotFound
	}
	f.rotatedFrom = oldAuthUUID
	f.rotatedTo = "rotated-" + oldAuthUUID
	return f.rotatedTo, nil
}

func (f *fakeStore) Delete(_ context.Context, userUUID string) error {
	if f.account == nil || f.account.UserUUID != userUUID {
		return repository.ErrNotFound
	}
	f.deleted = true
	return nil
}

func (f *fakeStore) EmailByUserUUID(_ context.Context, _ string) (string, error) {
	if f.email == "" {
		return "", repository.ErrNotFound
	}
	return f.email, nil
}

func (f *fakeStore) EmailByAuthUUID(_ context.Context, _ string) (string, error) {
	if f.email == "" {
		return "", repository.ErrNotFound
	}
	return f.email, nil
}

type fakeLedger struct {
	claimed  map[string]bool
	claimErr error
	swept    int64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{claimed: map[string]bool{}}
}

func (f *fakeLedger) ClaimOnce(_ context.Context, rawToken string, _ time.Time) error {
	if f.claimErr != nil {
		return f.claimErr
	}
	if f.claimed[rawToken] {
		return repository.ErrAlreadyExists
	}
	f.claimed[rawToken] = true
	return nil
}

func (f *fakeLedger) IsClaimed(_ context.Context, rawToken string) (bool, error) {
	return f.claimed[rawToken], nil
}

func (f *fakeLedger) SweepExpired(_ context.Context) (int64, error) {
	return f.swept, nil
}

type fakeMailer struct {
	loginCodes    []string
	signupCodes   []string
	recoveryLinks []string
	deletionLinks []string
	notifications int
	notices       int
	err           error
}

func (f *fakeMailer) SendSignupCode(_, code string) error {
	f.signupCodes = append(f.signupCodes, code)
	return f.err
}

func (f *fakeMailer) SendLoginCode(_, code string) error {
	f.loginCodes = append(f.loginCodes, code)
	return f.err
}

func (f *fakeMailer) SendLoginNotification(_ string, _ domain.DeviceInfo) error {
	f.notifications++
	return f.err
}

func (f *fakeMailer) SendRecoveryLink(_, token string) error {
	f.recoveryLinks = append(f.recoveryLinks, token)
	return f.err
}

func (f *fakeMailer) SendRecoveryNotice(_ string) error {
	f.notices++
	return f.err
}

func (f *fakeMailer) SendDeletionLink(_, token string) error {
	f.deletionLinks = append(f.deletionLinks, token)
	return f.err
}

func (f *fakeMailer) SendDeletionNotice(_ string) error {
	f.notices++
	return f.err
}

type fakeEvents struct {
	registered    int
	authenticated int
	recovered     int
	deleted       int
}

func (f *fakeEvents) PublishAccountRegistered(_ context.Context, _ domain.AccountRegisteredEvent) error {
	f.registered++
	return nil
}

func (f *fakeEvents) PublishAccountAuthenticated(_ context.Context, _ domain.AccountAuthenticatedEvent) error {
	f.authenticated++
	return nil
}

func (f *fakeEvents) PublishAccountRecovered(_ context.Context, _ domain.AccountRecoveredEvent) error {
	f.recovered++
	return nil
}

func (f *fakeEvents) PublishAccountDeleted(_ context.Context, _ domain.AccountDeletedEvent) error {
	f.deleted++
	return nil
}

func testServiceKeyring(t *testing.T) *security.Keyring {
	t.Helper()
	keys := map[domain.TokenPurpose]security.PurposeKey{
		domain.TokenPurposeAuth:     {Secret: []byte("auth-secret"), TTL: 5 * time.Minute},
		domain.TokenPurposeAccess:   {Secret: []byte("access-secret"), TTL: time.Hour},
		domain.TokenPurposeRecovery: {Secret: []byte("recovery-secret"), TTL: 10 * time.Minute},
		domain.TokenPurposeDeletion: {Secret: []byte("deletion-secret"), TTL: 10 * time.Minute},
	}
	kr, err := security.NewKeyring("jobs-api-test", keys)
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}
	return kr
}

func newSessionService(t *testing.T, student *fakeStore, ledger *fakeLedger, mailer *fakeMailer, events *fakeEvents) *SessionService {
	t.Helper()
	svc, err := NewSessionService(
		port.CredentialStoreSet{Student: student},
		ledger,
		testServiceKeyring(t),
		mailer,
		events,
		time.Minute,
	)
	if err != nil {
		t.Fatalf("NewSessionService: %v", err)
	}
	return svc
}

func TestLoginIssuesCodeAndAuthToken(t *testing.T) {
	store := &fakeStore{
		kind:  domain.UserTypeStudent,
		email: "jane@uni.example",
		ref:   &domain.AccountRef{UserUUID: "user-1", AuthUUID: "auth-1"},
		code:  "123456",
	}
	mailer := &fakeMailer{}
	svc := newSessionService(t, store, newFakeLedger(), mailer, &fakeEvents{})

	issued, code, err := svc.Login(context.Background(), domain.UserTypeStudent, "jane@uni.example")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if issued == nil || issued.Token == "" {
		t.Fatal("expected auth token")
	}
	if code != "123456" {
		t.Fatalf("code = %q, want 123456", code)
	}
	if !store.stamped {
		t.Fatal("expected cooldown stamp")
	}
	if len(mailer.loginCodes) != 1 || mailer.loginCodes[0] != "123456" {
		t.Fatalf("expected login code mail, got %v", mailer.loginCodes)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	store := &fakeStore{kind: domain.UserTypeStudent}
	svc := newSessionService(t, store, newFakeLedger(), &fakeMailer{}, &fakeEvents{})

	_, _, err := svc.Login(context.Background(), domain.UserTypeStudent, "ghost@uni.example")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("want ErrAccountNotFound, got %v", err)
	}
}

func TestLoginCooldownActive(t *testing.T) {
	recent := time.Now().UTC().Add(-10 * time.Second)
	store := &fakeStore{
		kind:     domain.UserTypeStudent,
		email:    "jane@uni.example",
		ref:      &domain.AccountRef{UserUUID: "user-1", AuthUUID: "auth-1"},
		cooldown: &recent,
		code:     "123456",
	}
	svc := newSessionService(t, store, newFakeLedger(), &fakeMailer{}, &fakeEvents{})

	_, _, err := svc.Login(context.Background(), domain.UserTypeStudent, "jane@uni.example")

	var cooldownErr *CooldownError
	if !errors.As(err, &cooldownErr) {
		t.Fatalf("want CooldownError, got %v", err)
	}
	if cooldownErr.RemainingSeconds <= 0 || cooldownErr.RemainingSeconds > 60 {
		t.Fatalf("remaining seconds out of range: %d", cooldownErr.RemainingSeconds)
	}
	if store.stamped {
		t.Fatal("cooldown must not be stamped on rejection")
	}
}

func TestLoginCooldownElapsed(t *testing.T) {
	old := time.Now().UTC().Add(-2 * time.Minute)
	store := &fakeStore{
		kind:     domain.UserTypeStudent,
		email:    "jane@uni.example",
		ref:      &domain.AccountRef{UserUUID: "user-1", AuthUUID: "auth-1"},
		cooldown: &old,
		code:     "123456",
	}
	svc := newSessionService(t, store, newFakeLedger(), &fakeMailer{}, &fakeEvents{})

	if _, _, err := svc.Login(context.Background(), domain.UserTypeStudent, "jane@uni.example"); err != nil {
		t.Fatalf("Login after elapsed cooldown: %v", err)
	}
	if !store.stamped {
		t.Fatal("expected fresh cooldown stamp")
	}
}

func redeemPayload() *domain.TokenPayload {
	return &domain.TokenPayload{
		UserUUID:  "user-1",
		AuthUUID:  "auth-1",
		Purpose:   domain.TokenPurposeAuth,
		UserType:  domain.UserTypeStudent,
		ExpiresAt: time.Now().Add(5 * time.Minute).Unix(),
	}
}

func TestRedeemCodeMintsAccessToken(t *testing.T) {
	store := &fakeStore{
		kind:              domain.UserTypeStudent,
		email:             "jane@uni.example",
		attemptsRemaining: true,
		consumeResult:     true,
	}
	ledger := newFakeLedger()
	mailer := &fakeMailer{}
	events := &fakeEvents{}
	svc := newSessionService(t, store, ledger, mailer, events)

	issued, err := svc.RedeemCode(context.Background(), redeemPayload(), "raw-auth-token", "123456", domain.DeviceInfo{OS: "Linux", Browser: "Firefox"})
	if err != nil {
		t.Fatalf("RedeemCode: %v", err)
	}
	if issued == nil || issued.Token == "" {
		t.Fatal("expected access token")
	}
	if !ledger.claimed["raw-auth-token"] {
		t.Fatal("expected auth token claimed")
	}
	if mailer.notifications != 1 {
		t.Fatalf("notifications = %d, want 1", mailer.notifications)
	}
	if events.authenticated != 1 {
		t.Fatalf("authenticated events = %d, want 1", events.authenticated)
	}
}

func TestRedeemCodeMismatchCountsAttempt(t *testing.T) {
	store := &fakeStore{
		kind:              domain.UserTypeStudent,
		attemptsRemaining: true,
		consumeResult:     false,
	}
	ledger := newFakeLedger()
	svc := newSessionService(t, store, ledger, &fakeMailer{}, &fakeEvents{})

	_, err := svc.RedeemCode(context.Background(), redeemPayload(), "raw-auth-token", "999999", domain.DeviceInfo{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
	if store.failedAttempts != 1 {
		t.Fatalf("failed attempts = %d, want 1", store.failedAttempts)
	}
	if ledger.claimed["raw-auth-token"] {
		t.Fatal("auth token must stay unclaimed so the code can be retried")
	}
}

func TestRedeemCodeAttemptsExhausted(t *testing.T) {
	store := &fakeStore{
		kind:              domain.UserTypeStudent,
		attemptsRemaining: false,
		consumeResult:     true,
	}
	svc := newSessionService(t, store, newFakeLedger(), &fakeMailer{}, &fakeEvents{})

	_, err := svc.RedeemCode(context.Background(), redeemPayload(), "raw-auth-token", "123456", domain.DeviceInfo{})
	if !errors.Is(err, ErrAttemptsExhausted) {
		t.Fatalf("want ErrAttemptsExhausted, got %v", err)
	}
}

func TestRedeemCodeReplayedToken(t *testing.T) {
	store := &fakeStore{
		kind:              domain.UserTypeStudent,
		email:             "jane@uni.example",
		attemptsRemaining: true,
		consumeResult:     true,
	}
	ledger := newFakeLedger()
	ledger.claimed["raw-auth-token"] = true
	svc := newSessionService(t, store, ledger, &fakeMailer{}, &fakeEvents{})

	_, err := svc.RedeemCode(context.Background(), redeemPayload(), "raw-auth-token", "123456", domain.DeviceInfo{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on replay, got %v", err)
	}
}

func TestLoginThenRedeemLifecycle(t *testing.T) {
	store := &fakeStore{
		kind:              domain.UserTypeStudent,
		email:             "jane@uni.example",
		ref:               &domain.AccountRef{UserUUID: "user-1", AuthUUID: "auth-1"},
		code:              "123456",
		attemptsRemaining: true,
		consumeResult:     true,
	}
	ledger := newFakeLedger()
	svc := newSessionService(t, store, ledger, &fakeMailer{}, &fakeEvents{})

	authToken, code, err := svc.Login(context.Background(), domain.UserTypeStudent, "jane@uni.example")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	payload, err := testServiceKeyring(t).DecodePayload(authToken.Token)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if payload.Purpose != domain.TokenPurposeAuth {
		t.Fatalf("purpose = %s, want AUTH", payload.Purpose)
	}
	if payload.UserUUID != "user-1" || payload.AuthUUID != "auth-1" {
		t.Fatalf("payload identifiers = %s/%s, want user-1/auth-1", payload.UserUUID, payload.AuthUUID)
	}

	access, err := svc.RedeemCode(context.Background(), payload, authToken.Token, code, domain.DeviceInfo{OS: "Linux", Browser: "Firefox"})
	if err != nil {
		t.Fatalf("RedeemCode: %v", err)
	}

	accessPayload, err := testServiceKeyring(t).DecodePayload(access.Token)
	if err != nil {
		t.Fatalf("DecodePayload access token: %v", err)
	}
	if accessPayload.Purpose != domain.TokenPurposeAccess {
		t.Fatalf("access purpose = %s, want ACCESS", accessPayload.Purpose)
	}
	if accessPayload.UserUUID != payload.UserUUID || accessPayload.AuthUUID != payload.AuthUUID {
		t.Fatal("access token must carry the same identifiers as the auth token")
	}

	// The very same auth token a second time must be a dead end.
	if _, err := svc.RedeemCode(context.Background(), payload, authToken.Token, code, domain.DeviceInfo{}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on second redemption, got %v", err)
	}
}

func TestRequestRecoveryMailsLink(t *testing.T) {
	store := &fakeStore{
		kind:  domain.UserTypeStudent,
		email: "jane@uni.example",
		ref:   &domain.AccountRef{UserUUID: "user-1", AuthUUID: "auth-1"},
	}
	mailer := &fakeMailer{}
	svc := newSessionService(t, store, newFakeLedger(), mailer, &fakeEvents{})

	if err := svc.RequestRecovery(context.Background(), domain.UserTypeStudent, "jane@uni.example"); err != nil {
		t.Fatalf("RequestRecovery: %v", err)
	}
	if len(mailer.recoveryLinks) != 1 {
		t.Fatalf("recovery links = %d, want 1", len(mailer.recoveryLinks))
	}
	if !store.stamped {
		t.Fatal("expected cooldown stamp")
	}
}

func TestRecoverRotatesAuthUUID(t *testing.T) {
	store := &fakeStore{
		kind:  domain.UserTypeStudent,
		email: "jane@uni.example",
		ref:   &domain.AccountRef{UserUUID: "user-1", AuthUUID: "auth-1"},
	}
	ledger := newFakeLedger()
	events := &fakeEvents{}
	svc := newSessionService(t, store, ledger, &fakeMailer{}, events)

	payload := &domain.TokenPayload{
		UserUUID:  "user-1",
		AuthUUID:  "auth-1",
		Purpose:   domain.TokenPurposeRecovery,
		UserType:  domain.UserTypeStudent,
		ExpiresAt: time.Now().Add(10 * time.Minute).Unix(),
	}

	if err := svc.Recover(context.Background(), payload, "raw-recovery-token"); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if store.rotatedFrom != "auth-1" {
		t.Fatalf("rotated from %q, want auth-1", store.rotatedFrom)
	}
	if events.recovered != 1 {
		t.Fatalf("recovered events = %d, want 1", events.recovered)
	}

	// Second redemption of the same link must fail.
	if err := svc.Recover(context.Background(), payload, "raw-recovery-token"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on replay, got %v", err)
	}
}

func TestDeleteAccountErasesRow(t *testing.T) {
	store := &fakeStore{
		kind:    domain.UserTypeStudent,
		email:   "jane@uni.example",
		account: &domain.Account{UserUUID: "user-1", AuthUUID: "auth-1", Email: "jane@uni.example"},
	}
	ledger := newFakeLedger()
	events := &fakeEvents{}
	svc := newSessionService(t, store, ledger, &fakeMailer{}, events)

	payload := &domain.TokenPayload{
		UserUUID:  "user-1",
		AuthUUID:  "auth-1",
		Purpose:   domain.TokenPurposeDeletion,
		UserType:  domain.UserTypeStudent,
		ExpiresAt: time.Now().Add(10 * time.Minute).Unix(),
	}

	if err := svc.DeleteAccount(context.Background(), payload, "raw-deletion-token"); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if !store.deleted {
		t.Fatal("expected account deleted")
	}
	if events.deleted != 1 {
		t.Fatalf("deleted events = %d, want 1", events.deleted)
	}
}

func TestMailerFailureDoesNotBlockLogin(t *testing.T) {
	store := &fakeStore{
		kind:  domain.UserTypeStudent,
		email: "jane@uni.example",
		ref:   &domain.AccountRef{UserUUID: "user-1", AuthUUID: "auth-1"},
		code:  "123456",
	}
	mailer := &fakeMailer{err: fmt.Errorf("smtp down")}
	svc := newSessionService(t, store, newFakeLedger(), mailer, &fakeEvents{})

	if _, _, err := svc.Login(context.Background(), domain.UserTypeStudent, "jane@uni.example"); err != nil {
		t.Fatalf("Login with failing mailer: %v", err)
	}
}
