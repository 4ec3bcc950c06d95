package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
	"github.com/GitHubKaan/gju-jobs-api/internal/core/port"
	"github.com/GitHubKaan/gju-jobs-api/internal/repository"
)

func newAccountService(t *testing.T, student, company *fakeStore, mailer *fakeMailer, events *fakeEvents) *AccountService {
	t.Helper()
	svc, err := NewAccountService(
		port.CredentialStoreSet{Student: student, Company: company},
		testServiceKeyring(t),
		mailer,
		events,
	)
	if err != nil {
		t.Fatalf("NewAccountService: %v", err)
	}
	return svc
}

func TestSignupStudentCreatesAccount(t *testing.T) {
	store := &fakeStore{kind: domain.UserTypeStudent, code: "123456"}
	mailer := &fakeMailer{}
	events := &fakeEvents{}
	svc := newAccountService(t, store, nil, mailer, events)

	issued, code, err := svc.SignupStudent(context.Background(), SignupStudentInput{
		Email:     "Jane@Uni.example",
		GivenName: "Jane",
		Surname:   "Doe",
	})
	if err != nil {
		t.Fatalf("SignupStudent: %v", err)
	}
	if issued == nil || issued.Token == "" {
		t.Fatal("expected auth token")
	}
	if code != "123456" {
		t.Fatalf("code = %q, want 123456", code)
	}
	if store.created == nil {
		t.Fatal("expected account created")
	}
	if store.created.Email != "jane@uni.example" {
		t.Fatalf("email not normalized: %q", store.created.Email)
	}
	if store.created.UserUUID == "" || store.created.AuthUUID == "" {
		t.Fatal("expected generated identifiers")
	}
	if !store.stamped {
		t.Fatal("expected cooldown stamp")
	}
	if len(mailer.signupCodes) != 1 {
		t.Fatalf("signup mails = %d, want 1", len(mailer.signupCodes))
	}
	if events.registered != 1 {
		t.Fatalf("registered events = %d, want 1", events.registered)
	}
}

func TestSignupStudentRejectsMissingProfile(t *testing.T) {
	svc := newAccountService(t, &fakeStore{kind: domain.UserTypeStudent}, nil, &fakeMailer{}, &fakeEvents{})

	if _, _, err := svc.SignupStudent(context.Background(), SignupStudentInput{Email: "jane@uni.example"}); err == nil {
		t.Fatal("expected error for missing names")
	}
}

func TestSignupCompanyDuplicateEmail(t *testing.T) {
	store := &fakeStore{kind: domain.UserTypeCompany, createErr: repository.ErrAlreadyExists}
	svc := newAccountService(t, nil, store, &fakeMailer{}, &fakeEvents{})

	_, _, err := svc.SignupCompany(context.Background(), SignupCompanyInput{
		Email:       "hr@corp.example",
		CompanyName: "Corp GmbH",
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("want ErrDuplicateEmail, got %v", err)
	}
}

func TestGetAccount(t *testing.T) {
	store := &fakeStore{
		kind:    domain.UserTypeStudent,
		account: &domain.Account{UserUUID: "user-1", AuthUUID: "auth-1", Email: "jane@uni.example"},
	}
	svc := newAccountService(t, store, nil, &fakeMailer{}, &fakeEvents{})

	account, err := svc.Get(context.Background(), domain.UserTypeStudent, "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if account.Email != "jane@uni.example" {
		t.Fatalf("unexpected account: %+v", account)
	}

	if _, err := svc.Get(context.Background(), domain.UserTypeStudent, "ghost"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("want ErrAccountNotFound, got %v", err)
	}
}
