package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
	"github.com/GitHubKaan/gju-jobs-api/internal/repository"
)

type fakeDigest struct{}

func (fakeDigest) Hash(value string) string { return "digest:" + value }

var pgErrUnique = pgconn.PgError{Code: uniqueViolationCode}

func testCredentialOptions() CredentialOptions {
	return CredentialOptions{
		GenerateCode: func() (string, error) { return "123456", nil },
		MaxAttempts:  3,
		CodeTTL:      5 * time.Minute,
	}
}

func TestCredentialRepository_CreateDuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewStudentCredentialRepository(mock, fakeDigest{}, testCredentialOptions())

	mock.ExpectExec(`INSERT INTO accounts_student`).
		WithArgs("user-1", "auth-1", "jane@uni.example", "Jane", "Doe", nil).
		WillReturnError(&pgErrUnique)

	given := "Jane"
	surname := "Doe"
	err = repo.Create(context.Background(), domain.Account{
		UserUUID:  "user-1",
		AuthUUID:  "auth-1",
		Email:     "jane@uni.example",
		GivenName: &given,
		Surname:   &surname,
	})
	if !errors.Is(err, repository.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCredentialRepository_GetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewCompanyCredentialRepository(mock, fakeDigest{}, testCredentialOptions())
	if repo.Kind() != domain.UserTypeCompany {
		t.Fatalf("unexpected kind %s", repo.Kind())
	}

	rows := pgxmock.NewRows([]string{"user_uuid", "auth_uuid"}).
		AddRow("user-1", "auth-1")

	mock.ExpectQuery(`SELECT user_uuid, auth_uuid FROM accounts_company`).
		WithArgs("hr@corp.example").
		WillReturnRows(rows)

	ref, err := repo.GetByEmail(context.Background(), "hr@corp.example")
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	if ref.UserUUID != "user-1" || ref.AuthUUID != "auth-1" {
		t.Fatalf("unexpected ref: %+v", ref)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCredentialRepository_GetByEmailNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewStudentCredentialRepository(mock, fakeDigest{}, testCredentialOptions())

	mock.ExpectQuery(`SELECT user_uuid, auth_uuid FROM accounts_student`).
		WithArgs("ghost@uni.example").
		WillReturnRows(pgxmock.NewRows([]string{"user_uuid", "auth_uuid"}))

	if _, err := repo.GetByEmail(context.Background(), "ghost@uni.example"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCredentialRepository_IssueOneTimeCodeStoresDigest(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewStudentCredentialRepository(mock, fakeDigest{}, testCredentialOptions())

	mock.ExpectExec(`UPDATE accounts_student`).
		WithArgs("user-1", "digest:123456").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	code, err := repo.IssueOneTimeCode(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("IssueOneTimeCode returned error: %v", err)
	}
	if code != "123456" {
		t.Fatalf("expected plaintext code back, got %q", code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCredentialRepository_ConsumeOneTimeCode(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewStudentCredentialRepository(mock, fakeDigest{}, testCredentialOptions())

	mock.ExpectExec(`UPDATE accounts_student`).
		WithArgs("user-1", "digest:123456", float64(300)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.ConsumeOneTimeCode(context.Background(), "user-1", "123456")
	if err != nil {
		t.Fatalf("ConsumeOneTimeCode returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected matching code to consume")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCredentialRepository_ConsumeOneTimeCodeMismatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewStudentCredentialRepository(mock, fakeDigest{}, testCredentialOptions())

	mock.ExpectExec(`UPDATE accounts_student`).
		WithArgs("user-1", "digest:999999", float64(300)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.ConsumeOneTimeCode(context.Background(), "user-1", "999999")
	if err != nil {
		t.Fatalf("ConsumeOneTimeCode returned error: %v", err)
	}
	if ok {
		t.Fatal("expected stale or mismatched code to leave the row untouched")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCredentialRepository_HasRemainingAttempts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewStudentCredentialRepository(mock, fakeDigest{}, testCredentialOptions())

	mock.ExpectQuery(`SELECT auth_code_attempt FROM accounts_student`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"auth_code_attempt"}).AddRow(3))

	ok, err := repo.HasRemainingAttempts(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("HasRemainingAttempts returned error: %v", err)
	}
	if ok {
		t.Fatal("expected exhausted counter to report no remaining attempts")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCredentialRepository_RotateAuthUUID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewStudentCredentialRepository(mock, fakeDigest{}, testCredentialOptions())

	mock.ExpectExec(`UPDATE accounts_student SET auth_uuid`).
		WithArgs("auth-old", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	newAuthUUID, err := repo.RotateAuthUUID(context.Background(), "auth-old")
	if err != nil {
		t.Fatalf("RotateAuthUUID returned error: %v", err)
	}
	if newAuthUUID == "" || newAuthUUID == "auth-old" {
		t.Fatalf("expected fresh auth uuid, got %q", newAuthUUID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCredentialRepository_RotateAuthUUIDUnknown(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewStudentCredentialRepository(mock, fakeDigest{}, testCredentialOptions())

	mock.ExpectExec(`UPDATE accounts_student SET auth_uuid`).
		WithArgs("auth-ghost", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if _, err := repo.RotateAuthUUID(context.Background(), "auth-ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
