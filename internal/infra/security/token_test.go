package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
)

func testKeys() map[domain.TokenPurpose]PurposeKey {
	return map[domain.TokenPurpose]PurposeKey{
		domain.TokenPurposeAuth:     {Secret: []byte("auth-secret"), TTL: 5 * time.Minute},
		domain.TokenPurposeAccess:   {Secret: []byte("access-secret"), TTL: time.Hour},
		domain.TokenPurposeRecovery: {Secret: []byte("recovery-secret"), TTL: 10 * time.Minute},
		domain.TokenPurposeDeletion: {Secret: []byte("deletion-secret"), TTL: 10 * time.Minute},
	}
}

func newTestKeyring(t *testing.T) *Keyring {
	t.Helper()
	kr, err := NewKeyring("jobs-api", testKeys())
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}
	return kr
}

func TestNewKeyringRejectsMissingSecret(t *testing.T) {
	keys := testKeys()
	delete(keys, domain.TokenPurposeRecovery)

	if _, err := NewKeyring("jobs-api", keys); err == nil {
		t.Fatal("expected error for missing recovery secret")
	}
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	kr := newTestKeyring(t)

	issued, err := kr.Issue(domain.TokenPurposeAuth, "user-1", "auth-1", domain.UserTypeStudent)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if issued.Token == "" {
		t.Fatal("empty token")
	}
	if issued.Expires == "" || strings.Contains(issued.Expires, "T") {
		t.Fatalf("expires not human readable: %q", issued.Expires)
	}

	if err := kr.Verify(issued.Token, domain.TokenPurposeAuth); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	payload, err := kr.DecodePayload(issued.Token)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if payload.UserUUID != "user-1" || payload.AuthUUID != "auth-1" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Purpose != domain.TokenPurposeAuth {
		t.Fatalf("unexpected purpose: %s", payload.Purpose)
	}
	if payload.UserType != domain.UserTypeStudent {
		t.Fatalf("unexpected user type: %s", payload.UserType)
	}
	if got := payload.Expiry(); !got.Equal(issued.ExpiresAt.Truncate(time.Second)) {
		t.Fatalf("expiry mismatch: got %v want %v", got, issued.ExpiresAt)
	}
}

func TestVerifyRejectsCrossPurposeTokens(t *testing.T) {
	kr := newTestKeyring(t)

	for _, issueAs := range domain.TokenPurposes {
		issued, err := kr.Issue(issueAs, "user-1", "auth-1", domain.UserTypeCompany)
		if err != nil {
			t.Fatalf("Issue %s: %v", issueAs, err)
		}
		for _, verifyAs := range domain.TokenPurposes {
			err := kr.Verify(issued.Token, verifyAs)
			if issueAs == verifyAs {
				if err != nil {
					t.Fatalf("Verify %s as %s: %v", issueAs, verifyAs, err)
				}
				continue
			}
			if !errors.Is(err, ErrTokenInvalid) {
				t.Fatalf("Verify %s as %s: want ErrTokenInvalid, got %v", issueAs, verifyAs, err)
			}
		}
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	kr := newTestKeyring(t)
	kr.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })

	issued, err := kr.Issue(domain.TokenPurposeAuth, "user-1", "auth-1", domain.UserTypeStudent)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if err := kr.Verify(issued.Token, domain.TokenPurposeAuth); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("want ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	kr := newTestKeyring(t)

	issued, err := kr.Issue(domain.TokenPurposeAccess, "user-1", "auth-1", domain.UserTypeStudent)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tampered := issued.Token[:len(issued.Token)-2] + "xx"
	if err := kr.Verify(tampered, domain.TokenPurposeAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("want ErrTokenInvalid for tampered token, got %v", err)
	}

	if err := kr.Verify("not-a-token", domain.TokenPurposeAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("want ErrTokenInvalid for garbage, got %v", err)
	}
}
