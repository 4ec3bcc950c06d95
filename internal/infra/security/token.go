package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
)

// ErrTokenInvalid collapses every verification failure (bad signature,
// expired, malformed, wrong purpose) into one error so callers cannot leak
// which check failed.
var ErrTokenInvalid = errors.New("security: token invalid")

// ErrUnknownPurpose indicates the keyring has no key for the purpose.
var ErrUnknownPurpose = errors.New("security: unknown token purpose")

// expiresLayout is the human-readable expiry format reported to clients.
const expiresLayout = "2006-01-02 15:04:05"

// PurposeKey binds a signing secret and lifetime to one token purpose.
type PurposeKey struct {
	Secret []byte
	TTL    time.Duration
}

// Claims is the JWT claim set carried by every purpose-scoped token. The
// stable account identifier rides in the registered subject claim.
type Claims struct {
	AuthUUID string              `json:"auth_uuid"`
	UserType domain.UserType     `json:"user_type,omitempty"`
	Purpose  domain.TokenPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

// Keyring issues and verifies the four purpose-scoped tokens. Each purpose
// signs with its own HS256 secret, so purpose confusion is prevented by the
// signature itself, not just the purpose claim.
type Keyring struct {
	keys   map[domain.TokenPurpose]PurposeKey
	issuer string
	now    func() time.Time
}

// NewKeyring validates that a key is configured for every purpose and
// returns a ready keyring.
func NewKeyring(issuer string, keys map[domain.TokenPurpose]PurposeKey) (*Keyring, error) {
	for _, purpose := range domain.TokenPurposes {
		key, ok := keys[purpose]
		if !ok || len(key.Secret) == 0 {
			return nil, fmt.Errorf("security: missing secret for purpose %s", purpose)
		}
		if key.TTL <= 0 {
			return nil, fmt.Errorf("security: non-positive ttl for purpose %s", purpose)
		}
	}

	return &Keyring{
		keys:   keys,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// WithClock overrides the internal clock, used in tests.
func (k *Keyring) WithClock(clock func() time.Time) *Keyring {
	if clock != nil {
		k.now = clock
	}
	return k
}

// Issue mints a token for the given purpose. The user type is embedded so
// downstream access tokens can be group-scoped without a database lookup.
func (k *Keyring) Issue(purpose domain.TokenPurpose, userUUID, authUUID string, userType domain.UserType) (*domain.IssuedToken, error) {
	key, ok := k.keys[purpose]
	if !ok {
		return nil, ErrUnknownPurpose
	}

	now := k.now().UTC()
	expiresAt := now.Add(key.TTL)

	claims := Claims{
		AuthUUID: authUUID,
		UserType: userType,
		Purpose:  purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userUUID,
			Issuer:    k.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key.Secret)
	if err != nil {
		return nil, fmt.Errorf("sign %s token: %w", purpose, err)
	}

	return &domain.IssuedToken{
		Token:     signed,
		ExpiresAt: expiresAt,
		Expires:   expiresAt.Format(expiresLayout),
	}, nil
}

// Verify checks the raw token against the key for the expected purpose. The
// check is purely cryptographic and structural; blacklist and credential
// state are the caller's concern.
func (k *Keyring) Verify(raw string, purpose domain.TokenPurpose) error {
	key, ok := k.keys[purpose]
	if !ok {
		return ErrUnknownPurpose
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return key.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || parsed == nil || !parsed.Valid {
		return ErrTokenInvalid
	}

	if claims.Purpose != purpose {
		return ErrTokenInvalid
	}

	return nil
}

// DecodePayload parses the claim set without verifying the signature. Only
// call it after Verify has succeeded for the same raw token, or for
// read-only link construction where verification happens downstream.
func (k *Keyring) DecodePayload(raw string) (*domain.TokenPayload, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, ErrTokenInvalid
	}

	var exp int64
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Unix()
	}

	return &domain.TokenPayload{
		UserUUID:  claims.Subject,
		AuthUUID:  claims.AuthUUID,
		Purpose:   claims.Purpose,
		UserType:  claims.UserType,
		ExpiresAt: exp,
	}, nil
}

// TTL reports the configured lifetime for a purpose, zero when unknown.
func (k *Keyring) TTL(purpose domain.TokenPurpose) time.Duration {
	return k.keys[purpose].TTL
}
