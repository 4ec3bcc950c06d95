package domain

import "time"

// TokenPurpose scopes a signed token to exactly one operation. Every purpose
// is signed with its own secret, so a leaked key for one purpose cannot forge
// tokens for another.
type TokenPurpose string

const (
	TokenPurposeAuth     TokenPurpose = "AUTH"
	TokenPurposeAccess   TokenPurpose = "ACCESS"
	TokenPurposeRecovery TokenPurpose = "RECOVERY"
	TokenPurposeDeletion TokenPurpose = "DELETION"
)

// TokenPurposes lists every purpose the keyring must be configured with.
var TokenPurposes = []TokenPurpose{
	TokenPurposeAuth,
	TokenPurposeAccess,
	TokenPurposeRecovery,
	TokenPurposeDeletion,
}

// IssuedToken is the result of minting a purpose-scoped token.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
	// Expires is the human-readable expiry reported to clients alongside
	// auth-purpose tokens.
	Expires string
}

// TokenPayload is the decoded claim set of a purpose-scoped token. It is only
// trusted after Verify has succeeded for the same raw token.
type TokenPayload struct {
	UserUUID  string
	AuthUUID  string
	Purpose   TokenPurpose
	UserType  UserType
	ExpiresAt int64
}

// Expiry returns the exp claim as a timestamp, truncated to whole seconds so
// persisted revocation entries compare correctly against store timestamps.
func (p TokenPayload) Expiry() time.Time {
	return time.Unix(p.ExpiresAt, 0).UTC()
}

// BlacklistedToken is the persisted trace of a consumed token.
type BlacklistedToken struct {
	TokenHash string
	Expires   time.Time
}
