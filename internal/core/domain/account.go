package domain

import "time"

// UserType distinguishes the two account kinds the platform serves.
type UserType string

const (
	UserTypeStudent UserType = "STUDENT"
	UserTypeCompany UserType = "COMPANY"
)

// Valid reports whether the value is one of the known account kinds.
func (t UserType) Valid() bool {
	return t == UserTypeStudent || t == UserTypeCompany
}

// AccountRef is the identifier pair resolved for an email lookup.
type AccountRef struct {
	UserUUID string
	AuthUUID string
}

// Account mirrors the persisted representation in the per-kind account tables.
// Profile columns differ between kinds; absent ones stay nil.
type Account struct {
	UserUUID        string
	AuthUUID        string
	Email           string
	GivenName       *string
	Surname         *string
	CompanyName     *string
	AuthCodeHash    *string
	AuthCodeCreated *time.Time
	AuthCodeAttempt int
	Cooldown        *time.Time
	CreatedAt       time.Time
}

// HasActiveCode reports whether a one-time code digest is currently stored.
func (a Account) HasActiveCode() bool {
	return a.AuthCodeHash != nil && a.AuthCodeCreated != nil
}

// DeviceInfo carries best-effort client device context for login notifications.
type DeviceInfo struct {
	OS      string
	Browser string
}
