package usecase

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized covers every credential or token failure. The single
	// sentinel keeps responses from revealing which check rejected the
	// request.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAccountNotFound indicates no account exists for the identifier.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAttemptsExhausted indicates the one-time code attempt budget is
	// spent and a fresh login is required.
	ErrAttemptsExhausted = errors.New("verification attempts exhausted")
	// ErrDuplicateEmail indicates a signup collided with an existing account.
	ErrDuplicateEmail = errors.New("email already registered")
)

// CooldownError rejects a request made before the per-account cooldown
// elapsed. RemainingSeconds is rounded up so clients never retry early.
type CooldownError struct {
	RemainingSeconds int64
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, retry in %ds", e.RemainingSeconds)
}
