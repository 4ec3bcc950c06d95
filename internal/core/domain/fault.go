package domain

import "time"

// Fault records an unexpected internal failure. Clients only ever see the
// UUID; the cause stays server-side.
type Fault struct {
	UUID      string
	Cause     string
	Backend   bool
	CreatedAt time.Time
}
