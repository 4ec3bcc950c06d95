package domain

import "time"

// AccountRegisteredEvent is published after a signup creates an account row.
type AccountRegisteredEvent struct {
	EventID      string
	UserUUID     string
	UserType     UserType
	Email        string
	RegisteredAt time.Time
}

// AccountAuthenticatedEvent is published after a one-time code is redeemed
// and an access token minted.
type AccountAuthenticatedEvent struct {
	EventID         string
	UserUUID        string
	UserType        UserType
	OS              string
	Browser         string
	AuthenticatedAt time.Time
}

// AccountRecoveredEvent is published after the auth identifier is rotated.
type AccountRecoveredEvent struct {
	EventID     string
	UserUUID    string
	UserType    UserType
	RecoveredAt time.Time
}

// AccountDeletedEvent is published after an account and its owned resources
// are erased.
type AccountDeletedEvent struct {
	EventID   string
	UserUUID  string
	UserType  UserType
	DeletedAt time.Time
}
