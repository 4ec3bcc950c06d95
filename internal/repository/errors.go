package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrAlreadyExists indicates an insert collided with an existing row.
	ErrAlreadyExists = errors.New("repository: already exists")
)
