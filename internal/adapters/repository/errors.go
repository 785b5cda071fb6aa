package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound       = errors.New("session not found")
	ErrSessionExists  = errors.New("session already exists")
	ErrInvalidSession = errors.New("invalid session")
	ErrUnknownItem    = errors.New("item not registered in session")
	ErrInvalidItem    = errors.New("invalid item")
	ErrPairLimit      = errors.New("pair judgment limit reached")
)
