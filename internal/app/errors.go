package service

import "errors"

// Sentinel error kinds for the service.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBackpressure = errors.New("judgment queue is full")
	ErrInvalidItem  = errors.New("invalid item")
)
