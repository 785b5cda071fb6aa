package simulation

import "time"

// HTTP status code constants.
const (
	StatusOK              = 200
	StatusCreated         = 201
	StatusAccepted        = 202
	StatusConflict        = 409
	StatusTooManyRequests = 429
)

// Runner configuration constants.
const (
	DefaultSpread       = 1.5
	DefaultWaitTimeout  = 30 * time.Second
	PollInterval        = 50 * time.Millisecond
	BackpressureBackoff = 10 * time.Millisecond
	MaxBackpressureTry  = 50
	ScaleMax            = 10.0
	initialRatingNoise  = 1.0
)
