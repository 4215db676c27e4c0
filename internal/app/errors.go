package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNoTimingSource = errors.New("timing source not configured")
)
