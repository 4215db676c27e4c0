package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("artifact not found")
	ErrDecode   = errors.New("artifact decode failed")
	ErrWrite    = errors.New("artifact write failed")
)
