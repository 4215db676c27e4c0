package model

import "errors"

// Sentinel kinds for model parsing errors.
var (
	ErrUnknownCategory = errors.New("unknown category")
)
