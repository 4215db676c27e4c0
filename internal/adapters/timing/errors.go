package timing

import "errors"

// Sentinel kinds for timing-source errors.
var (
	ErrFetch      = errors.New("timing fetch failed")
	ErrParse      = errors.New("timing page parse failed")
	ErrInvalidURL = errors.New("invalid timing base url")
)
