package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrMissingParam  = errors.New("missing required parameter")
	ErrInvalidWindow = errors.New("invalid window_days; must be a positive integer")
)
