package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrUnknownStrategy  = errors.New("unknown attribution strategy")
)
