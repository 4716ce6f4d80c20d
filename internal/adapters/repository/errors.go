package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound       = errors.New("model state not found")
	ErrCorrupt        = errors.New("model state corrupt")
	ErrInvalidRecord  = errors.New("invalid model record")
	ErrUnknownBackend = errors.New("unknown store backend")
)
