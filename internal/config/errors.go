package config

import (
	"errors"
)

// Sentinel error kinds for this package. Load wraps one of them so callers
// can tell unreadable input from a rejected setting.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
