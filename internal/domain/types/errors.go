package types

import "errors"

// ErrInputShape marks an instance that does not fit the feature schema.
var ErrInputShape = errors.New("input shape mismatch")
