package lime

import "errors"

// Sentinel errors returned by the explainer.
var (
	ErrNoBackground = errors.New("lime: empty background")
	ErrSingular     = errors.New("lime: surrogate system is singular")
)
