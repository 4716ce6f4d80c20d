package shapley

import "errors"

// ErrNoBackground is returned when the explainer is built without reference data.
var ErrNoBackground = errors.New("shapley: empty background")
