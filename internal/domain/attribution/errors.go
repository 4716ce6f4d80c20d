package attribution

import (
	"errors"
	"fmt"

	"github.com/okian/matchxai/internal/domain/types"
)

// Sentinel kinds for attribution errors.
var (
	ErrShapeMismatch = fmt.Errorf("%w: attribution length", types.ErrInputShape)
	ErrNonFinite     = errors.New("non-finite attribution")
)

// StrategyError identifies the strategy behind a failed attribution.
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("attribution strategy %s: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }

// Fail wraps err as a StrategyError for the named strategy. A nil err stays nil.
func Fail(strategy string, err error) error {
	if err == nil {
		return nil
	}
	var se *StrategyError
	if errors.As(err, &se) {
		return err
	}
	return &StrategyError{Strategy: strategy, Err: err}
}
