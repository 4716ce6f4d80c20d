package probe

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrUnhealthy      = errors.New("service unhealthy")
	ErrInvariant      = errors.New("invariant violated")
	ErrRequestsFailed = errors.New("requests failed")
)

// APIError is a non-2xx answer decoded from the service error envelope.
type APIError struct {
	Status   int    `json:"-"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Strategy string `json:"strategy,omitempty"`
}

func (e *APIError) Error() string {
	if e.Strategy != "" {
		return fmt.Sprintf("%d %s (%s): %s", e.Status, e.Code, e.Strategy, e.Message)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}
