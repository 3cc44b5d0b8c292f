package monitoring

import (
	"errors"
	"fmt"
)

// ErrTriggerNotFound is returned when a trigger has no associated item.
var ErrTriggerNotFound = errors.New("trigger not found")

// AuthError indicates rejected credentials against an upstream system.
type AuthError struct {
	System string
	Detail string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s authentication failed: %s", e.System, e.Detail)
}

// UpstreamError indicates a transient failure of an external dependency:
// timeout, non-2xx status or malformed payload.
type UpstreamError struct {
	System string
	Detail string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream error: %s", e.System, e.Detail)
}
