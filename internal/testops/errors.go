package testops

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for remote test service failures.
// ErrRemoteTimeout wraps ErrRemoteUnavailable so callers that only care about
// availability can match on the broader error.
var (
	ErrRemoteUnavailable = errors.New("testops unavailable")
	ErrRemoteTimeout     = fmt.Errorf("%w: timeout", ErrRemoteUnavailable)
)

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrRemoteTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrRemoteTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
}
