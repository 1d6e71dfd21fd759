package common

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// local file errors
	ErrStorageUnavailable = errors.New("storage unavailable")

	// session errors
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrSessionExpired       = fmt.Errorf("%w: session rejected by marketplace", ErrNotAuthenticated)

	// item and order errors
	ErrItemNotFound = errors.New("item not found")
	ErrInvalidOrder = errors.New("invalid order")

	// transport errors
	ErrRequestTimedOut = errors.New("request timed out")
	ErrNetwork         = errors.New("network error")
)

// TransportError tags a failed round trip to endpoint as either a timeout or a
// generic network failure.
func TransportError(endpoint string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %v", ErrRequestTimedOut, endpoint, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrNetwork, endpoint, err)
}
