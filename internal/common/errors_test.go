package common

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestSessionExpired_IsNotAuthenticated(t *testing.T) {
	require.ErrorIs(t, ErrSessionExpired, ErrNotAuthenticated)
	require.False(t, errors.Is(ErrNotAuthenticated, ErrSessionExpired))
}

func TestTransportError_Timeout(t *testing.T) {
	err := TransportError("GET /items/x", context.DeadlineExceeded)
	require.ErrorIs(t, err, ErrRequestTimedOut)
	require.Contains(t, err.Error(), "GET /items/x")

	err = TransportError("GET /items/x", timeoutErr{})
	require.ErrorIs(t, err, ErrRequestTimedOut)
}

func TestTransportError_Network(t *testing.T) {
	err := TransportError("POST /auth/signin", errors.New("connection refused"))
	require.ErrorIs(t, err, ErrNetwork)
	require.NotErrorIs(t, err, ErrRequestTimedOut)
}
