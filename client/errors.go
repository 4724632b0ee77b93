package client

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when no session exists at all: the caller
// never logged in or the session was cleared
var ErrNotAuthenticated = errors.New("client: not authenticated")

// FailReason classifies why a token refresh failed
type FailReason string

const (
	ReasonNoRefreshToken      FailReason = "NO_REFRESH_TOKEN"
	ReasonRefreshTokenExpired FailReason = "REFRESH_TOKEN_EXPIRED"
	ReasonMaxRetriesExceeded  FailReason = "MAX_RETRIES_EXCEEDED"
	ReasonRefreshFailed       FailReason = "REFRESH_FAILED"
)

// Terminal reports whether the reason allows no further refresh attempts.
// A terminal session requires a fresh login.
func (r FailReason) Terminal() bool {
	switch r {
	case ReasonNoRefreshToken, ReasonRefreshTokenExpired, ReasonMaxRetriesExceeded:
		return true
	}
	return false
}

// SessionExpiredError means the session can not be recovered by refreshing,
// the user has to re-authenticate
type SessionExpiredError struct {
	Reason FailReason
}

func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("client: session expired: %s", e.Reason)
}

// APIError is a non-2xx response surfaced to the caller as-is
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: api error %d: %s", e.Status, e.Message)
}
