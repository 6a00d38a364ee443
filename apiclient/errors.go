package apiclient

import (
	"errors"
	"net/http"
)

// ErrSessionExpired is matched by every *SessionExpiredError through errors.Is.
var ErrSessionExpired = errors.New("session has expired, please sign in again")

// TerminationReason records why a session was torn down.
type TerminationReason string

const (
	ReasonRefreshTokenMissing TerminationReason = "refresh_token_missing"
	ReasonRenewalRejected     TerminationReason = "renewal_rejected"
	ReasonRenewalNoAccess     TerminationReason = "renewal_missing_access"
	ReasonReplayUnauthorized  TerminationReason = "replay_unauthorized"
	ReasonSignedOut           TerminationReason = "signed_out"
)

// SessionExpiredError is returned after a teardown. The caller can only recover by
// signing in again.
type SessionExpiredError struct {
	Reason TerminationReason
}

func (e *SessionExpiredError) Error() string {
	return ErrSessionExpired.Error()
}

func (e *SessionExpiredError) Is(target error) bool {
	return target == ErrSessionExpired
}

// APIError is any other non-2xx response. Message is the best-effort text extracted
// from the response body.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return e.Message
}

// IsSessionExpired reports whether err ended the session.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

// StatusCode returns the HTTP status carried by an *APIError in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// renewalRejectedError is internal: the refresh endpoint answered but did not issue
// a usable access token. It always leads to a teardown.
type renewalRejectedError struct {
	reason     TerminationReason
	statusCode int
}

func (e *renewalRejectedError) Error() string {
	return "token renewal rejected: " + string(e.reason)
}
