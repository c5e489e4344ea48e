package remote

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for remote call classification.
var (
	// ErrUnauthorized marks an invalid or expired session. Triggers the
	// client's one-shot re-authentication.
	ErrUnauthorized = errors.New("remote: invalid or expired session")

	// ErrNoCredentials marks a call attempted without any credential.
	ErrNoCredentials = errors.New("remote: no credentials provided")

	// ErrNotFound marks an unknown entity. Never retried.
	ErrNotFound = errors.New("remote: not found")

	// ErrPermissionDenied marks a call the session is not allowed to make.
	ErrPermissionDenied = errors.New("remote: permission denied")
)

// StatusError is a failed platform call. The server message is preserved
// verbatim for diagnosability; Unwrap exposes the classification sentinel.
type StatusError struct {
	StatusCode int
	ID         string // platform error id, e.g. "api.context.session_expired.app_error"
	Message    string
	sentinel   error
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote: status %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return e.sentinel
}

// NewStatusError builds a StatusError classified by HTTP status code.
func NewStatusError(statusCode int, id, message string) *StatusError {
	var sentinel error
	switch statusCode {
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case http.StatusForbidden:
		sentinel = ErrPermissionDenied
	case http.StatusNotFound:
		sentinel = ErrNotFound
	}
	return &StatusError{
		StatusCode: statusCode,
		ID:         id,
		Message:    message,
		sentinel:   sentinel,
	}
}

// authFallbackPatterns matches session-expiry phrasing from transports that
// cannot supply typed errors. Fallback only; typed classification wins.
var authFallbackPatterns = []string{
	"session is invalid",
	"invalid or expired session",
	"session expired",
	"token expired",
	"authentication required",
	"please login again",
}

// IsAuthError reports whether err should trigger the one-shot
// re-authentication and retry.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNoCredentials) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range authFallbackPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err marks an unknown entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
