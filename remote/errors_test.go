package remote

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusError_Classification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrPermissionDenied},
		{"not found", http.StatusNotFound, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewStatusError(tt.status, "some.id", "some message")
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("status %d should unwrap to %v", tt.status, tt.sentinel)
			}
		})
	}
}

func TestStatusError_UnclassifiedStatus(t *testing.T) {
	err := NewStatusError(http.StatusInternalServerError, "", "boom")
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrPermissionDenied) {
		t.Error("500 should not classify as any sentinel")
	}
}

func TestStatusError_PreservesMessage(t *testing.T) {
	err := NewStatusError(http.StatusBadRequest, "api.post.create.app_error", "Invalid channel_id parameter")
	want := "remote: status 400: Invalid channel_id parameter"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unauthorized status", NewStatusError(http.StatusUnauthorized, "", "Invalid or expired session"), true},
		{"no credentials", ErrNoCredentials, true},
		{"wrapped unauthorized", fmt.Errorf("call failed: %w", ErrUnauthorized), true},
		{"not found", NewStatusError(http.StatusNotFound, "", "missing"), false},
		{"permission denied", ErrPermissionDenied, false},
		{"plain transport error", errors.New("dial tcp: connection refused"), false},
		// Substring fallback for untyped transports.
		{"untyped session expiry", errors.New("Session is invalid or expired, please login again"), true},
		{"untyped token expiry", errors.New("token expired"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthError(tt.err); got != tt.want {
				t.Errorf("IsAuthError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(NewStatusError(http.StatusNotFound, "", "no such channel")) {
		t.Error("404 should classify as not found")
	}
	if IsNotFound(NewStatusError(http.StatusUnauthorized, "", "")) {
		t.Error("401 should not classify as not found")
	}
}
