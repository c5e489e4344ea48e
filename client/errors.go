package client

import "errors"

var (
	// ErrNoAPI is returned by New when no remote API is supplied.
	ErrNoAPI = errors.New("client: remote API is required")

	// ErrNoCredentials is returned by New when neither a token nor a
	// login/password pair is supplied.
	ErrNoCredentials = errors.New("client: token or login/password credentials are required")
)
