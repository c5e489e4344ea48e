// Package client provides the session-owning chat platform client. It wraps a
// remote.API with a time-bounded entity cache, batched reference resolution,
// result enrichment, and a one-shot re-authentication retry for calls that
// fail with a session error.
package client
