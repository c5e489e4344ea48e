// Package remote defines the contract with the chat platform's REST API and
// provides an HTTP implementation speaking the Mattermost-compatible
// /api/v4 surface.
//
// Failures are classified into a closed taxonomy (authentication, not-found,
// permission, transport) via sentinel errors wrapped in StatusError, so that
// upstream retry decisions are type checks rather than string matching. A
// substring fallback exists for transports that cannot supply typed errors.
package remote
