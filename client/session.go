package client

// State represents the session state.
type State int

const (
	// StateDisconnected means no valid session is held.
	StateDisconnected State = iota
	// StateAuthenticating means credentials are being exchanged.
	StateAuthenticating
	// StateConnected means the session has been verified against the platform.
	StateConnected
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateAuthenticating:
		return "authenticating"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}
