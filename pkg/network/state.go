package network

// ConnectionState tracks where a supervisor is in the connection
// lifecycle. Transitions only follow the defined edges:
//
//	Disconnected -> Connecting            Connect()
//	Connecting   -> Connected             socket open
//	Connecting   -> Disconnected          dial timeout/error
//	Connected    -> Authenticating        handshake start
//	Authenticating -> Authenticated       keys derived or takeover accepted
//	Authenticating -> Disconnected        handshake failure
//	Authenticated -> Ready                post-auth bookkeeping done
//	any          -> Closing -> Disconnected  Disconnect()
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateAuthenticating
	StateAuthenticated
	StateReady
	StateClosing
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateReady:
		return "ready"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// active reports whether the state counts as an in-progress or live
// connection for the purposes of Connect() being a no-op.
func (s ConnectionState) active() bool {
	switch s {
	case StateConnecting, StateConnected, StateAuthenticating, StateAuthenticated, StateReady:
		return true
	}
	return false
}
