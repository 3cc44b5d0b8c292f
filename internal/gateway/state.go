package gateway

import "strings"

// SessionState models the messaging-gateway session lifecycle:
//
//	Uninitialized -> Authenticating -> AuthenticatedDisconnected
//	    -> AwaitingPairing -> Connected
//
// Connected can regress to AuthenticatedDisconnected or AwaitingPairing on
// a detected disconnect, and any state falls back to Uninitialized when the
// gateway rejects the token.
type SessionState int

const (
	StateUninitialized SessionState = iota
	StateAuthenticating
	StateAuthenticatedDisconnected
	StateAwaitingPairing
	StateConnected
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateAuthenticatedDisconnected:
		return "AUTHENTICATED_DISCONNECTED"
	case StateAwaitingPairing:
		return "AWAITING_PAIRING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// ConnectionStatus collapses the session state into the three-valued
// status the dashboard consumes.
func (s SessionState) ConnectionStatus() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateAuthenticating, StateAwaitingPairing:
		return "CONNECTING"
	default:
		return "DISCONNECTED"
	}
}

// upstreamStatus is the normalized form of the gateway's raw status
// vocabulary.
type upstreamStatus int

const (
	statusUnknown upstreamStatus = iota
	statusConnected
	statusDisconnected
	statusPairing
	statusInitializing
)

// parseUpstreamStatus normalizes the gateway's varied status strings
// (multiple casings and spellings across gateway versions) into a fixed
// vocabulary. Raw strings never leak past this boundary.
func parseUpstreamStatus(raw string) upstreamStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "CONNECTED", "INCHAT", "ISLOGGED", "OPEN":
		return statusConnected
	case "DISCONNECTED", "CLOSED", "NOTLOGGED", "BROWSERCLOSE", "DESCONNECTEDMOBILE":
		return statusDisconnected
	case "QRCODE", "QR", "QRREADFAIL":
		return statusPairing
	case "INITIALIZING", "STARTING", "OPENING":
		return statusInitializing
	default:
		return statusUnknown
	}
}
