package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyConnected is returned by RequestPairingCode when the
	// session is already paired.
	ErrAlreadyConnected = errors.New("gateway session already connected")
	// ErrPairingUnavailable is returned when the gateway does not produce
	// a pairing code.
	ErrPairingUnavailable = errors.New("gateway produced no pairing code")
	// ErrPairingTimeout is returned when the caller-supplied pairing
	// window expires before the gateway reports connected.
	ErrPairingTimeout = errors.New("pairing not completed within timeout")
)

// AuthError indicates the gateway rejected the shared secret.
type AuthError struct {
	Detail string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("gateway authentication failed: %s", e.Detail)
}

// DeliveryError indicates a send attempt to one recipient failed. It is
// isolated to that recipient's outcome and never aborts the fan-out.
type DeliveryError struct {
	Recipient string
	Detail    string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %s", e.Recipient, e.Detail)
}
