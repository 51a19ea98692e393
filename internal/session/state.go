package session

import (
	"fmt"
	"net"
	"strconv"
)

// State is the connection state of a Session.
type State int32

// Session states.
const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateError
)

// String returns the lower-case state name used in logs and the API.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Target identifies a broker endpoint.
type Target struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Validate reports ErrInvalidTarget for an empty host or a port outside
// 1..65535.
func (t Target) Validate() error {
	if t.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidTarget)
	}
	if t.Port < 1 || t.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidTarget, t.Port)
	}
	return nil
}

// String returns host:port, bracketing IPv6 literals.
func (t Target) String() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}
