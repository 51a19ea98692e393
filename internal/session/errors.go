package session

import "errors"

// Domain errors for the session package.
var (
	// ErrInvalidTarget is returned when a connection target has no host or
	// a port outside 1..65535.
	ErrInvalidTarget = errors.New("session: invalid connection target")

	// ErrConnectionFailed is returned by Connect when the transport rejects
	// the handshake. The transport's reason is wrapped alongside it.
	ErrConnectionFailed = errors.New("session: connection failed")

	// ErrAlreadyConnecting is returned by Connect while a dial is in flight.
	ErrAlreadyConnecting = errors.New("session: connection attempt already in progress")

	// ErrConnectAborted is wrapped with ErrConnectionFailed when Disconnect
	// cancels a Connect before the handshake completes.
	ErrConnectAborted = errors.New("session: connection attempt aborted")

	// ErrSubscriptionFailed is logged when a single topic subscription is
	// rejected. It never fails Connect.
	ErrSubscriptionFailed = errors.New("session: subscription failed")

	// ErrNotConnected is returned by HealthCheck when the session is not
	// connected.
	ErrNotConnected = errors.New("session: not connected")
)
