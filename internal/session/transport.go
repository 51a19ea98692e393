package session

import (
	"context"
	"time"
)

// Transport opens broker connections.
//
// Dial blocks until the handshake completes, fails, or ctx is cancelled.
// The returned Conn reports inbound messages and connection loss through
// the supplied Events; callbacks may arrive on any goroutine.
type Transport interface {
	Dial(ctx context.Context, target Target, events Events) (Conn, error)
}

// Conn is a single established broker connection.
type Conn interface {
	// Subscribe blocks until the broker acknowledges or rejects the topic.
	Subscribe(topic string, g Guarantee) error
	// Close disconnects. It is called at most once per Conn by the Session.
	Close() error
}

// Events carries the callbacks a Transport invokes for one connection.
type Events struct {
	OnMessage        func(topic string, payload []byte)
	OnConnectionLost func(err error)
}

// Clock schedules the reconnect timer.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call.
type Timer interface {
	Stop() bool
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
