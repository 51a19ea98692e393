package session

import (
	"context"
	"time"
)

// DefaultReconnectDelay is the fixed pause before each reconnect attempt.
const DefaultReconnectDelay = 5 * time.Second

// SettingsReader exposes the user's autoReconnect preference.
type SettingsReader interface {
	AutoReconnectEnabled(ctx context.Context) (bool, error)
}

// ReconnectPolicy decides whether and when to retry after a connection loss.
//
// The delay is fixed: every attempt waits Delay, however many have failed.
type ReconnectPolicy struct {
	// Delay between attempts. Zero means DefaultReconnectDelay.
	Delay time.Duration

	// MaxAttempts caps consecutive failed attempts. Zero means unlimited.
	MaxAttempts int

	// Settings is consulted on every decision. Nil means always enabled.
	Settings SettingsReader
}

// Next reports the delay before the next attempt and whether to make one.
// attempts is the number of reconnect dials already made since the last
// successful connection.
//
// A settings read error is returned alongside a retry decision: the stored
// default for autoReconnect is on, so an unreadable store keeps retrying.
func (p ReconnectPolicy) Next(ctx context.Context, attempts int) (time.Duration, bool, error) {
	delay := p.Delay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}

	if p.MaxAttempts > 0 && attempts >= p.MaxAttempts {
		return 0, false, nil
	}

	if p.Settings == nil {
		return delay, true, nil
	}

	enabled, err := p.Settings.AutoReconnectEnabled(ctx)
	if err != nil {
		return delay, true, err
	}
	return delay, enabled, nil
}
