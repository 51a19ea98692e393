package notify

import (
	"context"
	"errors"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/health"
)

// ErrPoolClosed is returned by Async after Release.
var ErrPoolClosed = errors.New("notify: pool closed")

// ErrOverloaded is returned by Async when its queue is full.
var ErrOverloaded = errors.New("notify: too many pending notifications")

// Notifier presents notifications.
type Notifier interface {
	ShowAlert(ctx context.Context, alert health.Alert) error
	ShowRecommendation(ctx context.Context, message string, priority health.Priority) error
}

// Logger is the subset of a structured logger this package uses.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// AlertTitle returns the notification title for an alert level.
func AlertTitle(level health.AlertLevel) string {
	switch level {
	case health.AlertCritical:
		return "🔴 Critical Health Alert"
	case health.AlertWarning:
		return "🟠 Health Warning"
	default:
		return "⚠️ Health Alert"
	}
}

// RecommendationTitle returns the notification title for a priority.
func RecommendationTitle(p health.Priority) string {
	switch p {
	case health.PriorityCritical:
		return "🔴 Critical Alert"
	case health.PriorityWarning:
		return "🟠 Warning"
	case health.PriorityCaution:
		return "🟡 Caution"
	default:
		return "💡 Health Recommendation"
	}
}
