package notify

import (
	"context"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/health"
)

// PreferenceReader reports the user's notification preference.
type PreferenceReader interface {
	NotificationsEnabled(ctx context.Context) (bool, error)
}

// PreferenceFilter suppresses recommendation notifications while the user
// has notifications disabled. Alerts are never suppressed.
type PreferenceFilter struct {
	next   Notifier
	prefs  PreferenceReader
	logger Logger
}

// NewPreferenceFilter wraps next.
func NewPreferenceFilter(next Notifier, prefs PreferenceReader, logger Logger) *PreferenceFilter {
	if logger == nil {
		logger = nopLogger{}
	}
	return &PreferenceFilter{next: next, prefs: prefs, logger: logger}
}

func (f *PreferenceFilter) ShowAlert(ctx context.Context, alert health.Alert) error {
	return f.next.ShowAlert(ctx, alert)
}

// ShowRecommendation forwards when notifications are enabled. A failed
// preference read is logged and treated as enabled.
func (f *PreferenceFilter) ShowRecommendation(ctx context.Context, message string, priority health.Priority) error {
	enabled, err := f.prefs.NotificationsEnabled(ctx)
	if err != nil {
		f.logger.Warn("reading notification preference", "error", err)
		enabled = true
	}
	if !enabled {
		return nil
	}
	return f.next.ShowRecommendation(ctx, message, priority)
}
