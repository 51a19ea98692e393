package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/health"
)

// ConsoleOptions controls Console output.
type ConsoleOptions struct {
	// NoColor disables ANSI colours regardless of the terminal.
	NoColor bool
	// Bell writes a BEL character before critical notifications.
	Bell bool
}

// Console writes notifications as single lines to a terminal.
type Console struct {
	w    io.Writer
	bell bool
	now  func() time.Time

	critical *color.Color
	warning  *color.Color
	caution  *color.Color
	info     *color.Color
	stamp    *color.Color

	mu sync.Mutex
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer, opts ConsoleOptions) *Console {
	c := &Console{
		w:        w,
		bell:     opts.Bell,
		now:      time.Now,
		critical: color.New(color.FgHiRed, color.Bold),
		warning:  color.New(color.FgRed),
		caution:  color.New(color.FgYellow),
		info:     color.New(color.FgCyan),
		stamp:    color.New(color.FgGreen),
	}
	if opts.NoColor {
		for _, col := range []*color.Color{c.critical, c.warning, c.caution, c.info, c.stamp} {
			col.DisableColor()
		}
	}
	return c
}

// ShowAlert writes an alert with its labels.
func (c *Console) ShowAlert(_ context.Context, alert health.Alert) error {
	col := c.warning
	if alert.Level == health.AlertCritical {
		col = c.critical
	}
	line := alert.Message
	if len(alert.Labels) > 0 {
		line += " [" + strings.Join(alert.Labels, ", ") + "]"
	}
	return c.write(alert.Level == health.AlertCritical, col, AlertTitle(alert.Level), line)
}

// ShowRecommendation writes a recommendation.
func (c *Console) ShowRecommendation(_ context.Context, message string, priority health.Priority) error {
	var col *color.Color
	switch priority {
	case health.PriorityCritical:
		col = c.critical
	case health.PriorityWarning:
		col = c.warning
	case health.PriorityCaution:
		col = c.caution
	default:
		col = c.info
	}
	return c.write(priority == health.PriorityCritical, col, RecommendationTitle(priority), message)
}

func (c *Console) write(critical bool, col *color.Color, title, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := ""
	if critical && c.bell {
		prefix = "\a"
	}
	_, err := fmt.Fprintf(c.w, "%s%s %s %s\n",
		prefix,
		c.stamp.Sprint(c.now().Format("15:04:05")),
		col.Sprint(title),
		message,
	)
	if err != nil {
		return fmt.Errorf("writing notification: %w", err)
	}
	return nil
}
