package influxdb

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/health"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/infrastructure/config"
)

// testConfig returns a configuration for a local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "healthmon-dev-token",
		Org:           "healthmon",
		Bucket:        "health",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

// connectOrSkip connects to the local InfluxDB, skipping when it is not
// running and RUN_INTEGRATION is unset.
func connectOrSkip(t *testing.T) *Client {
	t.Helper()
	client, err := Connect(context.Background(), testConfig())
	if err != nil {
		if os.Getenv("RUN_INTEGRATION") != "" {
			t.Fatalf("Connect() error = %v", err)
		}
		t.Skip("InfluxDB not available, skipping integration test")
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // Test cleanup
	return client
}

func lineProtocol(p *write.Point) string {
	return write.PointToLineProtocol(p, time.Nanosecond)
}

// =============================================================================
// Points
// =============================================================================

func TestSensorPoint(t *testing.T) {
	r := health.SensorReading{
		Timestamp: "2026-10-01T09:00:00Z",
		Sensors:   health.Sensors{BodyTemp: 36.8, HeartRateBPM: 72, SpO2Pct: 98},
	}

	line := lineProtocol(sensorPoint(r, time.Time{}))

	if !strings.HasPrefix(line, "vitals ") {
		t.Errorf("line = %q, want vitals measurement without tags", line)
	}
	for _, want := range []string{"body_temp=36.8", "heart_rate_bpm=72", "spo2_pct=98"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
	wantTS := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC).UnixNano()
	if !strings.HasSuffix(strings.TrimSpace(line), " "+strconv.FormatInt(wantTS, 10)) {
		t.Errorf("line %q does not end with timestamp %d", line, wantTS)
	}
}

func TestStatusPoint(t *testing.T) {
	line := lineProtocol(statusPoint(health.StatusUpdate{
		Timestamp: "2026-10-01T09:00:00Z",
		Priority:  health.PriorityCaution,
	}, time.Time{}))

	if !strings.HasPrefix(line, "status,priority=caution count=1i") {
		t.Errorf("line = %q", line)
	}
}

func TestAlertPoint(t *testing.T) {
	line := lineProtocol(alertPoint(health.Alert{
		Timestamp: "2026-10-01T09:00:00Z",
		Level:     health.AlertCritical,
		Message:   "SpO2 low",
		Labels:    []string{"hypoxia", "tachycardia"},
	}, time.Time{}))

	if !strings.HasPrefix(line, "alerts,level=critical ") {
		t.Errorf("line = %q", line)
	}
	if !strings.Contains(line, `message="SpO2 low"`) || !strings.Contains(line, "labels=2i") {
		t.Errorf("line = %q", line)
	}
}

func TestPointTime(t *testing.T) {
	fallback := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		ts   string
		want time.Time
	}{
		{"2026-10-01T09:00:00Z", time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)},
		{"2026-10-01T09:00:00.250+02:00", time.Date(2026, 10, 1, 7, 0, 0, 250_000_000, time.UTC)},
		{"yesterday", fallback},
		{"", fallback},
	}
	for _, tt := range tests {
		if got := pointTime(tt.ts, fallback); !got.Equal(tt.want) {
			t.Errorf("pointTime(%q) = %v, want %v", tt.ts, got, tt.want)
		}
	}
}

// =============================================================================
// Client
// =============================================================================

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := Connect(context.Background(), cfg)
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999"

	_, err := Connect(context.Background(), cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClose_Nil(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero Client error = %v", err)
	}
	// Writes after close are dropped.
	c.WriteStatus(health.StatusUpdate{Priority: health.PriorityNormal})
}

func TestWriteAndHealthCheck(t *testing.T) {
	client := connectOrSkip(t)

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}

	writeErrs := make(chan error, 10)
	client.SetOnError(func(err error) {
		select {
		case writeErrs <- err:
		default:
		}
	})

	client.WriteSensorReading(health.SensorReading{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Sensors:   health.Sensors{HeartRateBPM: 70},
	})
	client.WriteStatus(health.StatusUpdate{Priority: health.PriorityNormal})
	client.WriteAlert(health.Alert{Level: health.AlertWarning, Message: "test", Labels: []string{}})
	client.Flush()

	select {
	case err := <-writeErrs:
		t.Errorf("write error = %v", err)
	default:
	}
}
