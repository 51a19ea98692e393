package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/health"
)

// Measurement names.
const (
	measurementVitals = "vitals"
	measurementStatus = "status"
	measurementAlerts = "alerts"
)

// WriteSensorReading records one wearable sample.
func (c *Client) WriteSensorReading(r health.SensorReading) {
	c.writePoint(sensorPoint(r, time.Now()))
}

// WriteStatus records a status priority change.
func (c *Client) WriteStatus(s health.StatusUpdate) {
	c.writePoint(statusPoint(s, time.Now()))
}

// WriteAlert records an alert.
func (c *Client) WriteAlert(a health.Alert) {
	c.writePoint(alertPoint(a, time.Now()))
}

func (c *Client) writePoint(p *write.Point) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(p)
}

// pointTime uses the publisher's RFC 3339 timestamp, or fallback when it
// cannot be parsed.
func pointTime(ts string, fallback time.Time) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t
	}
	return fallback
}

func sensorPoint(r health.SensorReading, now time.Time) *write.Point {
	s := r.Sensors
	return write.NewPoint(
		measurementVitals,
		nil,
		map[string]interface{}{
			"body_temp":      s.BodyTemp,
			"ambient_temp":   s.AmbientTemp,
			"pressure_hpa":   s.PressureHPa,
			"humidity_pct":   s.HumidityPct,
			"accel_x":        s.AccelX,
			"accel_y":        s.AccelY,
			"accel_z":        s.AccelZ,
			"gyro_x":         s.GyroX,
			"gyro_y":         s.GyroY,
			"gyro_z":         s.GyroZ,
			"heart_rate_bpm": s.HeartRateBPM,
			"spo2_pct":       s.SpO2Pct,
		},
		pointTime(r.Timestamp, now),
	)
}

func statusPoint(s health.StatusUpdate, now time.Time) *write.Point {
	return write.NewPoint(
		measurementStatus,
		map[string]string{"priority": string(s.Priority)},
		map[string]interface{}{"count": 1},
		pointTime(s.Timestamp, now),
	)
}

func alertPoint(a health.Alert, now time.Time) *write.Point {
	return write.NewPoint(
		measurementAlerts,
		map[string]string{"level": string(a.Level)},
		map[string]interface{}{
			"message": a.Message,
			"labels":  len(a.Labels),
		},
		pointTime(a.Timestamp, now),
	)
}
