package health

// Priority grades a recommendation or status update.
type Priority string

// Priority levels, most severe first.
const (
	PriorityCritical Priority = "critical"
	PriorityWarning  Priority = "warning"
	PriorityCaution  Priority = "caution"
	PriorityNormal   Priority = "normal"
)

// Valid reports whether p is one of the known priority levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityWarning, PriorityCaution, PriorityNormal:
		return true
	}
	return false
}

// Notifies reports whether a recommendation at this priority raises a
// user-visible notification. Only warning and critical do.
func (p Priority) Notifies() bool {
	return p == PriorityCritical || p == PriorityWarning
}

// AlertLevel grades an alert.
type AlertLevel string

// Alert levels.
const (
	AlertCritical AlertLevel = "critical"
	AlertWarning  AlertLevel = "warning"
)

// Recommendation is published on health/recommendation.
type Recommendation struct {
	Timestamp    string   `json:"timestamp"`
	Message      string   `json:"message"`
	Summary      string   `json:"summary"`
	Advice       string   `json:"advice"`
	Priority     Priority `json:"priority"`
	ActiveLabels []string `json:"active_labels,omitempty"`
}

// Sensors holds one sample from every sensor on the wearable.
type Sensors struct {
	BodyTemp     float64 `json:"body_temp"`
	AmbientTemp  float64 `json:"ambient_temp"`
	PressureHPa  float64 `json:"pressure_hpa"`
	HumidityPct  float64 `json:"humidity_pct"`
	AccelX       float64 `json:"accel_x"`
	AccelY       float64 `json:"accel_y"`
	AccelZ       float64 `json:"accel_z"`
	GyroX        float64 `json:"gyro_x"`
	GyroY        float64 `json:"gyro_y"`
	GyroZ        float64 `json:"gyro_z"`
	HeartRateBPM float64 `json:"heart_rate_bpm"`
	SpO2Pct      float64 `json:"spo2_pct"`
}

// SensorReading is published on health/sensors.
type SensorReading struct {
	Timestamp string  `json:"timestamp"`
	Sensors   Sensors `json:"sensors"`
}

// StatusUpdate is published on health/status.
type StatusUpdate struct {
	Timestamp string   `json:"timestamp"`
	Priority  Priority `json:"priority"`
}

// Alert is published on health/alerts.
type Alert struct {
	Timestamp string     `json:"timestamp"`
	Level     AlertLevel `json:"level"`
	Message   string     `json:"message"`
	Labels    []string   `json:"labels"`
}
