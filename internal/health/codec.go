package health

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator caches struct metadata and is safe for
// concurrent use.
var validate = validator.New()

// Wire shapes. Pointers distinguish an absent number from a zero reading.

type recommendationWire struct {
	Timestamp    string   `json:"timestamp" validate:"required"`
	Message      string   `json:"message" validate:"required"`
	Summary      string   `json:"summary"`
	Advice       string   `json:"advice"`
	Priority     string   `json:"priority" validate:"required,oneof=critical warning caution normal"`
	ActiveLabels []string `json:"active_labels"`
}

type sensorsWire struct {
	BodyTemp     *float64 `json:"body_temp" validate:"required"`
	AmbientTemp  *float64 `json:"ambient_temp" validate:"required"`
	PressureHPa  *float64 `json:"pressure_hpa" validate:"required"`
	HumidityPct  *float64 `json:"humidity_pct" validate:"required"`
	AccelX       *float64 `json:"accel_x" validate:"required"`
	AccelY       *float64 `json:"accel_y" validate:"required"`
	AccelZ       *float64 `json:"accel_z" validate:"required"`
	GyroX        *float64 `json:"gyro_x" validate:"required"`
	GyroY        *float64 `json:"gyro_y" validate:"required"`
	GyroZ        *float64 `json:"gyro_z" validate:"required"`
	HeartRateBPM *float64 `json:"heart_rate_bpm" validate:"required"`
	SpO2Pct      *float64 `json:"spo2_pct" validate:"required"`
}

type sensorReadingWire struct {
	Timestamp string       `json:"timestamp" validate:"required"`
	Sensors   *sensorsWire `json:"sensors" validate:"required"`
}

type statusWire struct {
	Timestamp string `json:"timestamp" validate:"required"`
	Priority  string `json:"priority" validate:"required,oneof=critical warning caution normal"`
}

type alertWire struct {
	Timestamp string   `json:"timestamp" validate:"required"`
	Level     string   `json:"level" validate:"required,oneof=critical warning"`
	Message   string   `json:"message" validate:"required"`
	Labels    []string `json:"labels" validate:"required"`
}

// decode unmarshals payload into w and validates it.
func decode(kind string, payload []byte, w any) error {
	if err := json.Unmarshal(payload, w); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedMessage, kind, err)
	}
	if err := validate.Struct(w); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedMessage, kind, err)
	}
	return nil
}

// DecodeRecommendation parses a health/recommendation payload.
func DecodeRecommendation(payload []byte) (Recommendation, error) {
	var w recommendationWire
	if err := decode("recommendation", payload, &w); err != nil {
		return Recommendation{}, err
	}
	return Recommendation{
		Timestamp:    w.Timestamp,
		Message:      w.Message,
		Summary:      w.Summary,
		Advice:       w.Advice,
		Priority:     Priority(w.Priority),
		ActiveLabels: w.ActiveLabels,
	}, nil
}

// DecodeSensorReading parses a health/sensors payload. Every sensor field
// must be present; zero is a valid reading.
func DecodeSensorReading(payload []byte) (SensorReading, error) {
	var w sensorReadingWire
	if err := decode("sensors", payload, &w); err != nil {
		return SensorReading{}, err
	}
	s := w.Sensors
	return SensorReading{
		Timestamp: w.Timestamp,
		Sensors: Sensors{
			BodyTemp:     *s.BodyTemp,
			AmbientTemp:  *s.AmbientTemp,
			PressureHPa:  *s.PressureHPa,
			HumidityPct:  *s.HumidityPct,
			AccelX:       *s.AccelX,
			AccelY:       *s.AccelY,
			AccelZ:       *s.AccelZ,
			GyroX:        *s.GyroX,
			GyroY:        *s.GyroY,
			GyroZ:        *s.GyroZ,
			HeartRateBPM: *s.HeartRateBPM,
			SpO2Pct:      *s.SpO2Pct,
		},
	}, nil
}

// DecodeStatus parses a health/status payload.
func DecodeStatus(payload []byte) (StatusUpdate, error) {
	var w statusWire
	if err := decode("status", payload, &w); err != nil {
		return StatusUpdate{}, err
	}
	return StatusUpdate{
		Timestamp: w.Timestamp,
		Priority:  Priority(w.Priority),
	}, nil
}

// DecodeAlert parses a health/alerts payload. Labels must be present but
// may be empty.
func DecodeAlert(payload []byte) (Alert, error) {
	var w alertWire
	if err := decode("alert", payload, &w); err != nil {
		return Alert{}, err
	}
	return Alert{
		Timestamp: w.Timestamp,
		Level:     AlertLevel(w.Level),
		Message:   w.Message,
		Labels:    w.Labels,
	}, nil
}
