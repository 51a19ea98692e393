package health

import (
	"errors"
	"testing"
)

const sensorsPayload = `{"timestamp":"T3","sensors":{"body_temp":36.8,"ambient_temp":22.1,"pressure_hpa":1013.2,"humidity_pct":41,"accel_x":0,"accel_y":0.02,"accel_z":9.81,"gyro_x":0,"gyro_y":0,"gyro_z":0,"heart_rate_bpm":72,"spo2_pct":98}}`

// ============================================================================
// Recommendation
// ============================================================================

func TestDecodeRecommendation(t *testing.T) {
	payload := []byte(`{"timestamp":"T1","message":"m","summary":"s","advice":"a","priority":"warning","active_labels":["heat"]}`)

	rec, err := DecodeRecommendation(payload)
	if err != nil {
		t.Fatalf("DecodeRecommendation() error = %v", err)
	}

	if rec.Timestamp != "T1" || rec.Message != "m" || rec.Summary != "s" || rec.Advice != "a" {
		t.Errorf("unexpected text fields: %+v", rec)
	}
	if rec.Priority != PriorityWarning {
		t.Errorf("Priority = %q, want %q", rec.Priority, PriorityWarning)
	}
	if len(rec.ActiveLabels) != 1 || rec.ActiveLabels[0] != "heat" {
		t.Errorf("ActiveLabels = %v, want [heat]", rec.ActiveLabels)
	}
}

func TestDecodeRecommendation_OptionalFields(t *testing.T) {
	rec, err := DecodeRecommendation([]byte(`{"timestamp":"T1","message":"m","priority":"normal"}`))
	if err != nil {
		t.Fatalf("DecodeRecommendation() error = %v", err)
	}
	if rec.ActiveLabels != nil {
		t.Errorf("ActiveLabels = %v, want nil", rec.ActiveLabels)
	}
}

func TestDecodeRecommendation_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: `not json`},
		{name: "array", payload: `[1,2]`},
		{name: "null", payload: `null`},
		{name: "missing message", payload: `{"timestamp":"T1","priority":"normal"}`},
		{name: "missing timestamp", payload: `{"message":"m","priority":"normal"}`},
		{name: "unknown priority", payload: `{"timestamp":"T1","message":"m","priority":"urgent"}`},
		{name: "wrong type", payload: `{"timestamp":"T1","message":5,"priority":"normal"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRecommendation([]byte(tt.payload))
			if !errors.Is(err, ErrMalformedMessage) {
				t.Errorf("DecodeRecommendation() error = %v, want ErrMalformedMessage", err)
			}
		})
	}
}

// ============================================================================
// Sensors
// ============================================================================

func TestDecodeSensorReading(t *testing.T) {
	r, err := DecodeSensorReading([]byte(sensorsPayload))
	if err != nil {
		t.Fatalf("DecodeSensorReading() error = %v", err)
	}
	if r.Timestamp != "T3" {
		t.Errorf("Timestamp = %q, want T3", r.Timestamp)
	}
	if r.Sensors.BodyTemp != 36.8 {
		t.Errorf("BodyTemp = %v, want 36.8", r.Sensors.BodyTemp)
	}
	if r.Sensors.AccelZ != 9.81 {
		t.Errorf("AccelZ = %v, want 9.81", r.Sensors.AccelZ)
	}
	if r.Sensors.HeartRateBPM != 72 || r.Sensors.SpO2Pct != 98 {
		t.Errorf("vitals = %v/%v, want 72/98", r.Sensors.HeartRateBPM, r.Sensors.SpO2Pct)
	}
}

func TestDecodeSensorReading_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "missing sensors", payload: `{"timestamp":"T3"}`},
		{name: "missing field", payload: `{"timestamp":"T3","sensors":{"body_temp":36.8}}`},
		{name: "string value", payload: `{"timestamp":"T3","sensors":{"body_temp":"hot"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSensorReading([]byte(tt.payload))
			if !errors.Is(err, ErrMalformedMessage) {
				t.Errorf("DecodeSensorReading() error = %v, want ErrMalformedMessage", err)
			}
		})
	}
}

// ============================================================================
// Status and alerts
// ============================================================================

func TestDecodeStatus(t *testing.T) {
	s, err := DecodeStatus([]byte(`{"timestamp":"T4","priority":"caution"}`))
	if err != nil {
		t.Fatalf("DecodeStatus() error = %v", err)
	}
	if s.Priority != PriorityCaution {
		t.Errorf("Priority = %q, want %q", s.Priority, PriorityCaution)
	}

	if _, err := DecodeStatus([]byte(`{"timestamp":"T4"}`)); !errors.Is(err, ErrMalformedMessage) {
		t.Errorf("missing priority: error = %v, want ErrMalformedMessage", err)
	}
}

func TestDecodeAlert(t *testing.T) {
	a, err := DecodeAlert([]byte(`{"timestamp":"T2","level":"critical","message":"fall detected","labels":["fall"]}`))
	if err != nil {
		t.Fatalf("DecodeAlert() error = %v", err)
	}
	if a.Level != AlertCritical || a.Message != "fall detected" {
		t.Errorf("unexpected alert: %+v", a)
	}

	empty, err := DecodeAlert([]byte(`{"timestamp":"T2","level":"warning","message":"m","labels":[]}`))
	if err != nil {
		t.Fatalf("empty labels should decode, got %v", err)
	}
	if len(empty.Labels) != 0 {
		t.Errorf("Labels = %v, want empty", empty.Labels)
	}
}

func TestDecodeAlert_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "missing labels", payload: `{"timestamp":"T2","level":"critical","message":"m"}`},
		{name: "caution is not an alert level", payload: `{"timestamp":"T2","level":"caution","message":"m","labels":[]}`},
		{name: "missing message", payload: `{"timestamp":"T2","level":"critical","labels":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAlert([]byte(tt.payload))
			if !errors.Is(err, ErrMalformedMessage) {
				t.Errorf("DecodeAlert() error = %v, want ErrMalformedMessage", err)
			}
		})
	}
}

func TestPriority(t *testing.T) {
	tests := []struct {
		p        Priority
		valid    bool
		notifies bool
	}{
		{PriorityCritical, true, true},
		{PriorityWarning, true, true},
		{PriorityCaution, true, false},
		{PriorityNormal, true, false},
		{Priority("urgent"), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.p), func(t *testing.T) {
			if got := tt.p.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.p.Notifies(); got != tt.notifies {
				t.Errorf("Notifies() = %v, want %v", got, tt.notifies)
			}
		})
	}
}
