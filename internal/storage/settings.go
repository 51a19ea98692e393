package storage

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Settings are the user preferences persisted on the device.
type Settings struct {
	BrokerAddress        string `json:"broker_address"`
	BrokerPort           int    `json:"broker_port" validate:"min=1,max=65535"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	SoundEnabled         bool   `json:"sound_enabled"`
	VibrationEnabled     bool   `json:"vibration_enabled"`
	ConnectionTimeout    int    `json:"connection_timeout" validate:"min=1000"` // milliseconds
	AutoReconnect        bool   `json:"auto_reconnect"`
	LastConnectedIP      string `json:"last_connected_ip,omitempty"`
	ChartRefreshRate     int    `json:"chart_refresh_rate" validate:"min=0"` // milliseconds
	HistoryRetentionDays int    `json:"history_retention_days" validate:"min=0"`
	DarkMode             bool   `json:"dark_mode"`
	Language             string `json:"language" validate:"required"`
}

// DefaultSettings returns the settings used before the user changes anything.
func DefaultSettings() Settings {
	return Settings{
		BrokerPort:           1883,
		NotificationsEnabled: true,
		SoundEnabled:         true,
		VibrationEnabled:     true,
		ConnectionTimeout:    30000,
		AutoReconnect:        true,
		ChartRefreshRate:     5000,
		HistoryRetentionDays: 30,
		Language:             "en",
	}
}

// Validate reports ErrInvalidSettings for out-of-range values.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return nil
}

// Broker is the last broker the session connected to.
type Broker struct {
	Host string `json:"host" validate:"required"`
	Port int    `json:"port" validate:"min=1,max=65535"`
}

// Validate rejects an empty host or a port outside 1..65535.
func (b Broker) Validate() error {
	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("invalid broker: %w", err)
	}
	return nil
}
