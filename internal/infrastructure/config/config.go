package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the health monitor client.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	MQTT          MQTTConfig          `yaml:"mqtt"`
	Session       SessionConfig       `yaml:"session"`
	Storage       StorageConfig       `yaml:"storage"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	InfluxDB      InfluxDBConfig      `yaml:"influxdb"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Discovery     DiscoveryConfig     `yaml:"discovery"`
	API           APIConfig           `yaml:"api"`
	WebSocket     WebSocketConfig     `yaml:"websocket"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker         MQTTBrokerConfig `yaml:"broker"`
	Auth           MQTTAuthConfig   `yaml:"auth"`
	KeepAlive      int              `yaml:"keepalive"`       // seconds
	ConnectTimeout int              `yaml:"connect_timeout"` // seconds
	CleanSession   bool             `yaml:"clean_session"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
//
// Host may be left empty; the broker is then taken from the last connected
// broker in settings or from discovery.
type MQTTBrokerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Scheme         string `yaml:"scheme"` // tcp, ssl or ws
	ClientIDPrefix string `yaml:"client_id_prefix"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SessionConfig contains connection session settings.
type SessionConfig struct {
	Reconnect ReconnectConfig `yaml:"reconnect"`
	// AutoConnect dials the configured or last known broker at startup.
	AutoConnect bool `yaml:"auto_connect"`
}

// ReconnectConfig contains reconnection policy settings.
//
// Whether reconnection happens at all is a user setting (autoReconnect)
// read from the settings store at the moment of loss.
type ReconnectConfig struct {
	Delay       int `yaml:"delay"`        // milliseconds between attempts
	MaxAttempts int `yaml:"max_attempts"` // 0 = unlimited
}

// StorageConfig selects the key-value backend and bounds local data.
type StorageConfig struct {
	Backend           string `yaml:"backend"` // sqlite, redis or memory
	HistoryCapacity   int    `yaml:"history_capacity"`
	SensorCacheSize   int    `yaml:"sensor_cache_size"`
	RetentionSchedule string `yaml:"retention_schedule"` // cron spec
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// RedisConfig contains Redis connection settings for the redis storage backend.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// NotificationsConfig contains notification delivery settings.
type NotificationsConfig struct {
	Console  bool `yaml:"console"`
	PoolSize int  `yaml:"pool_size"`
}

// DiscoveryConfig contains mDNS broker discovery settings.
type DiscoveryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceType string `yaml:"service_type"`
	Domain      string `yaml:"domain"`
	TxtService  string `yaml:"txt_service"`
	ScanTimeout int    `yaml:"scan_timeout"` // seconds
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
	Auth     APIAuthConfig    `yaml:"auth"`
}

// APIAuthConfig contains bearer token settings. An empty JWTSecret leaves
// the API open, which suits a loopback-only listener.
type APIAuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	TokenTTL  int    `yaml:"token_ttl"` // hours
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HEALTHMON_SECTION_KEY
// For example: HEALTHMON_MQTT_HOST, HEALTHMON_API_PORT
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration, used when no file is present.
func Default() *Config {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	return cfg
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Port:           1883,
				Scheme:         "tcp",
				ClientIDPrefix: "health_monitor_",
			},
			KeepAlive:      60,
			ConnectTimeout: 30,
			CleanSession:   true,
		},
		Session: SessionConfig{
			Reconnect: ReconnectConfig{
				Delay:       5000,
				MaxAttempts: 0,
			},
			AutoConnect: true,
		},
		Storage: StorageConfig{
			Backend:           "sqlite",
			HistoryCapacity:   100,
			SensorCacheSize:   50,
			RetentionSchedule: "@daily",
		},
		Database: DatabaseConfig{
			Path:        "./data/healthmon.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "healthmon:",
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Org:           "healthmon",
			Bucket:        "health",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Notifications: NotificationsConfig{
			Console:  true,
			PoolSize: 4,
		},
		Discovery: DiscoveryConfig{
			Enabled:     true,
			ServiceType: "_mqtt._tcp",
			Domain:      "local.",
			TxtService:  "health-monitoring",
			ScanTimeout: 30,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			Auth: APIAuthConfig{
				TokenTTL: 24,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HEALTHMON_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// MQTT
	if v := os.Getenv("HEALTHMON_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("HEALTHMON_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("HEALTHMON_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("HEALTHMON_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Storage
	if v := os.Getenv("HEALTHMON_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("HEALTHMON_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("HEALTHMON_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("HEALTHMON_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	// API
	if v := os.Getenv("HEALTHMON_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("HEALTHMON_API_JWT_SECRET"); v != "" {
		cfg.API.Auth.JWTSecret = v
	}

	// InfluxDB
	if v := os.Getenv("HEALTHMON_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// minJWTSecretLen is the shortest accepted HS256 signing secret.
const minJWTSecretLen = 32

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	// MQTT validation
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	switch c.MQTT.Broker.Scheme {
	case "tcp", "ssl", "ws", "wss":
	default:
		errs = append(errs, "mqtt.broker.scheme must be tcp, ssl, ws or wss")
	}
	if c.MQTT.KeepAlive < 0 {
		errs = append(errs, "mqtt.keepalive must not be negative")
	}
	if c.MQTT.ConnectTimeout <= 0 {
		errs = append(errs, "mqtt.connect_timeout must be positive")
	}

	// Session validation
	if c.Session.Reconnect.Delay <= 0 {
		errs = append(errs, "session.reconnect.delay must be positive")
	}
	if c.Session.Reconnect.MaxAttempts < 0 {
		errs = append(errs, "session.reconnect.max_attempts must not be negative")
	}

	// Storage validation
	switch c.Storage.Backend {
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite backend")
		}
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, "redis.addr is required for the redis backend")
		}
	case "memory":
	default:
		errs = append(errs, "storage.backend must be sqlite, redis or memory")
	}
	if c.Storage.HistoryCapacity < 1 {
		errs = append(errs, "storage.history_capacity must be at least 1")
	}
	if c.Storage.SensorCacheSize < 1 {
		errs = append(errs, "storage.sensor_cache_size must be at least 1")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.API.Auth.JWTSecret != "" && len(c.API.Auth.JWTSecret) < minJWTSecretLen {
		errs = append(errs, fmt.Sprintf("api.auth.jwt_secret must be at least %d characters", minJWTSecretLen))
	}

	if c.Notifications.PoolSize < 1 {
		errs = append(errs, "notifications.pool_size must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReconnectDelay returns the fixed reconnect delay as a Duration.
func (c *Config) GetReconnectDelay() time.Duration {
	return time.Duration(c.Session.Reconnect.Delay) * time.Millisecond
}

// GetScanTimeout returns the discovery scan timeout as a Duration.
func (c *Config) GetScanTimeout() time.Duration {
	return time.Duration(c.Discovery.ScanTimeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetTokenTTL returns the API token lifetime as a Duration.
func (c *Config) GetTokenTTL() time.Duration {
	return time.Duration(c.API.Auth.TokenTTL) * time.Hour
}
