// Package logging provides structured logging for the health monitor.
//
// This package wraps Go's standard log/slog package so every component logs
// through one configured handler.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("session connected", "broker", "192.168.1.20:1883")
//
// Never log broker passwords or InfluxDB tokens.
package logging
