// Package health defines the records published by the health monitor broker
// and decodes raw topic payloads into them.
//
// Four record types travel over MQTT:
//
//	health/recommendation  Recommendation
//	health/sensors         SensorReading
//	health/status          StatusUpdate
//	health/alerts          Alert
//
// Decoding validates shape as well as syntax: a payload missing a required
// field, or carrying an unknown priority or alert level, is rejected with
// ErrMalformedMessage. Callers log and drop such messages.
package health
