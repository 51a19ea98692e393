// Package mqtt implements the session transport on paho.mqtt.golang.
//
// This package manages:
//   - Dialing a broker chosen at runtime (host and port per Dial)
//   - Topic subscriptions acknowledged by SUBACK
//   - Reporting connection loss exactly once per connection
//
// Paho's built-in reconnect is turned off. Reconnection is owned by
// internal/session, which applies the user's autoReconnect preference and
// the fixed retry delay.
//
// # Security Considerations
//
//   - Use scheme "ssl" or "wss" for brokers outside the local network
//   - Credentials come from config or HEALTHMON_MQTT_USERNAME/PASSWORD
//
// # Usage
//
//	transport := mqtt.NewTransport(cfg.MQTT, logger)
//	sess, err := session.New(session.Deps{Transport: transport, ...})
//	err = sess.Connect(ctx, session.Target{Host: "192.168.1.20", Port: 1883})
package mqtt
