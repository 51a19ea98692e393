// Package session manages the client's connection to the health monitor
// broker.
//
// A Session owns the broker connection lifecycle:
//
//	Disconnected --Connect--> Connecting --ok--> Connected
//	                              |                  |
//	                              +--fail--> Error   +--lost--> Disconnected
//	                                                              |
//	                              Reconnecting <--autoReconnect---+
//
// Every entry into Connected issues one subscribe request per configured
// topic. Inbound messages are decoded by the Router and handed to at most one
// consumer per category. Connection loss is fed to the ReconnectPolicy, which
// reads the user's autoReconnect setting at the moment of loss and schedules
// a single fixed-delay retry.
//
// The network is behind the Transport interface; the paho implementation
// lives in internal/infrastructure/mqtt and tests use an in-memory fake.
//
// # Thread Safety
//
// All Session methods are safe for concurrent use. State observers run
// synchronously, in transition order, on the goroutine that caused the
// transition. Observers may call CurrentState and ReconnectAttempts but must
// not call Connect, Disconnect or Target from inside the callback.
//
// # Usage
//
//	s, err := session.New(session.Deps{
//	    Transport: mqtt.NewTransport(cfg.MQTT, logger),
//	    Policy:    session.ReconnectPolicy{Delay: 5 * time.Second, Settings: store},
//	    History:   store,
//	    Notifier:  notifier,
//	    Logger:    logger,
//	})
//	s.Register(session.AlertHandler(func(a health.Alert) { ... }))
//	err = s.Connect(ctx, session.Target{Host: "192.168.1.20", Port: 1883})
package session
