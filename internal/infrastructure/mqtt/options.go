package mqtt

import (
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/infrastructure/config"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/session"
)

// Connection constants.
const (
	// defaultConnectTimeout is used when the config leaves it unset.
	defaultConnectTimeout = 30 * time.Second

	// defaultSubscribeTimeout is the maximum wait for a SUBACK.
	defaultSubscribeTimeout = 10 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 250 // milliseconds

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// subackFailure is the SUBACK return code for a rejected subscription.
	subackFailure = 0x80

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// brokerURL formats the target as a paho server URL.
func brokerURL(scheme string, target session.Target) string {
	if scheme == "" {
		scheme = "tcp"
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(target.Host, strconv.Itoa(target.Port)))
}

// newClientID returns the configured prefix followed by a random suffix,
// so two clients on one device never collide.
func newClientID(prefix string) string {
	return prefix + uuid.NewString()[:8]
}

// buildClientOptions creates paho options for one connection.
//
// This configures:
//   - Broker URL (tcp, ssl, ws or wss)
//   - Client ID for identification
//   - Authentication credentials (if provided)
//   - Keepalive, connect timeout and clean session
//   - TLS for ssl and wss
//
// Paho's own reconnect is disabled; the session owns retries.
func buildClientOptions(cfg config.MQTTConfig, target session.Target, clientID string) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(brokerURL(cfg.Broker.Scheme, target))
	opts.SetClientID(clientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(cfg.CleanSession)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(connectTimeout(cfg))
	opts.SetKeepAlive(time.Duration(cfg.KeepAlive) * time.Second)

	if cfg.Broker.Scheme == "ssl" || cfg.Broker.Scheme == "wss" {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}
	return opts
}

func connectTimeout(cfg config.MQTTConfig) time.Duration {
	if cfg.ConnectTimeout <= 0 {
		return defaultConnectTimeout
	}
	return time.Duration(cfg.ConnectTimeout) * time.Second
}
