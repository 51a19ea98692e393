package mqtt

import (
	"context"
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/infrastructure/config"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/session"
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Error(string, ...any) {}
func (nopLogger) Debug(string, ...any) {}

// Transport dials MQTT brokers with paho.mqtt.golang. It implements
// session.Transport.
//
// Each Dial creates a fresh paho client with auto-reconnect disabled, so a
// lost connection is reported once through Events.OnConnectionLost and the
// session decides whether to dial again.
type Transport struct {
	cfg    config.MQTTConfig
	logger Logger

	// newClient is replaced in tests.
	newClient func(*pahomqtt.ClientOptions) pahomqtt.Client
}

// NewTransport returns a Transport using cfg for everything except the
// broker address, which comes from each Dial's target.
func NewTransport(cfg config.MQTTConfig, logger Logger) *Transport {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Transport{cfg: cfg, logger: logger, newClient: pahomqtt.NewClient}
}

// Dial connects to target and blocks until the CONNACK, a failure, the
// configured connect timeout, or ctx cancellation.
func (t *Transport) Dial(ctx context.Context, target session.Target, events session.Events) (session.Conn, error) {
	clientID := newClientID(t.cfg.Broker.ClientIDPrefix)
	opts := buildClientOptions(t.cfg, target, clientID)

	c := &Conn{events: events, logger: t.logger}
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		t.logger.Debug("mqtt connection lost", "broker", target.String(), "error", err)
		if events.OnConnectionLost != nil {
			events.OnConnectionLost(err)
		}
	})

	c.client = t.newClient(opts)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout(t.cfg))
	defer cancel()

	token := c.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		c.client.Disconnect(0)
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	t.logger.Debug("mqtt connected", "broker", target.String(), "client_id", clientID)
	return c, nil
}

// Conn is one established paho connection. It implements session.Conn.
type Conn struct {
	client pahomqtt.Client
	events session.Events
	logger Logger
}

// Close disconnects, allowing a short quiesce for in-flight acknowledgements.
func (c *Conn) Close() error {
	if c.client == nil {
		return nil
	}
	c.client.Disconnect(defaultDisconnectQuiesce)
	return nil
}

// IsConnected reports paho's view of the connection.
func (c *Conn) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}

// wrapHandler adapts Events.OnMessage to a paho handler with panic recovery.
func (c *Conn) wrapHandler() pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("MQTT handler panic recovered",
					"topic", msg.Topic(),
					"panic", r,
				)
			}
		}()

		if c.events.OnMessage != nil {
			c.events.OnMessage(msg.Topic(), msg.Payload())
		}
	}
}
