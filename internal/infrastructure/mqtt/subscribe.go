package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/session"
)

// Subscribe subscribes to topic at the given guarantee and blocks until the
// broker acknowledges it. Messages are delivered to Events.OnMessage.
//
// A SUBACK carrying the failure code (0x80) is reported as
// ErrSubscribeFailed even though the token itself succeeded.
func (c *Conn) Subscribe(topic string, g session.Guarantee) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if g > maxQoS {
		return ErrInvalidQoS
	}

	token := c.client.Subscribe(topic, byte(g), c.wrapHandler())
	if !token.WaitTimeout(defaultSubscribeTimeout) {
		return fmt.Errorf("%w: %w after %v", ErrSubscribeFailed, ErrTimeout, defaultSubscribeTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	if st, ok := token.(*pahomqtt.SubscribeToken); ok {
		if code, found := st.Result()[topic]; found && code == subackFailure {
			return fmt.Errorf("%w: rejected by broker", ErrSubscribeFailed)
		}
	}
	return nil
}
