package conn

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/distantsignal/distantsignal/internal/apperr"
)

// MQTTOptions configures the paho-backed broker.
type MQTTOptions struct {
	Host           string
	Port           int
	Username       string
	Password       string
	ClientID       string
	ConnectTimeout time.Duration
}

// MQTTBroker adapts the paho client to the Broker boundary. paho invokes
// its handlers on its own goroutines; the adapter converts every callback
// into an Event on a buffered queue that the control loop drains through
// Poll, so no application state is ever touched from a paho goroutine.
type MQTTBroker struct {
	client         mqtt.Client
	events         chan Event
	connectTimeout time.Duration
	logger         *slog.Logger
}

// NewMQTTBroker builds the paho client. Automatic reconnection is disabled:
// retry is the state machine's job.
func NewMQTTBroker(opts MQTTOptions, logger *slog.Logger) *MQTTBroker {
	if logger == nil {
		logger = slog.Default()
	}
	b := &MQTTBroker{
		events:         make(chan Event, 256),
		connectTimeout: opts.ConnectTimeout,
		logger:         logger,
	}
	if b.connectTimeout <= 0 {
		b.connectTimeout = 10 * time.Second
	}

	co := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", opts.Host, opts.Port)).
		SetClientID(opts.ClientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetAutoReconnect(false).
		SetConnectTimeout(b.connectTimeout).
		SetKeepAlive(30 * time.Second)

	co.SetOnConnectHandler(func(mqtt.Client) {
		b.push(Event{Kind: EventConnected})
	})
	co.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		b.push(Event{Kind: EventDisconnected, Err: err})
	})
	co.SetDefaultPublishHandler(func(_ mqtt.Client, m mqtt.Message) {
		b.push(Event{Kind: EventMessage, Topic: m.Topic(), Payload: m.Payload()})
	})

	b.client = mqtt.NewClient(co)
	return b
}

// Connect starts a connection attempt and waits up to the connect timeout
// for a synchronous outcome. An attempt still in flight after the timeout
// is not an error; its acknowledgment arrives as an EventConnected.
func (b *MQTTBroker) Connect(ctx context.Context) error {
	token := b.client.Connect()
	if !token.WaitTimeout(b.connectTimeout) {
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: connect: %v", apperr.ErrBrokerFault, err)
	}
	return nil
}

// Subscribe subscribes at QoS 0. Inbound publishes arrive through the
// default publish handler as EventMessage.
func (b *MQTTBroker) Subscribe(topic string) error {
	token := b.client.Subscribe(topic, 0, nil)
	if !token.WaitTimeout(b.connectTimeout) {
		return fmt.Errorf("%w: subscribe %s: timeout", apperr.ErrBrokerFault, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: subscribe %s: %v", apperr.ErrBrokerFault, topic, err)
	}
	return nil
}

// Unsubscribe removes a subscription on the live connection.
func (b *MQTTBroker) Unsubscribe(topic string) error {
	token := b.client.Unsubscribe(topic)
	if !token.WaitTimeout(b.connectTimeout) {
		return fmt.Errorf("%w: unsubscribe %s: timeout", apperr.ErrBrokerFault, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: unsubscribe %s: %v", apperr.ErrBrokerFault, topic, err)
	}
	return nil
}

// Poll waits up to timeout for one queued event.
func (b *MQTTBroker) Poll(timeout time.Duration) (Event, bool) {
	select {
	case ev := <-b.events:
		return ev, true
	case <-time.After(timeout):
		return Event{}, false
	}
}

// Connected reports whether the underlying connection is open.
func (b *MQTTBroker) Connected() bool {
	return b.client.IsConnectionOpen()
}

// Disconnect closes the connection, allowing 250ms for in-flight work.
func (b *MQTTBroker) Disconnect() {
	b.client.Disconnect(250)
}

// push enqueues an event without ever blocking a paho goroutine. When the
// queue is full the event is dropped; at-least-once delivery from the
// broker means a dropped message is re-sent or superseded.
func (b *MQTTBroker) push(ev Event) {
	select {
	case b.events <- ev:
	default:
		b.logger.Warn("mqtt: event queue full, dropping",
			slog.Int("kind", int(ev.Kind)),
			slog.String("topic", ev.Topic))
	}
}
