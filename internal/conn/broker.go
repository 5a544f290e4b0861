package conn

import (
	"context"
	"time"
)

// EventKind tags a broker event.
type EventKind int

const (
	// EventConnected reports the asynchronous connect acknowledgment. It
	// may be queued before Connect returns.
	EventConnected EventKind = iota
	// EventDisconnected reports a lost or failed connection.
	EventDisconnected
	// EventMessage carries one inbound publish.
	EventMessage
)

// Event is one broker occurrence, delivered to the control loop through
// Poll. Converting the client library's asynchronous callbacks into queued
// events keeps all dispatch on the control loop's goroutine.
type Event struct {
	Kind    EventKind
	Topic   string
	Payload []byte
	Err     error
}

// Broker is the external network collaborator boundary.
type Broker interface {
	// Connect begins a connection attempt. A nil return means the attempt
	// was accepted (completion arrives as an EventConnected); an error
	// means it was rejected or failed outright.
	Connect(ctx context.Context) error

	// Subscribe registers interest in a topic on the live connection.
	Subscribe(topic string) error

	// Unsubscribe removes interest in a topic, releasing it on the broker
	// side.
	Unsubscribe(topic string) error

	// Poll waits up to timeout for one pending event. ok is false when the
	// timeout elapsed with nothing pending.
	Poll(timeout time.Duration) (ev Event, ok bool)

	// Connected reports whether the connection is currently open.
	Connected() bool

	// Disconnect tears the connection down.
	Disconnect()
}

// Link is the network-link collaborator boundary (the Wi-Fi radio on the
// original hardware). Bring-up is requested once and completion is polled.
type Link interface {
	// BringUp requests link establishment. An error is an immediate
	// rejection (a retryable LinkFault).
	BringUp(ctx context.Context) error

	// IsUp reports whether the link is established. Polled, not
	// event-driven.
	IsUp() bool
}
