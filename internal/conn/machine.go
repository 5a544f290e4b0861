package conn

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/distantsignal/distantsignal/internal/indicator"
	"github.com/distantsignal/distantsignal/internal/loader"
)

// MachineOptions configures a Machine.
type MachineOptions struct {
	// DeviceID is substituted into the script and state topic templates.
	DeviceID string

	// RetryInterval paces reconnect attempts after a fault.
	RetryInterval time.Duration

	// LoopBudget bounds the duration of one network turn in the loop
	// state.
	LoopBudget time.Duration

	// Disabled parks the machine: no broker address was configured, a
	// permanent-until-reconfigured broker fault.
	Disabled bool
}

// Machine is the connection state machine. It is single-threaded and
// non-blocking beyond the bounded network turn: Tick advances exactly one
// step and is called once per control-loop tick, which exclusively owns all
// machine state including the single-slot pending script.
type Machine struct {
	link    Link
	broker  Broker
	loader  *loader.Loader
	ind     indicator.Indicator
	logger  *slog.Logger
	opts    MachineOptions
	state   State
	topics  Topics
	lastTry time.Time

	// pending is the single-slot buffer for a script received during a
	// network turn. Applying a script means a JSON parse and a compile,
	// which must run at the top of the loop, never inside message
	// dispatch; the slot defers it by exactly one tick. Latest wins.
	pending *string
}

// NewMachine wires the machine to its collaborators. A nil broker forces
// the machine into the Disabled state regardless of opts.
func NewMachine(link Link, broker Broker, ldr *loader.Loader, ind indicator.Indicator, logger *slog.Logger, opts MachineOptions) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	if broker == nil {
		opts.Disabled = true
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 5 * time.Second
	}
	if opts.LoopBudget <= 0 {
		opts.LoopBudget = 2 * time.Second
	}
	m := &Machine{
		link:   link,
		broker: broker,
		loader: ldr,
		ind:    ind,
		logger: logger,
		opts:   opts,
		state:  Init,
	}
	if opts.Disabled {
		m.state = Disabled
		m.ind.Signal(indicator.MqttFailed)
		m.logger.Warn("conn: no broker configured, network disabled")
	}
	return m
}

// State returns the machine's current state.
func (m *Machine) State() State { return m.state }

// Tick advances the machine one step. It never blocks longer than the loop
// budget and never recurses into script compilation from dispatch context.
func (m *Machine) Tick(ctx context.Context) {
	switch m.state {
	case Disabled:
		// Parked. Local and persisted scripts still render.

	case Init:
		if err := m.link.BringUp(ctx); err != nil {
			m.ind.Signal(indicator.WifiFailed)
			m.logger.Warn("conn: link bring-up rejected", slog.String("error", err.Error()))
			return
		}
		m.setState(WifiConnecting)

	case WifiConnecting:
		if m.link.IsUp() {
			m.setState(WifiConnected)
		}

	case WifiConnected, MqttFailed:
		if m.state == MqttFailed && time.Since(m.lastTry) < m.opts.RetryInterval {
			return
		}
		m.lastTry = time.Now()
		if err := m.broker.Connect(ctx); err != nil {
			m.ind.Signal(indicator.MqttFailed)
			m.logger.Warn("conn: broker connect failed", slog.String("error", err.Error()))
			m.setState(MqttFailed)
			return
		}
		m.setState(MqttConnecting)

	case MqttConnecting:
		// The connect acknowledgment arrives as an event, possibly queued
		// before Connect returned. An attempt can also die silently: the
		// client reports neither success nor loss for a connect that never
		// completed, so an ack that fails to arrive within the retry
		// interval is treated as a failed attempt.
		for {
			ev, ok := m.broker.Poll(50 * time.Millisecond)
			if !ok {
				if time.Since(m.lastTry) >= m.opts.RetryInterval {
					m.ind.Signal(indicator.MqttRetry)
					m.logger.Warn("conn: connect acknowledgment timed out")
					m.setState(MqttFailed)
				}
				return
			}
			switch ev.Kind {
			case EventConnected:
				m.setState(MqttConnected)
				return
			case EventDisconnected:
				m.ind.Signal(indicator.MqttFailed)
				m.setState(MqttFailed)
				return
			case EventMessage:
				m.dispatch(ev)
			}
		}

	case MqttConnected:
		if err := m.subscribeAll(); err != nil {
			m.ind.Signal(indicator.MqttRetry)
			m.logger.Warn("conn: subscribe failed", slog.String("error", err.Error()))
			m.setState(MqttFailed)
			return
		}
		m.ind.Signal(indicator.Ok)
		m.setState(MqttLoop)

	case MqttLoop:
		m.applyPending()
		m.serviceTurn()
	}
}

// applyPending hands a script queued on the previous tick to the loader.
// Acceptance recomputes and re-subscribes the topic set, since a new script
// may define a different set of blocks.
func (m *Machine) applyPending() {
	if m.pending == nil {
		return
	}
	text := *m.pending
	m.pending = nil

	changed, err := m.loader.AcceptScript(text, true)
	if err != nil {
		m.logger.Warn("conn: received script rejected", slog.String("error", err.Error()))
		return
	}
	if changed {
		if err := m.subscribeAll(); err != nil {
			m.ind.Signal(indicator.MqttRetry)
			m.logger.Warn("conn: re-subscribe failed", slog.String("error", err.Error()))
			m.setState(MqttFailed)
		}
	}
}

// serviceTurn drains broker events for up to the loop budget. State and
// block updates take effect immediately; a script update lands in the
// pending slot for the next tick, so updates delivered in the same turn as
// a script always observe the old compiled scene.
func (m *Machine) serviceTurn() {
	deadline := time.Now().Add(m.opts.LoopBudget)
	for m.state == MqttLoop {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		ev, ok := m.broker.Poll(remaining)
		if !ok {
			break
		}
		m.dispatch(ev)
	}
	if m.state == MqttLoop && !m.broker.Connected() {
		m.ind.Signal(indicator.MqttRetry)
		m.setState(MqttFailed)
	}
}

// dispatch routes one broker event. Message handling is pure dispatch: O(1)
// setters run inline, script payloads go to the pending slot.
func (m *Machine) dispatch(ev Event) {
	switch ev.Kind {
	case EventDisconnected:
		m.ind.Signal(indicator.MqttRetry)
		if ev.Err != nil {
			m.logger.Warn("conn: connection lost", slog.String("error", ev.Err.Error()))
		}
		m.setState(MqttFailed)

	case EventConnected:
		// Reconnected underneath us: refresh subscriptions.
		if err := m.subscribeAll(); err != nil {
			m.logger.Warn("conn: re-subscribe failed", slog.String("error", err.Error()))
			m.setState(MqttFailed)
		}

	case EventMessage:
		payload := string(ev.Payload)
		switch {
		case ev.Topic == m.topics.Script:
			m.pending = &payload
		case ev.Topic == m.topics.State:
			m.loader.SetActiveState(payload)
		default:
			if name, ok := m.topics.BlockForTopic(ev.Topic); ok {
				active := strings.EqualFold(strings.TrimSpace(payload), "active")
				m.loader.SetBlockActive(name, active)
			} else {
				m.logger.Debug("conn: message on unknown topic", slog.String("topic", ev.Topic))
			}
		}
	}
}

// ScriptAccepted tells the machine a script was adopted outside the network
// path (boot load or local file override) so it can refresh the topic set.
func (m *Machine) ScriptAccepted() {
	if m.state != MqttLoop && m.state != MqttConnected {
		return
	}
	if err := m.subscribeAll(); err != nil {
		m.logger.Warn("conn: re-subscribe failed", slog.String("error", err.Error()))
		m.setState(MqttFailed)
	}
}

// subscribeAll recomputes the topic set from the current script's blocks,
// drops subscriptions the new set no longer wants, and subscribes to every
// topic. A failed unsubscribe only wastes a subscription slot, so it is
// logged and skipped rather than failing the turn.
func (m *Machine) subscribeAll() error {
	next := ComputeTopics(m.opts.DeviceID, m.loader.BlockNames())
	keep := make(map[string]bool, 2+len(next.Blocks))
	for _, topic := range next.All() {
		keep[topic] = true
	}
	for _, topic := range m.topics.All() {
		if topic == "" || keep[topic] {
			continue
		}
		if err := m.broker.Unsubscribe(topic); err != nil {
			m.logger.Warn("conn: unsubscribe failed",
				slog.String("topic", topic),
				slog.String("error", err.Error()))
			continue
		}
		m.logger.Info("conn: unsubscribed", slog.String("topic", topic))
	}
	m.topics = next
	for _, topic := range m.topics.All() {
		if err := m.broker.Subscribe(topic); err != nil {
			return err
		}
		m.logger.Info("conn: subscribed", slog.String("topic", topic))
	}
	return nil
}

func (m *Machine) setState(s State) {
	if m.state == s {
		return
	}
	m.logger.Info("conn: state",
		slog.String("from", m.state.String()),
		slog.String("to", s.String()))
	m.state = s
}
