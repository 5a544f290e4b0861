// Package conn implements the connection state machine: the top-level
// non-blocking poll loop coordinating link bring-up, broker connect and
// subscribe, message dispatch, retry, and the deferred application of newly
// received scripts.
package conn

// State is the machine's position in the connection lifecycle.
type State int

const (
	Init State = iota
	WifiConnecting
	WifiConnected
	MqttConnecting
	MqttConnected
	MqttFailed
	MqttLoop

	// Disabled is entered when no broker address is configured: a
	// permanent-until-reconfigured broker fault. The machine keeps
	// rendering locally loaded scripts and never attempts the network.
	Disabled
)

var stateNames = map[State]string{
	Init:           "init",
	WifiConnecting: "wifi_connecting",
	WifiConnected:  "wifi_connected",
	MqttConnecting: "mqtt_connecting",
	MqttConnected:  "mqtt_connected",
	MqttFailed:     "mqtt_failed",
	MqttLoop:       "mqtt_loop",
	Disabled:       "disabled",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}
