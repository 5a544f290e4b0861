// Package indicator is the status-indicator collaborator boundary. On the
// original hardware this is a NeoPixel; on a host it logs.
package indicator

import "log/slog"

// Code is a coarse status signal.
type Code string

const (
	Ok         Code = "ok"
	WifiFailed Code = "wifi_failed"
	MqttFailed Code = "mqtt_failed"
	MqttRetry  Code = "mqtt_retry"
)

// Indicator receives status codes and heartbeat blinks from the control
// loop. Implementations must not block.
type Indicator interface {
	Signal(code Code)
	Blink()
}

// Log is an Indicator that logs status changes and stays quiet on
// heartbeats.
type Log struct {
	Logger *slog.Logger

	last Code
}

// Signal logs the code when it differs from the previous one.
func (l *Log) Signal(code Code) {
	if code == l.last {
		return
	}
	l.last = code
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("indicator: status", slog.String("code", string(code)))
}

// Blink is a no-op for the log indicator.
func (l *Log) Blink() {}
