package internal

import (
	"github.com/distantsignal/distantsignal/internal/conn"
	"github.com/distantsignal/distantsignal/internal/indicator"
	"github.com/distantsignal/distantsignal/internal/scene"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	surface   scene.Surface
	indicator indicator.Indicator
	broker    conn.Broker
	link      conn.Link
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithSurface overrides the display surface (the default logs scene roots).
func WithSurface(s scene.Surface) Option {
	return func(a *application) {
		a.surface = s
	}
}

// WithIndicator overrides the status indicator.
func WithIndicator(ind indicator.Indicator) Option {
	return func(a *application) {
		a.indicator = ind
	}
}

// WithBroker overrides the MQTT broker collaborator.
func WithBroker(b conn.Broker) Option {
	return func(a *application) {
		a.broker = b
	}
}

// WithLink overrides the network link collaborator.
func WithLink(l conn.Link) Option {
	return func(a *application) {
		a.link = l
	}
}
