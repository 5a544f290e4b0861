package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Display DisplayConfig     `yaml:"display"`
	MQTT    MQTTConfig        `yaml:"mqtt"`
	Script  ScriptConfig      `yaml:"script"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Display.Validate(); err != nil {
		return err
	}
	if err := c.MQTT.Validate(); err != nil {
		return err
	}
	return c.Script.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds the debug/health HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DisplayConfig describes the target display surface.
type DisplayConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Fonts  int `yaml:"fonts"`
}

// Validate validates the display configuration.
func (c *DisplayConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Width, validation.Required, validation.Min(1)),
		validation.Field(&c.Height, validation.Required, validation.Min(1)),
		validation.Field(&c.Fonts, validation.Required, validation.Min(1)),
	)
}

// MQTTConfig holds broker connection settings. An empty Host disables the
// network entirely; the device then renders only persisted/local scripts.
type MQTTConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	DeviceID       string        `yaml:"device_id"`
	RetryInterval  time.Duration `yaml:"retry_interval"`
	LoopBudget     time.Duration `yaml:"loop_budget"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// Enabled reports whether a broker address is configured.
func (c *MQTTConfig) Enabled() bool {
	return c.Host != ""
}

// Validate validates the MQTT configuration. Connection settings are only
// checked when a host is configured.
func (c *MQTTConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.DeviceID, validation.Required),
	)
}

// ScriptConfig holds the durable region slot and the default script file.
type ScriptConfig struct {
	RegionPath   string `yaml:"region_path"`
	DefaultPath  string `yaml:"default_path"`
	WatchDefault bool   `yaml:"watch_default"`
}

// Validate validates the script configuration.
func (c *ScriptConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RegionPath, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values. The
// display defaults match a 64x32 matrix panel with two bundled fonts.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Display: DisplayConfig{
			Width:  64,
			Height: 32,
			Fonts:  2,
		},
		MQTT: MQTTConfig{
			Port:           1883,
			DeviceID:       "t330",
			RetryInterval:  5 * time.Second,
			LoopBudget:     2 * time.Second,
			ConnectTimeout: 10 * time.Second,
		},
		Script: ScriptConfig{
			RegionPath:   "./data/script.nvm",
			DefaultPath:  "./default_script.json",
			WatchDefault: true,
		},
	}
}
