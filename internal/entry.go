// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/distantsignal/distantsignal/internal/api"
	"github.com/distantsignal/distantsignal/internal/conn"
	"github.com/distantsignal/distantsignal/internal/display"
	"github.com/distantsignal/distantsignal/internal/indicator"
	"github.com/distantsignal/distantsignal/internal/loader"
	"github.com/distantsignal/distantsignal/internal/nvm"
	"github.com/distantsignal/distantsignal/internal/scene"
	"github.com/distantsignal/distantsignal/internal/scriptfile"
)

// minTick is the busy-loop guard: a tick that completes faster than one
// second is followed by a short pause.
const minTick = 250 * time.Millisecond

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("device_id", cfg.MQTT.DeviceID),
		slog.Bool("mqtt_enabled", cfg.MQTT.Enabled()),
		slog.String("region_path", cfg.Script.RegionPath),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Display surface chain: a snapshot for the HTTP read side, then the
	// configured surface (by default a logging stand-in for the panel).
	if app.surface == nil {
		app.surface = &display.Log{Logger: logger}
	}
	snap := display.NewSnapshot(app.surface)

	if app.indicator == nil {
		app.indicator = &indicator.Log{Logger: logger}
	}

	region, err := nvm.NewRegion(cfg.Script.RegionPath)
	if err != nil {
		return fmt.Errorf("init region: %w", err)
	}

	compiler := scene.NewCompiler(cfg.Display.Width, cfg.Display.Height, cfg.Display.Fonts, logger)
	ldr := loader.New(compiler, region, snap, logger)

	bootScript(ldr, region, cfg.Script.DefaultPath, logger)

	if app.link == nil {
		app.link = conn.HostLink{}
	}
	if app.broker == nil && cfg.MQTT.Enabled() {
		app.broker = conn.NewMQTTBroker(conn.MQTTOptions{
			Host:           cfg.MQTT.Host,
			Port:           cfg.MQTT.Port,
			Username:       cfg.MQTT.Username,
			Password:       cfg.MQTT.Password,
			ClientID:       "distantsignal-" + cfg.MQTT.DeviceID,
			ConnectTimeout: cfg.MQTT.ConnectTimeout,
		}, logger)
	}

	machine := conn.NewMachine(app.link, app.broker, ldr, app.indicator, logger, conn.MachineOptions{
		DeviceID:      cfg.MQTT.DeviceID,
		RetryInterval: cfg.MQTT.RetryInterval,
		LoopBudget:    cfg.MQTT.LoopBudget,
		Disabled:      app.broker == nil,
	})

	// Local script overrides cross from the watcher goroutine to the
	// control loop through a one-slot channel, mirroring the pending
	// network-script slot: the loop alone applies scripts.
	localScripts := make(chan string, 1)

	status := &api.StatusStore{}
	router := api.NewRouter(status, snap)
	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: router,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Control loop: one tick services the state machine, applies any local
	// script override, and re-renders when dirty.
	g.Go(func() error {
		for {
			select {
			case <-gCtx.Done():
				logger.Info("control loop stopped")
				return nil
			default:
			}

			start := time.Now()
			app.indicator.Blink()
			machine.Tick(gCtx)

			select {
			case text := <-localScripts:
				changed, err := ldr.AcceptScript(text, false)
				if err != nil {
					logger.Warn("local script rejected", slog.String("error", err.Error()))
				} else if changed {
					machine.ScriptAccepted()
				}
			default:
			}

			ldr.RenderIfDirty()

			status.Set(api.Status{
				ConnState:    machine.State().String(),
				ScriptHash:   ldr.ScriptHash(),
				ActiveState:  ldr.ActiveState(),
				ActiveBlocks: ldr.ActiveBlocks(),
			})

			if time.Since(start) < time.Second {
				select {
				case <-gCtx.Done():
				case <-time.After(minTick):
				}
			}
		}
	})

	// Local default-script watcher.
	if cfg.Script.WatchDefault && cfg.Script.DefaultPath != "" {
		g.Go(func() error {
			err := scriptfile.Watch(gCtx, cfg.Script.DefaultPath, logger, func(text string) {
				// Latest wins; an unconsumed older override is dropped.
				select {
				case localScripts <- text:
				default:
					select {
					case <-localScripts:
					default:
					}
					localScripts <- text
				}
			})
			if err != nil {
				logger.Warn("scriptfile watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Debug/health HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down...")

		if app.broker != nil {
			app.broker.Disconnect()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Stopped successfully")
	return nil
}

// bootScript restores the last persisted script, falling back to the
// default script file. Neither path writes the region: persistence is
// reserved for scripts accepted from the network.
func bootScript(ldr *loader.Loader, region *nvm.Region, defaultPath string, logger *slog.Logger) {
	script, ok, err := region.Load()
	if err != nil {
		// Corrupt blob: same as no stored configuration.
		logger.Warn("stored script unusable", slog.String("error", err.Error()))
	}
	if ok {
		if _, err := ldr.AcceptScript(script, false); err == nil {
			logger.Info("restored persisted script")
			return
		}
		logger.Warn("persisted script no longer compiles, falling back")
	}

	if defaultPath == "" {
		return
	}
	data, err := os.ReadFile(defaultPath)
	if err != nil {
		logger.Warn("default script unavailable", slog.String("error", err.Error()))
		return
	}
	if _, err := ldr.AcceptScript(string(data), false); err != nil {
		logger.Warn("default script rejected", slog.String("error", err.Error()))
		return
	}
	logger.Info("loaded default script", slog.String("path", defaultPath))
}
