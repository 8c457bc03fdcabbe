/*
 * Copyright 2025 Mu Two Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mutwo-dev/mucore/pkg/boarddb"
	"github.com/mutwo-dev/mucore/pkg/config"
	"github.com/mutwo-dev/mucore/pkg/coordinator"
	"github.com/mutwo-dev/mucore/pkg/databus"
	"github.com/mutwo-dev/mucore/pkg/gateway"
	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
	"github.com/mutwo-dev/mucore/pkg/pairing"
	"github.com/mutwo-dev/mucore/pkg/runtime"
	"github.com/mutwo-dev/mucore/pkg/watcher"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/mucore/core.json", "Path to core config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		return err
	}

	mainLogger, err := logger.New(&logger.Config{Level: cfg.LogLevel, Debug: cfg.Debug, Output: "stderr"})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := boarddb.Load(cfg.BoardDBPath, cfg.ConflictDBPath)
	if err != nil {
		return fmt.Errorf("failed to load board database: %w", err)
	}

	classifier := boarddb.NewClassifier(db, mainLogger.WithComponent("classifier"))

	registry := runtime.NewRegistry(mainLogger.WithComponent("registry"))

	dialer := &ttyDialer{}

	if err := registerRuntimes(ctx, cfg, registry, dialer, mainLogger); err != nil {
		return err
	}

	defer registry.DisposeAll(context.Background())

	table := pairing.NewTable(registry, &hwFactory{dialer: dialer, logger: mainLogger}, mainLogger.WithComponent("pairing"))
	defer table.DisconnectAll(context.Background())

	selector := runtime.NewSelector(registry, mainLogger.WithComponent("selector"))

	store, err := openStore(cfg, mainLogger)
	if err != nil {
		return err
	}

	if store != nil {
		defer store.Close()
	}

	bus := databus.New(store, mainLogger.WithComponent("databus"))
	bus.Restore(ctx)

	coord := coordinator.New(bus, mainLogger.WithComponent("coordinator"))
	defer coord.Close()

	deviceWatcher := watcher.New(
		watcher.NewPlatformEnumerator(),
		classifier,
		watcher.NewPlatformEventSource(mainLogger.WithComponent("hotplug")),
		watcher.Config{
			PollInterval: durationOrZero(cfg.Watcher.PollInterval),
			AttachSettle: durationOrZero(cfg.Watcher.AttachSettle),
			DetachSettle: durationOrZero(cfg.Watcher.DetachSettle),
		},
		mainLogger.WithComponent("watcher"),
	)

	events, unsubscribe := deviceWatcher.Subscribe()
	defer unsubscribe()

	go pairOnEvents(ctx, events, selector, table, mainLogger)

	deviceWatcher.Start(ctx)
	defer deviceWatcher.Stop()

	gw := gateway.New(coord, mainLogger.WithComponent("gateway"))

	return gw.Start(ctx, cfg.ListenAddr)
}

// loadConfig reads the config file; a missing file runs on defaults.
// Environment variables override the file for the deployment-specific
// fields.
func loadConfig(ctx context.Context, path string) (*models.CoreConfig, error) {
	var cfg models.CoreConfig

	loader := config.NewConfig(nil)

	if err := loader.LoadAndValidate(ctx, path, &cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}

		cfg = models.CoreConfig{}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *models.CoreConfig) {
	if v := os.Getenv("MUCORE_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}

	if v := os.Getenv("MUCORE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("MUCORE_WORKSPACE"); v != "" {
		cfg.Workspace = v
	}

	if v := os.Getenv("MUCORE_NATS_URL"); v != "" {
		if cfg.NATS == nil {
			cfg.NATS = &models.NATSConfig{}
		}

		cfg.NATS.URL = v
	}
}

func registerRuntimes(ctx context.Context, cfg *models.CoreConfig, registry *runtime.Registry, dialer *ttyDialer, log logger.Logger) error {
	if cfg.WASMEngineCmd != "" {
		engine, err := runtime.NewProcessEngine(cfg.WASMEngineCmd)
		if err != nil {
			return fmt.Errorf("invalid wasm engine command: %w", err)
		}

		cp := runtime.NewCircuitPythonRuntime(engine, "9.0", log.WithComponent("circuitpython"))
		if err := cp.Initialize(ctx); err != nil {
			log.Warn().Err(err).Msg("CircuitPython engine failed to initialize, continuing without it")
		} else if err := registry.Register(cp); err != nil {
			return err
		}
	}

	mp := runtime.NewMicroPythonRuntime(dialer, "1.24", log.WithComponent("micropython"))
	if err := mp.Initialize(ctx); err != nil {
		return err
	}

	if err := registry.Register(mp); err != nil {
		return err
	}

	py := runtime.NewPythonRuntime(venvPython(cfg.Router.VenvPath), "3", log.WithComponent("python"))
	if err := py.Initialize(ctx); err != nil {
		return err
	}

	if err := registry.Register(py); err != nil {
		return err
	}

	if registry.Get(models.RuntimeCircuitPython) != nil {
		return registry.SetDefault(models.RuntimeCircuitPython)
	}

	return registry.SetDefault(models.RuntimeMicroPython)
}

// pairOnEvents connects newly detected devices to their best runtime and
// tears bindings down on removal.
func pairOnEvents(ctx context.Context, events <-chan models.DeviceEvent, selector *runtime.Selector, table *pairing.Table, log logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			switch ev.Kind {
			case models.DeviceAdded:
				rt := selector.SelectBestRuntime(ev.Device, "")
				if rt == nil {
					log.Error().
						Str("path", ev.Device.Path).
						Str("board", ev.Device.DisplayName).
						Msg("No compatible runtime for device")

					continue
				}

				if err := table.Connect(ctx, ev.Device, rt); err != nil {
					log.Error().Err(err).Str("path", ev.Device.Path).Msg("Pairing failed")
				}

			case models.DeviceRemoved:
				if err := table.Disconnect(ctx, ev.Device.Path); err != nil {
					log.Debug().Err(err).Str("path", ev.Device.Path).Msg("Unpair on removal")
				}

			case models.DeviceChanged:
				log.Info().
					Str("path", ev.Device.Path).
					Str("board", ev.Device.DisplayName).
					Msg("Device classification changed")
			}
		}
	}
}

func openStore(cfg *models.CoreConfig, log logger.Logger) (databus.KVStore, error) {
	if cfg.NATS == nil {
		return databus.NewMemoryKV(), nil
	}

	bucket := cfg.NATS.Bucket
	if bucket == "" {
		bucket = "mucore-repl"
	}

	store, err := databus.NewNATSKV(cfg.NATS.URL, bucket, cfg.Workspace)
	if err != nil {
		// Persistence is best-effort; run without it rather than failing
		// startup.
		log.Warn().Err(err).Msg("NATS persistence unavailable, using in-memory store")
		return databus.NewMemoryKV(), nil
	}

	return store, nil
}
