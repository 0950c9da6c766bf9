// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tomtom215/feedloom/internal/api"
	"github.com/tomtom215/feedloom/internal/banlist"
	"github.com/tomtom215/feedloom/internal/cache"
	"github.com/tomtom215/feedloom/internal/config"
	"github.com/tomtom215/feedloom/internal/connectivity"
	"github.com/tomtom215/feedloom/internal/engine"
	"github.com/tomtom215/feedloom/internal/logging"
	"github.com/tomtom215/feedloom/internal/metrics"
	"github.com/tomtom215/feedloom/internal/secrets"
	"github.com/tomtom215/feedloom/internal/supervisor"
	"github.com/tomtom215/feedloom/internal/supervisor/services"
	ws "github.com/tomtom215/feedloom/internal/websocket"
)

const (
	defaultCacheTTL   = 24 * time.Hour
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	logging.Info().Strs("services", cfg.Services.Enabled()).Msg("Starting Feedloom")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	cacheDB, err := cache.OpenDB(cfg.Storage.CachePath)
	if err != nil {
		return fmt.Errorf("open item cache: %w", err)
	}
	defer closeLogged("item cache", cacheDB.Close)
	itemCache := cache.NewStore(cacheDB, defaultCacheTTL)

	enc, err := secrets.NewEncryptor(cfg.Security.SecretKey)
	if err != nil {
		return fmt.Errorf("create secret encryptor: %w", err)
	}
	secretsDB, err := cache.OpenDB(cfg.Storage.SecretsPath)
	if err != nil {
		return fmt.Errorf("open secret store: %w", err)
	}
	defer closeLogged("secret store", secretsDB.Close)
	secretStore := secrets.NewStore(secretsDB, enc)
	if err := seedCredentials(cfg, secretStore); err != nil {
		return err
	}

	bans, err := banlist.Open(ctx, cfg.Storage.BanlistPath)
	if err != nil {
		return fmt.Errorf("open banlist: %w", err)
	}
	defer closeLogged("banlist", bans.Close)

	// Engines
	slogger := logging.NewSlogLogger()
	bus := engine.NewBus(slogger)
	defer closeLogged("event bus", bus.Close)

	registry := engine.NewRegistry()
	defer registry.Close()

	connectors, err := buildConnectors(cfg, connectorFactories)
	if err != nil {
		return err
	}

	treeConfig := supervisor.DefaultTreeConfig()
	tree, err := supervisor.NewSupervisorTree(slogger, treeConfig)
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	engines, err := supervisor.NewEngineSupervisor(tree)
	if err != nil {
		return fmt.Errorf("create engine supervisor: %w", err)
	}

	for _, svc := range connectors {
		sc, _ := cfg.Services.Get(svc.Name())
		e := engine.New(engine.Config{
			Service:         svc,
			Secrets:         secretStore,
			Cache:           itemCache,
			Banlist:         bans,
			Bus:             bus,
			RefreshInterval: sc.RefreshInterval,
			AvatarDir:       cfg.Storage.AvatarDir,
		})
		if err := registry.Register(e); err != nil {
			return fmt.Errorf("register %s engine: %w", svc.Name(), err)
		}
		if err := engines.Add(e); err != nil {
			return fmt.Errorf("supervise %s engine: %w", svc.Name(), err)
		}
		logging.Info().Str("service", svc.Name()).Msg("Engine registered")
	}

	// Data layer
	monitor := connectivity.NewMonitor(connectivity.Config{
		CheckURL: cfg.Connectivity.CheckURL,
		Interval: cfg.Connectivity.Interval,
		Timeout:  cfg.Connectivity.Timeout,
	})
	monitor.OnChange(func(online bool) {
		metrics.SetOnline(online)
		logging.Info().Bool("online", online).Msg("Connectivity changed")
		registry.SetOnline(ctx, online)
	})
	tree.Add(supervisor.LayerData, monitor)

	if path := config.FindConfigFile(); path != "" {
		watcher := config.NewWatcher(path, cfg)
		watcher.OnChange(func(change config.KeyChanged) {
			onCredentialChange(ctx, registry, secretStore, change)
		})
		tree.Add(supervisor.LayerData, watcher)
		logging.Info().Str("path", path).Msg("Watching config file for credential changes")
	}

	// Realtime
	hub := ws.NewHub(registry)
	tree.Add(supervisor.LayerMessaging, hub)
	tree.Add(supervisor.LayerMessaging, ws.NewEventBridge(hub, bus))

	// HTTP
	handler := api.NewHandler(registry, secretStore, hub)
	router := api.NewRouter(handler, api.NewMiddleware(api.MiddlewareConfig{
		RateLimitRequests: cfg.Security.RateLimitReqs,
		RateLimitWindow:   cfg.Security.RateLimitWindow,
		RateLimitDisabled: cfg.Security.RateLimitDisabled,
	}))
	server := &http.Server{
		Handler:           router.Setup(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	tree.Add(supervisor.LayerAPI, services.NewHTTPServerService(server, addr, shutdownTimeout))
	logging.Info().Str("addr", addr).Msg("HTTP server configured")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
		cancel()
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}
	return nil
}

// onCredentialChange stores a credential edited in the config file and
// tells the owning engine to reconnect.
func onCredentialChange(ctx context.Context, registry *engine.Registry, store CredentialWriter, change config.KeyChanged) {
	changed, err := applyKeyChange(store, change)
	if err != nil {
		logging.Error().Err(err).Str("service", change.Service).Msg("Failed to store changed credentials")
		return
	}
	if !changed {
		return
	}
	e, err := registry.Get(change.Service)
	if err != nil {
		logging.Debug().Str("service", change.Service).Msg("Credentials changed for an inactive service")
		return
	}
	logging.Info().Str("service", change.Service).Str("key", change.Key).Msg("Credentials changed")
	e.CredentialsUpdated(ctx)
}

func closeLogged(what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logging.Warn().Err(err).Str("component", what).Msg("Close failed")
	}
}
