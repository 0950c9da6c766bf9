// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package main

import (
	"errors"
	"fmt"

	"github.com/tomtom215/feedloom/internal/config"
	"github.com/tomtom215/feedloom/internal/credentials"
	"github.com/tomtom215/feedloom/internal/engine"
	"github.com/tomtom215/feedloom/internal/logging"
	"github.com/tomtom215/feedloom/internal/remote"
	"github.com/tomtom215/feedloom/internal/services"
	"github.com/tomtom215/feedloom/internal/services/digg"
	"github.com/tomtom215/feedloom/internal/services/myspace"
	"github.com/tomtom215/feedloom/internal/services/plurk"
	"github.com/tomtom215/feedloom/internal/services/sina"
	"github.com/tomtom215/feedloom/internal/services/youtube"
)

type connectorFactory func(opts services.Options) (engine.Service, error)

var connectorFactories = map[string]connectorFactory{
	config.ServiceDigg:    func(o services.Options) (engine.Service, error) { return wrap(digg.New(o)) },
	config.ServiceMySpace: func(o services.Options) (engine.Service, error) { return wrap(myspace.New(o)) },
	config.ServicePlurk:   func(o services.Options) (engine.Service, error) { return wrap(plurk.New(o)) },
	config.ServiceSina:    func(o services.Options) (engine.Service, error) { return wrap(sina.New(o)) },
	config.ServiceYouTube: func(o services.Options) (engine.Service, error) { return wrap(youtube.New(o)) },
}

// wrap converts a typed constructor result without turning a nil *T into a
// non-nil interface.
func wrap[T engine.Service](svc T, err error) (engine.Service, error) {
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// CredentialWriter is the part of the secret store the wiring needs.
type CredentialWriter interface {
	credentials.SecretSource
	Put(service string, creds credentials.Credentials) error
	Delete(service string) error
}

// buildConnectors creates a connector for every enabled service. A service
// with a configuration error is logged and left out.
func buildConnectors(cfg *config.Config, factories map[string]connectorFactory) ([]engine.Service, error) {
	var out []engine.Service
	for _, name := range cfg.Services.Enabled() {
		factory, ok := factories[name]
		if !ok {
			return nil, fmt.Errorf("no connector for service %q", name)
		}
		sc, _ := cfg.Services.Get(name)
		svc, err := factory(services.Options{Config: sc})
		if err != nil {
			var cfgErr *remote.ConfigError
			if errors.As(err, &cfgErr) {
				logging.Warn().Str("service", name).Str("reason", cfgErr.Reason).Msg("Service disabled")
				continue
			}
			return nil, fmt.Errorf("create %s connector: %w", name, err)
		}
		out = append(out, svc)
	}
	return out, nil
}

// seedCredentials copies configured username/password pairs into the
// secret store so the state machine picks them up on its first attempt.
func seedCredentials(cfg *config.Config, store CredentialWriter) error {
	for _, name := range cfg.Services.Enabled() {
		sc, _ := cfg.Services.Get(name)
		if sc.Username == "" && sc.Password == "" {
			continue
		}
		if err := store.Put(name, credentials.Credentials{Key: sc.Username, Secret: sc.Password}); err != nil {
			return fmt.Errorf("seed %s credentials: %w", name, err)
		}
	}
	return nil
}

// applyKeyChange writes one changed credential key to the store. A pair
// left with both fields empty is deleted, so the service reports
// Unconfigured. It reports whether the stored pair actually changed.
func applyKeyChange(store CredentialWriter, change config.KeyChanged) (bool, error) {
	creds, stored, err := store.Get(change.Service)
	if err != nil {
		return false, err
	}
	next := creds
	switch change.Key {
	case config.KeyUsername:
		next.Key = change.Value
	case config.KeyPassword:
		next.Secret = change.Value
	default:
		return false, nil
	}
	if next == (credentials.Credentials{}) {
		if !stored {
			return false, nil
		}
		if err := store.Delete(change.Service); err != nil {
			return false, err
		}
		return true, nil
	}
	if stored && next == creds {
		return false, nil
	}
	if err := store.Put(change.Service, next); err != nil {
		return false, err
	}
	return true, nil
}
