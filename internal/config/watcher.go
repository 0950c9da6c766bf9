// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package config

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/knadh/koanf/providers/file"

	"github.com/tomtom215/feedloom/internal/logging"
)

// Watched keys of each service.
const (
	KeyUsername = "username"
	KeyPassword = "password"
)

// KeyChanged reports a changed credential key. An empty Value means the
// key was unset.
type KeyChanged struct {
	Service string
	Key     string
	Value   string
}

// Watcher reloads the config file when it changes and reports changed
// service credentials.
type Watcher struct {
	path string

	mu        sync.RWMutex
	current   *Config
	listeners []func(KeyChanged)
}

// NewWatcher watches path. initial is the configuration already in use.
func NewWatcher(path string, initial *Config) *Watcher {
	return &Watcher{path: path, current: initial}
}

// OnChange registers a listener for changed keys.
func (w *Watcher) OnChange(fn func(KeyChanged)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Reload re-reads the configuration, applies a changed log level and
// notifies listeners of every changed credential key. An invalid file
// leaves the current configuration in place.
func (w *Watcher) Reload() ([]KeyChanged, error) {
	next, err := LoadFrom(w.path)
	if err != nil {
		return nil, fmt.Errorf("reload %s: %w", w.path, err)
	}

	w.mu.Lock()
	changes := diffCredentials(w.current, next)
	levelChanged := w.current == nil || w.current.Logging.Level != next.Logging.Level
	w.current = next
	listeners := slices.Clone(w.listeners)
	w.mu.Unlock()

	if levelChanged {
		logging.SetLevelString(next.Logging.Level)
		logging.Info().Str("level", next.Logging.Level).Msg("Log level changed")
	}

	for _, c := range changes {
		logging.Info().Str("service", c.Service).Str("key", c.Key).Msg("Config key changed")
		for _, fn := range listeners {
			fn(c)
		}
	}
	return changes, nil
}

func diffCredentials(prev, next *Config) []KeyChanged {
	var out []KeyChanged
	for _, name := range ServiceNames {
		var old ServiceConfig
		if prev != nil {
			old, _ = prev.Services.Get(name)
		}
		cur, _ := next.Services.Get(name)

		if old.Username != cur.Username {
			out = append(out, KeyChanged{Service: name, Key: KeyUsername, Value: cur.Username})
		}
		if old.Password != cur.Password {
			out = append(out, KeyChanged{Service: name, Key: KeyPassword, Value: cur.Password})
		}
	}
	return out
}

// Serve implements suture.Service. Without a file it idles until ctx is
// done.
func (w *Watcher) Serve(ctx context.Context) error {
	if w.path == "" {
		<-ctx.Done()
		return ctx.Err()
	}

	provider := file.Provider(w.path)
	err := provider.Watch(func(_ interface{}, err error) {
		if err != nil {
			logging.Warn().Err(err).Str("path", w.path).Msg("Config watch error")
			return
		}
		if _, err := w.Reload(); err != nil {
			logging.Warn().Err(err).Msg("Config reload failed, keeping previous configuration")
		}
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	defer func() { _ = provider.Unwatch() }()

	<-ctx.Done()
	return ctx.Err()
}

// String implements fmt.Stringer.
func (w *Watcher) String() string {
	return "config-watcher"
}
