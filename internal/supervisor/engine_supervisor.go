// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package supervisor

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/feedloom/internal/logging"
)

var (
	// ErrEngineAlreadyRunning is returned when adding a service twice.
	ErrEngineAlreadyRunning = errors.New("engine already running")

	// ErrEngineNotRunning is returned when removing an unknown service.
	ErrEngineNotRunning = errors.New("engine not running")

	// ErrNilSupervisorTree is returned by NewEngineSupervisor for a nil tree.
	ErrNilSupervisorTree = errors.New("supervisor tree cannot be nil")
)

// Engine is a supervised aggregation engine.
type Engine interface {
	suture.Service
	Name() string
}

// EngineStatus describes a supervised engine.
type EngineStatus struct {
	Service   string    `json:"service"`
	StartedAt time.Time `json:"started_at"`
}

type managedEngine struct {
	token     suture.ServiceToken
	startedAt time.Time
}

// EngineSupervisor adds engines to the messaging layer and remembers their
// tokens so each can be stopped on its own.
type EngineSupervisor struct {
	tree            *SupervisorTree
	shutdownTimeout time.Duration

	mu      sync.Mutex
	engines map[string]*managedEngine
}

// NewEngineSupervisor creates an engine supervisor on tree.
func NewEngineSupervisor(tree *SupervisorTree) (*EngineSupervisor, error) {
	if tree == nil {
		return nil, ErrNilSupervisorTree
	}
	return &EngineSupervisor{
		tree:            tree,
		shutdownTimeout: tree.config.ShutdownTimeout,
		engines:         make(map[string]*managedEngine),
	}, nil
}

// Add starts e under supervision.
func (s *EngineSupervisor) Add(e Engine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.engines[e.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrEngineAlreadyRunning, e.Name())
	}
	s.engines[e.Name()] = &managedEngine{
		token:     s.tree.Add(LayerMessaging, e),
		startedAt: time.Now(),
	}
	logging.Info().Str("service", e.Name()).Msg("Engine added to supervisor")
	return nil
}

// Remove stops the engine of service and waits for it to return.
func (s *EngineSupervisor) Remove(service string) error {
	s.mu.Lock()
	managed, ok := s.engines[service]
	if ok {
		delete(s.engines, service)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrEngineNotRunning, service)
	}
	if err := s.tree.Remove(LayerMessaging, managed.token, s.shutdownTimeout); err != nil {
		return fmt.Errorf("stop engine %s: %w", service, err)
	}
	logging.Info().Str("service", service).Msg("Engine removed from supervisor")
	return nil
}

// Running reports whether service has a supervised engine.
func (s *EngineSupervisor) Running(service string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.engines[service]
	return ok
}

// Statuses describes every supervised engine, sorted by service.
func (s *EngineSupervisor) Statuses() []EngineStatus {
	s.mu.Lock()
	out := make([]EngineStatus, 0, len(s.engines))
	for name, m := range s.engines {
		out = append(out, EngineStatus{Service: name, StartedAt: m.startedAt})
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Service < out[j].Service })
	return out
}
