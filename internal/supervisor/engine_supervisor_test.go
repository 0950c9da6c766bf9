// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

// mockEngine is a named MockService.
type mockEngine struct {
	*MockService
	name string
}

func (m mockEngine) Name() string { return m.name }

func newTestTree(t *testing.T) *SupervisorTree {
	t.Helper()
	tree, err := NewSupervisorTree(slog.New(slog.NewTextHandler(io.Discard, nil)), TreeConfig{
		FailureBackoff:  10 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}
	return tree
}

func waitStarted(t *testing.T, m *MockService, n int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for m.StartCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("%s started %d times, want %d", m, m.StartCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewEngineSupervisor_NilTree(t *testing.T) {
	t.Parallel()
	if _, err := NewEngineSupervisor(nil); !errors.Is(err, ErrNilSupervisorTree) {
		t.Errorf("NewEngineSupervisor(nil) error = %v", err)
	}
}

func TestEngineSupervisor_AddRemove(t *testing.T) {
	t.Parallel()
	tree := newTestTree(t)
	sup, err := NewEngineSupervisor(tree)
	if err != nil {
		t.Fatalf("NewEngineSupervisor() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	digg := mockEngine{MockService: NewMockService("engine-digg"), name: "digg"}
	plurk := mockEngine{MockService: NewMockService("engine-plurk"), name: "plurk"}

	if err := sup.Add(digg); err != nil {
		t.Fatalf("Add(digg) error = %v", err)
	}
	if err := sup.Add(plurk); err != nil {
		t.Fatalf("Add(plurk) error = %v", err)
	}
	if err := sup.Add(digg); !errors.Is(err, ErrEngineAlreadyRunning) {
		t.Errorf("second Add(digg) error = %v", err)
	}
	waitStarted(t, digg.MockService, 1)
	waitStarted(t, plurk.MockService, 1)

	statuses := sup.Statuses()
	if len(statuses) != 2 || statuses[0].Service != "digg" || statuses[1].Service != "plurk" {
		t.Errorf("Statuses() = %+v", statuses)
	}

	if err := sup.Remove("digg"); err != nil {
		t.Fatalf("Remove(digg) error = %v", err)
	}
	if digg.StopCount() != 1 {
		t.Errorf("digg stop count = %d, want 1", digg.StopCount())
	}
	if sup.Running("digg") || !sup.Running("plurk") {
		t.Errorf("Running() digg=%v plurk=%v", sup.Running("digg"), sup.Running("plurk"))
	}
	if err := sup.Remove("digg"); !errors.Is(err, ErrEngineNotRunning) {
		t.Errorf("second Remove(digg) error = %v", err)
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop")
	}
}
