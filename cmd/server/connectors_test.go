// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package main

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/feedloom/internal/config"
	"github.com/tomtom215/feedloom/internal/credentials"
	"github.com/tomtom215/feedloom/internal/engine"
	"github.com/tomtom215/feedloom/internal/remote"
	"github.com/tomtom215/feedloom/internal/services"
)

type memStore struct {
	data   map[string]credentials.Credentials
	putErr error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]credentials.Credentials)}
}

func (m *memStore) Get(service string) (credentials.Credentials, bool, error) {
	c, ok := m.data[service]
	return c, ok, nil
}

func (m *memStore) Put(service string, creds credentials.Credentials) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.data[service] = creds
	return nil
}

func (m *memStore) Delete(service string) error {
	delete(m.data, service)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom("")
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	return cfg
}

func TestBuildConnectors_SkipsMissingKeys(t *testing.T) {
	cfg := testConfig(t)
	cfg.Services.Plurk.Enabled = true
	cfg.Services.Plurk.APIKey = "key"
	cfg.Services.Plurk.APISecret = "secret"
	cfg.Services.Digg.Enabled = true
	cfg.Services.Digg.APIKey = ""

	got, err := buildConnectors(cfg, connectorFactories)
	if err != nil {
		t.Fatalf("buildConnectors: %v", err)
	}
	var names []string
	for _, svc := range got {
		names = append(names, svc.Name())
	}
	if diff := cmp.Diff([]string{config.ServicePlurk}, names); diff != "" {
		t.Errorf("connectors mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildConnectors_FactoryError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Services.Sina.Enabled = true

	boom := errors.New("boom")
	factories := map[string]connectorFactory{
		config.ServiceSina: func(services.Options) (engine.Service, error) { return nil, boom },
	}
	if _, err := buildConnectors(cfg, factories); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	factories[config.ServiceSina] = func(services.Options) (engine.Service, error) {
		return nil, remote.NewConfigError(config.ServiceSina, "no API key configured")
	}
	got, err := buildConnectors(cfg, factories)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %d connectors, err %v; want none, nil", len(got), err)
	}

	delete(factories, config.ServiceSina)
	if _, err := buildConnectors(cfg, factories); err == nil {
		t.Fatal("expected error for a service without a factory")
	}
}

func TestSeedCredentials(t *testing.T) {
	cfg := testConfig(t)
	cfg.Services.MySpace.Enabled = true
	cfg.Services.MySpace.Username = "tom"
	cfg.Services.MySpace.Password = "hunter2"
	cfg.Services.YouTube.Enabled = true

	store := newMemStore()
	if err := seedCredentials(cfg, store); err != nil {
		t.Fatalf("seedCredentials: %v", err)
	}
	want := map[string]credentials.Credentials{
		config.ServiceMySpace: {Key: "tom", Secret: "hunter2"},
	}
	if diff := cmp.Diff(want, store.data); diff != "" {
		t.Errorf("store mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyKeyChange(t *testing.T) {
	tests := []struct {
		name        string
		initial     credentials.Credentials
		change      config.KeyChanged
		wantChanged bool
		want        credentials.Credentials
	}{
		{
			name:        "username",
			initial:     credentials.Credentials{Key: "old", Secret: "pw"},
			change:      config.KeyChanged{Service: "plurk", Key: config.KeyUsername, Value: "new"},
			wantChanged: true,
			want:        credentials.Credentials{Key: "new", Secret: "pw"},
		},
		{
			name:        "password",
			initial:     credentials.Credentials{Key: "u", Secret: "old"},
			change:      config.KeyChanged{Service: "plurk", Key: config.KeyPassword, Value: "new"},
			wantChanged: true,
			want:        credentials.Credentials{Key: "u", Secret: "new"},
		},
		{
			name:    "unchanged value",
			initial: credentials.Credentials{Key: "u", Secret: "pw"},
			change:  config.KeyChanged{Service: "plurk", Key: config.KeyUsername, Value: "u"},
			want:    credentials.Credentials{Key: "u", Secret: "pw"},
		},
		{
			name:    "unknown key",
			initial: credentials.Credentials{Key: "u", Secret: "pw"},
			change:  config.KeyChanged{Service: "plurk", Key: "mode", Value: "x"},
			want:    credentials.Credentials{Key: "u", Secret: "pw"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := newMemStore()
			store.data["plurk"] = tt.initial

			changed, err := applyKeyChange(store, tt.change)
			if err != nil {
				t.Fatalf("applyKeyChange: %v", err)
			}
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if diff := cmp.Diff(tt.want, store.data["plurk"]); diff != "" {
				t.Errorf("credentials mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyKeyChange_ClearedPairIsDeleted(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.data["plurk"] = credentials.Credentials{Key: "u", Secret: "pw"}

	for _, change := range []config.KeyChanged{
		{Service: "plurk", Key: config.KeyUsername, Value: ""},
		{Service: "plurk", Key: config.KeyPassword, Value: ""},
	} {
		changed, err := applyKeyChange(store, change)
		if err != nil {
			t.Fatalf("applyKeyChange(%s): %v", change.Key, err)
		}
		if !changed {
			t.Errorf("applyKeyChange(%s) reported no change", change.Key)
		}
	}
	if creds, ok := store.data["plurk"]; ok {
		t.Errorf("cleared pair still stored: %+v", creds)
	}

	changed, err := applyKeyChange(store, config.KeyChanged{Service: "plurk", Key: config.KeyPassword, Value: ""})
	if err != nil || changed {
		t.Errorf("clearing an absent pair: changed=%v err=%v", changed, err)
	}
}

func TestApplyKeyChange_PutError(t *testing.T) {
	store := newMemStore()
	store.putErr = errors.New("disk full")
	_, err := applyKeyChange(store, config.KeyChanged{Service: "sina", Key: config.KeyPassword, Value: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
}
