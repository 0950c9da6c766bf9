// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package myspace

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/feedloom/internal/config"
	"github.com/tomtom215/feedloom/internal/credentials"
	"github.com/tomtom215/feedloom/internal/engine"
	"github.com/tomtom215/feedloom/internal/services"
)

type fakeMySpace struct {
	mu       sync.Mutex
	calls    []string
	statuses []string
}

func (f *fakeMySpace) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	switch {
	case r.URL.Path == "/v1/user":
		_, _ = w.Write([]byte(`<user><userid>1</userid><name>Me</name><imageuri>http://img/me.jpg</imageuri></user>`))
	case r.URL.Path == "/v1/users/1/friends/status":
		if r.URL.Query().Get("dateFormat") != "utc" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(friendsStatus))
	case r.URL.Path == "/v1/users/1/status" && r.Method == http.MethodGet:
		_, _ = w.Write([]byte(ownStatus))
	case r.URL.Path == "/v1/users/1/status" && r.Method == http.MethodPut:
		_ = r.ParseForm()
		f.mu.Lock()
		f.statuses = append(f.statuses, r.PostForm.Get("status"))
		f.mu.Unlock()
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeMySpace) takeCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := f.calls
	f.calls = nil
	return calls
}

func newTestService(t *testing.T) (*Service, *fakeMySpace) {
	t.Helper()
	fake := &fakeMySpace{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := New(services.Options{Config: config.ServiceConfig{BaseURL: srv.URL, APIKey: "ck", APISecret: "cs"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return svc, fake
}

func TestFetchBeforeExchange(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	if _, err := svc.Fetch(context.Background(), QueryFeed, nil); !errors.Is(err, engine.ErrNotConnected) {
		t.Fatalf("Fetch() error = %v, want ErrNotConnected", err)
	}
}

func TestExchangeFetchAndUpdate(t *testing.T) {
	t.Parallel()
	svc, fake := newTestService(t)
	ctx := context.Background()

	session := connect(t, svc, credentials.Credentials{Key: "tok", Secret: "sec"})
	want := credentials.Session{UserID: "1", Nickname: "Me", AvatarURL: "http://img/me.jpg"}
	if diff := cmp.Diff(want, session); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}
	fake.takeCalls()

	set, err := svc.Fetch(ctx, QueryFeed, nil)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if set.Len() != 2 {
		t.Errorf("Fetch() ids = %v", set.IDs())
	}
	wantCalls := []string{"GET /v1/users/1/friends/status", "GET /v1/users/1/status"}
	if diff := cmp.Diff(wantCalls, fake.takeCalls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	if _, err := svc.Fetch(ctx, QueryOwn, nil); err != nil {
		t.Fatalf("Fetch(own) error = %v", err)
	}
	if diff := cmp.Diff([]string{"GET /v1/users/1/status"}, fake.takeCalls()); diff != "" {
		t.Errorf("own calls mismatch (-want +got):\n%s", diff)
	}

	if err := svc.UpdateStatus(ctx, "new status"); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if diff := cmp.Diff([]string{"new status"}, fake.statuses); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
}

// connect exchanges creds and installs the resulting session.
func connect(t *testing.T, svc *Service, creds credentials.Credentials) credentials.Session {
	t.Helper()
	session, err := svc.Exchange(context.Background(), creds)
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	session.Commit()
	session.Commit = nil
	return session
}
