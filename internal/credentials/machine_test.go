// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package credentials

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/feedloom/internal/models"
)

type memSecrets struct {
	mu    sync.Mutex
	creds map[string]Credentials
	err   error
}

func (s *memSecrets) Get(service string) (Credentials, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Credentials{}, false, s.err
	}
	c, ok := s.creds[service]
	return c, ok, nil
}

func (s *memSecrets) put(service string, c Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		s.creds = map[string]Credentials{}
	}
	s.creds[service] = c
}

// recorder collects transitions delivered to listeners.
type recorder struct {
	mu  sync.Mutex
	got []Transition
	ch  chan Transition
}

func newRecorder(m *Machine) *recorder {
	r := &recorder{ch: make(chan Transition, 32)}
	m.OnTransition(func(tr Transition) {
		r.mu.Lock()
		r.got = append(r.got, tr)
		r.mu.Unlock()
		r.ch <- tr
	})
	return r
}

func (r *recorder) waitFor(t *testing.T, state State) Transition {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case tr := <-r.ch:
			if tr.To == state {
				return tr
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", state)
			return Transition{}
		}
	}
}

func capNames(caps models.CapabilitySet) []string { return caps.Strings() }

func TestCapabilitiesFor(t *testing.T) {
	t.Parallel()

	static := []models.Capability{models.CapCanVerifyCredentials, models.CapCanUpdateStatus, models.CapCanRequestAvatar}

	tests := []struct {
		name       string
		state      State
		configured bool
		want       []string
	}{
		{"offline unconfigured", StateOffline, false, []string{"CAN_VERIFY_CREDENTIALS"}},
		{"offline configured", StateOffline, true, []string{"CAN_VERIFY_CREDENTIALS", "IS_CONFIGURED"}},
		{"unconfigured", StateUnconfigured, false, []string{"CAN_VERIFY_CREDENTIALS"}},
		{"unauthorized", StateUnauthorized, true, []string{"CAN_VERIFY_CREDENTIALS", "CREDENTIALS_INVALID", "IS_CONFIGURED"}},
		{"authorized", StateAuthorized, true, []string{
			"CAN_REQUEST_AVATAR", "CAN_UPDATE_STATUS", "CAN_VERIFY_CREDENTIALS", "CREDENTIALS_VALID", "IS_CONFIGURED",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := capNames(CapabilitiesFor(tt.state, tt.configured, static))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("capabilities mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOnlineWithoutSecretIsUnconfigured(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	m := NewMachine(Config{
		Service: "plurk",
		Secrets: &memSecrets{},
		Exchanger: ExchangerFunc(func(context.Context, Credentials) (Session, error) {
			calls.Add(1)
			return Session{}, nil
		}),
	})
	rec := newRecorder(m)

	m.SetOnline(context.Background(), true)
	rec.waitFor(t, StateUnconfigured)

	if m.State() != StateUnconfigured {
		t.Errorf("expected unconfigured, got %s", m.State())
	}
	if calls.Load() != 0 {
		t.Errorf("no exchange expected without a secret, got %d", calls.Load())
	}
}

func TestExchangeFailureIsUnauthorized(t *testing.T) {
	t.Parallel()

	secrets := &memSecrets{}
	var calls atomic.Int32
	m := NewMachine(Config{
		Service: "plurk",
		Secrets: secrets,
		Exchanger: ExchangerFunc(func(context.Context, Credentials) (Session, error) {
			calls.Add(1)
			return Session{}, errors.New("invalid login")
		}),
	})
	rec := newRecorder(m)

	m.SetOnline(context.Background(), true)
	rec.waitFor(t, StateUnconfigured)

	secrets.put("plurk", Credentials{Key: "alice", Secret: "pw"})
	m.SetOnline(context.Background(), true)
	tr := rec.waitFor(t, StateUnauthorized)
	m.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected exactly one exchange call, got %d", calls.Load())
	}
	if !tr.Capabilities.Has(models.CapIsConfigured) {
		t.Error("expected IS_CONFIGURED")
	}
	if tr.Capabilities.Has(models.CapCredentialsValid) {
		t.Error("did not expect CREDENTIALS_VALID")
	}
	if tr.Err == nil {
		t.Error("transition should carry the exchange error")
	}
}

func TestPendingExchangeStaysOffline(t *testing.T) {
	t.Parallel()

	secrets := &memSecrets{}
	secrets.put("sina", Credentials{Key: "tok", Secret: "sec"})
	release := make(chan struct{})
	m := NewMachine(Config{
		Service: "sina",
		Secrets: secrets,
		Exchanger: ExchangerFunc(func(context.Context, Credentials) (Session, error) {
			<-release
			return Session{UserID: "1"}, nil
		}),
	})
	rec := newRecorder(m)

	m.SetOnline(context.Background(), true)
	if m.State() != StateOffline {
		t.Fatalf("expected offline while exchange pending, got %s", m.State())
	}
	if !m.Capabilities().Has(models.CapIsConfigured) {
		t.Error("stored secret should announce IS_CONFIGURED while pending")
	}

	close(release)
	rec.waitFor(t, StateAuthorized)

	session, ok := m.Session()
	if !ok || session.UserID != "1" {
		t.Errorf("expected session for user 1, got %+v ok=%v", session, ok)
	}
}

func TestOfflineDiscardsStaleExchange(t *testing.T) {
	t.Parallel()

	secrets := &memSecrets{}
	secrets.put("digg", Credentials{Key: "k", Secret: "s"})
	release := make(chan struct{})
	m := NewMachine(Config{
		Service: "digg",
		Secrets: secrets,
		Exchanger: ExchangerFunc(func(context.Context, Credentials) (Session, error) {
			<-release
			return Session{UserID: "u"}, nil
		}),
	})
	rec := newRecorder(m)

	m.SetOnline(context.Background(), true)
	m.SetOnline(context.Background(), false)
	close(release)
	m.Wait()

	if m.State() != StateOffline {
		t.Errorf("stale exchange must not authorize, state=%s", m.State())
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, tr := range rec.got {
		if tr.To == StateAuthorized {
			t.Error("unexpected authorized transition")
		}
	}
}

func TestCredentialsUpdatedReExchanges(t *testing.T) {
	t.Parallel()

	secrets := &memSecrets{}
	secrets.put("myspace", Credentials{Key: "a", Secret: "1"})
	var user atomic.Value
	user.Store("u1")
	var calls atomic.Int32
	m := NewMachine(Config{
		Service: "myspace",
		Secrets: secrets,
		Exchanger: ExchangerFunc(func(context.Context, Credentials) (Session, error) {
			calls.Add(1)
			return Session{UserID: user.Load().(string)}, nil
		}),
	})
	rec := newRecorder(m)

	m.SetOnline(context.Background(), true)
	first := rec.waitFor(t, StateAuthorized)
	if first.UserChanged {
		t.Error("first authorization is not a user change")
	}

	user.Store("u2")
	m.CredentialsUpdated(context.Background())
	down := rec.waitFor(t, StateOffline)
	second := rec.waitFor(t, StateAuthorized)
	m.Wait()

	if calls.Load() != 2 {
		t.Errorf("expected two exchanges, got %d", calls.Load())
	}
	if !down.UserChanged {
		t.Error("expected UserChanged on the credentials update")
	}
	if second.UserChanged {
		t.Error("UserChanged must be announced once per update")
	}
}

func TestCredentialsUpdatedAlwaysAnnouncesUserChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		session Session
		err     error
		want    State
	}{
		{name: "no user id", session: Session{}, want: StateAuthorized},
		{name: "rejected pair", err: errors.New("401"), want: StateUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			secrets := &memSecrets{}
			secrets.put("digg", Credentials{Key: "a", Secret: "1"})
			var fail atomic.Bool
			m := NewMachine(Config{
				Service: "digg",
				Secrets: secrets,
				Exchanger: ExchangerFunc(func(context.Context, Credentials) (Session, error) {
					if fail.Load() && tt.err != nil {
						return Session{}, tt.err
					}
					return tt.session, nil
				}),
			})
			rec := newRecorder(m)

			m.SetOnline(context.Background(), true)
			rec.waitFor(t, StateAuthorized)

			fail.Store(true)
			secrets.put("digg", Credentials{Key: "b", Secret: "2"})
			m.CredentialsUpdated(context.Background())
			down := rec.waitFor(t, StateOffline)
			rec.waitFor(t, tt.want)
			m.Wait()

			if !down.UserChanged {
				t.Error("credentials update must announce a user change")
			}
		})
	}
}

func TestSupersededExchangeIsNotCommitted(t *testing.T) {
	t.Parallel()

	secrets := &memSecrets{}
	secrets.put("sina", Credentials{Key: "old", Secret: "s"})

	var (
		mu        sync.Mutex
		installed string
		commits   []string
	)
	release := make(chan struct{})
	m := NewMachine(Config{
		Service: "sina",
		Secrets: secrets,
		Reset: func() {
			mu.Lock()
			installed = ""
			mu.Unlock()
		},
		Exchanger: ExchangerFunc(func(_ context.Context, c Credentials) (Session, error) {
			if c.Key == "old" {
				<-release
			}
			return Session{UserID: c.Key, Commit: func() {
				mu.Lock()
				installed = c.Key
				commits = append(commits, c.Key)
				mu.Unlock()
			}}, nil
		}),
	})
	rec := newRecorder(m)

	m.SetOnline(context.Background(), true)
	secrets.put("sina", Credentials{Key: "new", Secret: "s"})
	m.CredentialsUpdated(context.Background())
	rec.waitFor(t, StateAuthorized)

	close(release)
	m.Wait()

	mu.Lock()
	defer mu.Unlock()
	if installed != "new" {
		t.Errorf("installed caller = %q, want new", installed)
	}
	if diff := cmp.Diff([]string{"new"}, commits); diff != "" {
		t.Errorf("commits mismatch (-want +got):\n%s", diff)
	}
	if session, _ := m.Session(); session.UserID != "new" {
		t.Errorf("session user = %q, want new", session.UserID)
	}
	if session, _ := m.Session(); session.Commit != nil {
		t.Error("held session must not keep its commit hook")
	}
}

func TestCredentialsUpdatedWhileOfflineDoesNotExchange(t *testing.T) {
	t.Parallel()

	secrets := &memSecrets{}
	secrets.put("plurk", Credentials{Key: "a", Secret: "b"})
	var calls atomic.Int32
	m := NewMachine(Config{
		Service: "plurk",
		Secrets: secrets,
		Exchanger: ExchangerFunc(func(context.Context, Credentials) (Session, error) {
			calls.Add(1)
			return Session{}, nil
		}),
	})

	m.CredentialsUpdated(context.Background())
	m.Wait()

	if calls.Load() != 0 {
		t.Errorf("no exchange expected while offline, got %d", calls.Load())
	}
	if m.State() != StateOffline {
		t.Errorf("expected offline, got %s", m.State())
	}
}

func TestMarkUnauthorized(t *testing.T) {
	t.Parallel()

	secrets := &memSecrets{}
	secrets.put("youtube", Credentials{Key: "a", Secret: "b"})
	m := NewMachine(Config{
		Service:            "youtube",
		Secrets:            secrets,
		StaticCapabilities: []models.Capability{models.CapCanVerifyCredentials},
		Exchanger: ExchangerFunc(func(context.Context, Credentials) (Session, error) {
			return Session{Token: "t"}, nil
		}),
	})
	rec := newRecorder(m)

	m.MarkUnauthorized(errors.New("ignored"))
	if m.State() != StateOffline {
		t.Fatalf("MarkUnauthorized outside Authorized must be a no-op")
	}

	m.SetOnline(context.Background(), true)
	rec.waitFor(t, StateAuthorized)

	m.MarkUnauthorized(errors.New("401"))
	tr := rec.waitFor(t, StateUnauthorized)
	if tr.From != StateAuthorized {
		t.Errorf("expected transition from authorized, got %s", tr.From)
	}
	if _, ok := m.Session(); ok {
		t.Error("session should be cleared")
	}
}

func TestSecretStoreErrorIsUnconfigured(t *testing.T) {
	t.Parallel()

	m := NewMachine(Config{Service: "sina", Secrets: &memSecrets{err: errors.New("locked")}})
	m.SetOnline(context.Background(), true)
	if m.State() != StateUnconfigured {
		t.Errorf("expected unconfigured, got %s", m.State())
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	if StateUnauthorized.String() != "configured/unauthorized" {
		t.Errorf("unexpected %s", StateUnauthorized)
	}
	if State(42).String() != "unknown" {
		t.Errorf("unexpected %s", State(42))
	}
}
