// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package credentials

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/tomtom215/feedloom/internal/logging"
	"github.com/tomtom215/feedloom/internal/metrics"
	"github.com/tomtom215/feedloom/internal/models"
)

// State is the credential state of a service.
type State int

const (
	StateOffline State = iota
	StateUnconfigured
	StateUnauthorized
	StateAuthorized
)

func (s State) String() string {
	switch s {
	case StateOffline:
		return "offline"
	case StateUnconfigured:
		return "unconfigured"
	case StateUnauthorized:
		return "configured/unauthorized"
	case StateAuthorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// Credentials is the (key, secret) pair kept in the secret store. For
// password services this is username/password; for OAuth 1.0a services it
// is the access token and token secret.
type Credentials struct {
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

// Session is what a successful exchange yields.
type Session struct {
	UserID    string
	Nickname  string
	AvatarURL string
	Token     string
	// Commit installs the authenticated caller in the connector. The
	// machine runs it only for the current exchange, before announcing
	// Authorized. Nil means nothing to install.
	Commit func()
}

// SecretSource looks up stored credentials.
type SecretSource interface {
	Get(service string) (Credentials, bool, error)
}

// Exchanger trades stored credentials for a session with the upstream API.
type Exchanger interface {
	Exchange(ctx context.Context, creds Credentials) (Session, error)
}

// ExchangerFunc adapts a function to Exchanger.
type ExchangerFunc func(ctx context.Context, creds Credentials) (Session, error)

// Exchange implements Exchanger.
func (f ExchangerFunc) Exchange(ctx context.Context, creds Credentials) (Session, error) {
	return f(ctx, creds)
}

// Transition describes one applied state change.
type Transition struct {
	Service      string
	From         State
	To           State
	Capabilities models.CapabilitySet
	// UserChanged is set on every credentials update, and when an
	// exchange authorized a different user than the previous one.
	UserChanged bool
	// Err is the exchange or API error that caused the transition, if any.
	Err error
}

// Config configures a Machine.
type Config struct {
	Service            string
	Secrets            SecretSource
	Exchanger          Exchanger
	StaticCapabilities []models.Capability
	// Reset drops the connector's authenticated caller. It runs under the
	// machine lock whenever the session is cleared, so it never races a
	// Commit.
	Reset func()
	// ExchangeTimeout bounds one exchange call. Default 30s.
	ExchangeTimeout time.Duration
}

// Machine is the credential state machine for one service.
type Machine struct {
	service   string
	secrets   SecretSource
	exchanger Exchanger
	static    []models.Capability
	reset     func()
	timeout   time.Duration

	mu         sync.Mutex
	state      State
	online     bool
	configured bool
	session    *Session
	lastUserID string
	generation uint64
	listeners  []func(Transition)
	pending    []Transition

	// notifyMu serialises listener delivery so transitions arrive in order.
	notifyMu sync.Mutex
	wg       sync.WaitGroup
}

// NewMachine creates a machine in the Offline state.
func NewMachine(cfg Config) *Machine {
	timeout := cfg.ExchangeTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Machine{
		service:   cfg.Service,
		secrets:   cfg.Secrets,
		exchanger: cfg.Exchanger,
		static:    append([]models.Capability(nil), cfg.StaticCapabilities...),
		reset:     cfg.Reset,
		timeout:   timeout,
		state:     StateOffline,
	}
}

// OnTransition registers a listener. Listeners must not call SetOnline,
// CredentialsUpdated or MarkUnauthorized synchronously.
func (m *Machine) OnTransition(fn func(Transition)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Service returns the service name.
func (m *Machine) Service() string { return m.service }

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Online reports the last connectivity edge seen.
func (m *Machine) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Capabilities returns the current capability set.
func (m *Machine) Capabilities() models.CapabilitySet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return CapabilitiesFor(m.state, m.configured, m.static)
}

// Session returns a copy of the current session, if authorized.
func (m *Machine) Session() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

// SetOnline applies a connectivity edge.
func (m *Machine) SetOnline(ctx context.Context, online bool) {
	m.mu.Lock()
	m.online = online
	if online {
		m.connectLocked(ctx)
	} else {
		m.disconnectLocked()
	}
	m.mu.Unlock()
	m.flush()
}

// CredentialsUpdated forces a fresh exchange, as if connectivity dropped
// and came back. The new pair may belong to another account, so the
// Offline transition always carries UserChanged, whatever the exchange
// later returns.
func (m *Machine) CredentialsUpdated(ctx context.Context) {
	m.mu.Lock()
	m.generation++
	m.clearSessionLocked()
	m.lastUserID = ""
	m.setStateLocked(StateOffline, true, nil)
	if m.online {
		m.connectLocked(ctx)
	}
	m.mu.Unlock()
	m.flush()
}

// MarkUnauthorized records that the upstream rejected the session during
// normal use. It is a no-op outside Authorized.
func (m *Machine) MarkUnauthorized(err error) {
	m.mu.Lock()
	if m.state != StateAuthorized {
		m.mu.Unlock()
		return
	}
	m.generation++
	m.clearSessionLocked()
	m.setStateLocked(StateUnauthorized, false, err)
	m.mu.Unlock()

	logging.Warn().Err(err).Str("service", m.service).Msg("Credentials rejected by upstream")
	m.flush()
}

// Wait blocks until every exchange goroutine has finished.
func (m *Machine) Wait() {
	m.wg.Wait()
}

func (m *Machine) clearSessionLocked() {
	m.session = nil
	if m.reset != nil {
		m.reset()
	}
}

func (m *Machine) disconnectLocked() {
	m.generation++
	m.clearSessionLocked()
	m.setStateLocked(StateOffline, false, nil)
}

func (m *Machine) connectLocked(ctx context.Context) {
	m.generation++
	gen := m.generation

	var (
		creds Credentials
		ok    bool
		err   error
	)
	if m.secrets != nil {
		creds, ok, err = m.secrets.Get(m.service)
	}
	if err != nil {
		logging.Err(err).Str("service", m.service).Msg("Secret store lookup failed")
	}
	if err != nil || !ok {
		m.configured = false
		m.clearSessionLocked()
		m.setStateLocked(StateUnconfigured, false, nil)
		return
	}

	m.configured = true
	m.clearSessionLocked()
	// The exchange result decides the next state; until then the service
	// reports Offline.
	m.setStateLocked(StateOffline, false, nil)

	if m.exchanger == nil {
		m.session = &Session{}
		m.setStateLocked(StateAuthorized, false, nil)
		return
	}

	exCtx := context.WithoutCancel(ctx)
	m.wg.Add(1)
	go m.exchange(exCtx, gen, creds)
}

func (m *Machine) exchange(ctx context.Context, gen uint64, creds Credentials) {
	defer m.wg.Done()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	session, err := m.exchanger.Exchange(ctx, creds)

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		logging.Debug().Str("service", m.service).Msg("Discarding stale credential exchange result")
		return
	}
	if err != nil {
		m.clearSessionLocked()
		m.setStateLocked(StateUnauthorized, false, err)
		m.mu.Unlock()
		logging.Warn().Err(err).Str("service", m.service).Msg("Credential exchange failed")
		m.flush()
		return
	}

	userChanged := m.lastUserID != "" && session.UserID != "" && session.UserID != m.lastUserID
	if session.UserID != "" {
		m.lastUserID = session.UserID
	}
	if session.Commit != nil {
		session.Commit()
		session.Commit = nil
	}
	m.session = &session
	m.setStateLocked(StateAuthorized, userChanged, nil)
	m.mu.Unlock()

	logging.Info().Str("service", m.service).Str("user_id", session.UserID).Msg("Credential exchange succeeded")
	m.flush()
}

// setStateLocked moves to state and queues a transition when the state or
// the announced capabilities changed.
func (m *Machine) setStateLocked(to State, userChanged bool, cause error) {
	from := m.state
	before := CapabilitiesFor(from, m.configured, m.static)
	m.state = to
	after := CapabilitiesFor(to, m.configured, m.static)

	if from == to && before.Equal(after) && !userChanged {
		return
	}

	metrics.RecordCredentialTransition(m.service, from.String(), to.String(), float64(to))
	logging.Debug().
		Str("service", m.service).
		Str("from", from.String()).
		Str("to", to.String()).
		Strs("capabilities", after.Strings()).
		Msg("Credential state changed")

	m.pending = append(m.pending, Transition{
		Service:      m.service,
		From:         from,
		To:           to,
		Capabilities: after,
		UserChanged:  userChanged,
		Err:          cause,
	})
}

// flush delivers queued transitions in order.
func (m *Machine) flush() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	for {
		m.mu.Lock()
		if len(m.pending) == 0 {
			m.mu.Unlock()
			return
		}
		tr := m.pending[0]
		m.pending = m.pending[1:]
		listeners := slices.Clone(m.listeners)
		m.mu.Unlock()

		for _, fn := range listeners {
			fn(tr)
		}
	}
}
