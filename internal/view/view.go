// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/feedloom/internal/cache"
	"github.com/tomtom215/feedloom/internal/logging"
	"github.com/tomtom215/feedloom/internal/metrics"
	"github.com/tomtom215/feedloom/internal/models"
	"github.com/tomtom215/feedloom/internal/remote"
)

const (
	// DefaultInterval is the refresh period when none is configured.
	DefaultInterval = 300 * time.Second

	defaultFetchTimeout = 60 * time.Second
)

var (
	// ErrAlreadyRunning is returned by Start on a running view.
	ErrAlreadyRunning = errors.New("view already running")

	// ErrNotRunning is returned by Stop and Refresh on a stopped view.
	ErrNotRunning = errors.New("view not running")
)

// Fetcher runs one fetch cycle for a query. Services that need several
// upstream calls concatenate them before returning.
type Fetcher interface {
	Fetch(ctx context.Context, query string, params map[string]string) (*models.ItemSet, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, query string, params map[string]string) (*models.ItemSet, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, query string, params map[string]string) (*models.ItemSet, error) {
	return f(ctx, query, params)
}

// Cache is the persistence a view reads on start and writes after each
// successful fetch.
type Cache interface {
	Load(service, query, fingerprint string) (*models.ItemSet, bool)
	Save(service, query, fingerprint string, set *models.ItemSet) error
	DropAll(service string) error
}

// Config configures a View.
type Config struct {
	ID      string
	Service string
	Query   string
	Params  map[string]string

	// Interval between timer-driven refreshes. Default DefaultInterval.
	Interval time.Duration
	// FetchTimeout bounds one fetch cycle. Default 60s.
	FetchTimeout time.Duration

	Fetcher Fetcher
	// Cache is optional.
	Cache Cache
	// Banned reports ids to drop at publish time. Optional.
	Banned func(id string) bool

	// Publish receives every published set, frozen. It is called with the
	// view's lock held and must not call back into the view.
	Publish func(*models.ItemSet)
	// OnAuthError is called, without locks held, when a fetch fails with
	// an authentication error.
	OnAuthError func(error)

	// Authorized is the credential state at creation.
	Authorized bool

	// Context is the parent of every fetch. Default context.Background().
	Context context.Context
}

// View is one open query.
type View struct {
	id          string
	service     string
	query       string
	params      map[string]string
	fingerprint string
	interval    time.Duration
	timeout     time.Duration

	fetcher     Fetcher
	cache       Cache
	banned      func(string) bool
	publish     func(*models.ItemSet)
	onAuthError func(error)
	baseCtx     context.Context

	mu         sync.Mutex
	running    bool
	authorized bool
	// generation changes on Start, Stop and user change; completions from
	// an older generation are discarded.
	generation uint64
	timerStop  chan struct{}
	published  *models.ItemSet
	// issued numbers fetches in issue order; newest is the issue number
	// of the most recent fetch that was published.
	issued uint64
	newest uint64

	inflight sync.WaitGroup
}

// New creates a stopped view.
func New(cfg Config) *View {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Publish == nil {
		cfg.Publish = func(*models.ItemSet) {}
	}

	return &View{
		id:          cfg.ID,
		service:     cfg.Service,
		query:       cfg.Query,
		params:      cfg.Params,
		fingerprint: cache.Fingerprint(cfg.Query, cfg.Params),
		interval:    cfg.Interval,
		timeout:     cfg.FetchTimeout,
		fetcher:     cfg.Fetcher,
		cache:       cfg.Cache,
		banned:      cfg.Banned,
		publish:     cfg.Publish,
		onAuthError: cfg.OnAuthError,
		baseCtx:     cfg.Context,
		authorized:  cfg.Authorized,
		published:   models.NewItemSet().Freeze(),
	}
}

// ID returns the view handle.
func (v *View) ID() string { return v.id }

// Service returns the owning service name.
func (v *View) Service() string { return v.service }

// Query returns the query name.
func (v *View) Query() string { return v.query }

// Params returns the query parameters.
func (v *View) Params() map[string]string { return v.params }

// Running reports whether the view is started.
func (v *View) Running() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.running
}

// Items returns the last published set.
func (v *View) Items() *models.ItemSet {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.published
}

// Start loads the cache, arms the timer and issues the first fetch.
func (v *View) Start() error {
	v.mu.Lock()
	if v.running {
		v.mu.Unlock()
		logging.Warn().Str("view_id", v.id).Str("service", v.service).Msg("Start called on running view")
		return ErrAlreadyRunning
	}
	v.running = true
	v.generation++

	if v.cache != nil {
		if set, ok := v.cache.Load(v.service, v.query, v.fingerprint); ok {
			v.publishLocked(set, "cache")
		}
	}

	var gen uint64
	fetch := v.authorized
	if fetch {
		v.armLocked()
		gen = v.generation
	}
	v.mu.Unlock()

	logging.Debug().Str("view_id", v.id).Str("service", v.service).Str("query", v.query).Msg("View started")
	if fetch {
		v.dispatch(gen)
	}
	return nil
}

// Stop cancels the timer. The last published set is kept.
func (v *View) Stop() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.running {
		logging.Warn().Str("view_id", v.id).Str("service", v.service).Msg("Stop called on stopped view")
		return ErrNotRunning
	}
	v.running = false
	v.generation++
	v.cancelTimerLocked()

	logging.Debug().Str("view_id", v.id).Str("service", v.service).Msg("View stopped")
	return nil
}

// Refresh issues one fetch out of band without resetting the timer.
// While the service is not authorized the call is skipped.
func (v *View) Refresh() error {
	v.mu.Lock()
	if !v.running {
		v.mu.Unlock()
		logging.Warn().Str("view_id", v.id).Str("service", v.service).Msg("Refresh called on stopped view")
		return ErrNotRunning
	}
	if !v.authorized {
		v.mu.Unlock()
		logging.Debug().Str("view_id", v.id).Str("service", v.service).Msg("Skipping refresh while unauthorized")
		return nil
	}
	gen := v.generation
	v.mu.Unlock()

	v.dispatch(gen)
	return nil
}

// SetAuthorized applies a capability change of the owning service.
func (v *View) SetAuthorized(authorized bool) {
	v.mu.Lock()
	if v.authorized == authorized {
		v.mu.Unlock()
		return
	}
	v.authorized = authorized
	if !v.running {
		v.mu.Unlock()
		return
	}
	if !authorized {
		v.cancelTimerLocked()
		v.mu.Unlock()
		logging.Debug().Str("view_id", v.id).Str("service", v.service).Msg("View idle until reauthorized")
		return
	}
	v.armLocked()
	gen := v.generation
	v.mu.Unlock()

	v.dispatch(gen)
}

// UserChanged publishes an empty set and drops the service's cache.
// Fetches already in flight for the previous user are discarded.
func (v *View) UserChanged() {
	v.mu.Lock()
	v.generation++
	v.publishLocked(models.NewItemSet(), "user-changed")
	v.mu.Unlock()

	if v.cache != nil {
		if err := v.cache.DropAll(v.service); err != nil {
			logging.Warn().Err(err).Str("service", v.service).Msg("Failed to drop cache after user change")
		}
	}
}

// HideItem removes id from the published set and republishes. The
// published set is already filtered, so it is masked rather than copied.
// A later fetch that returns the item again brings it back.
func (v *View) HideItem(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.published.Contains(id) {
		return false
	}
	v.setPublishedLocked(v.published.Without(id), "hide")
	return true
}

// Wait blocks until every in-flight fetch has completed.
func (v *View) Wait() {
	v.inflight.Wait()
}

func (v *View) armLocked() {
	if v.timerStop != nil {
		return
	}
	stop := make(chan struct{})
	v.timerStop = stop
	go v.tick(stop)
}

func (v *View) cancelTimerLocked() {
	if v.timerStop == nil {
		return
	}
	close(v.timerStop)
	v.timerStop = nil
}

func (v *View) tick(stop <-chan struct{}) {
	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			v.fire(stop)
		}
	}
}

// fire is a timer-driven refresh. A fire that lost the race with
// cancellation is dropped silently.
func (v *View) fire(stop <-chan struct{}) {
	v.mu.Lock()
	select {
	case <-stop:
		v.mu.Unlock()
		return
	default:
	}
	if !v.running || !v.authorized {
		v.mu.Unlock()
		return
	}
	gen := v.generation
	v.mu.Unlock()

	v.dispatch(gen)
}

func (v *View) dispatch(gen uint64) {
	v.mu.Lock()
	v.issued++
	seq := v.issued
	v.mu.Unlock()

	v.inflight.Add(1)
	go v.runFetch(gen, seq)
}

func (v *View) runFetch(gen, seq uint64) {
	defer v.inflight.Done()

	ctx := logging.ContextWithNewCorrelationID(v.baseCtx)
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	start := time.Now()
	set, err := v.fetcher.Fetch(ctx, v.query, v.params)
	elapsed := time.Since(start)

	if err != nil {
		metrics.RecordFetchCycle(v.service, v.query, remote.Outcome(err), elapsed, 0)
		logging.Ctx(ctx).Warn().Err(err).
			Str("view_id", v.id).
			Str("service", v.service).
			Str("query", v.query).
			Msg("Fetch failed, keeping previous items")
		if remote.IsAuthError(err) && v.onAuthError != nil {
			v.onAuthError(err)
		}
		return
	}

	v.mu.Lock()
	if gen != v.generation || !v.running {
		v.mu.Unlock()
		logging.Ctx(ctx).Debug().Str("view_id", v.id).Msg("Discarding fetch result for stale view generation")
		return
	}
	if seq < v.newest {
		v.mu.Unlock()
		metrics.RecordFetchCycle(v.service, v.query, "superseded", elapsed, 0)
		logging.Ctx(ctx).Debug().Str("view_id", v.id).Msg("Discarding fetch result superseded by a later refresh")
		return
	}
	v.newest = seq
	published := v.publishLocked(set, "fetch")
	v.mu.Unlock()

	metrics.RecordFetchCycle(v.service, v.query, "ok", elapsed, published.Len())

	if v.cache != nil {
		if err := v.cache.Save(v.service, v.query, v.fingerprint, published); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("service", v.service).Msg("Failed to write item cache")
		}
	}
}

// publishLocked filters set, stores it as the published set and hands
// it to the subscriber.
func (v *View) publishLocked(set *models.ItemSet, source string) *models.ItemSet {
	return v.setPublishedLocked(v.filter(set).Freeze(), source)
}

func (v *View) setPublishedLocked(out *models.ItemSet, source string) *models.ItemSet {
	v.published = out
	logging.Debug().
		Str("view_id", v.id).
		Str("service", v.service).
		Str("source", source).
		Int("items", out.Len()).
		Msg("Publishing items")
	v.publish(out)
	return out
}

// filter drops banned ids and items missing required fields.
func (v *View) filter(set *models.ItemSet) *models.ItemSet {
	if set == nil {
		return models.NewItemSet()
	}
	var banned, invalid int
	out := set.Filter(func(it *models.Item) bool {
		if !it.Valid() {
			invalid++
			return false
		}
		if v.banned != nil && v.banned(it.ID()) {
			banned++
			return false
		}
		return true
	})
	if banned > 0 {
		metrics.RecordItemsDropped(v.service, "banned", banned)
	}
	if invalid > 0 {
		metrics.RecordItemsDropped(v.service, "missing_field", invalid)
		logging.Warn().Str("service", v.service).Int("items", invalid).Msg("Dropped items missing id or date")
	}
	return out
}
