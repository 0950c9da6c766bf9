// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/feedloom/internal/logging"
	"github.com/tomtom215/feedloom/internal/metrics"
	"github.com/tomtom215/feedloom/internal/models"
)

const (
	itemsKeyPrefix = "items:"
	cacheTypeItems = "items"
)

// storedSet is the persisted form of one cached item set.
type storedSet struct {
	SavedAt time.Time       `json:"saved_at"`
	Items   *models.ItemSet `json:"items"`
}

// Store persists item sets keyed by (service, query, fingerprint) in
// BadgerDB. It is advisory: read failures are reported as misses.
type Store struct {
	db         *badger.DB
	defaultTTL time.Duration

	mu   sync.RWMutex
	ttls map[string]time.Duration
}

// NewStore wraps an open BadgerDB. defaultTTL <= 0 keeps entries forever.
func NewStore(db *badger.DB, defaultTTL time.Duration) *Store {
	return &Store{db: db, defaultTTL: defaultTTL, ttls: make(map[string]time.Duration)}
}

// OpenDB opens a BadgerDB at path, or an in-memory one when path is empty.
func OpenDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return db, nil
}

// SetTTL overrides the entry lifetime for one service.
func (s *Store) SetTTL(service string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttls[service] = ttl
}

func (s *Store) ttlFor(service string) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ttl, ok := s.ttls[service]; ok {
		return ttl
	}
	return s.defaultTTL
}

func itemsKey(service, query, fingerprint string) []byte {
	return []byte(itemsKeyPrefix + service + ":" + query + ":" + fingerprint)
}

// Load returns the cached set, or false on a miss or unreadable entry.
func (s *Store) Load(service, query, fingerprint string) (*models.ItemSet, bool) {
	var entry storedSet
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(itemsKey(service, query, fingerprint))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		metrics.CacheMisses.WithLabelValues(cacheTypeItems).Inc()
		return nil, false
	}
	if err != nil {
		metrics.CacheErrors.WithLabelValues(cacheTypeItems, "load").Inc()
		logging.Warn().Err(err).Str("service", service).Str("query", query).Msg("Ignoring unreadable cache entry")
		return nil, false
	}
	if entry.Items == nil {
		metrics.CacheMisses.WithLabelValues(cacheTypeItems).Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues(cacheTypeItems).Inc()
	return entry.Items, true
}

// Save overwrites the cached set.
func (s *Store) Save(service, query, fingerprint string, set *models.ItemSet) error {
	if set == nil {
		set = models.NewItemSet()
	}
	data, err := json.Marshal(storedSet{SavedAt: time.Now().UTC(), Items: set})
	if err != nil {
		return fmt.Errorf("marshal item set: %w", err)
	}

	ttl := s.ttlFor(service)
	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(itemsKey(service, query, fingerprint), data)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		metrics.CacheErrors.WithLabelValues(cacheTypeItems, "save").Inc()
		return fmt.Errorf("save cache entry: %w", err)
	}
	return nil
}

// DropAll removes every entry belonging to service.
func (s *Store) DropAll(service string) error {
	prefix := []byte(itemsKeyPrefix + service + ":")

	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("list cache entries: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("delete cache entry: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush cache deletes: %w", err)
	}

	logging.Debug().Str("service", service).Int("entries", len(keys)).Msg("Dropped cached item sets")
	return nil
}
