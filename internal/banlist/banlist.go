// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package banlist persists item ids the user chose to hide permanently.
//
// Bans live in a SQLite table and are mirrored in memory so the
// publish-time filter never touches disk.
package banlist

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/tomtom215/feedloom/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS banned (
	service    TEXT NOT NULL,
	item_id    TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (service, item_id)
);
`

// Entry is one banned item.
type Entry struct {
	Service   string    `json:"service"`
	ItemID    string    `json:"item_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the banned-id store.
type Store struct {
	db *sql.DB

	mu     sync.RWMutex
	banned map[string]map[string]struct{}
}

// Open opens (or creates) the database at path and loads existing bans.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create banlist dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open banlist: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize banlist schema: %w", err)
	}

	s := &Store{db: db, banned: make(map[string]map[string]struct{})}
	if err := s.load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT service, item_id FROM banned`)
	if err != nil {
		return fmt.Errorf("load bans: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var service, id string
		if err := rows.Scan(&service, &id); err != nil {
			return fmt.Errorf("scan ban: %w", err)
		}
		s.remember(service, id)
		n++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate bans: %w", err)
	}
	logging.Debug().Int("bans", n).Msg("Loaded banlist")
	return nil
}

func (s *Store) remember(service, id string) {
	ids, ok := s.banned[service]
	if !ok {
		ids = make(map[string]struct{})
		s.banned[service] = ids
	}
	ids[id] = struct{}{}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ban records id as banned for service. Banning twice is a no-op.
func (s *Store) Ban(ctx context.Context, service, id string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO banned (service, item_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(service, item_id) DO NOTHING`,
		service, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ban %s/%s: %w", service, id, err)
	}

	s.mu.Lock()
	s.remember(service, id)
	s.mu.Unlock()
	return nil
}

// Unban removes a ban.
func (s *Store) Unban(ctx context.Context, service, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM banned WHERE service = ? AND item_id = ?`, service, id); err != nil {
		return fmt.Errorf("unban %s/%s: %w", service, id, err)
	}

	s.mu.Lock()
	delete(s.banned[service], id)
	s.mu.Unlock()
	return nil
}

// IsBanned reports whether id is banned for service.
func (s *Store) IsBanned(service, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.banned[service][id]
	return ok
}

// List returns the bans of service, oldest first.
func (s *Store) List(ctx context.Context, service string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT service, item_id, created_at FROM banned WHERE service = ? ORDER BY created_at, item_id`, service)
	if err != nil {
		return nil, fmt.Errorf("list bans: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Service, &e.ItemID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ban: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// IDs returns the banned ids of service from memory, sorted.
func (s *Store) IDs(service string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.banned[service]))
	for id := range s.banned[service] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Predicate returns a filter reporting whether an id of service is banned.
// It sees bans added after it was created.
func (s *Store) Predicate(service string) func(id string) bool {
	return func(id string) bool {
		return s.IsBanned(service, id)
	}
}
