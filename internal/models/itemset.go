// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package models

import (
	"errors"
	"sort"

	"github.com/goccy/go-json"
)

// ErrFrozenSet is returned when mutating a published ItemSet.
var ErrFrozenSet = errors.New("item set is frozen")

// ItemSet holds items keyed by id.
type ItemSet struct {
	items map[string]*Item
	// hidden masks ids of items, which is then shared with the frozen set
	// it was derived from. Only frozen sets carry it.
	hidden map[string]struct{}
	frozen bool
}

// NewItemSet returns an empty, mutable set.
func NewItemSet() *ItemSet {
	return &ItemSet{items: make(map[string]*Item)}
}

// Add inserts item, replacing any existing item with the same id.
// Items without an id are ignored.
func (s *ItemSet) Add(item *Item) error {
	if s.frozen {
		return ErrFrozenSet
	}
	if item == nil || item.ID() == "" {
		return nil
	}
	if s.items == nil {
		s.items = make(map[string]*Item)
	}
	s.items[item.ID()] = item
	return nil
}

// Merge adds every item of other, last write wins.
func (s *ItemSet) Merge(other *ItemSet) error {
	if other == nil {
		return nil
	}
	for id, it := range other.items {
		if other.masked(id) {
			continue
		}
		if err := s.Add(it); err != nil {
			return err
		}
	}
	return nil
}

func (s *ItemSet) masked(id string) bool {
	_, ok := s.hidden[id]
	return ok
}

// Len returns the number of items.
func (s *ItemSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items) - len(s.hidden)
}

// IsEmpty reports whether the set holds no items.
func (s *ItemSet) IsEmpty() bool { return s.Len() == 0 }

// Get returns the item with id.
func (s *ItemSet) Get(id string) (*Item, bool) {
	if s == nil {
		return nil, false
	}
	if s.masked(id) {
		return nil, false
	}
	it, ok := s.items[id]
	return it, ok
}

// Contains reports whether id is present.
func (s *ItemSet) Contains(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// Freeze makes the set immutable and returns it.
func (s *ItemSet) Freeze() *ItemSet {
	s.frozen = true
	return s
}

// Frozen reports whether the set has been frozen.
func (s *ItemSet) Frozen() bool { return s.frozen }

// Without returns a set lacking id and leaves the receiver untouched. A
// frozen receiver yields a frozen set sharing its items with id masked, so
// retracting one item does not copy the set. An unfrozen receiver yields an
// unfrozen copy.
func (s *ItemSet) Without(id string) *ItemSet {
	if s == nil || !s.frozen {
		return s.Filter(func(it *Item) bool { return it.ID() != id })
	}
	if !s.Contains(id) {
		return s
	}
	hidden := make(map[string]struct{}, len(s.hidden)+1)
	for h := range s.hidden {
		hidden[h] = struct{}{}
	}
	hidden[id] = struct{}{}
	return &ItemSet{items: s.items, hidden: hidden, frozen: true}
}

// Filter returns a new unfrozen set of the items for which keep is true.
func (s *ItemSet) Filter(keep func(*Item) bool) *ItemSet {
	out := NewItemSet()
	if s == nil {
		return out
	}
	for id, it := range s.items {
		if !s.masked(id) && keep(it) {
			out.items[id] = it
		}
	}
	return out
}

// Clone returns a deep, unfrozen copy.
func (s *ItemSet) Clone() *ItemSet {
	out := NewItemSet()
	if s == nil {
		return out
	}
	for id, it := range s.items {
		if !s.masked(id) {
			out.items[id] = it.Clone()
		}
	}
	return out
}

// IDs returns the ids in sorted order.
func (s *ItemSet) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, s.Len())
	for id := range s.items {
		if !s.masked(id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Items returns the items newest first, ties broken by id.
func (s *ItemSet) Items() []*Item {
	if s == nil {
		return nil
	}
	out := make([]*Item, 0, s.Len())
	for id, it := range s.items {
		if !s.masked(id) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		da, db := out[a].Date(), out[b].Date()
		if da != db {
			return da > db
		}
		return out[a].ID() < out[b].ID()
	})
	return out
}

// MarshalJSON encodes the set as an array of items.
func (s *ItemSet) MarshalJSON() ([]byte, error) {
	items := s.Items()
	if items == nil {
		items = []*Item{}
	}
	return json.Marshal(items)
}

// UnmarshalJSON decodes an array of items into an unfrozen set.
func (s *ItemSet) UnmarshalJSON(data []byte) error {
	var items []*Item
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	s.items = make(map[string]*Item, len(items))
	s.hidden = nil
	s.frozen = false
	for _, it := range items {
		if it != nil && it.ID() != "" {
			s.items[it.ID()] = it
		}
	}
	return nil
}
