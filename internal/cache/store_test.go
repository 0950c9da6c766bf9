// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package cache

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/feedloom/internal/models"
)

func newTestStore(t *testing.T) (*Store, *badger.DB) {
	t.Helper()
	db, err := OpenDB("")
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db, 0), db
}

func sampleSet() *models.ItemSet {
	s := models.NewItemSet()
	for _, id := range []string{"1", "2"} {
		it := models.NewItem("plurk", id)
		it.Set(models.FieldDate, "2010-01-0"+id+"T00:00:00Z")
		it.Set(models.FieldContent, "says hello "+id)
		it.AddFetch(models.FieldAuthorIcon, "http://avatars.plurk.com/"+id+"-medium.gif")
		_ = s.Add(it)
	}
	return s.Freeze()
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	fp := Fingerprint("feed", nil)
	want := sampleSet()

	if err := store.Save("plurk", "feed", fp, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok := store.Load("plurk", "feed", fp)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if diff := cmp.Diff(want.IDs(), got.IDs()); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	for _, id := range want.IDs() {
		w, _ := want.Get(id)
		g, _ := got.Get(id)
		if diff := cmp.Diff(w, g); diff != "" {
			t.Errorf("item %s mismatch (-want +got):\n%s", id, diff)
		}
	}
}

func TestStoreMiss(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	if set, ok := store.Load("digg", "feed", "nope"); ok || set != nil {
		t.Errorf("expected miss, got %v %v", set, ok)
	}
}

func TestStoreCorruptEntryIsMiss(t *testing.T) {
	t.Parallel()

	store, db := newTestStore(t)
	err := db.Update(func(txn *badger.Txn) error {
		return txn.Set(itemsKey("sina", "feed", "fp"), []byte("{not json"))
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok := store.Load("sina", "feed", "fp"); ok {
		t.Error("corrupt entry must be treated as a miss")
	}
}

func TestStoreDropAllIsScopedToService(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	set := sampleSet()
	_ = store.Save("plurk", "feed", "a", set)
	_ = store.Save("plurk", "own", "b", set)
	_ = store.Save("plurkish", "feed", "a", set)
	_ = store.Save("sina", "feed", "a", set)

	if err := store.DropAll("plurk"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if _, ok := store.Load("plurk", "feed", "a"); ok {
		t.Error("plurk feed entry should be dropped")
	}
	if _, ok := store.Load("plurk", "own", "b"); ok {
		t.Error("plurk own entry should be dropped")
	}
	if _, ok := store.Load("plurkish", "feed", "a"); !ok {
		t.Error("entries of a service sharing a name prefix must survive")
	}
	if _, ok := store.Load("sina", "feed", "a"); !ok {
		t.Error("other services must survive")
	}
}

func TestStoreTTL(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	store.SetTTL("youtube", time.Second)
	if store.ttlFor("youtube") != time.Second {
		t.Errorf("unexpected ttl %v", store.ttlFor("youtube"))
	}
	if store.ttlFor("digg") != 0 {
		t.Errorf("expected default ttl, got %v", store.ttlFor("digg"))
	}
	if err := store.Save("youtube", "feed", "fp", sampleSet()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok := store.Load("youtube", "feed", "fp"); !ok {
		t.Error("entry should be readable before expiry")
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	_ = store.Save("digg", "feed", "fp", sampleSet())
	_ = store.Save("digg", "feed", "fp", models.NewItemSet())

	got, ok := store.Load("digg", "feed", "fp")
	if !ok {
		t.Fatal("expected hit")
	}
	if !got.IsEmpty() {
		t.Errorf("expected the later empty set, got %v", got.IDs())
	}
}
