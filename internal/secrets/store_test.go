// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package secrets

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/feedloom/internal/credentials"
)

func openDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newStore(t *testing.T, key string) (*Store, *badger.DB) {
	t.Helper()
	enc, err := NewEncryptor(key)
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}
	db := openDB(t)
	return NewStore(db, enc), db
}

func TestNewEncryptor(t *testing.T) {
	t.Parallel()

	if _, err := NewEncryptor(""); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
	if _, err := NewEncryptor("x"); err != nil {
		t.Errorf("short keys are valid input to HKDF: %v", err)
	}
}

func TestEncryptor_SealOpen(t *testing.T) {
	t.Parallel()

	enc, _ := NewEncryptor("k1")
	sealed, err := enc.Seal([]byte("token"), []byte("aad"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Contains(sealed, []byte("token")) {
		t.Error("plaintext leaked into sealed value")
	}

	again, _ := enc.Seal([]byte("token"), []byte("aad"))
	if bytes.Equal(sealed, again) {
		t.Error("nonce reuse: identical ciphertexts")
	}

	plain, err := enc.Open(sealed, []byte("aad"))
	if err != nil || string(plain) != "token" {
		t.Fatalf("open: %q %v", plain, err)
	}

	tests := []struct {
		name   string
		sealed []byte
		aad    []byte
		want   error
	}{
		{"wrong aad", sealed, []byte("other"), ErrDecryptionFailed},
		{"too short", sealed[:5], []byte("aad"), ErrCiphertextTooShort},
		{"tampered", append(append([]byte(nil), sealed[:len(sealed)-1]...), sealed[len(sealed)-1]^0xff), []byte("aad"), ErrDecryptionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := enc.Open(tt.sealed, tt.aad); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	other, _ := NewEncryptor("k2")
	if _, err := other.Open(sealed, []byte("aad")); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("wrong key must fail, got %v", err)
	}
}

func TestStore_PutGetDelete(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, "secret")

	if _, ok, err := store.Get("plurk"); ok || err != nil {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	want := credentials.Credentials{Key: "alice", Secret: "hunter2"}
	if err := store.Put("plurk", want); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := store.Get("plurk")
	if err != nil || !ok || got != want {
		t.Fatalf("get: %+v %v %v", got, ok, err)
	}

	if _, ok, _ := store.Get("sina"); ok {
		t.Error("secrets must be per service")
	}

	if err := store.Delete("plurk"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get("plurk"); ok {
		t.Error("expected deleted secret to be gone")
	}
	if err := store.Delete("plurk"); err != nil {
		t.Errorf("deleting a missing secret should succeed: %v", err)
	}
}

func TestStore_ValuesBoundToService(t *testing.T) {
	t.Parallel()

	store, db := newStore(t, "secret")
	_ = store.Put("digg", credentials.Credentials{Key: "token", Secret: "tsecret"})

	// Copying digg's sealed value under another service must not decrypt.
	err := db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(secretKey("digg"))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return txn.Set(secretKey("myspace"), val)
	})
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if _, _, err := store.Get("myspace"); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected decryption failure, got %v", err)
	}
}

func TestStore_WrongKeyIsError(t *testing.T) {
	t.Parallel()

	store, db := newStore(t, "first")
	_ = store.Put("youtube", credentials.Credentials{Key: "u", Secret: "p"})

	enc, _ := NewEncryptor("second")
	other := NewStore(db, enc)
	if _, ok, err := other.Get("youtube"); err == nil || ok {
		t.Errorf("expected error with rotated key, got ok=%v err=%v", ok, err)
	}
}

func TestMask(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":           "",
		"abc":        "****",
		"abcd":       "****",
		"abcdefgh12": "****...gh12",
	}
	for in, want := range tests {
		if got := Mask(in); got != want {
			t.Errorf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
}
