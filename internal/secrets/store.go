// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package secrets

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/feedloom/internal/credentials"
	"github.com/tomtom215/feedloom/internal/logging"
)

const keyPrefix = "secret:"

// Store is a badger-backed, encrypted credentials.SecretSource.
type Store struct {
	db  *badger.DB
	enc *Encryptor
}

var _ credentials.SecretSource = (*Store)(nil)

// NewStore returns a store writing into db.
func NewStore(db *badger.DB, enc *Encryptor) *Store {
	return &Store{db: db, enc: enc}
}

func secretKey(service string) []byte {
	return []byte(keyPrefix + service)
}

// Get returns the stored credentials for service. ok is false when none
// are stored.
func (s *Store) Get(service string) (credentials.Credentials, bool, error) {
	var sealed []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(secretKey(service))
		if err != nil {
			return err
		}
		sealed, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return credentials.Credentials{}, false, nil
	}
	if err != nil {
		return credentials.Credentials{}, false, fmt.Errorf("read secret for %s: %w", service, err)
	}

	plain, err := s.enc.Open(sealed, secretKey(service))
	if err != nil {
		return credentials.Credentials{}, false, fmt.Errorf("open secret for %s: %w", service, err)
	}

	var creds credentials.Credentials
	if err := json.Unmarshal(plain, &creds); err != nil {
		return credentials.Credentials{}, false, fmt.Errorf("decode secret for %s: %w", service, err)
	}
	if creds.Key == "" && creds.Secret == "" {
		return credentials.Credentials{}, false, nil
	}
	return creds, true, nil
}

// Put stores creds for service, replacing any previous value.
func (s *Store) Put(service string, creds credentials.Credentials) error {
	plain, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode secret for %s: %w", service, err)
	}
	sealed, err := s.enc.Seal(plain, secretKey(service))
	if err != nil {
		return fmt.Errorf("seal secret for %s: %w", service, err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(secretKey(service), sealed)
	}); err != nil {
		return fmt.Errorf("write secret for %s: %w", service, err)
	}
	logging.Debug().Str("service", service).Msg("Stored credentials")
	return nil
}

// Delete removes the credentials for service. Deleting a missing entry
// is not an error.
func (s *Store) Delete(service string) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(secretKey(service))
	}); err != nil {
		return fmt.Errorf("delete secret for %s: %w", service, err)
	}
	return nil
}

// Mask returns a display-safe form of a secret.
func Mask(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= 4:
		return "****"
	default:
		return "****..." + secret[len(secret)-4:]
	}
}
