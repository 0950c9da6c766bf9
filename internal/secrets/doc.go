// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package secrets stores per-service credentials encrypted at rest.
//
// Values are sealed with AES-256-GCM using a key derived from the
// configured security.secret_key via HKDF-SHA256, and kept in BadgerDB
// under "secret:<service>". Every operation either fully succeeds or
// returns an error; there are no partial states.
//
//	enc, _ := secrets.NewEncryptor(cfg.Security.SecretKey)
//	store := secrets.NewStore(db, enc)
//	_ = store.Put("plurk", credentials.Credentials{Key: "user", Secret: "pass"})
//	creds, ok, err := store.Get("plurk")
package secrets
