// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package remote

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// maxAssetSize caps downloaded avatars and thumbnails.
const maxAssetSize = 4 << 20

// Download fetches rawURL into dir and returns the local path. The file
// name is derived from the URL hash, so repeated downloads of the same
// URL reuse the existing file.
func Download(ctx context.Context, hc *http.Client, service, rawURL, dir string) (string, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create asset dir: %w", err)
	}

	sum := sha256.Sum256([]byte(rawURL))
	name := hex.EncodeToString(sum[:16]) + assetExt(rawURL)
	dest := filepath.Join(dir, name)
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return "", &TransportError{Service: service, Op: "download", Err: err}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", &TransportError{Service: service, Op: "download", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Service: service, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, io.LimitReader(resp.Body, maxAssetSize)); err != nil {
		_ = tmp.Close()
		return "", &TransportError{Service: service, Op: "download", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf("store asset: %w", err)
	}
	return dest, nil
}

func assetExt(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	ext := strings.ToLower(path.Ext(rawURL))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	}
	return ""
}
