// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical text form of the item date field.
const DateLayout = time.RFC3339

// FormatDate renders t in the canonical form.
func FormatDate(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(DateLayout)
}

// FormatUnix renders a Unix timestamp in the canonical form.
func FormatUnix(sec int64) string {
	return FormatDate(time.Unix(sec, 0))
}

// ParseDate parses value with the first matching layout and returns the
// canonical form. Layouts without a zone are read as UTC.
func ParseDate(value string, layouts ...string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("empty date")
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return FormatDate(t), nil
		}
	}
	return "", fmt.Errorf("unrecognised date %q", value)
}

// ParseUnixString parses a decimal Unix timestamp.
func ParseUnixString(value string) (string, error) {
	sec, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid unix timestamp %q: %w", value, err)
	}
	return FormatUnix(sec), nil
}
