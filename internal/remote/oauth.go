// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package remote

import (
	"context"
	"net/http"

	"github.com/dghubble/oauth1"
)

// OAuth1Client returns an HTTP client that signs every request with the
// consumer and access token pairs. base supplies the transport and timeout.
func OAuth1Client(ctx context.Context, base *http.Client, consumerKey, consumerSecret, token, tokenSecret string) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	cfg := oauth1.NewConfig(consumerKey, consumerSecret)
	ctx = context.WithValue(ctx, oauth1.HTTPClient, base)
	hc := cfg.Client(ctx, oauth1.NewToken(token, tokenSecret))
	hc.Timeout = base.Timeout
	return hc
}
