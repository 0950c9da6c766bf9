// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package credentials

import "github.com/tomtom215/feedloom/internal/models"

// actionCaps need a live session and are withheld outside Authorized.
var actionCaps = models.NewCapabilitySet(
	models.CapCanUpdateStatus,
	models.CapCanRequestAvatar,
	models.CapCanGeotag,
)

// CapabilitiesFor computes the capability set announced for state.
// configured reports whether credentials are stored for the service.
func CapabilitiesFor(state State, configured bool, static []models.Capability) models.CapabilitySet {
	caps := models.NewCapabilitySet()

	switch state {
	case StateAuthorized:
		caps.Add(models.CapIsConfigured, models.CapCredentialsValid)
	case StateUnauthorized:
		caps.Add(models.CapIsConfigured, models.CapCredentialsInvalid)
	default:
		if configured {
			caps.Add(models.CapIsConfigured)
		}
	}

	for _, c := range static {
		if actionCaps.Has(c) && state != StateAuthorized {
			continue
		}
		caps.Add(c)
	}
	return caps
}
