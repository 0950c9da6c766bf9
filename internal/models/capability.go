// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package models

import "sort"

// Capability is a flag describing what a service can currently do.
type Capability string

// Capabilities announced by services.
const (
	CapIsConfigured         Capability = "IS_CONFIGURED"
	CapCredentialsValid     Capability = "CREDENTIALS_VALID"
	CapCredentialsInvalid   Capability = "CREDENTIALS_INVALID"
	CapCanVerifyCredentials Capability = "CAN_VERIFY_CREDENTIALS"
	CapCanUpdateStatus      Capability = "CAN_UPDATE_STATUS"
	CapCanRequestAvatar     Capability = "CAN_REQUEST_AVATAR"
	CapCanGeotag            Capability = "CAN_GEOTAG"
	CapHasBanishableIface   Capability = "HAS_BANISHABLE_IFACE"
	CapHasQueryIface        Capability = "HAS_QUERY_IFACE"
)

// CapabilitySet is an unordered collection of capabilities.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a set from caps.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Add inserts caps.
func (s CapabilitySet) Add(caps ...Capability) {
	for _, c := range caps {
		s[c] = struct{}{}
	}
}

// Has reports whether c is present.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// List returns the capabilities sorted by name.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted capability names.
func (s CapabilitySet) Strings() []string {
	list := s.List()
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = string(c)
	}
	return out
}

// Equal reports whether both sets hold the same capabilities.
func (s CapabilitySet) Equal(other CapabilitySet) bool {
	if len(s) != len(other) {
		return false
	}
	for c := range s {
		if !other.Has(c) {
			return false
		}
	}
	return true
}
