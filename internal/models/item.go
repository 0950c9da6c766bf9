// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package models

import (
	"maps"
	"strings"
)

// Well-known item field names.
const (
	FieldID         = "id"
	FieldDate       = "date"
	FieldURL        = "url"
	FieldTitle      = "title"
	FieldContent    = "content"
	FieldAuthor     = "author"
	FieldAuthorID   = "authorid"
	FieldAuthorIcon = "authoricon"
	FieldThumbnail  = "thumbnail"
)

// ImageFetch asks the presentation layer to download URL and store the
// local path in Field once done.
type ImageFetch struct {
	Field string `json:"field"`
	URL   string `json:"url"`
}

// Item is one normalized feed entry.
type Item struct {
	Service string            `json:"service"`
	Fields  map[string]string `json:"fields"`
	Fetches []ImageFetch      `json:"fetches,omitempty"`
}

// NewItem creates an item whose id is "<service>-<nativeID>".
func NewItem(service, nativeID string) *Item {
	return &Item{
		Service: service,
		Fields:  map[string]string{FieldID: ItemID(service, nativeID)},
	}
}

// ItemID namespaces a native identifier with its service name.
func ItemID(service, nativeID string) string {
	return service + "-" + nativeID
}

// ID returns the item id.
func (i *Item) ID() string { return i.Fields[FieldID] }

// Date returns the canonical date string.
func (i *Item) Date() string { return i.Fields[FieldDate] }

// Get returns a field value or "".
func (i *Item) Get(field string) string { return i.Fields[field] }

// Set stores a field. Empty values are not stored, so a missing and an
// empty field look the same to consumers.
func (i *Item) Set(field, value string) {
	if i.Fields == nil {
		i.Fields = make(map[string]string)
	}
	if value == "" {
		delete(i.Fields, field)
		return
	}
	i.Fields[field] = value
}

// AddFetch attaches a deferred image download. Blank URLs are ignored.
func (i *Item) AddFetch(field, url string) {
	url = strings.TrimSpace(url)
	if url == "" {
		return
	}
	i.Fetches = append(i.Fetches, ImageFetch{Field: field, URL: url})
}

// HasFetch reports whether a fetch targets field.
func (i *Item) HasFetch(field string) bool {
	for _, f := range i.Fetches {
		if f.Field == field {
			return true
		}
	}
	return false
}

// FetchURL returns the URL of the first fetch targeting field.
func (i *Item) FetchURL(field string) string {
	for _, f := range i.Fetches {
		if f.Field == field {
			return f.URL
		}
	}
	return ""
}

// Valid reports whether the item carries the fields required for publishing.
func (i *Item) Valid() bool {
	return i.ID() != "" && i.Date() != ""
}

// Clone returns a deep copy.
func (i *Item) Clone() *Item {
	c := &Item{Service: i.Service, Fields: maps.Clone(i.Fields)}
	if len(i.Fetches) > 0 {
		c.Fetches = append([]ImageFetch(nil), i.Fetches...)
	}
	return c
}
