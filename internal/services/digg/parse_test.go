// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package digg

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/feedloom/internal/models"
	"github.com/tomtom215/feedloom/internal/remote"
)

func TestParseStoryWithDescription(t *testing.T) {
	t.Parallel()
	body := []byte(`{"stories":[{"story_id":"42","permalink":"http://x","title":"T","date_created":1000,
		"submiter":{"user_id":"7","name":"A"},"description":"D","thumbnails":{"large":"http://thumb"}}]}`)

	set, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	item, ok := set.Get("digg-42")
	if !ok {
		t.Fatalf("Parse() ids = %v, want digg-42", set.IDs())
	}

	wantFields := map[string]string{
		models.FieldID:       "digg-42",
		models.FieldURL:      "http://x",
		models.FieldTitle:    "T",
		models.FieldDate:     "1970-01-01T00:16:40Z",
		models.FieldAuthor:   "A",
		models.FieldAuthorID: "7",
		models.FieldContent:  "D",
	}
	if diff := cmp.Diff(wantFields, item.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	wantFetches := []models.ImageFetch{{Field: models.FieldAuthorIcon, URL: "http://thumb"}}
	if diff := cmp.Diff(wantFetches, item.Fetches); diff != "" {
		t.Errorf("fetches mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStoryWithoutDescription(t *testing.T) {
	t.Parallel()
	body := []byte(`{"stories":[{"story_id":"43","permalink":"http://y","title":"U","date_created":2000,
		"submiter":{"user_id":"8","name":"B","icon":"http://icon"},"description":"","thumbnails":{"large":"http://thumb"}}]}`)

	set, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	item, ok := set.Get("digg-43")
	if !ok {
		t.Fatal("missing digg-43")
	}
	if item.Get(models.FieldContent) != "" {
		t.Errorf("content = %q, want empty", item.Get(models.FieldContent))
	}
	want := []models.ImageFetch{
		{Field: models.FieldThumbnail, URL: "http://thumb"},
		{Field: models.FieldAuthorIcon, URL: "http://icon"},
	}
	if diff := cmp.Diff(want, item.Fetches); diff != "" {
		t.Errorf("fetches mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSkipsIncompleteStories(t *testing.T) {
	t.Parallel()
	body := []byte(`{"stories":[
		{"permalink":"http://noid","date_created":1000},
		{"story_id":"1","permalink":"http://nodate"},
		{"story_id":"2","date_created":"not a number"},
		{"story_id":"3","date_created":3000},
		{"story_id":"3","date_created":4000,"title":"second"}
	]}`)

	set, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff([]string{"digg-3"}, set.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	item, _ := set.Get("digg-3")
	if item.Get(models.FieldTitle) != "second" {
		t.Errorf("colliding id kept %q, want last record", item.Get(models.FieldTitle))
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"stories":`},
		{"missing stories", `{"count":0}`},
		{"not an object", `[1,2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.body))
			var pe *remote.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse() error = %v, want ParseError", err)
			}
		})
	}
}

func TestParseEmptyStories(t *testing.T) {
	t.Parallel()
	set, err := Parse([]byte(`{"stories":[]}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !set.IsEmpty() {
		t.Errorf("Parse() = %v, want empty", set.IDs())
	}
}
