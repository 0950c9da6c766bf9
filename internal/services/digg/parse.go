// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package digg

import (
	"errors"

	"github.com/goccy/go-json"

	"github.com/tomtom215/feedloom/internal/models"
	"github.com/tomtom215/feedloom/internal/remote"
)

type story struct {
	StoryID     string `json:"story_id"`
	Permalink   string `json:"permalink"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DateCreated int64  `json:"date_created"`
	Submiter    struct {
		UserID string `json:"user_id"`
		Name   string `json:"name"`
		Icon   string `json:"icon"`
	} `json:"submiter"`
	Thumbnails struct {
		Large string `json:"large"`
	} `json:"thumbnails"`
}

type topNews struct {
	Stories *[]json.RawMessage `json:"stories"`
}

// Parse maps a story.getTopNews document to items. Stories without an id
// or creation date are skipped.
func Parse(body []byte) (*models.ItemSet, error) {
	var doc topNews
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &remote.ParseError{Service: Name, Err: err}
	}
	if doc.Stories == nil {
		return nil, &remote.ParseError{Service: Name, Err: errors.New("missing stories")}
	}

	set := models.NewItemSet()
	for _, raw := range *doc.Stories {
		var s story
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		item := makeItem(&s)
		if item == nil {
			continue
		}
		_ = set.Add(item)
	}
	return set, nil
}

func makeItem(s *story) *models.Item {
	if s.StoryID == "" || s.DateCreated <= 0 {
		return nil
	}

	item := models.NewItem(Name, s.StoryID)
	item.Set(models.FieldURL, s.Permalink)
	item.Set(models.FieldTitle, s.Title)
	item.Set(models.FieldDate, models.FormatUnix(s.DateCreated))
	item.Set(models.FieldAuthor, s.Submiter.Name)
	item.Set(models.FieldAuthorID, s.Submiter.UserID)

	// Stories with a description show the story thumbnail as the icon;
	// the rest show it as the thumbnail next to the submitter's icon.
	if s.Description != "" {
		item.Set(models.FieldContent, s.Description)
		item.AddFetch(models.FieldAuthorIcon, s.Thumbnails.Large)
	} else {
		item.AddFetch(models.FieldThumbnail, s.Thumbnails.Large)
		item.AddFetch(models.FieldAuthorIcon, s.Submiter.Icon)
	}
	return item
}
