// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package youtube

import (
	"bytes"
	"encoding/xml"
	"path"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/tomtom215/feedloom/internal/models"
	"github.com/tomtom215/feedloom/internal/remote"
)

// VideoID extracts the video id from a feed guid such as
// "http://gdata.youtube.com/feeds/api/videos/<id>".
func VideoID(guid string) string {
	guid = strings.TrimSpace(guid)
	if i := strings.IndexAny(guid, "?#"); i >= 0 {
		guid = guid[:i]
	}
	return path.Base(strings.TrimRight(guid, "/"))
}

// Parse maps the RSS rendering of a video feed to items. Entries without
// a guid or date are skipped. Author icons are resolved separately.
func Parse(body []byte) (*models.ItemSet, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &remote.ParseError{Service: Name, Err: err}
	}

	set := models.NewItemSet()
	for _, entry := range feed.Items {
		id := VideoID(entry.GUID)
		if id == "" || id == "." {
			continue
		}
		date := entryDate(entry)
		if date == "" {
			continue
		}

		item := models.NewItem(Name, id)
		item.Set(models.FieldDate, date)
		item.Set(models.FieldTitle, strings.TrimSpace(entry.Title))
		item.Set(models.FieldURL, strings.TrimSpace(entry.Link))
		item.Set(models.FieldAuthor, entryAuthor(entry))
		item.AddFetch(models.FieldThumbnail, thumbnail(entry))
		_ = set.Add(item)
	}
	return set, nil
}

// entryDate prefers atom:updated and falls back to the dates gofeed
// derived itself.
func entryDate(entry *gofeed.Item) string {
	if v := extensionValue(entry.Extensions, "atom", "updated"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return models.FormatDate(t)
		}
	}
	switch {
	case entry.UpdatedParsed != nil:
		return models.FormatDate(*entry.UpdatedParsed)
	case entry.PublishedParsed != nil:
		return models.FormatDate(*entry.PublishedParsed)
	default:
		return ""
	}
}

func entryAuthor(entry *gofeed.Item) string {
	if entry.Author != nil && entry.Author.Name != "" {
		return strings.TrimSpace(entry.Author.Name)
	}
	for _, a := range entry.Authors {
		if a != nil && a.Name != "" {
			return strings.TrimSpace(a.Name)
		}
	}
	return ""
}

// thumbnail returns media:group/media:thumbnail@url.
func thumbnail(entry *gofeed.Item) string {
	media := entry.Extensions["media"]
	for _, group := range media["group"] {
		for _, thumb := range group.Children["thumbnail"] {
			if u := thumb.Attrs["url"]; u != "" {
				return u
			}
		}
	}
	for _, thumb := range media["thumbnail"] {
		if u := thumb.Attrs["url"]; u != "" {
			return u
		}
	}
	if entry.Image != nil {
		return entry.Image.URL
	}
	return ""
}

func extensionValue(exts ext.Extensions, prefix, name string) string {
	for _, e := range exts[prefix][name] {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}

type userEntry struct {
	Thumbnail struct {
		URL string `xml:"url,attr"`
	} `xml:"http://search.yahoo.com/mrss/ thumbnail"`
}

// parseUserIcon reads media:thumbnail@url from a users/<name> entry.
func parseUserIcon(body []byte) (string, error) {
	var entry userEntry
	if err := xml.Unmarshal(body, &entry); err != nil {
		return "", &remote.ParseError{Service: Name, Err: err}
	}
	return strings.TrimSpace(entry.Thumbnail.URL), nil
}
