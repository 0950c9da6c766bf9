// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package sina

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/tomtom215/feedloom/internal/models"
	"github.com/tomtom215/feedloom/internal/remote"
)

// createdAtLayout is the format of created_at, e.g.
// "Fri Dec 25 13:07:17 +0800 2009".
const createdAtLayout = "Mon Jan 02 15:04:05 -0700 2006"

type statusUser struct {
	ID              string `xml:"id"`
	ScreenName      string `xml:"screen_name"`
	ProfileImageURL string `xml:"profile_image_url"`
}

type status struct {
	ID        string      `xml:"id"`
	CreatedAt string      `xml:"created_at"`
	Text      string      `xml:"text"`
	User      *statusUser `xml:"user"`
}

type statuses struct {
	XMLName  xml.Name `xml:"statuses"`
	Statuses []status `xml:"status"`
}

// ProfileURL is the public page of a user.
func ProfileURL(uid string) string {
	return "http://t.sina.com.cn/" + uid
}

func decode(body []byte) (*statuses, error) {
	var doc statuses
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, &remote.ParseError{Service: Name, Err: err}
	}
	return &doc, nil
}

// Parse maps a statuses timeline document to items. Statuses without an
// id, a user or a parseable date are skipped.
func Parse(body []byte) (*models.ItemSet, error) {
	doc, err := decode(body)
	if err != nil {
		return nil, err
	}

	set := models.NewItemSet()
	for i := range doc.Statuses {
		st := &doc.Statuses[i]
		id := strings.TrimSpace(st.ID)
		if id == "" || st.User == nil {
			continue
		}
		created, err := time.Parse(createdAtLayout, strings.TrimSpace(st.CreatedAt))
		if err != nil {
			continue
		}
		uid := strings.TrimSpace(st.User.ID)

		item := models.NewItem(Name, id)
		item.Set(models.FieldDate, models.FormatDate(created))
		item.Set(models.FieldAuthor, st.User.ScreenName)
		item.Set(models.FieldAuthorID, uid)
		item.AddFetch(models.FieldAuthorIcon, st.User.ProfileImageURL)
		item.Set(models.FieldContent, st.Text)
		if uid != "" {
			item.Set(models.FieldURL, ProfileURL(uid))
		}
		_ = set.Add(item)
	}
	return set, nil
}

// parseOwner returns the author of the first status, which for
// user_timeline is the authenticated user.
func parseOwner(body []byte) (*statusUser, error) {
	doc, err := decode(body)
	if err != nil {
		return nil, err
	}
	for _, st := range doc.Statuses {
		if st.User != nil && st.User.ID != "" {
			return st.User, nil
		}
	}
	return &statusUser{}, nil
}
