// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package myspace

import (
	"encoding/xml"
	"errors"
	"strings"

	"golang.org/x/net/html"

	"github.com/tomtom215/feedloom/internal/models"
	"github.com/tomtom215/feedloom/internal/remote"
)

// moodLayout is the non-numeric form of moodlastupdated, e.g.
// "15/04/2009 04:20:59", in UTC.
const moodLayout = "02/01/2006 15:04:05"

type user struct {
	UserID          string  `xml:"userid"`
	ImageURL        string  `xml:"imageurl"`
	ImageURI        string  `xml:"imageuri"`
	ProfileURL      string  `xml:"profileurl"`
	Name            string  `xml:"name"`
	MoodLastUpdated string  `xml:"moodlastupdated"`
	Status          *string `xml:"status"`
}

// document is either a single <user>, a <user> wrapping <friends>, or an
// <error>.
type document struct {
	XMLName xml.Name
	user
	Friends *struct {
		Users []user `xml:"user"`
	} `xml:"friends"`
	StatusDescription string `xml:"statusdescription"`
}

func decode(body []byte, statusCode int) (*document, error) {
	var doc document
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, &remote.ParseError{Service: Name, Err: err}
	}
	if doc.XMLName.Local == "error" {
		msg := strings.TrimSpace(doc.StatusDescription)
		if msg == "" {
			msg = "unknown error"
		}
		return nil, &remote.APIError{Service: Name, StatusCode: statusCode, Message: msg}
	}
	return &doc, nil
}

// Parse maps a status or friends/status document to items. Users without
// a status, an id or a parseable update time are skipped. A document
// rooted at <error> yields an APIError.
func Parse(body []byte, statusCode int) (*models.ItemSet, error) {
	doc, err := decode(body, statusCode)
	if err != nil {
		return nil, err
	}

	users := []user{doc.user}
	if doc.Friends != nil {
		users = doc.Friends.Users
	}

	set := models.NewItemSet()
	for i := range users {
		if item := makeItem(&users[i]); item != nil {
			_ = set.Add(item)
		}
	}
	return set, nil
}

func makeItem(u *user) *models.Item {
	uid := strings.TrimSpace(u.UserID)
	updated := strings.TrimSpace(u.MoodLastUpdated)
	if uid == "" || updated == "" || u.Status == nil {
		return nil
	}
	date, err := models.ParseUnixString(updated)
	if err != nil {
		if date, err = models.ParseDate(updated, moodLayout); err != nil {
			return nil
		}
	}

	item := models.NewItem(Name, uid+"-"+updated)
	item.Set(models.FieldDate, date)
	item.Set(models.FieldAuthorID, uid)
	item.Set(models.FieldAuthor, strings.TrimSpace(u.Name))
	item.AddFetch(models.FieldAuthorIcon, u.ImageURL)
	item.Set(models.FieldContent, StripMarkup(*u.Status))
	item.Set(models.FieldURL, strings.TrimSpace(u.ProfileURL))
	return item
}

// parseUser reads the v1/user document of the authenticated user.
func parseUser(body []byte, statusCode int) (*user, error) {
	doc, err := decode(body, statusCode)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.UserID) == "" {
		return nil, &remote.ParseError{Service: Name, Err: errors.New("missing userid")}
	}
	u := doc.user
	u.UserID = strings.TrimSpace(u.UserID)
	return &u, nil
}

// StripMarkup returns the text content of an HTML fragment with
// entities decoded.
func StripMarkup(s string) string {
	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(tokenizer.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			if name, _ := tokenizer.TagName(); string(name) == "br" {
				b.WriteByte('\n')
			}
		}
	}
}
