// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package plurk

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/feedloom/internal/models"
	"github.com/tomtom215/feedloom/internal/remote"
)

// DefaultAvatarURL is shown for users without a profile image.
const DefaultAvatarURL = "http://www.plurk.com/static/default_medium.gif"

// postedLayout is the format of the posted field, e.g.
// "Fri, 05 Jun 2009 23:07:13 GMT".
const postedLayout = time.RFC1123

type user struct {
	ID              int64  `json:"id"`
	UID             int64  `json:"uid"`
	FullName        string `json:"full_name"`
	DisplayName     string `json:"display_name"`
	NickName        string `json:"nick_name"`
	Avatar          int64  `json:"avatar"`
	HasProfileImage int    `json:"has_profile_image"`
}

func (u *user) name() string {
	switch {
	case u.FullName != "":
		return u.FullName
	case u.DisplayName != "":
		return u.DisplayName
	default:
		return u.NickName
	}
}

type plurk struct {
	PlurkID             int64  `json:"plurk_id"`
	OwnerID             *int64 `json:"owner_id"`
	Qualifier           string `json:"qualifier"`
	QualifierTranslated string `json:"qualifier_translated"`
	ContentRaw          string `json:"content_raw"`
	Posted              string `json:"posted"`
}

type timeline struct {
	Plurks     *[]json.RawMessage         `json:"plurks"`
	PlurkUsers map[string]json.RawMessage `json:"plurk_users"`
}

// AvatarURL builds the medium avatar URL of a user.
func AvatarURL(uid string, avatar int64, hasProfileImage int) string {
	switch {
	case hasProfileImage == 1 && avatar <= 0:
		return fmt.Sprintf("http://avatars.plurk.com/%s-medium.gif", uid)
	case hasProfileImage == 1:
		return fmt.Sprintf("http://avatars.plurk.com/%s-medium%d.gif", uid, avatar)
	default:
		return DefaultAvatarURL
	}
}

// PermalinkURL returns the public link of a plurk.
func PermalinkURL(plurkID int64) string {
	return "http://www.plurk.com/p/" + strconv.FormatInt(plurkID, 36)
}

// Parse maps a Timeline/getPlurks document to items. Plurks without an
// owner, a known owner record, an id or a parseable date are skipped.
func Parse(body []byte) (*models.ItemSet, error) {
	var doc timeline
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &remote.ParseError{Service: Name, Err: err}
	}
	if doc.Plurks == nil || doc.PlurkUsers == nil {
		return nil, &remote.ParseError{Service: Name, Err: errors.New("missing plurks or plurk_users")}
	}

	set := models.NewItemSet()
	for _, raw := range *doc.Plurks {
		var p plurk
		if err := json.Unmarshal(raw, &p); err != nil || p.OwnerID == nil || p.PlurkID <= 0 {
			continue
		}
		uid := strconv.FormatInt(*p.OwnerID, 10)
		rawUser, ok := doc.PlurkUsers[uid]
		if !ok {
			continue
		}
		var u user
		if err := json.Unmarshal(rawUser, &u); err != nil {
			continue
		}
		posted, err := time.Parse(postedLayout, p.Posted)
		if err != nil {
			continue
		}

		item := models.NewItem(Name, strconv.FormatInt(p.PlurkID, 10))
		item.Set(models.FieldAuthorID, uid)
		item.Set(models.FieldAuthor, u.name())
		item.AddFetch(models.FieldAuthorIcon, AvatarURL(uid, u.Avatar, u.HasProfileImage))

		qualifier := p.QualifierTranslated
		if qualifier == "" {
			qualifier = p.Qualifier
		}
		item.Set(models.FieldContent, qualifier+" "+p.ContentRaw)
		item.Set(models.FieldDate, models.FormatDate(posted))
		item.Set(models.FieldURL, PermalinkURL(p.PlurkID))
		_ = set.Add(item)
	}
	return set, nil
}

type loginResponse struct {
	UserInfo *user `json:"user_info"`
}

// parseLogin extracts the session user from a Users/login document.
func parseLogin(body []byte) (*user, error) {
	var doc loginResponse
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &remote.ParseError{Service: Name, Err: err}
	}
	if doc.UserInfo == nil {
		return nil, &remote.ParseError{Service: Name, Err: errors.New("missing user_info")}
	}
	if doc.UserInfo.UID == 0 {
		doc.UserInfo.UID = doc.UserInfo.ID
	}
	if doc.UserInfo.UID == 0 {
		return nil, &remote.ParseError{Service: Name, Err: errors.New("missing uid")}
	}
	return doc.UserInfo, nil
}
