// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package plurk

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/feedloom/internal/models"
	"github.com/tomtom215/feedloom/internal/remote"
)

const timelineDoc = `{
  "plurks": [
    {"plurk_id": 90001, "owner_id": 3, "qualifier": "says", "qualifier_translated": "dice",
     "content_raw": "hello", "posted": "Fri, 05 Jun 2009 23:07:13 GMT"},
    {"plurk_id": 90002, "owner_id": 4, "qualifier": "likes",
     "content_raw": "tea", "posted": "Sat, 06 Jun 2009 08:00:00 GMT"},
    {"plurk_id": 90003, "qualifier": "says", "content_raw": "no owner", "posted": "Sat, 06 Jun 2009 08:00:00 GMT"},
    {"plurk_id": 90004, "owner_id": 99, "qualifier": "says", "content_raw": "unknown owner", "posted": "Sat, 06 Jun 2009 08:00:00 GMT"},
    {"plurk_id": 90005, "owner_id": 5, "qualifier": "says", "content_raw": "bad date", "posted": "yesterday"}
  ],
  "plurk_users": {
    "3": {"id": 3, "nick_name": "ann", "display_name": "Ann", "full_name": "Ann Smith", "has_profile_image": 1, "avatar": 0},
    "4": {"id": 4, "nick_name": "bob", "display_name": "", "full_name": "", "has_profile_image": 1, "avatar": 7},
    "5": {"id": 5, "nick_name": "cid", "has_profile_image": 0, "avatar": null}
  }
}`

func TestParseTimeline(t *testing.T) {
	t.Parallel()
	set, err := Parse([]byte(timelineDoc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff([]string{"plurk-90001", "plurk-90002"}, set.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	ann, _ := set.Get("plurk-90001")
	want := map[string]string{
		models.FieldID:       "plurk-90001",
		models.FieldAuthorID: "3",
		models.FieldAuthor:   "Ann Smith",
		models.FieldContent:  "dice hello",
		models.FieldDate:     "2009-06-05T23:07:13Z",
		models.FieldURL:      "http://www.plurk.com/p/1xg1",
	}
	if diff := cmp.Diff(want, ann.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if got := ann.FetchURL(models.FieldAuthorIcon); got != "http://avatars.plurk.com/3-medium.gif" {
		t.Errorf("authoricon = %q", got)
	}

	bob, _ := set.Get("plurk-90002")
	if got := bob.Get(models.FieldAuthor); got != "bob" {
		t.Errorf("author fallback = %q, want nick name", got)
	}
	if got := bob.Get(models.FieldContent); got != "likes tea" {
		t.Errorf("content = %q, want untranslated qualifier", got)
	}
	if got := bob.FetchURL(models.FieldAuthorIcon); got != "http://avatars.plurk.com/4-medium7.gif" {
		t.Errorf("authoricon = %q", got)
	}
}

func TestAvatarURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		avatar     int64
		hasProfile int
		want       string
	}{
		{0, 1, "http://avatars.plurk.com/12-medium.gif"},
		{-1, 1, "http://avatars.plurk.com/12-medium.gif"},
		{3, 1, "http://avatars.plurk.com/12-medium3.gif"},
		{3, 0, DefaultAvatarURL},
	}
	for _, tt := range tests {
		if got := AvatarURL("12", tt.avatar, tt.hasProfile); got != tt.want {
			t.Errorf("AvatarURL(12, %d, %d) = %q, want %q", tt.avatar, tt.hasProfile, got, tt.want)
		}
	}
}

func TestPermalinkURL(t *testing.T) {
	t.Parallel()
	if got := PermalinkURL(35); got != "http://www.plurk.com/p/z" {
		t.Errorf("PermalinkURL(35) = %q", got)
	}
	if got := PermalinkURL(36); got != "http://www.plurk.com/p/10" {
		t.Errorf("PermalinkURL(36) = %q", got)
	}
}

func TestParseRequiresBothSections(t *testing.T) {
	t.Parallel()
	for _, body := range []string{`{"plurks":[]}`, `{"plurk_users":{}}`, `not json`} {
		_, err := Parse([]byte(body))
		var pe *remote.ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Parse(%s) error = %v, want ParseError", body, err)
		}
	}
}

func TestParseLogin(t *testing.T) {
	t.Parallel()
	u, err := parseLogin([]byte(`{"user_info":{"uid":12,"nick_name":"ann","has_profile_image":1,"avatar":2}}`))
	if err != nil {
		t.Fatalf("parseLogin() error = %v", err)
	}
	if u.UID != 12 || u.NickName != "ann" || u.Avatar != 2 {
		t.Errorf("parseLogin() = %+v", u)
	}
	if _, err := parseLogin([]byte(`{"error_text":"x"}`)); err == nil {
		t.Error("parseLogin() without user_info error = nil")
	}
}
