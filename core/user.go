package core

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// FlexID accepts both string and numeric identifiers from the API.
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = FlexID(n.String())
	return nil
}

func (id FlexID) String() string { return string(id) }

// User is the snapshot returned by GET /auth/me.
type User struct {
	ID               FlexID     `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	DisplayName      string     `json:"display_name"`
	Bio              string     `json:"bio"`
	AvatarURL        string     `json:"avatar_url"`
	Avatars          StringList `json:"avatars"`
	IsPrivate        bool       `json:"is_private"`
	IsAdmin          bool       `json:"is_admin"`
	Role             string     `json:"role,omitempty"`
	IsBlocked        bool       `json:"is_blocked"`
	BlockReason      string     `json:"block_reason,omitempty"`
	Verified         string     `json:"verified"`
	IsVerified       bool       `json:"is_verified"`
	IsArtistVerified bool       `json:"is_artist_verified"`
	Theme            string     `json:"theme"`
	Links            Links      `json:"links"`
	FollowersCount   int        `json:"followers_count"`
	FollowingCount   int        `json:"following_count"`
	PostsCount       int        `json:"posts_count"`
	Privacy          Privacy    `json:"privacy"`
	PrivacySettings  Privacy    `json:"privacy_settings"`
	CreatedAt        string     `json:"created_at"`
}

// Badge returns "standard", "artist" or "" for unverified accounts.
func (u *User) Badge() string {
	switch {
	case u == nil:
		return ""
	case u.Verified != "" && u.Verified != "none":
		return u.Verified
	case u.IsArtistVerified:
		return VerificationArtist
	case u.IsVerified:
		return VerificationStandard
	}
	return ""
}

// Audience returns the privacy settings under whichever key the server used.
func (u *User) Audience() Privacy {
	if u == nil {
		return Privacy{}
	}
	if u.Privacy != (Privacy{}) {
		return u.Privacy
	}
	return u.PrivacySettings
}

// Admin reports whether the snapshot carries the admin role.
func (u *User) Admin() bool {
	if u == nil {
		return false
	}
	return u.IsAdmin || strings.EqualFold(strings.TrimSpace(u.Role), "admin")
}

// Links are the optional social links on a profile.
type Links struct {
	Telegram  string `json:"telegram,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	TikTok    string `json:"tiktok,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
	Website   string `json:"website,omitempty"`
}

// Privacy holds audience settings; values are "everyone", "followers" or "nobody".
type Privacy struct {
	WhoSeesLikes     string `json:"who_sees_likes,omitempty"`
	WhoSeesReposts   string `json:"who_sees_reposts,omitempty"`
	WhoSeesFollowers string `json:"who_sees_followers,omitempty"`
	WhoSeesFollowing string `json:"who_sees_following,omitempty"`
	WhoSeesFriends   string `json:"who_sees_friends,omitempty"`
	WhoCanMessage    string `json:"who_can_message,omitempty"`
}

func (l *Links) UnmarshalJSON(b []byte) error {
	type plain Links
	var p plain
	if err := decodeLenient(b, &p); err != nil {
		return err
	}
	*l = Links(p)
	return nil
}

func (p *Privacy) UnmarshalJSON(b []byte) error {
	type plain Privacy
	var v plain
	if err := decodeLenient(b, &v); err != nil {
		return err
	}
	*p = Privacy(v)
	return nil
}

// StringList is a list of strings that may arrive JSON-encoded inside a string.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	var out []string
	if err := decodeLenient(b, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// decodeLenient accepts null, the value itself, or the value serialized into
// a JSON string (text columns). A string that does not hold valid JSON
// decodes to the zero value.
func decodeLenient(b []byte, v any) error {
	r := gjson.ParseBytes(b)
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.String:
		if !gjson.Valid(r.Str) {
			return nil
		}
		_ = json.Unmarshal([]byte(r.Str), v)
		return nil
	default:
		return json.Unmarshal(b, v)
	}
}

// authResponse is the body of /auth/login and /auth/register.
type authResponse struct {
	Token  string `json:"token"`
	UserID FlexID `json:"user_id"`
}
