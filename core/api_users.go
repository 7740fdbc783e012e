package core

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Themes the API accepts for /users/me/theme.
var Themes = []string{"dark-green", "dark-blue", "crystal", "white-yellow"}

// Verification request kinds.
const (
	VerificationStandard = "standard"
	VerificationArtist   = "artist"
)

func validTheme(theme string) bool {
	for _, t := range Themes {
		if t == theme {
			return true
		}
	}
	return false
}

func (c *Client) Profile(ctx context.Context, username string) (Profile, error) {
	var p Profile
	err := c.gw.Get(ctx, "/users/"+seg(username)+"/profile", &p)
	return p, err
}

// UserPosts lists a user's posts. tab is "posts", "likes" or "reposts".
func (c *Client) UserPosts(ctx context.Context, username, tab string) ([]Post, error) {
	switch tab {
	case "", "posts":
		tab = "posts"
	case "likes", "reposts":
	default:
		return nil, fmt.Errorf("unknown profile tab %q", tab)
	}
	return getList[Post](ctx, c.gw, "/users/"+seg(username)+"/"+tab, "posts")
}

// SearchUsers returns no results without a request for a blank query.
func (c *Client) SearchUsers(ctx context.Context, q string) ([]UserRef, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []UserRef{}, nil
	}
	return getList[UserRef](ctx, c.gw, "/users/search?q="+url.QueryEscape(q), "users")
}

func (c *Client) Follow(ctx context.Context, username string) (FollowResult, error) {
	var r FollowResult
	err := c.gw.Post(ctx, "/users/"+seg(username)+"/follow", nil, &r)
	return r, err
}

func (c *Client) BlockUser(ctx context.Context, username string) error {
	return c.gw.Post(ctx, "/users/"+seg(username)+"/block", nil, nil)
}

func (c *Client) ReportUser(ctx context.Context, username, reason string) error {
	return c.gw.Post(ctx, "/users/"+seg(username)+"/report", map[string]string{"reason": reason}, nil)
}

// UpdateProfile saves the caller's profile and refreshes the session snapshot.
func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) error {
	if err := c.gw.Post(ctx, "/users/me/update", upd, nil); err != nil {
		return err
	}
	c.session.RefreshUser(ctx)
	return nil
}

func (c *Client) SetTheme(ctx context.Context, theme string) error {
	if !validTheme(theme) {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
	}
	if err := c.gw.Post(ctx, "/users/me/theme", map[string]string{"theme": theme}, nil); err != nil {
		return err
	}
	c.session.RefreshUser(ctx)
	return nil
}

func (c *Client) SetPrivacy(ctx context.Context, p Privacy) error {
	return c.gw.Post(ctx, "/users/me/privacy", p, nil)
}

// DeleteAccount removes the account and logs the session out locally.
func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := c.gw.Post(ctx, "/users/me/delete", nil, nil); err != nil {
		return err
	}
	return c.session.Logout(ctx)
}

// UploadAvatar replaces the caller's avatar and reloads the snapshot so the
// new URL is visible.
func (c *Client) UploadAvatar(ctx context.Context, name string, content io.Reader) (string, error) {
	var res struct {
		AvatarURL string `json:"avatar_url"`
	}
	if err := c.gw.Upload(ctx, "/users/me/avatar", UploadForm{FileName: name, Content: content}, &res); err != nil {
		return "", err
	}
	c.session.RefreshUser(ctx)
	return res.AvatarURL, nil
}

func (c *Client) RequestVerification(ctx context.Context, kind, reason string) error {
	if kind != VerificationStandard && kind != VerificationArtist {
		return fmt.Errorf("unknown verification type %q", kind)
	}
	return c.gw.Post(ctx, "/verification/request", map[string]string{"type": kind, "reason": reason}, nil)
}
