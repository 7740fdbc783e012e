package core

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, me string) (*Client, *fakeAPI) {
	t.Helper()
	api := newFakeAPI(t)
	ctrl, gw, _ := loggedIn(t, api, me)
	return NewClient(gw, ctrl), api
}

func TestDecodeListShapes(t *testing.T) {
	got, err := decodeList[Post]([]byte(`[{"id":1},{"id":"2"}]`), "posts")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, FlexID("2"), got[1].ID)

	got, err = decodeList[Post]([]byte(`{"posts":[{"id":3}],"page":1}`), "posts")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, FlexID("3"), got[0].ID)

	got, err = decodeList[Post]([]byte(`{"detail":"x"}`), "posts")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestFeedQuery(t *testing.T) {
	c, api := newTestClient(t, aliceJSON)
	api.reply(http.MethodGet, "/posts/feed", http.StatusOK, `{"posts":[{"id":1,"content":"hello","likes_count":3}]}`)

	posts, err := c.Feed(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "hello", posts[0].Content)
	assert.Equal(t, "page=1&limit=20", api.last(http.MethodGet, "/posts/feed").Query)
}

func TestPostDetailShapes(t *testing.T) {
	c, api := newTestClient(t, aliceJSON)

	api.reply(http.MethodGet, "/posts/5", http.StatusOK,
		`{"post":{"id":5,"content":"x"},"comments":[{"id":1,"text":"c","replies":[{"id":2,"text":"r","reply_to_id":1}]}]}`)
	d, err := c.Post(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, "x", d.Post.Content)
	require.Len(t, d.Comments, 1)
	require.Len(t, d.Comments[0].Replies, 1)
	assert.Equal(t, FlexID("1"), d.Comments[0].Replies[0].ReplyToID)

	api.reply(http.MethodGet, "/posts/6", http.StatusOK, `{"id":6,"content":"bare"}`)
	d, err = c.Post(context.Background(), "6")
	require.NoError(t, err)
	assert.Equal(t, "bare", d.Post.Content)
	assert.Empty(t, d.Comments)
}

func TestPostActions(t *testing.T) {
	c, api := newTestClient(t, aliceJSON)
	ctx := context.Background()
	api.reply(http.MethodPost, "/posts/5/like", http.StatusOK, `{"liked":true,"likes_count":4}`)
	api.reply(http.MethodPost, "/posts/5/comment", http.StatusOK, `{"id":9,"text":"nice"}`)
	api.reply(http.MethodPost, "/posts/5/report", http.StatusOK, `{}`)
	api.reply(http.MethodPost, "/posts/create", http.StatusOK, `{"id":10}`)

	like, err := c.LikePost(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: true, LikesCount: 4}, like)

	_, err = c.Comment(ctx, "5", "nice", "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"nice","reply_to_id":null}`, api.last(http.MethodPost, "/posts/5/comment").Body)

	_, err = c.Comment(ctx, "5", "re", "9")
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"re","reply_to_id":"9"}`, api.last(http.MethodPost, "/posts/5/comment").Body)

	require.NoError(t, c.ReportPost(ctx, "5", "spam"))
	assert.JSONEq(t, `{"reason":"spam"}`, api.last(http.MethodPost, "/posts/5/report").Body)

	_, err = c.CreatePost(ctx, "hello", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":"hello","media":[]}`, api.last(http.MethodPost, "/posts/create").Body)
}

func TestSearchUsers(t *testing.T) {
	c, api := newTestClient(t, aliceJSON)
	api.reply(http.MethodGet, "/users/search", http.StatusOK, `[{"id":1,"username":"a b"}]`)

	users, err := c.SearchUsers(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Zero(t, api.count(http.MethodGet, "/users/search"))

	users, err = c.SearchUsers(context.Background(), "a b&c")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "q=a+b%26c", api.last(http.MethodGet, "/users/search").Query)
}

func TestProfilePathIsEscaped(t *testing.T) {
	c, api := newTestClient(t, aliceJSON)
	api.reply(http.MethodGet, "/users/we ird/profile", http.StatusOK, `{"id":4,"username":"we ird","is_following":true}`)

	p, err := c.Profile(context.Background(), "we ird")
	require.NoError(t, err)
	assert.True(t, p.IsFollowing)
	assert.Equal(t, "we ird", p.Username)

	_, err = c.UserPosts(context.Background(), "alice", "drafts")
	assert.Error(t, err)
}

func TestSetThemeValidates(t *testing.T) {
	c, api := newTestClient(t, aliceJSON)
	api.reply(http.MethodPost, "/users/me/theme", http.StatusOK, `{}`)

	err := c.SetTheme(context.Background(), "neon")
	assert.True(t, errors.Is(err, ErrInvalidTheme))
	assert.Zero(t, api.count(http.MethodPost, "/users/me/theme"))

	meCalls := api.count(http.MethodGet, "/auth/me")
	require.NoError(t, c.SetTheme(context.Background(), "crystal"))
	assert.JSONEq(t, `{"theme":"crystal"}`, api.last(http.MethodPost, "/users/me/theme").Body)
	assert.Equal(t, meCalls+1, api.count(http.MethodGet, "/auth/me"))
}

func TestDeleteAccountLogsOut(t *testing.T) {
	c, api := newTestClient(t, aliceJSON)
	api.reply(http.MethodPost, "/users/me/delete", http.StatusOK, `{}`)

	require.NoError(t, c.DeleteAccount(context.Background()))
	assert.True(t, c.Session().State().IsGuest())
}

func TestDeleteAccountFailureKeepsSession(t *testing.T) {
	c, api := newTestClient(t, aliceJSON)
	api.reply(http.MethodPost, "/users/me/delete", http.StatusForbidden, `{"detail":"Admins cannot delete themselves"}`)

	err := c.DeleteAccount(context.Background())
	require.Error(t, err)
	assert.False(t, c.Session().State().IsGuest())
}

func TestUploadAvatarRefreshesSession(t *testing.T) {
	c, api := newTestClient(t, aliceJSON)
	api.reply(http.MethodPost, "/users/me/avatar", http.StatusOK, `{"avatar_url":"/a/new.png"}`)
	api.reply(http.MethodGet, "/auth/me", http.StatusOK, `{"id":1,"username":"alice","avatar_url":"/a/new.png"}`)

	u, err := c.UploadAvatar(context.Background(), "me.png", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "/a/new.png", u)
	assert.Equal(t, "/a/new.png", c.Session().State().User.AvatarURL)
}

func TestThreadCollectsPinned(t *testing.T) {
	c, api := newTestClient(t, aliceJSON)
	api.reply(http.MethodGet, "/messages/7", http.StatusOK,
		`{"messages":[{"id":1,"text":"hi"},{"id":2,"text":"pinned","is_pinned":true}],"user":{"id":7,"username":"bob"}}`)

	th, err := c.Thread(context.Background(), "7")
	require.NoError(t, err)
	assert.Len(t, th.Messages, 2)
	require.Len(t, th.Pinned, 1)
	assert.Equal(t, "pinned", th.Pinned[0].Text)
	require.NotNil(t, th.User)
	assert.Equal(t, "bob", th.User.Username)
}

func TestSendMessageBody(t *testing.T) {
	c, api := newTestClient(t, aliceJSON)
	api.reply(http.MethodPost, "/messages/send", http.StatusOK, `{"id":3,"text":"yo"}`)
	api.reply(http.MethodPost, "/messages/read", http.StatusOK, `{}`)

	m, err := c.SendMessage(context.Background(), "7", "yo", "")
	require.NoError(t, err)
	assert.Equal(t, "yo", m.Text)
	assert.JSONEq(t, `{"receiver_id":"7","content":"yo","reply_to_id":null}`, api.last(http.MethodPost, "/messages/send").Body)

	require.NoError(t, c.MarkRead(context.Background(), "7"))
	assert.JSONEq(t, `{"user_id":"7"}`, api.last(http.MethodPost, "/messages/read").Body)
}

func TestNotificationsAndRequests(t *testing.T) {
	c, api := newTestClient(t, aliceJSON)
	api.reply(http.MethodGet, "/notifications", http.StatusOK, `{"notifications":[{"id":1,"type":"like","from_user":{"username":"bob"}}]}`)
	api.reply(http.MethodGet, "/follow-requests", http.StatusOK, `[{"id":4,"from_user":{"username":"carol"}}]`)
	api.reply(http.MethodPost, "/follow-requests/4/accept", http.StatusOK, `{}`)

	notes, err := c.Notifications(context.Background())
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "bob", notes[0].FromUser.Username)

	reqs, err := c.FollowRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	require.NoError(t, c.AcceptFollowRequest(context.Background(), reqs[0].ID))
	assert.Equal(t, 1, api.count(http.MethodPost, "/follow-requests/4/accept"))
}

func TestAdminOperations(t *testing.T) {
	c, api := newTestClient(t, adminJSON)
	api.reply(http.MethodGet, "/admin/stats", http.StatusOK, `{"total_users":10,"pending_appeals":2}`)
	api.reply(http.MethodPost, "/admin/appeals/8/accept", http.StatusOK, `{}`)
	api.reply(http.MethodPost, "/admin/reports/3/reject", http.StatusOK, `{}`)
	api.reply(http.MethodPost, "/admin/block-user", http.StatusOK, `{}`)

	stats, err := c.AdminStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalUsers)
	assert.Equal(t, 2, stats.PendingAppeals)

	require.NoError(t, c.ResolveAppeal(context.Background(), "8", true))
	require.NoError(t, c.ResolveReport(context.Background(), "3", false))
	require.NoError(t, c.AdminBlockUser(context.Background(), "bob", "spam"))
	assert.JSONEq(t, `{"username":"bob","reason":"spam"}`, api.last(http.MethodPost, "/admin/block-user").Body)
}

func TestRequestVerificationKinds(t *testing.T) {
	c, api := newTestClient(t, aliceJSON)
	api.reply(http.MethodPost, "/verification/request", http.StatusOK, `{}`)

	assert.Error(t, c.RequestVerification(context.Background(), "gold", "pls"))
	require.NoError(t, c.RequestVerification(context.Background(), VerificationArtist, "I make music"))
	assert.JSONEq(t, `{"type":"artist","reason":"I make music"}`, api.last(http.MethodPost, "/verification/request").Body)
}
