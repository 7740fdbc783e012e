package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
)

// Feed returns one page of the home feed.
func (c *Client) Feed(ctx context.Context, page, limit int) ([]Post, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return getList[Post](ctx, c.gw, fmt.Sprintf("/posts/feed?page=%d&limit=%d", page, limit), "posts")
}

// Post returns a post with its comment tree. The post may arrive at the top
// level or under "post".
func (c *Client) Post(ctx context.Context, id FlexID) (PostDetail, error) {
	var raw json.RawMessage
	if err := c.gw.Get(ctx, "/posts/"+seg(id), &raw); err != nil {
		return PostDetail{}, err
	}
	doc := gjson.ParseBytes(raw)
	postRaw := raw
	if p := doc.Get("post"); p.IsObject() {
		postRaw = json.RawMessage(p.Raw)
	}
	var detail PostDetail
	if err := json.Unmarshal(postRaw, &detail.Post); err != nil {
		return PostDetail{}, err
	}
	comments, err := decodeList[Comment]([]byte(doc.Get("comments").Raw), "comments")
	if err != nil {
		return PostDetail{}, err
	}
	detail.Comments = comments
	return detail, nil
}

func (c *Client) CreatePost(ctx context.Context, content string, media []string) (Post, error) {
	if media == nil {
		media = []string{}
	}
	var p Post
	err := c.gw.Post(ctx, "/posts/create", map[string]any{"content": content, "media": media}, &p)
	return p, err
}

func (c *Client) LikePost(ctx context.Context, id FlexID) (LikeResult, error) {
	var r LikeResult
	err := c.gw.Post(ctx, "/posts/"+seg(id)+"/like", nil, &r)
	return r, err
}

func (c *Client) RepostPost(ctx context.Context, id FlexID) (RepostResult, error) {
	var r RepostResult
	err := c.gw.Post(ctx, "/posts/"+seg(id)+"/repost", nil, &r)
	return r, err
}

func (c *Client) DeletePost(ctx context.Context, id FlexID) error {
	return c.gw.Post(ctx, "/posts/"+seg(id)+"/delete", nil, nil)
}

func (c *Client) ReportPost(ctx context.Context, id FlexID, reason string) error {
	return c.gw.Post(ctx, "/posts/"+seg(id)+"/report", map[string]string{"reason": reason}, nil)
}

// Comment adds a comment to a post; replyTo is empty for top-level comments.
func (c *Client) Comment(ctx context.Context, postID FlexID, text string, replyTo FlexID) (Comment, error) {
	body := map[string]any{"text": text, "reply_to_id": nil}
	if replyTo != "" {
		body["reply_to_id"] = replyTo
	}
	var cm Comment
	err := c.gw.Post(ctx, "/posts/"+seg(postID)+"/comment", body, &cm)
	return cm, err
}

func (c *Client) LikeComment(ctx context.Context, id FlexID) (LikeResult, error) {
	var r LikeResult
	err := c.gw.Post(ctx, "/comments/"+seg(id)+"/like", nil, &r)
	return r, err
}

func (c *Client) DeleteComment(ctx context.Context, id FlexID) error {
	return c.gw.Post(ctx, "/comments/"+seg(id)+"/delete", nil, nil)
}

func (c *Client) PinComment(ctx context.Context, id FlexID) error {
	return c.gw.Post(ctx, "/comments/"+seg(id)+"/pin", nil, nil)
}

// UploadMedia uploads an attachment and returns its public URL.
func (c *Client) UploadMedia(ctx context.Context, name string, content io.Reader) (string, error) {
	var res struct {
		URL string `json:"url"`
	}
	if err := c.gw.Upload(ctx, "/upload", UploadForm{FileName: name, Content: content}, &res); err != nil {
		return "", err
	}
	return res.URL, nil
}
