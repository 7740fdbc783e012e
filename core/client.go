package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"
)

// Client exposes typed resource operations on top of the gateway. Reads
// are GETs, every write is a POST.
type Client struct {
	gw      *Gateway
	session *SessionController
}

func NewClient(gw *Gateway, session *SessionController) *Client {
	return &Client{gw: gw, session: session}
}

// Gateway returns the underlying transport.
func (c *Client) Gateway() *Gateway { return c.gw }

// Session returns the controller this client reports account changes to.
func (c *Client) Session() *SessionController { return c.session }

// getList fetches a list that the API returns either bare or wrapped under key.
func getList[T any](ctx context.Context, gw *Gateway, path, key string) ([]T, error) {
	var raw json.RawMessage
	if err := gw.Get(ctx, path, &raw); err != nil {
		return nil, err
	}
	return decodeList[T](raw, key)
}

func decodeList[T any](raw []byte, key string) ([]T, error) {
	doc := gjson.ParseBytes(raw)
	if inner := doc.Get(key); inner.IsArray() {
		raw = []byte(inner.Raw)
	} else if !doc.IsArray() {
		return []T{}, nil
	}
	out := []T{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// seg escapes one path segment.
func seg(v any) string {
	switch t := v.(type) {
	case FlexID:
		return url.PathEscape(string(t))
	case string:
		return url.PathEscape(t)
	default:
		return url.PathEscape(fmt.Sprint(t))
	}
}

func verb(accept bool) string {
	if accept {
		return "accept"
	}
	return "reject"
}
