package core

import (
	"context"
	"encoding/json"

	"github.com/tidwall/gjson"
)

func (c *Client) Chats(ctx context.Context) ([]ChatPreview, error) {
	return getList[ChatPreview](ctx, c.gw, "/messages/chats", "chats")
}

// Thread loads the conversation with userID. Pinned messages are collected
// from the message list.
func (c *Client) Thread(ctx context.Context, userID FlexID) (Thread, error) {
	var raw json.RawMessage
	if err := c.gw.Get(ctx, "/messages/"+seg(userID), &raw); err != nil {
		return Thread{}, err
	}
	msgs, err := decodeList[Message](raw, "messages")
	if err != nil {
		return Thread{}, err
	}
	t := Thread{Messages: msgs, Pinned: []Message{}}
	if u := gjson.GetBytes(raw, "user"); u.IsObject() {
		var ref UserRef
		if err := json.Unmarshal([]byte(u.Raw), &ref); err == nil {
			t.User = &ref
		}
	}
	for _, m := range msgs {
		if m.IsPinned {
			t.Pinned = append(t.Pinned, m)
		}
	}
	return t, nil
}

func (c *Client) SendMessage(ctx context.Context, to FlexID, content string, replyTo FlexID) (Message, error) {
	body := map[string]any{"receiver_id": to, "content": content, "reply_to_id": nil}
	if replyTo != "" {
		body["reply_to_id"] = replyTo
	}
	var m Message
	err := c.gw.Post(ctx, "/messages/send", body, &m)
	return m, err
}

func (c *Client) EditMessage(ctx context.Context, id FlexID, content string) error {
	return c.gw.Post(ctx, "/messages/edit", map[string]any{"message_id": id, "content": content}, nil)
}

// HideMessage removes a message from the caller's view only.
func (c *Client) HideMessage(ctx context.Context, id FlexID) error {
	return c.gw.Post(ctx, "/messages/hide", map[string]any{"message_id": id}, nil)
}

func (c *Client) PinMessage(ctx context.Context, id FlexID) error {
	return c.gw.Post(ctx, "/messages/"+seg(id)+"/pin", nil, nil)
}

func (c *Client) MarkRead(ctx context.Context, userID FlexID) error {
	return c.gw.Post(ctx, "/messages/read", map[string]any{"user_id": userID}, nil)
}
