package core

import "context"

func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	return getList[Notification](ctx, c.gw, "/notifications", "notifications")
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.gw.Post(ctx, "/notifications/read-all", nil, nil)
}

func (c *Client) FollowRequests(ctx context.Context) ([]FollowRequest, error) {
	return getList[FollowRequest](ctx, c.gw, "/follow-requests", "requests")
}

func (c *Client) AcceptFollowRequest(ctx context.Context, id FlexID) error {
	return c.gw.Post(ctx, "/follow-requests/"+seg(id)+"/accept", nil, nil)
}

func (c *Client) RejectFollowRequest(ctx context.Context, id FlexID) error {
	return c.gw.Post(ctx, "/follow-requests/"+seg(id)+"/reject", nil, nil)
}
