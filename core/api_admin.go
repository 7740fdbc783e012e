package core

import "context"

// Admin endpoints. The remote API enforces the role; the client only hides
// them behind RequiresAdmin.

func (c *Client) AdminStats(ctx context.Context) (AdminStats, error) {
	var s AdminStats
	err := c.gw.Get(ctx, "/admin/stats", &s)
	return s, err
}

func (c *Client) AdminReports(ctx context.Context) ([]Report, error) {
	return getList[Report](ctx, c.gw, "/admin/reports", "reports")
}

func (c *Client) AdminVerifications(ctx context.Context) ([]Verification, error) {
	return getList[Verification](ctx, c.gw, "/admin/verifications", "verifications")
}

func (c *Client) AdminAppeals(ctx context.Context) ([]Appeal, error) {
	return getList[Appeal](ctx, c.gw, "/admin/appeals", "appeals")
}

func (c *Client) ResolveReport(ctx context.Context, id FlexID, accept bool) error {
	return c.gw.Post(ctx, "/admin/reports/"+seg(id)+"/"+verb(accept), nil, nil)
}

func (c *Client) ResolveVerification(ctx context.Context, id FlexID, accept bool) error {
	return c.gw.Post(ctx, "/admin/verifications/"+seg(id)+"/"+verb(accept), nil, nil)
}

func (c *Client) ResolveAppeal(ctx context.Context, id FlexID, accept bool) error {
	return c.gw.Post(ctx, "/admin/appeals/"+seg(id)+"/"+verb(accept), nil, nil)
}

func (c *Client) AdminBlockUser(ctx context.Context, username, reason string) error {
	return c.gw.Post(ctx, "/admin/block-user", map[string]string{"username": username, "reason": reason}, nil)
}

func (c *Client) AddRelease(ctx context.Context, r Release) error {
	return c.gw.Post(ctx, "/admin/releases/add", r, nil)
}
