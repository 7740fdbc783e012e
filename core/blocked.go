package core

import (
	"context"
	"strings"
)

// BlockedScreen is the only view shown while the session is blocked.
type BlockedScreen struct {
	Reason  string   `json:"reason,omitempty"`
	Actions []string `json:"actions"`
}

// Actions offered on the blocked screen.
const (
	ActionAppeal = "appeal"
	ActionLogout = "logout"
)

// BlockedInterceptor takes over the whole UI for blocked users and offers
// appeal and logout only.
type BlockedInterceptor struct {
	session *SessionController
	gw      *Gateway
}

func NewBlockedInterceptor(session *SessionController, gw *Gateway) *BlockedInterceptor {
	return &BlockedInterceptor{session: session, gw: gw}
}

// Screen returns the blocked screen and true when s is blocked.
func (b *BlockedInterceptor) Screen(s State) (BlockedScreen, bool) {
	if !s.IsBlocked() {
		return BlockedScreen{}, false
	}
	return BlockedScreen{Reason: s.BlockReason, Actions: []string{ActionAppeal, ActionLogout}}, true
}

// SubmitAppeal sends the appeal text. The block stays in place until a
// later refresh observes a moderation decision.
func (b *BlockedInterceptor) SubmitAppeal(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyAppeal
	}
	return b.gw.Post(ctx, "/appeal", map[string]string{"text": text}, nil)
}

// Logout delegates to the session controller.
func (b *BlockedInterceptor) Logout(ctx context.Context) error {
	return b.session.Logout(ctx)
}
