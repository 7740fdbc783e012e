package core

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
)

// State is an immutable snapshot of the session published to consumers.
// The User pointer is never mutated after publication.
type State struct {
	User        *User
	Loading     bool
	Blocked     bool
	BlockReason string
}

// IsGuest reports whether no user snapshot is held.
func (s State) IsGuest() bool { return s.User == nil }

// IsAdmin is derived from the snapshot's role flags.
func (s State) IsAdmin() bool { return s.User.Admin() }

// IsBlocked reports the moderation block recorded with the snapshot.
func (s State) IsBlocked() bool { return s.Blocked }

// SessionController is the only writer of session state and of the
// credential store. One instance lives for the whole process.
type SessionController struct {
	gw    *Gateway
	store CredentialStore
	log   logrus.FieldLogger

	mu    sync.RWMutex
	state State

	fetch singleflight.Group
	// epoch counts credential changes made by this controller
	epoch atomic.Uint64

	subsMu sync.Mutex
	subs   map[int]func(State)
	nextID int
}

func NewSessionController(gw *Gateway, store CredentialStore, logger logrus.FieldLogger) *SessionController {
	if logger == nil {
		logger = discardLogger()
	}
	return &SessionController{
		gw:    gw,
		store: store,
		log:   logger.WithField("component", "session"),
		state: State{Loading: true},
		subs:  map[int]func(State){},
	}
}

// State returns the current snapshot.
func (c *SessionController) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Subscribe registers fn to receive every published state. The returned
// func removes the subscription.
func (c *SessionController) Subscribe(fn func(State)) func() {
	c.subsMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subsMu.Unlock()
	return func() {
		c.subsMu.Lock()
		delete(c.subs, id)
		c.subsMu.Unlock()
	}
}

// Initialize hydrates the session from the stored credential. It never
// fails: an unusable credential leaves the session logged out.
func (c *SessionController) Initialize(ctx context.Context) {
	sessionEvents.WithLabelValues("initialize").Inc()
	c.reconcile(ctx)
}

// RefreshUser re-fetches the snapshot and reconciles block flags. Calls made
// while a fetch is in flight join it instead of racing it.
func (c *SessionController) RefreshUser(ctx context.Context) {
	sessionEvents.WithLabelValues("refresh").Inc()
	c.reconcile(ctx)
}

// Epoch changes whenever a login, registration, logout or invalidation
// replaces the stored credential.
func (c *SessionController) Epoch() uint64 { return c.epoch.Load() }

// reconcile runs the shared fetch on a context detached from ctx: a caller
// that gives up only stops waiting, and the fetch settles the state for
// every joined caller.
func (c *SessionController) reconcile(ctx context.Context) {
	detached := context.WithoutCancel(ctx)
	ch := c.fetch.DoChan("me", func() (any, error) {
		c.reconcileOnce(detached)
		return nil, nil
	})
	select {
	case <-ch:
	case <-ctx.Done():
		c.log.WithError(ctx.Err()).Debug("caller left before the user fetch settled")
	}
}

func (c *SessionController) reconcileOnce(ctx context.Context) {
	cred, ok := c.store.Get(ctx)
	if !ok {
		c.update(func(s *State) { *s = State{} })
		return
	}

	me, err := c.fetchMe(ctx)

	// a logout or a new login while the fetch was in flight supersedes it
	if cur, ok := c.store.Get(ctx); !ok || cur.Token != cred.Token {
		c.log.Debug("discarding superseded user fetch")
		c.update(func(s *State) { s.Loading = false })
		return
	}

	if err != nil {
		// fail closed: any error, including transport errors, drops the credential
		c.log.WithError(err).Warn("current user fetch failed, clearing credential")
		sessionEvents.WithLabelValues("invalidated").Inc()
		if cerr := c.store.Clear(ctx); cerr != nil {
			c.log.WithError(cerr).Error("failed to clear credential store")
		}
		c.epoch.Add(1)
		c.update(func(s *State) { *s = State{} })
		return
	}

	c.update(func(s *State) {
		*s = State{User: me, Blocked: me.IsBlocked}
		if me.IsBlocked {
			s.BlockReason = me.BlockReason
		}
	})
}

// Login exchanges email/password for a credential and loads the snapshot.
// On a rejected login nothing stored is touched.
func (c *SessionController) Login(ctx context.Context, email, password string) error {
	var res authResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.gw.Post(ctx, "/auth/login", body, &res); err != nil {
		return err
	}
	if err := c.persist(ctx, res); err != nil {
		return err
	}
	sessionEvents.WithLabelValues("login").Inc()

	me, err := c.fetchMe(ctx)
	if err != nil {
		return err
	}
	c.update(func(s *State) {
		s.User = me
		s.Loading = false
		if me.IsBlocked {
			s.Blocked = true
			s.BlockReason = me.BlockReason
		}
	})
	return nil
}

// Register creates an account and loads the snapshot. Block flags are left
// as they are; a fresh account is not expected to be blocked.
func (c *SessionController) Register(ctx context.Context, username, email, password string) error {
	var res authResponse
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := c.gw.Post(ctx, "/auth/register", body, &res); err != nil {
		return err
	}
	if err := c.persist(ctx, res); err != nil {
		return err
	}
	sessionEvents.WithLabelValues("register").Inc()

	me, err := c.fetchMe(ctx)
	if err != nil {
		return err
	}
	c.update(func(s *State) {
		s.User = me
		s.Loading = false
	})
	return nil
}

// Logout is purely local: the credential is wiped and the state reset even
// when the store reports an error, which is returned for logging.
func (c *SessionController) Logout(ctx context.Context) error {
	sessionEvents.WithLabelValues("logout").Inc()
	err := c.store.Clear(ctx)
	if err != nil {
		c.log.WithError(err).Error("failed to clear credential store")
	}
	c.epoch.Add(1)
	c.update(func(s *State) {
		s.User = nil
		s.Blocked = false
		s.BlockReason = ""
	})
	return err
}

func (c *SessionController) persist(ctx context.Context, res authResponse) error {
	cred := Credential{Token: res.Token, UserID: res.UserID.String()}
	if !cred.Valid() {
		return errors.New("auth response did not include a token and user id")
	}
	if err := c.store.Set(ctx, cred.Token, cred.UserID); err != nil {
		return err
	}
	c.epoch.Add(1)
	return nil
}

// fetchMe loads /auth/me. Both a bare user object and {"user": {...}} are accepted.
func (c *SessionController) fetchMe(ctx context.Context) (*User, error) {
	var raw json.RawMessage
	if err := c.gw.Get(ctx, "/auth/me", &raw); err != nil {
		return nil, err
	}
	if inner := gjson.GetBytes(raw, "user"); inner.IsObject() && !gjson.GetBytes(raw, "id").Exists() {
		raw = json.RawMessage(inner.Raw)
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *SessionController) update(fn func(*State)) {
	c.mu.Lock()
	next := c.state
	fn(&next)
	// loading only ever goes true -> false
	next.Loading = next.Loading && c.state.Loading
	if next.User == nil {
		next.Blocked = false
		next.BlockReason = ""
	}
	c.state = next
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"guest":   next.IsGuest(),
		"admin":   next.IsAdmin(),
		"blocked": next.Blocked,
		"loading": next.Loading,
	}).Debug("session state published")
	c.notify(next)
}

func (c *SessionController) notify(s State) {
	c.subsMu.Lock()
	fns := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subsMu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}
