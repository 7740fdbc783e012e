package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"buzzy-client/core"
)

func main() {
	cfg := core.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, logCloser, err := core.SetupLogging(cfg, "watcher.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	store, closeStore, err := core.NewCredentialStore(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("failed to open credential store")
	}
	defer closeStore()

	gw := core.NewGateway(cfg.APIBaseURL, cfg.RequestTimeout, store, logger)
	session := core.NewSessionController(gw, store, logger)
	client := core.NewClient(gw, session)

	watcherID := core.NewWatcherID()
	state := core.NewWatcherState(watcherID)
	session.Subscribe(state.ObserveSession)
	session.Initialize(ctx)

	if session.State().IsGuest() {
		logger.Fatal("no usable credential; log in through the companion host first")
	}
	logger.WithFields(logrus.Fields{"id": watcherID, "interval": cfg.PollInterval}).Info("watcher started")

	seen := map[core.FlexID]struct{}{}
	poller := core.NewPoller("inbox", cfg.PollInterval, func(ctx context.Context) error {
		err := pollInbox(ctx, client, state, seen, logger)
		state.PollFinished(err)
		return err
	}, logger)
	poller.Start(ctx)

	if cfg.RedisURL != "" {
		redisClient, err := core.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, heartbeat disabled")
		} else {
			defer redisClient.Close()
			heartbeat := core.NewPoller("heartbeat", 5*time.Second, func(ctx context.Context) error {
				return state.Flush(ctx, redisClient)
			}, logger)
			heartbeat.Start(ctx)
			defer heartbeat.Stop()
		}
	}

	<-ctx.Done()
	poller.Stop()
	logger.Info("watcher stopped")
}

// pollInbox refreshes the session, then logs notifications not seen before
// and the unread totals.
func pollInbox(ctx context.Context, client *core.Client, state *core.WatcherState, seen map[core.FlexID]struct{}, logger logrus.FieldLogger) error {
	client.Session().RefreshUser(ctx)
	st := client.Session().State()
	if st.IsGuest() {
		return errors.New("session ended")
	}
	if st.IsBlocked() {
		logger.WithField("reason", st.BlockReason).Warn("account is blocked")
		return nil
	}

	notes, err := client.Notifications(ctx)
	if err != nil {
		return err
	}
	unreadNotes := 0
	for _, n := range notes {
		if !n.IsRead {
			unreadNotes++
		}
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		if !n.IsRead {
			logger.WithFields(logrus.Fields{"type": n.Type, "from": n.FromUser.Username}).Info("new notification")
		}
	}

	chats, err := client.Chats(ctx)
	if err != nil {
		return err
	}
	unreadMessages := 0
	for _, ch := range chats {
		unreadMessages += ch.UnreadCount
	}
	state.SetUnread(unreadNotes, unreadMessages)
	return nil
}
