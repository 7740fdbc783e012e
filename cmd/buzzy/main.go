package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
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

	logger, logCloser, err := core.SetupLogging(cfg, "buzzy.log")
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
	session.Subscribe(func(s core.State) {
		logger.WithFields(logrus.Fields{
			"guest":   s.IsGuest(),
			"blocked": s.IsBlocked(),
			"loading": s.Loading,
		}).Info("session changed")
	})
	session.Initialize(ctx)

	var status *core.StatusService
	if cfg.RedisURL != "" {
		redisClient, err := core.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, watcher status disabled")
		} else {
			defer redisClient.Close()
			status = core.NewStatusService(redisClient)
		}
	}

	host := core.Host{
		Session: session,
		Client:  core.NewClient(gw, session),
		Blocked: core.NewBlockedInterceptor(session, gw),
		Status:  status,
	}
	router := core.NewRouter(cfg, core.NewCookieStore(cfg), host)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.ListenHost, cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.WithFields(logrus.Fields{"addr": srv.Addr, "api": cfg.APIBaseURL}).Info("starting companion host")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("server failed")
	}
}
