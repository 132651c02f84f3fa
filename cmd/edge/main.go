// Package main is the entry point for the offline edge that fronts the web app.
package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/theology-chat/internal/cachestore"
	"github.com/capitalize-ai/theology-chat/internal/config"
	"github.com/capitalize-ai/theology-chat/internal/edge"
	natsclient "github.com/capitalize-ai/theology-chat/internal/nats"
	"github.com/capitalize-ai/theology-chat/pkg/logger"
)

func main() {
	cfg, err := config.LoadEdge()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load edge config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	origin, err := url.Parse(cfg.Origin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		log.Error("invalid origin", zap.String("origin", cfg.Origin), zap.Error(err))
		os.Exit(1)
	}

	log.Info("starting edge",
		zap.String("origin", origin.String()),
		zap.String("cache_version", cfg.CacheVersion),
		zap.Bool("skip_waiting", cfg.SkipWaiting),
	)

	store, err := cachestore.OpenBolt(cfg.BoltPath)
	if err != nil {
		log.Error("failed to open cache store", zap.String("path", cfg.BoltPath), zap.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	// Events go to NATS subscribers when configured, to the log otherwise
	var notifier edge.Notifier = edge.LogNotifier{Logger: log}
	if cfg.NATSURL != "" {
		nc, err := natsclient.Connect(context.Background(), natsclient.Config{
			URL:   cfg.NATSURL,
			Token: cfg.NATSToken,
			Name:  "theology-chat-edge",
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer nc.Close()
		notifier = edge.NATSNotifier{Publisher: nc}
	}

	controller, err := edge.NewController(edge.ControllerOptions{
		Store:       store,
		Version:     cfg.CacheVersion,
		Manifest:    cfg.Manifest,
		Origin:      origin,
		Client:      &http.Client{Timeout: cfg.FetchTimeout},
		SkipWaiting: cfg.SkipWaiting,
		Notifier:    notifier,
		Logger:      log,
	})
	if err != nil {
		log.Error("failed to create lifecycle controller", zap.Error(err))
		os.Exit(1)
	}
	if err := controller.Restore(); err != nil {
		log.Warn("failed to restore previous cache", zap.Error(err))
	}

	router, err := edge.NewRouter(edge.RouterOptions{
		Origin:          origin,
		Caches:          controller,
		ExcludePatterns: cfg.ExcludePatterns,
		Logger:          log,
	})
	if err != nil {
		log.Error("failed to create router", zap.Error(err))
		os.Exit(1)
	}

	server := &http.Server{
		Addr: ":" + cfg.ListenPort,
		Handler: edge.NewHandler(edge.HandlerOptions{
			Origin:        origin,
			Router:        router,
			Controller:    controller,
			Notifications: edge.NewNotifications(notifier, log),
			JWTSecret:     cfg.JWTSecret,
			Logger:        log,
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	installCtx, cancelInstall := context.WithCancel(context.Background())
	defer cancelInstall()
	go func() {
		// A failed install leaves the previous version (if any) in control.
		if err := controller.Install(installCtx); err != nil {
			log.Error("cache install failed", zap.Error(err))
		}
	}()

	go func() {
		log.Info("edge listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down edge")
	cancelInstall()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("edge forced to shutdown", zap.Error(err))
	}
	router.Wait()

	log.Info("edge stopped")
}
