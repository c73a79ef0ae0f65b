package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dink-feed/config"
	"dink-feed/feed"
	"dink-feed/logging"
	"dink-feed/metrics"
	"dink-feed/publish"
	"dink-feed/rules"
	"dink-feed/server"
	"dink-feed/session"
	"dink-feed/upload"
)

func main() {
	if err := run(); err != nil {
		slog.Error("dink-feed stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		logging.Configure(os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))
		return err
	}
	logger := logging.Configure(cfg.LogFormat, cfg.LogLevel).With("component", logging.ComponentMain)
	cfg.LogStartup(logger)

	sessions, err := openSessions(cfg)
	if err != nil {
		return err
	}
	defer sessions.Close()

	routing, err := rules.Load(cfg.RulesPath, cfg.CastChannel)
	if err != nil {
		return err
	}

	if cfg.NeynarAPIKey == "" {
		logger.Warn("NEYNAR_API_KEY is not set; casts will be rejected upstream")
	}
	var uploader upload.Uploader
	if cfg.BlobToken != "" {
		uploader = upload.NewBlob(cfg.BlobBaseURL, cfg.BlobToken, cfg.ClientTimeout)
	} else {
		logger.Warn("BLOB_READ_WRITE_TOKEN is not set; screenshots will not be attached")
	}

	hub := feed.NewHub(0)
	srv := server.NewServer(cfg, server.Deps{
		Sessions:  sessions,
		Publisher: publish.NewNeynar(cfg.NeynarBaseURL, cfg.NeynarAPIKey, cfg.ClientTimeout),
		Uploader:  uploader,
		Rules:     routing,
		Feed:      hub,
		Metrics:   metrics.New(),
		Logger:    slog.Default(),
	})
	httpServer := srv.HTTPServer()
	httpServer.RegisterOnShutdown(hub.Close)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting dink-feed", "addr", httpServer.Addr, "sessions", cfg.SessionBackend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func openSessions(cfg *config.Config) (session.Store, error) {
	if cfg.SessionBackend == config.BackendUpstash {
		return session.NewUpstash(cfg.UpstashURL, cfg.UpstashToken, cfg.ClientTimeout)
	}
	return session.OpenSQLite(cfg.SQLitePath)
}
