package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"policy-lens/internal/app"
	"policy-lens/internal/config"
	"policy-lens/internal/metrics"
	"policy-lens/internal/server"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	if !cfg.IsDev() {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	rec, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		slog.Error("failed to register metrics", "err", err)
		os.Exit(1)
	}

	chat, err := app.NewChatService(ctx, cfg, rec)
	if err != nil {
		slog.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}

	srv := server.New(cfg)
	srv.RegisterRoutes(server.Deps{
		Chat:        chat,
		Simulations: rec,
		Gatherer:    prometheus.DefaultGatherer,
	})

	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("server stopped", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	if err := srv.Shutdown(); err != nil {
		slog.Error("shutdown failed", "err", err)
	}
}
