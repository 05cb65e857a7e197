package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"policy-lens/handler"
	"policy-lens/internal/app"
	"policy-lens/internal/config"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg := config.Load()
	if cfg.StateTable == "" {
		// Warm containers keep memory between invocations but nothing is
		// shared across containers.
		slog.Warn("STATE_TABLE is not set; conversations live only in this container")
	}

	// ---- Chat service ----
	chat, err := app.NewChatService(ctx, cfg, nil)
	if err != nil {
		slog.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(chat, nil)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
