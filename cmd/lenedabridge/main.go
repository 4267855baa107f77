package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"

	"github.com/lenedabridge/lenedabridge/pkg/coordinator"
	"github.com/lenedabridge/lenedabridge/pkg/leneda"
	"github.com/lenedabridge/lenedabridge/pkg/log"
	"github.com/lenedabridge/lenedabridge/pkg/scheduler"
	"github.com/lenedabridge/lenedabridge/pkg/server"
	"github.com/lenedabridge/lenedabridge/pkg/storage"
)

func main() {
	// load a .env file if present, for local development
	_ = godotenv.Load()

	// init packages
	client := leneda.Configured()
	store := storage.Configured()
	coord := coordinator.Configured(client, store)
	sched := scheduler.Configured(coord)

	// init server
	srv := server.Configured(coord, client)

	// parse flags
	lflag.Configure()

	var level slog.Level
	// lflag automatically sets llog's level, but we need to set the slog level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// If initialization inside lflag.Do failed, we wouldn't be here (panic).
	defer func() {
		if err := store.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}()

	// drive sync ticks in the background
	go sched.Run(ctx)

	// Run will block until context is canceled or error happens
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
