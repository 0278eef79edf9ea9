package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/xpanvictor/somniatrack/internal/app"
	"github.com/xpanvictor/somniatrack/internal/config"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
)

// @title SomniaTrack API
// @version 0.1.0
// @description Sleep estimation from audio loudness and camera frames.
// @BasePath /
// @securityDefinitions.apikey SessionToken
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := Logger.New(cfg.Debug)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to build app: %v", err)
	}
	if err := a.Run(ctx); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
}
