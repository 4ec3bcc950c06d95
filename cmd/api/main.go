package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/GitHubKaan/gju-jobs-api/internal/infra/app"
	"github.com/GitHubKaan/gju-jobs-api/internal/infra/config"
)

func main() {
	// Absent .env files are fine, real environments inject variables directly.
	_ = godotenv.Load()

	if err := run(); err != nil {
		log.Fatalf("jobs api: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}

	return application.Run(ctx)
}
