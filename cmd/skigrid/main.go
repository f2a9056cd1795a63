package main

import (
	"fmt"
	"os"

	"github.com/javiermolinar/skigrid/internal/config"
	"github.com/javiermolinar/skigrid/internal/logging"
	"github.com/javiermolinar/skigrid/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	app, err := ui.NewApp(cfg, ui.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return app.Execute()
}
