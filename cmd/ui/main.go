package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"bikebuyers/config"
	"bikebuyers/logger"
	"bikebuyers/ui"
)

func main() {
	// Look for config in root even if run from cmd/ui
	defaultConfig := "config.yaml"
	if _, err := os.Stat(defaultConfig); os.IsNotExist(err) {
		defaultConfig = filepath.Join("..", "..", "config.yaml")
	}
	configPath := flag.String("config", defaultConfig, "path to config file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	// 2. Form schema is required, background image is not
	schema, err := ui.LoadSchema(cfg.UI.SchemaPath)
	if err != nil {
		logg.Fatal("failed to load ui config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	background := ui.LoadBackground(cfg.UI.BackgroundImage, logg)
	go background.Watch(ctx)

	client := ui.NewPredictClient(cfg.UI.APIURL, cfg.UI.APITimeout)
	handler, err := ui.NewHandler(schema, client, background, logg)
	if err != nil {
		logg.Fatal("failed to build handler", zap.Error(err))
	}

	// 3. Start HTTP server
	server := ui.NewServer(cfg.UI.Host, cfg.UI.Port, handler)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()
	logg.Info("prediction api", zap.String("url", cfg.UI.APIURL))

	// 4. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			logg.Error("HTTP server failed", zap.Error(err))
		}
		return
	}

	if err := server.Stop(); err != nil {
		logg.Error("server forced to shutdown", zap.Error(err))
	}
	logg.Info("exiting")
}
