package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"bikebuyers/config"
	"bikebuyers/db"
	"bikebuyers/events"
	qhttp "bikebuyers/http"
	"bikebuyers/logger"
	"bikebuyers/ml"
	"bikebuyers/monitoring"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
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

	// 2. Load model before binding the listener
	svc := cfg.Service
	model, err := ml.LoadModel(svc.Model.Type, svc.Model.Path, ml.BikeBuyerSchema)
	if err != nil {
		logg.Fatal("failed to load model", zap.Error(err))
	}
	predictor, err := ml.NewPredictor(model, svc.Model.CacheSize)
	if err != nil {
		logg.Fatal("failed to build predictor", zap.Error(err))
	}
	logg.Info("model loaded",
		zap.String("type", model.Type()),
		zap.String("path", svc.Model.Path),
		zap.String("schema_version", model.Schema().Version))

	// 3. Prediction observers
	metrics := monitoring.NewMetrics()
	hub := monitoring.NewPredictionHub(logg)
	go hub.Start()
	defer hub.Stop()

	app := &qhttp.App{
		Predictor: predictor,
		Model:     model,
		Observers: monitoring.Observers{metrics, hub},
		Metrics:   metrics,
		Feed:      hub,
		Logger:    logg,
	}

	if svc.Database.Path != "" {
		store, err := db.OpenStore(svc.Database.Path)
		if err != nil {
			logg.Fatal("failed to open prediction log", zap.Error(err))
		}
		defer store.Close()
		app.Observers = append(app.Observers, store)
		app.History = store
		logg.Info("prediction log enabled", zap.String("path", svc.Database.Path))
	}

	if len(svc.Kafka.Brokers) > 0 {
		producer := events.NewProducer(svc.Kafka.Brokers, svc.Kafka.Topic)
		defer producer.Close()
		app.Observers = append(app.Observers, producer)
		logg.Info("prediction events enabled",
			zap.Strings("brokers", svc.Kafka.Brokers),
			zap.String("topic", svc.Kafka.Topic))
	}

	// 4. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Host:           svc.HTTP.Host,
		Port:           svc.HTTP.Port,
		Timeout:        svc.HTTP.Timeout,
		AllowedOrigins: svc.HTTP.AllowedOrigins,
	}, app)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			logg.Error("HTTP server failed", zap.Error(err))
		}
		app.Drain()
		return
	}

	if err := server.Stop(); err != nil {
		logg.Error("server forced to shutdown", zap.Error(err))
	}
	app.Drain()
	logg.Info("exiting")
}
