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

	"heartrisk/config"
	"heartrisk/db"
	qhttp "heartrisk/http"
	"heartrisk/logging"
	"heartrisk/ml"
)

func main() {
	configPath := flag.String("config", "config.yaml", "config file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(config.Resolve(*configPath))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 2. Initialize database
	var trainingLog qhttp.TrainingLogFunc
	if cfg.Database.Path != "" {
		if err := db.InitDB(cfg.Database.Path); err != nil {
			logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		defer db.Close()
		trainingLog = db.LoadTrainingLog
		logger.Info("Database initialized", zap.String("path", cfg.Database.Path))
	}

	// 3. Model store
	store, err := ml.NewModelStore(cfg.ML.ModelType, cfg.ML.ModelPath, cfg.ML.CacheSize, logger)
	if err != nil {
		logger.Fatal("Failed to create model store", zap.Error(err))
	}
	logger.Info("model store ready", zap.String("path", store.Path()), zap.Int("cache_size", cfg.ML.CacheSize))
	if _, err := store.Model(); err != nil {
		// Not fatal: requests report the load error until the trainer runs.
		logger.Warn("model not available yet", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.ML.Watch {
		if err := os.MkdirAll(filepath.Dir(cfg.ML.ModelPath), 0o755); err != nil {
			logger.Warn("failed to create model dir", zap.Error(err))
		} else if err := store.Watch(ctx); err != nil {
			logger.Warn("failed to watch model artifact", zap.Error(err))
		}
	}

	// 4. Start HTTP server
	serverConfig := qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
	}
	server := qhttp.NewServer(serverConfig, qhttp.NewHandlers(store, trainingLog, logger), logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	if err := server.Stop(); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Exiting")
}
