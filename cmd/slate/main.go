package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/slatehq/slate/internal/config"
	"github.com/slatehq/slate/internal/database"
	"github.com/slatehq/slate/internal/logger"
	"github.com/slatehq/slate/internal/server"
)

func main() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	if err := config.Load(os.Getenv("SLATE_CONFIG")); err != nil {
		logger.Error("Failed to load configuration", logger.Err("error", err))
		os.Exit(1)
	}

	cfg := config.Get()
	logger.Configure(cfg.Logging.Level, cfg.Logging.Format)

	if err := database.Initialize(); err != nil {
		logger.Error("Failed to initialize database", logger.Err("error", err))
		os.Exit(1)
	}

	watcher, err := config.NewFileWatcher(config.GetConfigManager())
	if err != nil {
		logger.Warn("Config hot-reload unavailable", logger.Err("error", err))
	} else if err := watcher.Start(); err != nil {
		logger.Warn("Failed to start config watcher", logger.Err("error", err))
	} else {
		defer watcher.Stop()
	}

	r := server.SetupRouter()
	defer server.ShutdownEventBus()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting Slate server", logger.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Error("Server exited", logger.Err("error", err))
		os.Exit(1)
	}
}
