// Command migrate runs every module's schema migration without starting
// the server. Useful for deploy pipelines that migrate before rollout.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/slatehq/slate/internal/config"
	"github.com/slatehq/slate/internal/database"
	"github.com/slatehq/slate/internal/events"
	"github.com/slatehq/slate/internal/logger"
	"github.com/slatehq/slate/internal/modules/modulemanager"

	_ "github.com/slatehq/slate/internal/modules/budgetmodule"
	_ "github.com/slatehq/slate/internal/modules/databasemodule"
	_ "github.com/slatehq/slate/internal/modules/eventsmodule"
	_ "github.com/slatehq/slate/internal/modules/productionmodule"
	_ "github.com/slatehq/slate/internal/modules/schedulemodule"
)

func main() {
	_ = godotenv.Load()

	if err := config.Load(os.Getenv("SLATE_CONFIG")); err != nil {
		logger.Error("Failed to load configuration", logger.Err("error", err))
		os.Exit(1)
	}
	if err := database.Initialize(); err != nil {
		logger.Error("Failed to initialize database", logger.Err("error", err))
		os.Exit(1)
	}

	db := database.GetDB()

	if err := events.MigrateEventStorage(db); err != nil {
		logger.Error("Event storage migration failed", logger.Err("error", err))
		os.Exit(1)
	}

	for _, module := range modulemanager.ListModules() {
		if err := module.Migrate(db); err != nil {
			logger.Error("Module migration failed",
				logger.String("module", module.ID()),
				logger.Err("error", err))
			os.Exit(1)
		}
		logger.Info("Module migrated", logger.String("module", module.ID()))
	}

	logger.Info("All migrations applied")
}
