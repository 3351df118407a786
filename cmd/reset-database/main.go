// Command reset-database drops every table and re-runs module migrations.
// Development only: it destroys all data.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

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
	fmt.Println("Database reset utility. WARNING: this destroys all data!")
	fmt.Println("Press Enter to continue or Ctrl+C to cancel...")
	fmt.Scanln()

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

	if err := dropAllTables(db); err != nil {
		logger.Error("Failed to drop tables", logger.Err("error", err))
		os.Exit(1)
	}

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
	}

	logger.Info("Database reset complete")
}

func dropAllTables(db *gorm.DB) error {
	var tables []string
	if err := db.Raw("SELECT table_name FROM information_schema.tables WHERE table_schema = ?", "public").Scan(&tables).Error; err != nil || len(tables) == 0 {
		// SQLite fallback
		if err := db.Raw("SELECT name FROM sqlite_master WHERE type='table'").Scan(&tables).Error; err != nil {
			return fmt.Errorf("failed to list tables: %w", err)
		}
	}

	for _, table := range tables {
		if table == "sqlite_sequence" {
			continue
		}
		if err := db.Migrator().DropTable(table); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
