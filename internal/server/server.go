// Package server assembles the gin engine: event bus bootstrap, module
// loading and route registration.
package server

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/slatehq/slate/internal/database"
	"github.com/slatehq/slate/internal/events"
	"github.com/slatehq/slate/internal/logger"
	"github.com/slatehq/slate/internal/modules/modulemanager"

	// Import all modules to trigger their registration
	_ "github.com/slatehq/slate/internal/modules/budgetmodule"
	_ "github.com/slatehq/slate/internal/modules/databasemodule"
	_ "github.com/slatehq/slate/internal/modules/eventsmodule"
	_ "github.com/slatehq/slate/internal/modules/productionmodule"
	_ "github.com/slatehq/slate/internal/modules/schedulemodule"
)

var systemEventBus events.EventBus
var moduleInitialized bool

// SetupRouter configures and returns the main router
func SetupRouter() *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	if err := initializeEventBus(); err != nil {
		logger.Error("Failed to initialize event bus", logger.Err("error", err))
	}

	if err := initializeModules(); err != nil {
		logger.Error("Failed to initialize modules", logger.Err("error", err))
	}

	setupRoutes(r)
	modulemanager.RegisterRoutes(r)

	return r
}

// DisableModule disables a specific module (for development/testing only)
func DisableModule(moduleID string) {
	if moduleInitialized {
		logger.Warn("Attempting to disable module after initialization",
			logger.String("module_id", moduleID))
		return
	}
	modulemanager.DisableModule(moduleID)
	logger.Info("Module disabled", logger.String("module_id", moduleID))
}

// initializeEventBus sets up the system event bus with gorm-backed storage
func initializeEventBus() error {
	if systemEventBus != nil {
		return nil
	}

	db := database.GetDB()
	if err := events.MigrateEventStorage(db); err != nil {
		return err
	}

	storage := events.NewDatabaseEventStorage(db)
	metrics := events.NewBasicEventMetrics()
	systemEventBus = events.NewEventBus(events.DefaultEventBusConfig(), storage, metrics)

	if err := systemEventBus.Start(context.Background()); err != nil {
		return err
	}

	events.SetGlobalEventBus(systemEventBus)

	startedEvent := events.NewSystemEvent(
		events.EventSystemStarted,
		"System Started",
		"Slate backend system started",
	)
	systemEventBus.PublishAsync(startedEvent)
	return nil
}

// initializeModules sets up the module system and loads all modules
func initializeModules() error {
	if moduleInitialized {
		return nil
	}

	db := database.GetDB()
	if err := modulemanager.LoadAll(db); err != nil {
		return err
	}

	moduleInitialized = true
	logModuleStatus()
	return nil
}

func logModuleStatus() {
	modules := modulemanager.ListModules()
	logger.Info("Module system initialized", logger.Int("modules", len(modules)))
	for _, module := range modules {
		logger.Info("Module loaded",
			logger.String("name", module.Name()),
			logger.String("id", module.ID()),
			logger.Bool("core", module.Core()))
	}
}

// GetEventBus returns the global event bus instance
func GetEventBus() events.EventBus {
	return systemEventBus
}

// ShutdownEventBus publishes the shutdown event and stops the bus
func ShutdownEventBus() error {
	if systemEventBus == nil {
		return nil
	}

	shutdownEvent := events.NewSystemEvent(
		events.EventSystemStopped,
		"System Stopped",
		"Slate backend system is shutting down",
	)
	systemEventBus.PublishAsync(shutdownEvent)

	return systemEventBus.Stop(context.Background())
}
