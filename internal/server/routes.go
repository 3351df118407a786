package server

import (
	"github.com/gin-gonic/gin"

	"github.com/slatehq/slate/internal/server/handlers"
)

// setupRoutes configures the system routes. Module routes are registered by
// the modules themselves.
func setupRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/health", handlers.HandleHealthCheck)
		api.GET("/db/status", handlers.HandleDBStatus)
		api.GET("/db/pool", handlers.HandleConnectionPoolStats)
	}
}
