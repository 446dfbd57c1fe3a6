package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/tirestore_api/internal/middleware"
)

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health  *HealthHandler
	Auth    *AuthHandler
	Sync    *SyncHandler
	Catalog *CatalogHandler
	SSE     *SSEHandler
}

// SetupRoutes registers all routes.
func SetupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", handlers.Auth.Login)
	// SSE authenticates through the token query parameter.
	admin.GET("/sse", handlers.SSE.Stream)
	admin.Use(jwtMiddleware.Handle())
	{
		// Legacy tire synchronization
		admin.POST("/sync/legacy-tires", handlers.Sync.SyncAll)
		admin.POST("/sync/legacy-tires/products/:id", handlers.Sync.SyncOne)
		admin.GET("/sync/status", handlers.Sync.GetStatus)
		admin.GET("/sync/runs", handlers.Sync.ListRuns)

		// Catalog management
		admin.GET("/catalog/categories", handlers.Catalog.ListCategories)
		admin.POST("/catalog/import", handlers.Catalog.Import)
		admin.GET("/catalog/products/:id", handlers.Catalog.GetProduct)
		admin.PUT("/catalog/products/:id/status", handlers.Catalog.UpdateStatus)
		admin.DELETE("/catalog/products/:id", handlers.Catalog.DeleteProduct)
	}
}
