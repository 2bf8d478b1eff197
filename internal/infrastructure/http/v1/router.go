// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockroom/internal/app"
	"stockroom/internal/infrastructure/http/v1/handlers"
	"stockroom/internal/infrastructure/http/v1/middleware"
	"stockroom/internal/infrastructure/idempotency"
	"stockroom/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Services are the domain services behind the endpoints
	Services *app.Services

	// Idempotency stores replayable responses; nil disables X-Idempotency-Key handling
	Idempotency idempotency.Store

	// Logger for request logging
	Logger *logger.Logger
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Services.Storage)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	v1 := router.Group("/api/v1")
	if cfg.Idempotency != nil {
		v1.Use(middleware.Idempotency(cfg.Idempotency))
	}
	{
		base := handlers.NewBaseHandler()
		registerInventoryRoutes(v1, base, cfg)
		registerDocumentRoutes(v1, base, cfg)
		registerAuditRoutes(v1, base, cfg)
	}

	return router
}

// registerInventoryRoutes registers inventory records and their reconciled views.
func registerInventoryRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewInventoryHandler(base, cfg.Services.Inventories, cfg.Services.Engine)

	inventories := rg.Group("/inventories")
	inventories.GET("", h.List)
	inventories.POST("", h.Create)
	inventories.GET("/:id", h.Get)
	inventories.DELETE("/:id", h.Archive)
}

// registerDocumentRoutes registers receipts, issuances and returns.
func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	receipts := handlers.NewReceiptHandler(base, cfg.Services.Receipts)
	receiptGroup := rg.Group("/receipts")
	RegisterDocumentRoutes(receiptGroup, receipts)
	receiptGroup.POST("/:id/activate", receipts.Activate)

	issuances := handlers.NewIssuanceHandler(base, cfg.Services.Issuances)
	issuanceGroup := rg.Group("/issuances")
	RegisterDocumentRoutes(issuanceGroup, issuances)
	issuanceGroup.POST("/:id/archive", issuances.Archive)
	issuanceGroup.PUT("/details/:detailId/status", issuances.SetDetailStatus)

	returns := handlers.NewReturnsHandler(base, cfg.Services.Returns)
	rg.POST("/returns", returns.Process)
}

// registerAuditRoutes registers the change history endpoint.
func registerAuditRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewAuditHandler(base, cfg.Services.Storage.Audit())
	rg.GET("/audit/:entityType/:id", h.History)
}
