package main

import (
	"net/http"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/handler"
	mid "github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/middleware"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/config"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/database"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/jwtutil"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/logger"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/prometheus"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Environment variables may be provided by the deployment
		// environment instead, so a missing .env file is not fatal.
	}

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting inventory-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	err = database.InitDB(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Component API routes
	componentAPI := e.Group("/api/components", mid.AuthMiddleware)
	componentAPI.GET("", handler.ListComponents)
	componentAPI.GET("/:id", handler.GetComponent)
	componentAPI.POST("", handler.CreateComponent, mid.RequireWriteRole)
	componentAPI.PUT("/:id", handler.UpdateComponent, mid.RequireWriteRole)
	componentAPI.DELETE("/:id", handler.DeactivateComponent, mid.RequireWriteRole)

	// Location API routes
	locationAPI := e.Group("/api/locations", mid.AuthMiddleware)
	locationAPI.GET("", handler.ListLocations)
	locationAPI.POST("", handler.CreateLocation, mid.RequireWriteRole)
	locationAPI.PUT("/:id", handler.UpdateLocation, mid.RequireWriteRole)

	// SKU API routes
	skuAPI := e.Group("/api/skus", mid.AuthMiddleware)
	skuAPI.GET("", handler.ListSKUs)
	skuAPI.GET("/:id", handler.GetSKU)
	skuAPI.POST("", handler.CreateSKU, mid.RequireWriteRole)
	skuAPI.PUT("/:id", handler.UpdateSKU, mid.RequireWriteRole)

	// BOM API routes, SKU-scoped for listing and creation, version-scoped
	// for edits
	skuAPI.GET("/:id/bom-versions", handler.ListBOMVersions)
	skuAPI.GET("/:id/bom-versions/resolve", handler.ResolveBOMVersion)
	skuAPI.POST("/:id/bom-versions", handler.CreateBOMVersion, mid.RequireWriteRole)

	bomAPI := e.Group("/api/bom-versions", mid.AuthMiddleware)
	bomAPI.PATCH("/:id", handler.PatchBOMVersion, mid.RequireWriteRole)
	bomAPI.POST("/:id/activate", handler.ActivateBOMVersion, mid.RequireWriteRole)
	bomAPI.GET("/:id/cost", handler.GetBOMVersionCost)

	// Inventory API routes
	inventoryAPI := e.Group("/api/inventory", mid.AuthMiddleware)
	inventoryAPI.GET("/on-hand", handler.GetOnHand)
	inventoryAPI.GET("/buildable", handler.GetBuildable)
	inventoryAPI.GET("/lots", handler.GetLotBalances)
	inventoryAPI.GET("/reorder-alerts", handler.GetReorderAlerts)

	// Transaction API routes
	txnAPI := e.Group("/api/transactions", mid.AuthMiddleware)
	txnAPI.GET("", handler.ListTransactions)
	txnAPI.GET("/:id", handler.GetTransaction)
	txnAPI.POST("/build", handler.CreateBuild, mid.RequireWriteRole)
	txnAPI.POST("/receipt", handler.CreateReceipt, mid.RequireWriteRole)
	txnAPI.POST("/adjustment", handler.CreateAdjustment, mid.RequireWriteRole)
	txnAPI.POST("/transfer", handler.CreateTransfer, mid.RequireWriteRole)

	// Draft review API routes
	draftAPI := e.Group("/api/drafts", mid.AuthMiddleware)
	draftAPI.GET("", handler.ListDrafts)
	draftAPI.POST("/:id/approve", handler.ApproveDraft, mid.RequireWriteRole)
	draftAPI.POST("/:id/reject", handler.RejectDraft, mid.RequireWriteRole)
	draftAPI.POST("/approve-batch", handler.BatchApproveDrafts, mid.RequireWriteRole)

	// Settings API routes
	settingsAPI := e.Group("/api/settings", mid.AuthMiddleware)
	settingsAPI.GET("", handler.GetSettings)
	settingsAPI.PUT("", handler.UpdateSettings, mid.RequireWriteRole)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
