package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/middleware"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/service"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/database"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/logger"
)

// SettingsRequest mirrors the mutable tenant settings
type SettingsRequest struct {
	AllowNegativeInventory  bool  `json:"allow_negative_inventory"`
	EnforceExpiryPolicy     bool  `json:"enforce_expiry_policy"`
	RequireApproval         bool  `json:"require_approval"`
	FinishedGoodsLocationID *uint `json:"finished_goods_location_id"`
}

// GetSettings returns the tenant's settings, defaults when never saved
func GetSettings(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)

	svc := service.New(database.GetDB())
	settings, err := svc.Settings(tenantID)
	if err != nil {
		log.Error("Failed to load settings", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve settings"})
	}
	return c.JSON(http.StatusOK, settings)
}

// UpdateSettings replaces the tenant's settings
func UpdateSettings(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	userID, _ := middleware.UserIDFromContext(c)

	var req SettingsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	svc := service.New(database.GetDB())
	settings, err := svc.SaveSettings(tenantID, model.TenantSettings{
		AllowNegativeInventory:  req.AllowNegativeInventory,
		EnforceExpiryPolicy:     req.EnforceExpiryPolicy,
		RequireApproval:         req.RequireApproval,
		FinishedGoodsLocationID: req.FinishedGoodsLocationID,
	}, userID)
	if err != nil {
		return handleServiceError(c, log, err)
	}

	log.Info("Settings updated",
		zap.Uint("tenant_id", tenantID),
		zap.Bool("allow_negative_inventory", settings.AllowNegativeInventory),
		zap.Bool("enforce_expiry_policy", settings.EnforceExpiryPolicy))
	return c.JSON(http.StatusOK, settings)
}
