package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/middleware"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/database"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/logger"
)

// SKURequest defines the structure for SKU creation/update requests
type SKURequest struct {
	Code        string            `json:"code" validate:"required"`
	Name        string            `json:"name" validate:"required"`
	Channel     string            `json:"channel"`
	ExternalIDs map[string]string `json:"external_ids"`
	IsActive    bool              `json:"is_active"`
}

// ListSKUs handles retrieving all SKUs with optional filtering
func ListSKUs(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)

	query := database.GetDB().Where("tenant_id = ?", tenantID)
	if channel := c.QueryParam("channel"); channel != "" {
		query = query.Where("channel = ?", channel)
	}
	if isActive := c.QueryParam("is_active"); isActive != "" {
		if active, err := strconv.ParseBool(isActive); err == nil {
			query = query.Where("is_active = ?", active)
		}
	}

	var skus []model.SKU
	if result := query.Order("code ASC").Find(&skus); result.Error != nil {
		log.Error("Failed to list SKUs", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve SKUs"})
	}
	return c.JSON(http.StatusOK, skus)
}

// GetSKU handles retrieving a single SKU by ID
func GetSKU(c echo.Context) error {
	tenantID, _ := middleware.TenantIDFromContext(c)
	id := c.Param("id")

	var sku model.SKU
	if result := database.GetDB().Where("tenant_id = ?", tenantID).First(&sku, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "SKU not found"})
	}
	return c.JSON(http.StatusOK, sku)
}

// CreateSKU handles creating a new SKU
func CreateSKU(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	userID, _ := middleware.UserIDFromContext(c)

	var req SKURequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var count int64
	database.GetDB().Model(&model.SKU{}).
		Where("code = ? AND tenant_id = ?", req.Code, tenantID).
		Count(&count)
	if count > 0 {
		log.Warn("SKU with this code already exists for this tenant", zap.String("code", req.Code))
		return c.JSON(http.StatusConflict, echo.Map{"error": "SKU with this code already exists for this tenant"})
	}

	sku := model.SKU{
		TenantID:    tenantID,
		Code:        req.Code,
		Name:        req.Name,
		Channel:     req.Channel,
		ExternalIDs: req.ExternalIDs,
		IsActive:    req.IsActive,
		CreatedBy:   userID,
		UpdatedBy:   userID,
	}
	if result := database.GetDB().Create(&sku); result.Error != nil {
		log.Error("Failed to create SKU", zap.String("code", req.Code), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create SKU"})
	}

	log.Info("SKU created successfully", zap.Uint("sku_id", sku.ID), zap.String("code", sku.Code))
	return c.JSON(http.StatusCreated, sku)
}

// UpdateSKU handles updating an existing SKU
func UpdateSKU(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	userID, _ := middleware.UserIDFromContext(c)
	id := c.Param("id")

	var req SKURequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var sku model.SKU
	if result := database.GetDB().Where("tenant_id = ?", tenantID).First(&sku, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "SKU not found"})
	}

	if req.Code != sku.Code {
		var count int64
		database.GetDB().Model(&model.SKU{}).
			Where("code = ? AND tenant_id = ? AND id != ?", req.Code, tenantID, sku.ID).
			Count(&count)
		if count > 0 {
			return c.JSON(http.StatusConflict, echo.Map{"error": "SKU with this code already exists for this tenant"})
		}
	}

	sku.Code = req.Code
	sku.Name = req.Name
	sku.Channel = req.Channel
	sku.ExternalIDs = req.ExternalIDs
	sku.IsActive = req.IsActive
	sku.UpdatedBy = userID

	if result := database.GetDB().Save(&sku); result.Error != nil {
		log.Error("Failed to update SKU", zap.String("sku_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update SKU"})
	}
	return c.JSON(http.StatusOK, sku)
}
