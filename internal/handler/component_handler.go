package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/middleware"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/database"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/logger"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/prometheus"
)

// ComponentRequest defines the structure for component creation/update requests
type ComponentRequest struct {
	Code          string          `json:"code" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	CostPerUnit   decimal.Decimal `json:"cost_per_unit"`
	ReorderPoint  decimal.Decimal `json:"reorder_point"`
	LeadTimeDays  int             `json:"lead_time_days"`
	LotTracked    bool            `json:"lot_tracked"`
	IsActive      bool            `json:"is_active"`
}

// ListComponents handles retrieving all components with optional filtering
func ListComponents(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	query := database.GetDB().Where("tenant_id = ?", tenantID)
	if isActive := c.QueryParam("is_active"); isActive != "" {
		if active, err := strconv.ParseBool(isActive); err == nil {
			query = query.Where("is_active = ?", active)
		} else {
			log.Warn("Invalid is_active parameter", zap.String("value", isActive))
		}
	}

	var components []model.Component
	if result := query.Order("code ASC").Find(&components); result.Error != nil {
		log.Error("Failed to list components", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve components"})
	}

	return c.JSON(http.StatusOK, components)
}

// GetComponent handles retrieving a single component by ID
func GetComponent(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	id := c.Param("id")

	var component model.Component
	result := database.GetDB().Where("tenant_id = ?", tenantID).First(&component, id)
	if result.Error != nil {
		log.Warn("Component not found", zap.String("component_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Component not found"})
	}
	return c.JSON(http.StatusOK, component)
}

// CreateComponent handles creating a new component
func CreateComponent(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new component")

	var req ComponentRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	tenantID, _ := middleware.TenantIDFromContext(c)
	userID, _ := middleware.UserIDFromContext(c)

	// Check if component with same code exists in the same tenant
	var count int64
	database.GetDB().Model(&model.Component{}).
		Where("code = ? AND tenant_id = ?", req.Code, tenantID).
		Count(&count)
	if count > 0 {
		log.Warn("Component with this code already exists for this tenant",
			zap.String("code", req.Code), zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Component with this code already exists for this tenant"})
	}

	component := model.Component{
		TenantID:      tenantID,
		Code:          req.Code,
		Name:          req.Name,
		UnitOfMeasure: req.UnitOfMeasure,
		CostPerUnit:   req.CostPerUnit,
		ReorderPoint:  req.ReorderPoint,
		LeadTimeDays:  req.LeadTimeDays,
		LotTracked:    req.LotTracked,
		IsActive:      req.IsActive,
		CreatedBy:     userID,
		UpdatedBy:     userID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&component); result.Error != nil {
		log.Error("Failed to create component", zap.String("code", req.Code), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create component"})
	}

	log.Info("Component created successfully",
		zap.Uint("component_id", component.ID), zap.String("code", component.Code))
	return c.JSON(http.StatusCreated, component)
}

// UpdateComponent handles updating an existing component
func UpdateComponent(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	userID, _ := middleware.UserIDFromContext(c)
	id := c.Param("id")

	var req ComponentRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("component_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var component model.Component
	if result := database.GetDB().Where("tenant_id = ?", tenantID).First(&component, id); result.Error != nil {
		log.Warn("Component not found for update", zap.String("component_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Component not found"})
	}

	if req.Code != component.Code {
		var count int64
		database.GetDB().Model(&model.Component{}).
			Where("code = ? AND tenant_id = ? AND id != ?", req.Code, tenantID, component.ID).
			Count(&count)
		if count > 0 {
			return c.JSON(http.StatusConflict, echo.Map{"error": "Component with this code already exists for this tenant"})
		}
	}

	component.Code = req.Code
	component.Name = req.Name
	component.UnitOfMeasure = req.UnitOfMeasure
	component.CostPerUnit = req.CostPerUnit
	component.ReorderPoint = req.ReorderPoint
	component.LeadTimeDays = req.LeadTimeDays
	component.LotTracked = req.LotTracked
	component.IsActive = req.IsActive
	component.UpdatedBy = userID

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&component); result.Error != nil {
		log.Error("Failed to update component", zap.String("component_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update component"})
	}

	return c.JSON(http.StatusOK, component)
}

// DeactivateComponent soft-deactivates a component. Components referenced by
// ledger lines are never hard-deleted.
func DeactivateComponent(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	userID, _ := middleware.UserIDFromContext(c)
	id := c.Param("id")

	var component model.Component
	if result := database.GetDB().Where("tenant_id = ?", tenantID).First(&component, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Component not found"})
	}

	component.IsActive = false
	component.UpdatedBy = userID
	if result := database.GetDB().Save(&component); result.Error != nil {
		log.Error("Failed to deactivate component", zap.String("component_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to deactivate component"})
	}

	log.Info("Component deactivated", zap.Uint("component_id", component.ID))
	return c.JSON(http.StatusOK, component)
}
