package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/middleware"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/database"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/logger"
)

// LocationRequest defines the structure for location creation/update requests
type LocationRequest struct {
	Name      string `json:"name" validate:"required"`
	Kind      string `json:"kind"`
	IsDefault bool   `json:"is_default"`
}

// ListLocations handles retrieving all locations for the tenant
func ListLocations(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)

	var locations []model.Location
	if result := database.GetDB().Where("tenant_id = ?", tenantID).Order("name ASC").Find(&locations); result.Error != nil {
		log.Error("Failed to list locations", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve locations"})
	}
	return c.JSON(http.StatusOK, locations)
}

// CreateLocation handles creating a new location. Marking it default clears
// the previous default in the same transaction so the tenant keeps exactly
// one default location.
func CreateLocation(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	userID, _ := middleware.UserIDFromContext(c)

	var req LocationRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.Kind == "" {
		req.Kind = model.LocationKindWarehouse
	}

	var count int64
	database.GetDB().Model(&model.Location{}).
		Where("name = ? AND tenant_id = ?", req.Name, tenantID).
		Count(&count)
	if count > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Location with this name already exists for this tenant"})
	}

	location := model.Location{
		TenantID:  tenantID,
		Name:      req.Name,
		Kind:      req.Kind,
		IsDefault: req.IsDefault,
		CreatedBy: userID,
		UpdatedBy: userID,
	}

	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if req.IsDefault {
			if err := tx.Model(&model.Location{}).
				Where("tenant_id = ? AND is_default = ?", tenantID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&location).Error
	})
	if err != nil {
		log.Error("Failed to create location", zap.String("name", req.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create location"})
	}

	log.Info("Location created successfully",
		zap.Uint("location_id", location.ID), zap.String("name", location.Name))
	return c.JSON(http.StatusCreated, location)
}

// UpdateLocation handles updating an existing location
func UpdateLocation(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	userID, _ := middleware.UserIDFromContext(c)
	id := c.Param("id")

	var req LocationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var location model.Location
	if result := database.GetDB().Where("tenant_id = ?", tenantID).First(&location, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Location not found"})
	}

	location.Name = req.Name
	if req.Kind != "" {
		location.Kind = req.Kind
	}
	location.UpdatedBy = userID

	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if req.IsDefault && !location.IsDefault {
			if err := tx.Model(&model.Location{}).
				Where("tenant_id = ? AND is_default = ?", tenantID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
			location.IsDefault = true
		}
		return tx.Save(&location).Error
	})
	if err != nil {
		log.Error("Failed to update location", zap.String("location_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update location"})
	}

	return c.JSON(http.StatusOK, location)
}
