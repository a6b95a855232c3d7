package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/middleware"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/service"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/database"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/logger"
)

// parseIDList parses a comma-separated ?ids= query parameter
func parseIDList(raw string) ([]uint, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// parseOptionalLocation parses ?location_id=
func parseOptionalLocation(c echo.Context) (*uint, error) {
	raw := c.QueryParam("location_id")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, err
	}
	locationID := uint(id)
	return &locationID, nil
}

// GetOnHand returns current on-hand quantities for the requested components
// (?ids=1,2,3), optionally scoped to one location.
func GetOnHand(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)

	componentIDs, err := parseIDList(c.QueryParam("ids"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid ids parameter"})
	}
	if componentIDs == nil {
		// Default to every active component of the tenant
		var components []model.Component
		if result := database.GetDB().
			Where("tenant_id = ? AND is_active = ?", tenantID, true).
			Find(&components); result.Error != nil {
			log.Error("Failed to load components", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to compute on-hand"})
		}
		for _, component := range components {
			componentIDs = append(componentIDs, component.ID)
		}
	}

	locationID, err := parseOptionalLocation(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid location_id parameter"})
	}

	svc := service.New(database.GetDB())
	quantities, err := svc.OnHand(tenantID, componentIDs, locationID)
	if err != nil {
		return handleServiceError(c, log, err)
	}
	return c.JSON(http.StatusOK, quantities)
}

// GetBuildable returns max buildable units for the requested SKUs
// (?ids=..., default all active), optionally per location.
func GetBuildable(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)

	skuIDs, err := parseIDList(c.QueryParam("ids"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid ids parameter"})
	}
	if skuIDs == nil {
		var skus []model.SKU
		if result := database.GetDB().
			Where("tenant_id = ? AND is_active = ?", tenantID, true).
			Find(&skus); result.Error != nil {
			log.Error("Failed to load SKUs", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to compute buildable units"})
		}
		for _, sku := range skus {
			skuIDs = append(skuIDs, sku.ID)
		}
	}

	locationID, err := parseOptionalLocation(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid location_id parameter"})
	}

	asOf := time.Now()
	if raw := c.QueryParam("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid as_of date, expected YYYY-MM-DD"})
		}
		asOf = parsed
	}

	svc := service.New(database.GetDB())
	results, err := svc.MaxBuildableAll(tenantID, skuIDs, locationID, asOf)
	if err != nil {
		return handleServiceError(c, log, err)
	}
	return c.JSON(http.StatusOK, results)
}

// GetLotBalances returns positive-balance lots for one component/location
func GetLotBalances(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)

	componentID, err := strconv.ParseUint(c.QueryParam("component_id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "component_id is required"})
	}
	locationID, err := strconv.ParseUint(c.QueryParam("location_id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "location_id is required"})
	}

	svc := service.New(database.GetDB())
	stocks, err := svc.LotBalances(tenantID, uint(componentID), uint(locationID))
	if err != nil {
		return handleServiceError(c, log, err)
	}
	return c.JSON(http.StatusOK, stocks)
}

// GetReorderAlerts lists components at or below their reorder point
func GetReorderAlerts(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)

	locationID, err := parseOptionalLocation(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid location_id parameter"})
	}

	svc := service.New(database.GetDB())
	alerts, err := svc.ReorderAlerts(tenantID, locationID)
	if err != nil {
		return handleServiceError(c, log, err)
	}
	return c.JSON(http.StatusOK, alerts)
}
