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
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/service"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/database"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/logger"
)

// BOMVersionRequest defines the structure for BOM version creation requests
type BOMVersionRequest struct {
	Name               string                 `json:"name" validate:"required"`
	EffectiveStartDate time.Time              `json:"effective_start_date" validate:"required"`
	EffectiveEndDate   *time.Time             `json:"effective_end_date"`
	ExpectedDefectRate decimal.Decimal        `json:"expected_defect_rate"`
	Notes              string                 `json:"notes"`
	Lines              []service.BOMLineInput `json:"lines"`
	CloneFromVersionID *uint                  `json:"clone_from_version_id"`
}

// BOMVersionPatchRequest carries a partial update plus the lock version the
// caller last read.
type BOMVersionPatchRequest struct {
	LockVersion           *int                    `json:"lock_version"`
	Name                  *string                 `json:"name"`
	EffectiveStartDate    *time.Time              `json:"effective_start_date"`
	EffectiveEndDate      *time.Time              `json:"effective_end_date"`
	ClearEffectiveEndDate bool                    `json:"clear_effective_end_date"`
	ExpectedDefectRate    *decimal.Decimal        `json:"expected_defect_rate"`
	Notes                 *string                 `json:"notes"`
	Lines                 *[]service.BOMLineInput `json:"lines"`
}

// ListBOMVersions lists a SKU's versions, newest effective start first
func ListBOMVersions(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	skuID := c.Param("id")

	var versions []model.BOMVersion
	result := database.GetDB().Preload("Lines").
		Where("tenant_id = ? AND sku_id = ?", tenantID, skuID).
		Order("effective_start_date DESC").
		Find(&versions)
	if result.Error != nil {
		log.Error("Failed to list BOM versions", zap.String("sku_id", skuID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve BOM versions"})
	}
	return c.JSON(http.StatusOK, versions)
}

// ResolveBOMVersion returns the version effective on the given date
// (?as_of=2024-06-01, defaulting to today).
func ResolveBOMVersion(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	skuID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid SKU id"})
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
	version, err := svc.ResolveActiveBOM(tenantID, uint(skuID), asOf)
	if err != nil {
		return handleServiceError(c, log, err)
	}
	return c.JSON(http.StatusOK, version)
}

// CreateBOMVersion creates a new inactive version for a SKU
func CreateBOMVersion(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	userID, _ := middleware.UserIDFromContext(c)
	skuID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid SKU id"})
	}

	var req BOMVersionRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	svc := service.New(database.GetDB())
	version, err := svc.CreateBOMVersion(tenantID, service.BOMVersionInput{
		SKUID:              uint(skuID),
		Name:               req.Name,
		EffectiveStartDate: req.EffectiveStartDate,
		EffectiveEndDate:   req.EffectiveEndDate,
		ExpectedDefectRate: req.ExpectedDefectRate,
		Notes:              req.Notes,
		Lines:              req.Lines,
		CloneFromVersionID: req.CloneFromVersionID,
		CreatedBy:          userID,
	})
	if err != nil {
		return handleServiceError(c, log, err)
	}

	log.Info("BOM version created", zap.Uint("version_id", version.ID), zap.Uint64("sku_id", skuID))
	return c.JSON(http.StatusCreated, version)
}

// PatchBOMVersion updates an inactive version under optimistic concurrency
func PatchBOMVersion(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	userID, _ := middleware.UserIDFromContext(c)
	versionID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid BOM version id"})
	}

	var req BOMVersionPatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.LockVersion == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lock_version is required"})
	}

	svc := service.New(database.GetDB())
	version, err := svc.UpdateBOMVersion(tenantID, uint(versionID), *req.LockVersion, service.BOMVersionPatch{
		Name:                  req.Name,
		EffectiveStartDate:    req.EffectiveStartDate,
		EffectiveEndDate:      req.EffectiveEndDate,
		ClearEffectiveEndDate: req.ClearEffectiveEndDate,
		ExpectedDefectRate:    req.ExpectedDefectRate,
		Notes:                 req.Notes,
		Lines:                 req.Lines,
		UpdatedBy:             userID,
	})
	if err != nil {
		return handleServiceError(c, log, err)
	}
	return c.JSON(http.StatusOK, version)
}

// ActivateBOMVersion makes a version the SKU's active recipe
func ActivateBOMVersion(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	userID, _ := middleware.UserIDFromContext(c)
	versionID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid BOM version id"})
	}

	svc := service.New(database.GetDB())
	version, err := svc.ActivateBOMVersion(tenantID, uint(versionID), userID)
	if err != nil {
		return handleServiceError(c, log, err)
	}

	log.Info("BOM version activated", zap.Uint("version_id", version.ID))
	return c.JSON(http.StatusOK, version)
}

// GetBOMVersionCost returns the current rolled-up unit cost of a version
func GetBOMVersionCost(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	versionID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid BOM version id"})
	}

	svc := service.New(database.GetDB())
	cost, err := svc.UnitCost(tenantID, uint(versionID))
	if err != nil {
		return handleServiceError(c, log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bom_version_id": versionID, "unit_cost": cost})
}
