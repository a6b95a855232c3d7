package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/service"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/prometheus"
)

// handleServiceError translates core errors into HTTP responses the caller
// can render without re-deriving business meaning.
func handleServiceError(c echo.Context, log *zap.Logger, err error) error {
	var short *service.InsufficientInventoryError
	var expired *service.ExpiredLotBlockError
	var badOverride *service.InvalidLotOverrideError

	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "record not found"})

	case errors.Is(err, service.ErrNoBOMEffective):
		log.Warn("Build blocked: no effective BOM")
		prometheus.RecordInventoryBlock("no_bom_effective")
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error": "no BOM version is effective on the requested date",
			"code":  "no_bom_effective",
		})

	case errors.As(err, &short):
		log.Warn("Operation blocked: insufficient inventory", zap.Int("shortfalls", len(short.Shortfalls)))
		prometheus.RecordInventoryBlock("insufficient_inventory")
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":      "insufficient inventory",
			"code":       "insufficient_inventory",
			"shortfalls": short.Shortfalls,
		})

	case errors.As(err, &expired):
		log.Warn("Allocation blocked: expired lots", zap.Uints("lot_ids", expired.LotIDs))
		prometheus.RecordInventoryBlock("expired_lot")
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":            "allocation would consume expired stock",
			"code":             "expired_lot_block",
			"lot_ids":          expired.LotIDs,
			"override_allowed": expired.OverrideAllowed,
		})

	case errors.As(err, &badOverride):
		// Tenant-isolation violation, not a user input typo
		log.Error("Lot override outside tenant scope", zap.Uint("lot_id", badOverride.LotID))
		prometheus.RecordInventoryBlock("invalid_lot_override")
		return c.JSON(http.StatusForbidden, echo.Map{
			"error": "lot override is not permitted",
			"code":  "invalid_lot_override",
		})

	case errors.Is(err, service.ErrVersionConflict):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "BOM version was modified concurrently, re-fetch and retry",
			"code":  "version_conflict",
		})

	case errors.Is(err, service.ErrMissingOutputLocation):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error": "no output location resolvable for finished goods",
			"code":  "missing_output_location",
		})

	case errors.Is(err, service.ErrDraftAlreadyDecided):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "draft has already been approved or rejected",
			"code":  "draft_already_decided",
		})

	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrBatchTooLarge),
		errors.Is(err, service.ErrSameLocation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})

	default:
		log.Error("Unexpected service error", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}
