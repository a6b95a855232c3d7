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
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/prometheus"
)

// BuildRequest defines the structure for build transaction requests
type BuildRequest struct {
	SKUID                 uint                           `json:"sku_id" validate:"required"`
	UnitsToBuild          int64                          `json:"units_to_build" validate:"required"`
	Date                  time.Time                      `json:"date"`
	LocationID            uint                           `json:"location_id" validate:"required"`
	OutputToFinishedGoods bool                           `json:"output_to_finished_goods"`
	OutputLocationID      *uint                          `json:"output_location_id"`
	AllowNegative         bool                           `json:"allow_negative"`
	AllowExpiredLots      bool                           `json:"allow_expired_lots"`
	LotOverrides          map[uint][]service.LotOverride `json:"lot_overrides"`
	DefectUnits           int64                          `json:"defect_units"`
	AffectedUnits         int64                          `json:"affected_units"`
	AsDraft               bool                           `json:"as_draft"`
	Notes                 string                         `json:"notes"`
}

// ReceiptRequest defines the structure for receipt transaction requests
type ReceiptRequest struct {
	ComponentID uint             `json:"component_id" validate:"required"`
	LocationID  uint             `json:"location_id" validate:"required"`
	Quantity    decimal.Decimal  `json:"quantity" validate:"required"`
	LotNumber   string           `json:"lot_number"`
	ExpiryDate  *time.Time       `json:"expiry_date"`
	UnitCost    *decimal.Decimal `json:"unit_cost"`
	Date        time.Time        `json:"date"`
	Initial     bool             `json:"initial"`
	AsDraft     bool             `json:"as_draft"`
	Notes       string           `json:"notes"`
}

// AdjustmentRequest defines the structure for adjustment transaction requests
type AdjustmentRequest struct {
	ComponentID    uint            `json:"component_id" validate:"required"`
	LocationID     uint            `json:"location_id" validate:"required"`
	QuantityChange decimal.Decimal `json:"quantity_change" validate:"required"`
	LotID          *uint           `json:"lot_id"`
	Reason         string          `json:"reason"`
	Date           time.Time       `json:"date"`
	AllowNegative  bool            `json:"allow_negative"`
	AsDraft        bool            `json:"as_draft"`
}

// TransferRequest defines the structure for transfer transaction requests
type TransferRequest struct {
	ComponentID      uint                  `json:"component_id" validate:"required"`
	FromLocationID   uint                  `json:"from_location_id" validate:"required"`
	ToLocationID     uint                  `json:"to_location_id" validate:"required"`
	Quantity         decimal.Decimal       `json:"quantity" validate:"required"`
	Date             time.Time             `json:"date"`
	AllowNegative    bool                  `json:"allow_negative"`
	AllowExpiredLots bool                  `json:"allow_expired_lots"`
	LotOverrides     []service.LotOverride `json:"lot_overrides"`
	AsDraft          bool                  `json:"as_draft"`
	Notes            string                `json:"notes"`
}

func defaultDate(date time.Time) time.Time {
	if date.IsZero() {
		return time.Now()
	}
	return date
}

// CreateBuild handles creating a build transaction
func CreateBuild(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	userID, _ := middleware.UserIDFromContext(c)

	var req BuildRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	log.Info("Build transaction request",
		zap.Uint("sku_id", req.SKUID),
		zap.Int64("units", req.UnitsToBuild),
		zap.Uint("location_id", req.LocationID))

	svc := service.New(database.GetDB())
	txn, err := svc.CreateBuildTransaction(tenantID, service.BuildInput{
		SKUID:                 req.SKUID,
		UnitsToBuild:          req.UnitsToBuild,
		Date:                  defaultDate(req.Date),
		LocationID:            req.LocationID,
		OutputToFinishedGoods: req.OutputToFinishedGoods,
		OutputLocationID:      req.OutputLocationID,
		AllowNegative:         req.AllowNegative,
		AllowExpiredLots:      req.AllowExpiredLots,
		LotOverrides:          req.LotOverrides,
		DefectUnits:           req.DefectUnits,
		AffectedUnits:         req.AffectedUnits,
		AsDraft:               req.AsDraft,
		Notes:                 req.Notes,
		CreatedBy:             userID,
	})
	if err != nil {
		return handleServiceError(c, log, err)
	}

	prometheus.RecordTransaction(txn.Type, txn.Status)
	log.Info("Build transaction created",
		zap.Uint("transaction_id", txn.ID),
		zap.String("status", txn.Status),
		zap.String("unit_cost", txn.UnitCost.String()))
	return c.JSON(http.StatusCreated, txn)
}

// CreateReceipt handles creating a receipt (or opening-balance) transaction
func CreateReceipt(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	userID, _ := middleware.UserIDFromContext(c)

	var req ReceiptRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	svc := service.New(database.GetDB())
	txn, err := svc.CreateReceiptTransaction(tenantID, service.ReceiptInput{
		ComponentID: req.ComponentID,
		LocationID:  req.LocationID,
		Quantity:    req.Quantity,
		LotNumber:   req.LotNumber,
		ExpiryDate:  req.ExpiryDate,
		UnitCost:    req.UnitCost,
		Date:        defaultDate(req.Date),
		Initial:     req.Initial,
		AsDraft:     req.AsDraft,
		Notes:       req.Notes,
		CreatedBy:   userID,
	})
	if err != nil {
		return handleServiceError(c, log, err)
	}

	prometheus.RecordTransaction(txn.Type, txn.Status)
	log.Info("Receipt transaction created", zap.Uint("transaction_id", txn.ID))
	return c.JSON(http.StatusCreated, txn)
}

// CreateAdjustment handles creating an adjustment transaction
func CreateAdjustment(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	userID, _ := middleware.UserIDFromContext(c)

	var req AdjustmentRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	svc := service.New(database.GetDB())
	txn, err := svc.CreateAdjustmentTransaction(tenantID, service.AdjustmentInput{
		ComponentID:    req.ComponentID,
		LocationID:     req.LocationID,
		QuantityChange: req.QuantityChange,
		LotID:          req.LotID,
		Reason:         req.Reason,
		Date:           defaultDate(req.Date),
		AllowNegative:  req.AllowNegative,
		AsDraft:        req.AsDraft,
		CreatedBy:      userID,
	})
	if err != nil {
		return handleServiceError(c, log, err)
	}

	prometheus.RecordTransaction(txn.Type, txn.Status)
	log.Info("Adjustment transaction created", zap.Uint("transaction_id", txn.ID))
	return c.JSON(http.StatusCreated, txn)
}

// CreateTransfer handles creating a transfer transaction
func CreateTransfer(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	userID, _ := middleware.UserIDFromContext(c)

	var req TransferRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	svc := service.New(database.GetDB())
	txn, err := svc.CreateTransferTransaction(tenantID, service.TransferInput{
		ComponentID:      req.ComponentID,
		FromLocationID:   req.FromLocationID,
		ToLocationID:     req.ToLocationID,
		Quantity:         req.Quantity,
		Date:             defaultDate(req.Date),
		AllowNegative:    req.AllowNegative,
		AllowExpiredLots: req.AllowExpiredLots,
		LotOverrides:     req.LotOverrides,
		AsDraft:          req.AsDraft,
		Notes:            req.Notes,
		CreatedBy:        userID,
	})
	if err != nil {
		return handleServiceError(c, log, err)
	}

	prometheus.RecordTransaction(txn.Type, txn.Status)
	log.Info("Transfer transaction created", zap.Uint("transaction_id", txn.ID))
	return c.JSON(http.StatusCreated, txn)
}

// ListTransactions lists the tenant's transactions with optional filtering
func ListTransactions(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)

	query := database.GetDB().Preload("Lines").Where("tenant_id = ?", tenantID)
	if txnType := c.QueryParam("type"); txnType != "" {
		query = query.Where("type = ?", txnType)
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if skuID := c.QueryParam("sku_id"); skuID != "" {
		query = query.Where("sku_id = ?", skuID)
	}

	var transactions []model.Transaction
	if result := query.Order("date DESC, id DESC").Limit(200).Find(&transactions); result.Error != nil {
		log.Error("Failed to list transactions", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve transactions"})
	}
	return c.JSON(http.StatusOK, transactions)
}

// GetTransaction retrieves one transaction with its lines
func GetTransaction(c echo.Context) error {
	tenantID, _ := middleware.TenantIDFromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid transaction id"})
	}

	var txn model.Transaction
	result := database.GetDB().Preload("Lines").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&txn)
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Transaction not found"})
	}
	return c.JSON(http.StatusOK, txn)
}
