package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/middleware"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/service"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/database"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/logger"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/prometheus"
)

// RejectRequest carries the optional reject reason
type RejectRequest struct {
	Reason string `json:"reason"`
}

// BatchApproveRequest carries the draft IDs to approve
type BatchApproveRequest struct {
	TransactionIDs []uint `json:"transaction_ids" validate:"required"`
}

// ListDrafts lists the tenant's pending drafts, oldest first
func ListDrafts(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)

	var drafts []model.Transaction
	result := database.GetDB().Preload("Lines").
		Where("tenant_id = ? AND status = ?", tenantID, model.TransactionStatusDraft).
		Order("created_at ASC").
		Find(&drafts)
	if result.Error != nil {
		log.Error("Failed to list drafts", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve drafts"})
	}
	return c.JSON(http.StatusOK, drafts)
}

// ApproveDraft approves one pending draft
func ApproveDraft(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	userID, _ := middleware.UserIDFromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid transaction id"})
	}

	svc := service.New(database.GetDB())
	txn, err := svc.ApproveDraft(tenantID, uint(id), userID)
	if err != nil {
		return handleServiceError(c, log, err)
	}

	prometheus.RecordDraftDecision("approved")
	log.Info("Draft approved",
		zap.Uint("transaction_id", txn.ID),
		zap.Uint("reviewer_id", userID))
	return c.JSON(http.StatusOK, txn)
}

// RejectDraft rejects one pending draft with an optional reason
func RejectDraft(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	userID, _ := middleware.UserIDFromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid transaction id"})
	}

	var req RejectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	svc := service.New(database.GetDB())
	txn, err := svc.RejectDraft(tenantID, uint(id), userID, req.Reason)
	if err != nil {
		return handleServiceError(c, log, err)
	}

	prometheus.RecordDraftDecision("rejected")
	log.Info("Draft rejected",
		zap.Uint("transaction_id", txn.ID),
		zap.String("reason", req.Reason))
	return c.JSON(http.StatusOK, txn)
}

// BatchApproveDrafts approves up to 50 drafts independently and reports the
// per-draft outcome.
func BatchApproveDrafts(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, _ := middleware.TenantIDFromContext(c)
	userID, _ := middleware.UserIDFromContext(c)

	var req BatchApproveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	svc := service.New(database.GetDB())
	result, err := svc.ApproveDrafts(tenantID, req.TransactionIDs, userID)
	if err != nil {
		return handleServiceError(c, log, err)
	}

	for i := 0; i < result.Succeeded; i++ {
		prometheus.RecordDraftDecision("approved")
	}
	log.Info("Batch approval processed",
		zap.Int("total", result.Total),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))
	return c.JSON(http.StatusOK, result)
}
