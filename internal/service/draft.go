package service

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
)

// maxBatchApproval bounds one batch-approval request
const maxBatchApproval = 50

// DraftDecision is the per-draft outcome of a batch approval
type DraftDecision struct {
	TransactionID uint   `json:"transaction_id"`
	Approved      bool   `json:"approved"`
	Error         string `json:"error,omitempty"`
}

// BatchApprovalResult summarizes a batch approval run
type BatchApprovalResult struct {
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Results   []DraftDecision `json:"results"`
}

// ApproveDraft flips a draft to approved, stamping the reviewer. Approval is
// the moment the transaction starts counting toward on-hand balances, so the
// draft is re-validated first: its components must still exist and be active,
// and (unless the tenant allows negative inventory) approving it must not
// drive any consumed balance negative. Approving an already-decided draft is
// an idempotent no-op failure, never a second ledger effect.
func (s *Service) ApproveDraft(tenantID, transactionID, reviewerID uint) (*model.Transaction, error) {
	var txn model.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.loadDraft(tx, tenantID, transactionID, &txn); err != nil {
			return err
		}
		if err := s.revalidateDraft(tx, &txn); err != nil {
			return err
		}
		if err := txn.Approve(reviewerID, time.Now()); err != nil {
			return ErrDraftAlreadyDecided
		}
		// The status guard makes the update a compare-and-swap: if a racing
		// reviewer decided the draft between our read and this write, zero
		// rows match and the loser gets the idempotent failure.
		result := tx.Model(&model.Transaction{}).
			Where("id = ? AND status = ?", txn.ID, model.TransactionStatusDraft).
			Updates(map[string]interface{}{
				"status":      txn.Status,
				"reviewed_by": txn.ReviewedBy,
				"reviewed_at": txn.ReviewedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrDraftAlreadyDecided
		}

		settings, err := s.settings(tx, tenantID)
		if err != nil {
			return err
		}
		return s.revalidateBalances(tx, &txn, settings.AllowNegativeInventory)
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// RejectDraft flips a draft to rejected with an optional reason. Rejected
// drafts stay ledger-inert forever.
func (s *Service) RejectDraft(tenantID, transactionID, reviewerID uint, reason string) (*model.Transaction, error) {
	var txn model.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.loadDraft(tx, tenantID, transactionID, &txn); err != nil {
			return err
		}
		if err := txn.Reject(reviewerID, reason, time.Now()); err != nil {
			return ErrDraftAlreadyDecided
		}
		result := tx.Model(&model.Transaction{}).
			Where("id = ? AND status = ?", txn.ID, model.TransactionStatusDraft).
			Updates(map[string]interface{}{
				"status":        txn.Status,
				"reviewed_by":   txn.ReviewedBy,
				"reviewed_at":   txn.ReviewedAt,
				"reject_reason": txn.RejectReason,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrDraftAlreadyDecided
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// ApproveDrafts processes up to 50 drafts independently: one draft's failure
// never aborts the others. The result carries a per-ID outcome plus totals.
func (s *Service) ApproveDrafts(tenantID uint, transactionIDs []uint, reviewerID uint) (*BatchApprovalResult, error) {
	if len(transactionIDs) > maxBatchApproval {
		return nil, fmt.Errorf("%w: %d exceeds the limit of %d", ErrBatchTooLarge, len(transactionIDs), maxBatchApproval)
	}
	result := &BatchApprovalResult{
		Total:   len(transactionIDs),
		Results: make([]DraftDecision, 0, len(transactionIDs)),
	}
	for _, id := range transactionIDs {
		decision := DraftDecision{TransactionID: id}
		if _, err := s.ApproveDraft(tenantID, id, reviewerID); err != nil {
			decision.Error = err.Error()
			result.Failed++
		} else {
			decision.Approved = true
			result.Succeeded++
		}
		result.Results = append(result.Results, decision)
	}
	return result, nil
}

// loadDraft fetches a tenant's transaction with lines, mapping terminal
// statuses to the idempotent already-decided error.
func (s *Service) loadDraft(tx *gorm.DB, tenantID, transactionID uint, out *model.Transaction) error {
	err := tx.Preload("Lines").
		Where("id = ? AND tenant_id = ?", transactionID, tenantID).
		First(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if out.IsTerminal() {
		return ErrDraftAlreadyDecided
	}
	return nil
}

// revalidateDraft confirms a draft is still internally consistent before it
// gains ledger effect: every referenced component must still exist and be
// active, and referenced lots and locations must still belong to the tenant.
func (s *Service) revalidateDraft(tx *gorm.DB, txn *model.Transaction) error {
	for _, line := range txn.Lines {
		if line.ComponentID != nil {
			var component model.Component
			err := tx.Where("id = ? AND tenant_id = ?", *line.ComponentID, txn.TenantID).
				First(&component).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("component %d no longer exists: %w", *line.ComponentID, ErrNotFound)
			}
			if err != nil {
				return err
			}
			if !component.IsActive {
				return fmt.Errorf("component %d is no longer active: %w", component.ID, ErrNotFound)
			}
		}
		var count int64
		if err := tx.Model(&model.Location{}).
			Where("id = ? AND tenant_id = ?", line.LocationID, txn.TenantID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("location %d no longer exists: %w", line.LocationID, ErrNotFound)
		}
	}
	return nil
}
