package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTypeBuild      = "build"
	TransactionTypeReceipt    = "receipt"
	TransactionTypeAdjustment = "adjustment"
	TransactionTypeInitial    = "initial"
	TransactionTypeTransfer   = "transfer"
)

// Transaction statuses. draft -> approved and draft -> rejected are the only
// transitions; both targets are terminal.
const (
	TransactionStatusDraft    = "draft"
	TransactionStatusApproved = "approved"
	TransactionStatusRejected = "rejected"
)

// ErrNotDraft is returned when an approve/reject is attempted against a
// transaction that has already reached a terminal status.
var ErrNotDraft = errors.New("transaction is not a draft")

// Transaction is an append-only ledger header for one inventory event.
// Only lines of approved transactions count toward on-hand balances.
type Transaction struct {
	ID             uint              `json:"id" gorm:"primaryKey"`
	TenantID       uint              `json:"tenant_id" gorm:"index;not null"`
	Reference      string            `json:"reference" gorm:"type:varchar(36);uniqueIndex;not null"`
	Type           string            `json:"type" gorm:"type:varchar(20);index;not null"`
	Status         string            `json:"status" gorm:"type:varchar(20);index;not null;default:'approved'"`
	Date           time.Time         `json:"date" gorm:"index;not null"`
	SKUID          *uint             `json:"sku_id,omitempty" gorm:"column:sku_id;index"`
	BOMVersionID   *uint             `json:"bom_version_id,omitempty" gorm:"index"`
	FromLocationID *uint             `json:"from_location_id,omitempty"`
	ToLocationID   *uint             `json:"to_location_id,omitempty"`
	UnitsBuilt     int64             `json:"units_built" gorm:"default:0"`
	UnitCost       decimal.Decimal   `json:"unit_cost" gorm:"type:numeric(14,4);default:0"`  // BOM cost snapshot at build time
	TotalCost      decimal.Decimal   `json:"total_cost" gorm:"type:numeric(14,4);default:0"` // UnitsBuilt x UnitCost, frozen
	DefectUnits    int64             `json:"defect_units" gorm:"default:0"`
	AffectedUnits  int64             `json:"affected_units" gorm:"default:0"`
	Notes          string            `json:"notes" gorm:"type:text"`
	CreatedBy      uint              `json:"created_by" gorm:"index"`
	ReviewedBy     *uint             `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time        `json:"reviewed_at,omitempty"`
	RejectReason   string            `json:"reject_reason,omitempty" gorm:"type:text"`
	Lines          []TransactionLine `json:"lines"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// TransactionLine is one signed quantity change against a component (or, for
// finished-goods output, a SKU), optionally pinned to a specific lot.
type TransactionLine struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	TenantID       uint            `json:"tenant_id" gorm:"index;not null"`
	TransactionID  uint            `json:"transaction_id" gorm:"index;not null"`
	ComponentID    *uint           `json:"component_id,omitempty" gorm:"index"`
	SKUID          *uint           `json:"sku_id,omitempty" gorm:"column:sku_id;index"` // Set for finished-goods lines instead of ComponentID
	LotID          *uint           `json:"lot_id,omitempty" gorm:"index"`
	LocationID     uint            `json:"location_id" gorm:"index;not null"`
	QuantityChange decimal.Decimal `json:"quantity_change" gorm:"type:numeric(14,4);not null"` // Positive inbound, negative consumption
	UnitCost       decimal.Decimal `json:"unit_cost" gorm:"type:numeric(14,4);default:0"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Approve transitions a draft to approved, stamping the reviewer. The
// transition is rejected for any non-draft status so a double approval can
// never produce a second ledger effect.
func (t *Transaction) Approve(reviewerID uint, at time.Time) error {
	if t.Status != TransactionStatusDraft {
		return ErrNotDraft
	}
	t.Status = TransactionStatusApproved
	t.ReviewedBy = &reviewerID
	t.ReviewedAt = &at
	return nil
}

// Reject transitions a draft to rejected with an optional reason. Rejected
// transactions never count toward on-hand balances.
func (t *Transaction) Reject(reviewerID uint, reason string, at time.Time) error {
	if t.Status != TransactionStatusDraft {
		return ErrNotDraft
	}
	t.Status = TransactionStatusRejected
	t.ReviewedBy = &reviewerID
	t.ReviewedAt = &at
	t.RejectReason = reason
	return nil
}

// IsTerminal reports whether the transaction has reached a final status
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusApproved || t.Status == TransactionStatusRejected
}
