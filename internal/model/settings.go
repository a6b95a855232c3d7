package model

import (
	"time"
)

// TenantSettings holds per-tenant inventory policy. A tenant without a row
// gets the zero-value policy: no negative inventory, no expiry enforcement,
// transactions land approved immediately.
type TenantSettings struct {
	ID                      uint      `json:"id" gorm:"primaryKey"`
	TenantID                uint      `json:"tenant_id" gorm:"uniqueIndex;not null"`
	AllowNegativeInventory  bool      `json:"allow_negative_inventory" gorm:"default:false"`
	EnforceExpiryPolicy     bool      `json:"enforce_expiry_policy" gorm:"default:false"`
	RequireApproval         bool      `json:"require_approval" gorm:"default:false"` // Stage new transactions as drafts
	FinishedGoodsLocationID *uint     `json:"finished_goods_location_id,omitempty"`
	UpdatedBy               uint      `json:"updated_by"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}
