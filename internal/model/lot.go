package model

import (
	"time"
)

// Lot is a dated batch of a component at a location. A lot carries no stored
// balance: its on-hand quantity is the sum of approved transaction lines that
// reference it.
type Lot struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	TenantID    uint       `json:"tenant_id" gorm:"index;not null"`
	ComponentID uint       `json:"component_id" gorm:"index;not null;uniqueIndex:idx_lot_identity"`
	LocationID  uint       `json:"location_id" gorm:"index;not null;uniqueIndex:idx_lot_identity"`
	LotNumber   string     `json:"lot_number" gorm:"type:varchar(100);not null;uniqueIndex:idx_lot_identity"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"` // nil = never expires
	ReceivedAt  time.Time  `json:"received_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
