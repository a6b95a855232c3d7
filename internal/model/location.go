package model

import (
	"time"

	"gorm.io/gorm"
)

// Location kinds. FBA and 3PL locations behave identically in the ledger;
// the kind only drives reporting and finished-goods routing.
const (
	LocationKindWarehouse     = "warehouse"
	LocationKindThirdParty    = "3pl"
	LocationKindFBA           = "fba"
	LocationKindFinishedGoods = "finished_goods"
)

// Location is a physical or virtual place inventory can sit
type Location struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantID  uint           `json:"tenant_id" gorm:"index;not null;uniqueIndex:idx_tenant_location_name"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:idx_tenant_location_name"`
	Kind      string         `json:"kind" gorm:"type:varchar(20);not null;default:'warehouse'"`
	IsDefault bool           `json:"is_default" gorm:"default:false"` // At most one default per tenant, enforced on write
	CreatedBy uint           `json:"created_by" gorm:"index"`
	UpdatedBy uint           `json:"updated_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
