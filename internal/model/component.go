package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Component represents a raw input item consumed when building SKUs
type Component struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	TenantID      uint            `json:"tenant_id" gorm:"index;not null;uniqueIndex:idx_tenant_component_code"`
	Code          string          `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:idx_tenant_component_code"` // Unique per tenant
	Name          string          `json:"name" gorm:"type:varchar(255);not null"`
	UnitOfMeasure string          `json:"unit_of_measure" gorm:"type:varchar(20);default:'each'"`
	CostPerUnit   decimal.Decimal `json:"cost_per_unit" gorm:"type:numeric(14,4);not null;default:0"` // Current cost, applied to new receipts only
	ReorderPoint  decimal.Decimal `json:"reorder_point" gorm:"type:numeric(14,4);not null;default:0"`
	LeadTimeDays  int             `json:"lead_time_days" gorm:"default:0"`
	LotTracked    bool            `json:"lot_tracked" gorm:"default:false"`
	IsActive      bool            `json:"is_active" gorm:"default:true"`
	CreatedBy     uint            `json:"created_by" gorm:"index"`
	UpdatedBy     uint            `json:"updated_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}
