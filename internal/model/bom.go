package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BOMVersion is an effective-dated recipe for a SKU. Once a version has been
// used by a transaction it is never deleted; edits while inactive go through
// an optimistic-concurrency counter (LockVersion).
type BOMVersion struct {
	ID                 uint            `json:"id" gorm:"primaryKey"`
	TenantID           uint            `json:"tenant_id" gorm:"index;not null"`
	SKUID              uint            `json:"sku_id" gorm:"column:sku_id;index;not null"`
	Name               string          `json:"name" gorm:"type:varchar(100);not null"`
	EffectiveStartDate time.Time       `json:"effective_start_date" gorm:"index;not null"`
	EffectiveEndDate   *time.Time      `json:"effective_end_date,omitempty"` // nil = open-ended
	IsActive           bool            `json:"is_active" gorm:"index;default:false"`
	LockVersion        int             `json:"lock_version" gorm:"not null;default:1"`
	ExpectedDefectRate decimal.Decimal `json:"expected_defect_rate" gorm:"type:numeric(6,4);default:0"`
	Notes              string          `json:"notes" gorm:"type:text"`
	Lines              []BOMLine       `json:"lines" gorm:"constraint:OnDelete:CASCADE"`
	CreatedBy          uint            `json:"created_by" gorm:"index"`
	UpdatedBy          uint            `json:"updated_by"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// BOMLine is one component requirement of a BOM version
type BOMLine struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	BOMVersionID    uint            `json:"bom_version_id" gorm:"index;not null"`
	ComponentID     uint            `json:"component_id" gorm:"index;not null"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit" gorm:"type:numeric(14,4);not null"`
	Position        int             `json:"position" gorm:"default:0"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// EffectiveOn reports whether the version covers the given date
func (v *BOMVersion) EffectiveOn(asOf time.Time) bool {
	if v.EffectiveStartDate.After(asOf) {
		return false
	}
	return v.EffectiveEndDate == nil || !v.EffectiveEndDate.Before(asOf)
}
