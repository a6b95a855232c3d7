package service

import (
	"time"

	"gorm.io/gorm"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
)

// ResolveActiveBOM selects the single BOM version effective for a SKU on the
// given date: effective_start_date <= asOf and the end date is open or has not
// passed. If a data anomaly leaves more than one version covering the date,
// the most recently starting one wins. A build with no effective version is
// blocked with ErrNoBOMEffective rather than silently using a stale recipe.
func (s *Service) ResolveActiveBOM(tenantID, skuID uint, asOf time.Time) (*model.BOMVersion, error) {
	return s.resolveActiveBOM(s.db, tenantID, skuID, asOf)
}

func (s *Service) resolveActiveBOM(tx *gorm.DB, tenantID, skuID uint, asOf time.Time) (*model.BOMVersion, error) {
	var versions []model.BOMVersion
	err := tx.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("bom_lines.position ASC, bom_lines.id ASC")
	}).
		Where("tenant_id = ? AND sku_id = ? AND is_active = ?", tenantID, skuID, true).
		Where("effective_start_date <= ?", asOf).
		Where("effective_end_date IS NULL OR effective_end_date >= ?", asOf).
		Order("effective_start_date DESC").
		Limit(1).
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, ErrNoBOMEffective
	}
	return &versions[0], nil
}
