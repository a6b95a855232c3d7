package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
)

// Service is the inventory/BOM transaction core. All methods are tenant-scoped
// and synchronous; multi-row writes run inside a single gorm transaction so a
// failure partway leaves no partial ledger rows.
type Service struct {
	db *gorm.DB
}

// New returns a Service bound to the given database handle
func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

// DB exposes the underlying handle for thin read paths in handlers
func (s *Service) DB() *gorm.DB {
	return s.db
}

// settings loads the tenant policy row, falling back to the zero-value policy
// when the tenant has never saved one.
func (s *Service) settings(tx *gorm.DB, tenantID uint) (model.TenantSettings, error) {
	var settings model.TenantSettings
	err := tx.Where("tenant_id = ?", tenantID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.TenantSettings{TenantID: tenantID}, nil
	}
	if err != nil {
		return model.TenantSettings{}, err
	}
	return settings, nil
}

// Settings returns the effective policy for a tenant
func (s *Service) Settings(tenantID uint) (model.TenantSettings, error) {
	return s.settings(s.db, tenantID)
}

// SaveSettings upserts the tenant policy row
func (s *Service) SaveSettings(tenantID uint, in model.TenantSettings, userID uint) (model.TenantSettings, error) {
	var settings model.TenantSettings
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("tenant_id = ?", tenantID).First(&settings).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if in.FinishedGoodsLocationID != nil {
			// Cross-tenant location references are never accepted
			var count int64
			if err := tx.Model(&model.Location{}).
				Where("id = ? AND tenant_id = ?", *in.FinishedGoodsLocationID, tenantID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrNotFound
			}
		}
		settings.TenantID = tenantID
		settings.AllowNegativeInventory = in.AllowNegativeInventory
		settings.EnforceExpiryPolicy = in.EnforceExpiryPolicy
		settings.RequireApproval = in.RequireApproval
		settings.FinishedGoodsLocationID = in.FinishedGoodsLocationID
		settings.UpdatedBy = userID
		return tx.Save(&settings).Error
	})
	return settings, err
}

// tenantSKU fetches a SKU enforcing tenant ownership
func (s *Service) tenantSKU(tx *gorm.DB, tenantID, skuID uint) (*model.SKU, error) {
	var sku model.SKU
	err := tx.Where("id = ? AND tenant_id = ?", skuID, tenantID).First(&sku).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sku, nil
}

// tenantComponent fetches a component enforcing tenant ownership
func (s *Service) tenantComponent(tx *gorm.DB, tenantID, componentID uint) (*model.Component, error) {
	var component model.Component
	err := tx.Where("id = ? AND tenant_id = ?", componentID, tenantID).First(&component).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &component, nil
}

// tenantLocation fetches a location enforcing tenant ownership
func (s *Service) tenantLocation(tx *gorm.DB, tenantID, locationID uint) (*model.Location, error) {
	var location model.Location
	err := tx.Where("id = ? AND tenant_id = ?", locationID, tenantID).First(&location).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &location, nil
}
