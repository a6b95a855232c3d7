package service

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
)

// BOMLineInput is one component requirement in a create/update request
type BOMLineInput struct {
	ComponentID     uint            `json:"component_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

// BOMVersionInput describes a new BOM version
type BOMVersionInput struct {
	SKUID              uint
	Name               string
	EffectiveStartDate time.Time
	EffectiveEndDate   *time.Time
	ExpectedDefectRate decimal.Decimal
	Notes              string
	Lines              []BOMLineInput
	CloneFromVersionID *uint // Copy lines from a prior version instead of Lines
	CreatedBy          uint
}

// BOMVersionPatch carries the editable fields of an inactive version. A nil
// EffectiveEndDate leaves the end date untouched; set ClearEffectiveEndDate
// to reopen the version to open-ended.
type BOMVersionPatch struct {
	Name                  *string
	EffectiveStartDate    *time.Time
	EffectiveEndDate      *time.Time
	ClearEffectiveEndDate bool
	ExpectedDefectRate    *decimal.Decimal
	Notes                 *string
	Lines                 *[]BOMLineInput
	UpdatedBy             uint
}

// CreateBOMVersion records a new, inactive version for a SKU. Lines may be
// supplied directly or cloned from a prior version of the same SKU.
func (s *Service) CreateBOMVersion(tenantID uint, in BOMVersionInput) (*model.BOMVersion, error) {
	var version *model.BOMVersion
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sku, err := s.tenantSKU(tx, tenantID, in.SKUID)
		if err != nil {
			return err
		}

		lines := make([]model.BOMLine, 0, len(in.Lines))
		if in.CloneFromVersionID != nil {
			var prior model.BOMVersion
			err := tx.Preload("Lines").
				Where("id = ? AND tenant_id = ? AND sku_id = ?", *in.CloneFromVersionID, tenantID, sku.ID).
				First(&prior).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
			for _, line := range prior.Lines {
				lines = append(lines, model.BOMLine{
					ComponentID:     line.ComponentID,
					QuantityPerUnit: line.QuantityPerUnit,
					Position:        line.Position,
				})
			}
		} else {
			for i, line := range in.Lines {
				if _, err := s.tenantComponent(tx, tenantID, line.ComponentID); err != nil {
					return err
				}
				lines = append(lines, model.BOMLine{
					ComponentID:     line.ComponentID,
					QuantityPerUnit: line.QuantityPerUnit,
					Position:        i,
				})
			}
		}

		version = &model.BOMVersion{
			TenantID:           tenantID,
			SKUID:              sku.ID,
			Name:               in.Name,
			EffectiveStartDate: in.EffectiveStartDate,
			EffectiveEndDate:   in.EffectiveEndDate,
			IsActive:           false,
			LockVersion:        1,
			ExpectedDefectRate: in.ExpectedDefectRate,
			Notes:              in.Notes,
			Lines:              lines,
			CreatedBy:          in.CreatedBy,
			UpdatedBy:          in.CreatedBy,
		}
		return tx.Create(version).Error
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

// UpdateBOMVersion patches an inactive version under optimistic concurrency:
// the caller supplies the lock version it last read, and the update only
// lands if nobody else has written since. A stale lock version fails with
// ErrVersionConflict instead of silently overwriting the concurrent edit.
func (s *Service) UpdateBOMVersion(tenantID, versionID uint, lockVersion int, patch BOMVersionPatch) (*model.BOMVersion, error) {
	var version model.BOMVersion
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND tenant_id = ?", versionID, tenantID).First(&version).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if version.IsActive {
			return ErrVersionConflict
		}

		updates := map[string]interface{}{
			"lock_version": lockVersion + 1,
			"updated_by":   patch.UpdatedBy,
		}
		if patch.Name != nil {
			updates["name"] = *patch.Name
		}
		if patch.EffectiveStartDate != nil {
			updates["effective_start_date"] = *patch.EffectiveStartDate
		}
		if patch.EffectiveEndDate != nil {
			updates["effective_end_date"] = *patch.EffectiveEndDate
		} else if patch.ClearEffectiveEndDate {
			updates["effective_end_date"] = nil
		}
		if patch.ExpectedDefectRate != nil {
			updates["expected_defect_rate"] = *patch.ExpectedDefectRate
		}
		if patch.Notes != nil {
			updates["notes"] = *patch.Notes
		}

		// Compare-and-swap on the lock version: zero rows affected with the
		// row present means a concurrent writer got there first.
		result := tx.Model(&model.BOMVersion{}).
			Where("id = ? AND tenant_id = ? AND lock_version = ?", versionID, tenantID, lockVersion).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrVersionConflict
		}

		if patch.Lines != nil {
			if err := tx.Where("bom_version_id = ?", versionID).
				Delete(&model.BOMLine{}).Error; err != nil {
				return err
			}
			lines := make([]model.BOMLine, 0, len(*patch.Lines))
			for i, line := range *patch.Lines {
				if _, err := s.tenantComponent(tx, tenantID, line.ComponentID); err != nil {
					return err
				}
				lines = append(lines, model.BOMLine{
					BOMVersionID:    versionID,
					ComponentID:     line.ComponentID,
					QuantityPerUnit: line.QuantityPerUnit,
					Position:        i,
				})
			}
			if len(lines) > 0 {
				if err := tx.Create(&lines).Error; err != nil {
					return err
				}
			}
		}

		return tx.Preload("Lines").Where("id = ?", versionID).First(&version).Error
	})
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// ActivateBOMVersion makes a version the SKU's active recipe. In the same
// unit of work the previously active open-ended version is closed at the new
// version's start date, preserving the invariant that at most one active
// version per SKU is open-ended and active ranges never overlap.
func (s *Service) ActivateBOMVersion(tenantID, versionID uint, userID uint) (*model.BOMVersion, error) {
	var version model.BOMVersion
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Preload("Lines").
			Where("id = ? AND tenant_id = ?", versionID, tenantID).First(&version).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if version.IsActive {
			return nil
		}

		var siblings []model.BOMVersion
		if err := tx.Where("tenant_id = ? AND sku_id = ? AND is_active = ? AND id <> ?",
			tenantID, version.SKUID, true, version.ID).
			Find(&siblings).Error; err != nil {
			return err
		}
		for _, sibling := range siblings {
			if sibling.EffectiveEndDate == nil || sibling.EffectiveEndDate.After(version.EffectiveStartDate) {
				end := version.EffectiveStartDate
				if err := tx.Model(&model.BOMVersion{}).
					Where("id = ?", sibling.ID).
					Updates(map[string]interface{}{
						"effective_end_date": end,
						"updated_by":         userID,
					}).Error; err != nil {
					return err
				}
			}
		}

		version.IsActive = true
		version.UpdatedBy = userID
		return tx.Model(&model.BOMVersion{}).
			Where("id = ?", version.ID).
			Updates(map[string]interface{}{"is_active": true, "updated_by": userID}).Error
	})
	if err != nil {
		return nil, err
	}
	return &version, nil
}
