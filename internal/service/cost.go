package service

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
)

// costScale is the storage precision for money values
const costScale = 4

// UnitCost computes a BOM version's per-unit cost as the sum of
// line quantity x the component's current cost, rounded to 4 decimal places.
// A version with zero lines costs zero.
func (s *Service) UnitCost(tenantID, versionID uint) (decimal.Decimal, error) {
	costs, err := s.UnitCosts(tenantID, []uint{versionID})
	if err != nil {
		return decimal.Zero, err
	}
	return costs[versionID], nil
}

// UnitCosts is the batch variant: one component fetch serves every requested
// version. Unknown or cross-tenant version IDs fail with ErrNotFound.
func (s *Service) UnitCosts(tenantID uint, versionIDs []uint) (map[uint]decimal.Decimal, error) {
	return s.unitCosts(s.db, tenantID, versionIDs)
}

func (s *Service) unitCosts(tx *gorm.DB, tenantID uint, versionIDs []uint) (map[uint]decimal.Decimal, error) {
	costs := make(map[uint]decimal.Decimal, len(versionIDs))
	if len(versionIDs) == 0 {
		return costs, nil
	}

	var versions []model.BOMVersion
	if err := tx.Preload("Lines").
		Where("tenant_id = ? AND id IN ?", tenantID, versionIDs).
		Find(&versions).Error; err != nil {
		return nil, err
	}
	found := make(map[uint]bool, len(versions))
	for _, v := range versions {
		found[v.ID] = true
	}
	for _, id := range versionIDs {
		if !found[id] {
			return nil, ErrNotFound
		}
	}

	componentIDs := make([]uint, 0)
	seen := make(map[uint]bool)
	for _, v := range versions {
		for _, line := range v.Lines {
			if !seen[line.ComponentID] {
				seen[line.ComponentID] = true
				componentIDs = append(componentIDs, line.ComponentID)
			}
		}
	}

	componentCosts, err := s.componentCosts(tx, tenantID, componentIDs)
	if err != nil {
		return nil, err
	}

	for _, v := range versions {
		costs[v.ID] = RollupCost(v.Lines, componentCosts)
	}
	return costs, nil
}

// componentCosts loads current cost-per-unit for a set of components,
// including soft-deleted ones so historical BOMs still price.
func (s *Service) componentCosts(tx *gorm.DB, tenantID uint, componentIDs []uint) (map[uint]decimal.Decimal, error) {
	costs := make(map[uint]decimal.Decimal, len(componentIDs))
	if len(componentIDs) == 0 {
		return costs, nil
	}
	var components []model.Component
	if err := tx.Unscoped().
		Where("tenant_id = ? AND id IN ?", tenantID, componentIDs).
		Find(&components).Error; err != nil {
		return nil, err
	}
	for _, component := range components {
		costs[component.ID] = component.CostPerUnit
	}
	return costs, nil
}

// RollupCost folds BOM lines over a component cost map. Callers replaying a
// prior transaction pass the frozen costs captured on that transaction instead
// of current component costs. Components missing from the map cost zero.
func RollupCost(lines []model.BOMLine, componentCosts map[uint]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		cost, ok := componentCosts[line.ComponentID]
		if !ok {
			continue
		}
		total = total.Add(line.QuantityPerUnit.Mul(cost))
	}
	return total.Round(costScale)
}
