package service

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
)

// MaxBuildable computes the maximum number of SKU units buildable from current
// stock under the BOM version effective on asOf: the minimum over BOM lines of
// floor(onHand / quantityPerUnit), clamped to zero. Lines with a zero quantity
// are non-constraining and excluded from the minimum. A nil result means the
// SKU has no effective BOM.
func (s *Service) MaxBuildable(tenantID, skuID uint, locationID *uint, asOf time.Time) (*int64, error) {
	results, err := s.MaxBuildableAll(tenantID, []uint{skuID}, locationID, asOf)
	if err != nil {
		return nil, err
	}
	return results[skuID], nil
}

// MaxBuildableAll is the batch variant: every SKU's ratio is computed against
// a single on-hand fetch covering the union of their BOM components.
func (s *Service) MaxBuildableAll(tenantID uint, skuIDs []uint, locationID *uint, asOf time.Time) (map[uint]*int64, error) {
	results := make(map[uint]*int64, len(skuIDs))
	versions := make(map[uint]*model.BOMVersion, len(skuIDs))

	componentIDs := make([]uint, 0)
	seen := make(map[uint]bool)
	for _, skuID := range skuIDs {
		version, err := s.ResolveActiveBOM(tenantID, skuID, asOf)
		if errors.Is(err, ErrNoBOMEffective) {
			results[skuID] = nil
			continue
		}
		if err != nil {
			return nil, err
		}
		versions[skuID] = version
		for _, line := range version.Lines {
			if !seen[line.ComponentID] {
				seen[line.ComponentID] = true
				componentIDs = append(componentIDs, line.ComponentID)
			}
		}
	}

	quantities, err := s.OnHand(tenantID, componentIDs, locationID)
	if err != nil {
		return nil, err
	}

	for skuID, version := range versions {
		buildable := buildableFromStock(version.Lines, quantities)
		results[skuID] = &buildable
	}
	return results, nil
}

// buildableFromStock is the pure per-line minimum-ratio fold. A BOM whose
// every line is non-constraining yields zero, not unbounded, so an empty
// recipe can never report infinite stock.
func buildableFromStock(lines []model.BOMLine, onHand map[uint]decimal.Decimal) int64 {
	constrained := false
	min := int64(0)
	for _, line := range lines {
		if line.QuantityPerUnit.LessThanOrEqual(decimal.Zero) {
			continue
		}
		available := onHand[line.ComponentID]
		ratio := available.Div(line.QuantityPerUnit).Floor().IntPart()
		if ratio < 0 {
			ratio = 0
		}
		if !constrained || ratio < min {
			min = ratio
			constrained = true
		}
	}
	if !constrained {
		return 0
	}
	return min
}
