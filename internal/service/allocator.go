package service

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
)

// LotOverride pins a quantity to a specific lot ahead of the FEFO ranking
type LotOverride struct {
	LotID    uint            `json:"lot_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// AllocateOptions tunes one allocation run
type AllocateOptions struct {
	ManualOverrides  []LotOverride
	AllowExpiredLots bool      // Explicit consent to consume expired stock under enforcement
	TransactionDate  time.Time // Expiry is judged against this date
}

// LotAllocation is one consumed portion of a lot
type LotAllocation struct {
	LotID     uint            `json:"lot_id"`
	LotNumber string          `json:"lot_number"`
	Quantity  decimal.Decimal `json:"quantity"`
	Expired   bool            `json:"expired"` // Consumed past expiry under an explicit override
}

// AllocationPlan is the full lot consumption for one component/location
type AllocationPlan struct {
	ComponentID uint            `json:"component_id"`
	LocationID  uint            `json:"location_id"`
	Allocations []LotAllocation `json:"allocations"`
	AuditNote   string          `json:"audit_note,omitempty"` // Set when expired stock was consumed
}

// Allocate selects specific lots to satisfy a required quantity at a location.
// Default policy is FEFO: earliest expiry first, never-expiring lots last.
// Manual overrides are validated as belonging to the same tenant, component
// and location before anything is consumed; a bad override aborts the whole
// allocation. Under the tenant's expiry enforcement policy, expired lots block
// unless AllowExpiredLots is set, in which case their use is recorded on the
// plan's audit note. Shortfall never produces a silent partial plan.
func (s *Service) Allocate(tenantID, componentID, locationID uint, need decimal.Decimal, opts AllocateOptions) (*AllocationPlan, error) {
	return s.allocate(s.db, tenantID, componentID, locationID, need, opts)
}

func (s *Service) allocate(tx *gorm.DB, tenantID, componentID, locationID uint, need decimal.Decimal, opts AllocateOptions) (*AllocationPlan, error) {
	settings, err := s.settings(tx, tenantID)
	if err != nil {
		return nil, err
	}
	stocks, err := s.lotBalances(tx, tenantID, componentID, locationID)
	if err != nil {
		return nil, err
	}
	if err := s.validateOverrides(tx, tenantID, componentID, locationID, opts.ManualOverrides); err != nil {
		return nil, err
	}
	return planLotConsumption(componentID, locationID, need, stocks, opts, settings.EnforceExpiryPolicy)
}

// validateOverrides checks every manual override lot against the tenant,
// component and location of the allocation. This is a tenant-isolation
// boundary: a mismatch is a security violation, not an input typo.
func (s *Service) validateOverrides(tx *gorm.DB, tenantID, componentID, locationID uint, overrides []LotOverride) error {
	for _, override := range overrides {
		var count int64
		if err := tx.Model(&model.Lot{}).
			Where("id = ? AND tenant_id = ? AND component_id = ? AND location_id = ?",
				override.LotID, tenantID, componentID, locationID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return &InvalidLotOverrideError{LotID: override.LotID}
		}
	}
	return nil
}

// rankLots orders candidate lots for FEFO consumption: ascending expiry date,
// lots without an expiry sorting last, lot ID as the stable tie-breaker.
func rankLots(stocks []LotStock) []LotStock {
	ranked := make([]LotStock, len(stocks))
	copy(ranked, stocks)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		switch {
		case a.ExpiryDate == nil && b.ExpiryDate == nil:
			return a.LotID < b.LotID
		case a.ExpiryDate == nil:
			return false
		case b.ExpiryDate == nil:
			return true
		case a.ExpiryDate.Equal(*b.ExpiryDate):
			return a.LotID < b.LotID
		default:
			return a.ExpiryDate.Before(*b.ExpiryDate)
		}
	})
	return ranked
}

// lotExpired reports whether a lot's expiry date is on or before the
// transaction date.
func lotExpired(stock LotStock, asOf time.Time) bool {
	return stock.ExpiryDate != nil && !stock.ExpiryDate.After(asOf)
}

// planLotConsumption is the deterministic allocation fold. It runs entirely
// over the ranked in-memory slice so the policy is testable without storage.
//
// Overrides take precedence for their portions; the remainder is filled
// greedily in FEFO order. With expiry enforcement active and no override
// consent, expired lots are kept out of the greedy fill; if the need cannot
// be met without them the allocation blocks with the offending lots listed.
func planLotConsumption(componentID, locationID uint, need decimal.Decimal, stocks []LotStock, opts AllocateOptions, enforceExpiry bool) (*AllocationPlan, error) {
	plan := &AllocationPlan{
		ComponentID: componentID,
		LocationID:  locationID,
		Allocations: []LotAllocation{},
	}
	remaining := need

	byID := make(map[uint]*LotStock, len(stocks))
	available := make(map[uint]decimal.Decimal, len(stocks))
	for i := range stocks {
		byID[stocks[i].LotID] = &stocks[i]
		available[stocks[i].LotID] = stocks[i].Balance
	}

	expiredBlocked := false
	expiredLots := []uint{}
	blockedSeen := make(map[uint]bool)
	expiredUsed := []string{}

	blockLot := func(lotID uint) {
		expiredBlocked = true
		if !blockedSeen[lotID] {
			blockedSeen[lotID] = true
			expiredLots = append(expiredLots, lotID)
		}
	}

	consume := func(stock *LotStock, qty decimal.Decimal) {
		expired := lotExpired(*stock, opts.TransactionDate)
		plan.Allocations = append(plan.Allocations, LotAllocation{
			LotID:     stock.LotID,
			LotNumber: stock.LotNumber,
			Quantity:  qty,
			Expired:   expired,
		})
		if expired {
			expiredUsed = append(expiredUsed, stock.LotNumber)
		}
		available[stock.LotID] = available[stock.LotID].Sub(qty)
		remaining = remaining.Sub(qty)
	}

	// Pinned portions first
	for _, override := range opts.ManualOverrides {
		stock := byID[override.LotID]
		if stock == nil {
			// Override lot exists but holds no stock
			continue
		}
		if enforceExpiry && !opts.AllowExpiredLots && lotExpired(*stock, opts.TransactionDate) {
			blockLot(stock.LotID)
			continue
		}
		qty := decimal.Min(override.Quantity, available[stock.LotID], remaining)
		if qty.IsPositive() {
			consume(stock, qty)
		}
	}

	// Greedy FEFO fill for the remainder
	for _, stock := range rankLots(stocks) {
		if !remaining.IsPositive() {
			break
		}
		balance := available[stock.LotID]
		if !balance.IsPositive() {
			continue
		}
		if lotExpired(stock, opts.TransactionDate) && enforceExpiry && !opts.AllowExpiredLots {
			blockLot(stock.LotID)
			continue
		}
		consume(byID[stock.LotID], decimal.Min(balance, remaining))
	}

	if remaining.IsPositive() {
		if expiredBlocked {
			return nil, &ExpiredLotBlockError{
				ComponentID:     componentID,
				LotIDs:          expiredLots,
				OverrideAllowed: true,
			}
		}
		return nil, &InsufficientInventoryError{Shortfalls: []Shortfall{{
			ComponentID: componentID,
			Required:    need,
			Available:   need.Sub(remaining),
			Missing:     remaining,
		}}}
	}

	if len(expiredUsed) > 0 {
		plan.AuditNote = "consumed expired lot(s) under explicit override: " + strings.Join(expiredUsed, ", ")
	}
	return plan, nil
}
