package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
)

// ErrInvalidQuantity rejects non-positive quantities where a positive one is required
var ErrInvalidQuantity = errors.New("quantity must be positive")

// BuildInput describes a build transaction request
type BuildInput struct {
	SKUID                 uint
	UnitsToBuild          int64
	Date                  time.Time
	LocationID            uint // Where component stock is consumed
	OutputToFinishedGoods bool
	OutputLocationID      *uint // Overrides the tenant's configured finished-goods location
	AllowNegative         bool  // Per-call override of the sufficiency check
	AllowExpiredLots      bool
	LotOverrides          map[uint][]LotOverride // componentID -> pinned lot portions
	DefectUnits           int64
	AffectedUnits         int64
	AsDraft               bool
	Notes                 string
	CreatedBy             uint
}

// ReceiptInput describes an inbound receipt (or opening balance)
type ReceiptInput struct {
	ComponentID uint
	LocationID  uint
	Quantity    decimal.Decimal
	LotNumber   string // Empty for non-lot-tracked stock
	ExpiryDate  *time.Time
	UnitCost    *decimal.Decimal // nil = component's current cost-per-unit
	Date        time.Time
	Initial     bool // Record as an opening-balance entry
	AsDraft     bool
	Notes       string
	CreatedBy   uint
}

// AdjustmentInput describes a signed stock correction
type AdjustmentInput struct {
	ComponentID    uint
	LocationID     uint
	QuantityChange decimal.Decimal // Signed: positive found stock, negative written off
	LotID          *uint
	Reason         string
	Date           time.Time
	AllowNegative  bool
	AsDraft        bool
	CreatedBy      uint
}

// TransferInput moves stock between two locations of the same tenant
type TransferInput struct {
	ComponentID      uint
	FromLocationID   uint
	ToLocationID     uint
	Quantity         decimal.Decimal
	Date             time.Time
	AllowNegative    bool
	AllowExpiredLots bool
	LotOverrides     []LotOverride
	AsDraft          bool
	Notes            string
	CreatedBy        uint
}

// CreateBuildTransaction consumes component stock to build SKU units. The
// sufficiency check, lot allocation, cost snapshot and ledger write all run
// inside one gorm transaction; after the lines are written, on-hand balances
// for every consumed component are recomputed in the same transaction so a
// racing build fails on commit instead of over-committing stock.
func (s *Service) CreateBuildTransaction(tenantID uint, in BuildInput) (*model.Transaction, error) {
	if in.UnitsToBuild <= 0 {
		return nil, ErrInvalidQuantity
	}

	var txn *model.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		settings, err := s.settings(tx, tenantID)
		if err != nil {
			return err
		}
		sku, err := s.tenantSKU(tx, tenantID, in.SKUID)
		if err != nil {
			return err
		}
		if _, err := s.tenantLocation(tx, tenantID, in.LocationID); err != nil {
			return err
		}

		version, err := s.resolveActiveBOM(tx, tenantID, sku.ID, in.Date)
		if err != nil {
			return err
		}

		units := decimal.NewFromInt(in.UnitsToBuild)
		required := make(map[uint]decimal.Decimal)
		componentIDs := make([]uint, 0, len(version.Lines))
		for _, line := range version.Lines {
			if line.QuantityPerUnit.LessThanOrEqual(decimal.Zero) {
				continue
			}
			if _, ok := required[line.ComponentID]; !ok {
				componentIDs = append(componentIDs, line.ComponentID)
			}
			required[line.ComponentID] = required[line.ComponentID].Add(units.Mul(line.QuantityPerUnit))
		}

		allowNegative := settings.AllowNegativeInventory || in.AllowNegative
		if err := s.checkSufficiency(tx, tenantID, in.LocationID, componentIDs, required, allowNegative); err != nil {
			return err
		}

		var components []model.Component
		if err := tx.Unscoped().
			Where("tenant_id = ? AND id IN ?", tenantID, componentIDs).
			Find(&components).Error; err != nil {
			return err
		}
		componentByID := make(map[uint]model.Component, len(components))
		componentCosts := make(map[uint]decimal.Decimal, len(components))
		for _, component := range components {
			componentByID[component.ID] = component
			componentCosts[component.ID] = component.CostPerUnit
		}

		unitCost := RollupCost(version.Lines, componentCosts)
		totalCost := unitCost.Mul(units).Round(costScale)

		lines := make([]model.TransactionLine, 0, len(componentIDs)+1)
		auditNotes := ""
		for _, componentID := range componentIDs {
			component := componentByID[componentID]
			qty := required[componentID]
			if component.LotTracked {
				plan, err := s.allocate(tx, tenantID, componentID, in.LocationID, qty, AllocateOptions{
					ManualOverrides:  in.LotOverrides[componentID],
					AllowExpiredLots: in.AllowExpiredLots,
					TransactionDate:  in.Date,
				})
				if err != nil {
					if allowNegative {
						var short *InsufficientInventoryError
						if errors.As(err, &short) {
							// Negative inventory permitted: consume without lot detail
							lines = append(lines, consumptionLine(tenantID, componentID, in.LocationID, qty, component.CostPerUnit))
							continue
						}
					}
					return err
				}
				for _, alloc := range plan.Allocations {
					line := consumptionLine(tenantID, componentID, in.LocationID, alloc.Quantity, component.CostPerUnit)
					lotID := alloc.LotID
					line.LotID = &lotID
					lines = append(lines, line)
				}
				if plan.AuditNote != "" {
					if auditNotes != "" {
						auditNotes += "; "
					}
					auditNotes += plan.AuditNote
				}
			} else {
				lines = append(lines, consumptionLine(tenantID, componentID, in.LocationID, qty, component.CostPerUnit))
			}
		}

		if in.OutputToFinishedGoods {
			outputLocationID, err := s.resolveOutputLocation(tx, tenantID, settings, in.OutputLocationID)
			if err != nil {
				return err
			}
			skuID := sku.ID
			lines = append(lines, model.TransactionLine{
				TenantID:       tenantID,
				SKUID:          &skuID,
				LocationID:     outputLocationID,
				QuantityChange: units,
				UnitCost:       unitCost,
			})
		}

		// A BOM whose lines are all zero-quantity yields nothing to consume;
		// without an output line there is no ledger effect to record.
		if len(lines) == 0 {
			return fmt.Errorf("build of SKU %d produces no ledger lines: %w", sku.ID, ErrInvalidQuantity)
		}

		notes := in.Notes
		if auditNotes != "" {
			if notes != "" {
				notes += "\n"
			}
			notes += auditNotes
		}

		skuID := sku.ID
		versionID := version.ID
		txn = &model.Transaction{
			TenantID:      tenantID,
			Reference:     uuid.New().String(),
			Type:          model.TransactionTypeBuild,
			Status:        s.initialStatus(settings, in.AsDraft),
			Date:          in.Date,
			SKUID:         &skuID,
			BOMVersionID:  &versionID,
			UnitsBuilt:    in.UnitsToBuild,
			UnitCost:      unitCost,
			TotalCost:     totalCost,
			DefectUnits:   in.DefectUnits,
			AffectedUnits: in.AffectedUnits,
			Notes:         notes,
			CreatedBy:     in.CreatedBy,
			Lines:         lines,
		}
		if err := commitLedger(tx, txn); err != nil {
			return err
		}
		return s.revalidateBalances(tx, txn, allowNegative)
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// CreateReceiptTransaction records inbound stock, optionally creating the lot
// it arrives in. Initial receipts are the same ledger shape under the
// `initial` type so opening balances stay distinguishable in reports.
func (s *Service) CreateReceiptTransaction(tenantID uint, in ReceiptInput) (*model.Transaction, error) {
	if !in.Quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}

	var txn *model.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		settings, err := s.settings(tx, tenantID)
		if err != nil {
			return err
		}
		component, err := s.tenantComponent(tx, tenantID, in.ComponentID)
		if err != nil {
			return err
		}
		if _, err := s.tenantLocation(tx, tenantID, in.LocationID); err != nil {
			return err
		}

		unitCost := component.CostPerUnit
		if in.UnitCost != nil {
			unitCost = *in.UnitCost
		}

		line := model.TransactionLine{
			TenantID:       tenantID,
			ComponentID:    &component.ID,
			LocationID:     in.LocationID,
			QuantityChange: in.Quantity,
			UnitCost:       unitCost,
		}
		if in.LotNumber != "" {
			lot, err := s.findOrCreateLot(tx, tenantID, component.ID, in.LocationID, in.LotNumber, in.ExpiryDate, in.Date)
			if err != nil {
				return err
			}
			line.LotID = &lot.ID
		}

		txnType := model.TransactionTypeReceipt
		if in.Initial {
			txnType = model.TransactionTypeInitial
		}
		locationID := in.LocationID
		txn = &model.Transaction{
			TenantID:     tenantID,
			Reference:    uuid.New().String(),
			Type:         txnType,
			Status:       s.initialStatus(settings, in.AsDraft),
			Date:         in.Date,
			ToLocationID: &locationID,
			Notes:        in.Notes,
			CreatedBy:    in.CreatedBy,
			Lines:        []model.TransactionLine{line},
		}
		return commitLedger(tx, txn)
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// CreateAdjustmentTransaction records a signed stock correction. Negative
// adjustments obey the same sufficiency policy as builds.
func (s *Service) CreateAdjustmentTransaction(tenantID uint, in AdjustmentInput) (*model.Transaction, error) {
	if in.QuantityChange.IsZero() {
		return nil, ErrInvalidQuantity
	}

	var txn *model.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		settings, err := s.settings(tx, tenantID)
		if err != nil {
			return err
		}
		component, err := s.tenantComponent(tx, tenantID, in.ComponentID)
		if err != nil {
			return err
		}
		if _, err := s.tenantLocation(tx, tenantID, in.LocationID); err != nil {
			return err
		}
		if in.LotID != nil {
			var count int64
			if err := tx.Model(&model.Lot{}).
				Where("id = ? AND tenant_id = ? AND component_id = ? AND location_id = ?",
					*in.LotID, tenantID, component.ID, in.LocationID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrNotFound
			}
		}

		allowNegative := settings.AllowNegativeInventory || in.AllowNegative
		if in.QuantityChange.IsNegative() && !allowNegative {
			needed := in.QuantityChange.Neg()
			if err := s.checkSufficiency(tx, tenantID, in.LocationID,
				[]uint{component.ID}, map[uint]decimal.Decimal{component.ID: needed}, false); err != nil {
				return err
			}
		}

		locationID := in.LocationID
		txn = &model.Transaction{
			TenantID:     tenantID,
			Reference:    uuid.New().String(),
			Type:         model.TransactionTypeAdjustment,
			Status:       s.initialStatus(settings, in.AsDraft),
			Date:         in.Date,
			ToLocationID: &locationID,
			Notes:        in.Reason,
			CreatedBy:    in.CreatedBy,
			Lines: []model.TransactionLine{{
				TenantID:       tenantID,
				ComponentID:    &component.ID,
				LotID:          in.LotID,
				LocationID:     in.LocationID,
				QuantityChange: in.QuantityChange,
				UnitCost:       component.CostPerUnit,
			}},
		}
		if err := commitLedger(tx, txn); err != nil {
			return err
		}
		return s.revalidateBalances(tx, txn, allowNegative)
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// CreateTransferTransaction moves stock between two locations as one atomic
// pair of outbound/inbound lines. Lot-tracked stock is allocated FEFO at the
// source and lands in mirror lots (same number and expiry) at the destination
// so traceability survives the move.
func (s *Service) CreateTransferTransaction(tenantID uint, in TransferInput) (*model.Transaction, error) {
	if !in.Quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if in.FromLocationID == in.ToLocationID {
		return nil, ErrSameLocation
	}

	var txn *model.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		settings, err := s.settings(tx, tenantID)
		if err != nil {
			return err
		}
		component, err := s.tenantComponent(tx, tenantID, in.ComponentID)
		if err != nil {
			return err
		}
		if _, err := s.tenantLocation(tx, tenantID, in.FromLocationID); err != nil {
			return err
		}
		if _, err := s.tenantLocation(tx, tenantID, in.ToLocationID); err != nil {
			return err
		}

		allowNegative := settings.AllowNegativeInventory || in.AllowNegative
		if err := s.checkSufficiency(tx, tenantID, in.FromLocationID,
			[]uint{component.ID}, map[uint]decimal.Decimal{component.ID: in.Quantity}, allowNegative); err != nil {
			return err
		}

		lines := make([]model.TransactionLine, 0, 2)
		if component.LotTracked {
			plan, err := s.allocate(tx, tenantID, component.ID, in.FromLocationID, in.Quantity, AllocateOptions{
				ManualOverrides:  in.LotOverrides,
				AllowExpiredLots: in.AllowExpiredLots,
				TransactionDate:  in.Date,
			})
			if err != nil {
				return err
			}
			for _, alloc := range plan.Allocations {
				var source model.Lot
				if err := tx.Where("id = ?", alloc.LotID).First(&source).Error; err != nil {
					return err
				}
				mirror, err := s.findOrCreateLot(tx, tenantID, component.ID, in.ToLocationID,
					source.LotNumber, source.ExpiryDate, in.Date)
				if err != nil {
					return err
				}
				sourceLotID := source.ID
				mirrorLotID := mirror.ID
				outbound := consumptionLine(tenantID, component.ID, in.FromLocationID, alloc.Quantity, component.CostPerUnit)
				outbound.LotID = &sourceLotID
				inbound := model.TransactionLine{
					TenantID:       tenantID,
					ComponentID:    &component.ID,
					LotID:          &mirrorLotID,
					LocationID:     in.ToLocationID,
					QuantityChange: alloc.Quantity,
					UnitCost:       component.CostPerUnit,
				}
				lines = append(lines, outbound, inbound)
			}
		} else {
			lines = append(lines,
				consumptionLine(tenantID, component.ID, in.FromLocationID, in.Quantity, component.CostPerUnit),
				model.TransactionLine{
					TenantID:       tenantID,
					ComponentID:    &component.ID,
					LocationID:     in.ToLocationID,
					QuantityChange: in.Quantity,
					UnitCost:       component.CostPerUnit,
				})
		}

		fromID := in.FromLocationID
		toID := in.ToLocationID
		txn = &model.Transaction{
			TenantID:       tenantID,
			Reference:      uuid.New().String(),
			Type:           model.TransactionTypeTransfer,
			Status:         s.initialStatus(settings, in.AsDraft),
			Date:           in.Date,
			FromLocationID: &fromID,
			ToLocationID:   &toID,
			Notes:          in.Notes,
			CreatedBy:      in.CreatedBy,
			Lines:          lines,
		}
		if err := commitLedger(tx, txn); err != nil {
			return err
		}
		return s.revalidateBalances(tx, txn, allowNegative)
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// checkSufficiency compares required quantities against on-hand stock at a
// location and reports every shortfall in one error.
func (s *Service) checkSufficiency(tx *gorm.DB, tenantID, locationID uint, componentIDs []uint, required map[uint]decimal.Decimal, allowNegative bool) error {
	if allowNegative || len(componentIDs) == 0 {
		return nil
	}
	available, err := s.onHand(tx, tenantID, componentIDs, &locationID)
	if err != nil {
		return err
	}
	shortfalls := []Shortfall{}
	for _, componentID := range componentIDs {
		need := required[componentID]
		have := available[componentID]
		if have.LessThan(need) {
			shortfalls = append(shortfalls, Shortfall{
				ComponentID: componentID,
				Required:    need,
				Available:   have,
				Missing:     need.Sub(have),
			})
		}
	}
	if len(shortfalls) > 0 {
		return &InsufficientInventoryError{Shortfalls: shortfalls}
	}
	return nil
}

// revalidateBalances recomputes on-hand for every (component, location) this
// transaction consumed from, inside the same gorm transaction as the write.
// Two racing builds can both pass the advisory pre-check; whichever commits
// second sees the combined effect here and rolls back instead of driving the
// ledger negative.
func (s *Service) revalidateBalances(tx *gorm.DB, txn *model.Transaction, allowNegative bool) error {
	if allowNegative || txn.Status != model.TransactionStatusApproved {
		return nil
	}
	type pair struct {
		componentID uint
		locationID  uint
	}
	checked := make(map[pair]bool)
	shortfalls := []Shortfall{}
	for _, line := range txn.Lines {
		if line.ComponentID == nil || !line.QuantityChange.IsNegative() {
			continue
		}
		p := pair{*line.ComponentID, line.LocationID}
		if checked[p] {
			continue
		}
		checked[p] = true
		locationID := p.locationID
		balances, err := s.onHand(tx, txn.TenantID, []uint{p.componentID}, &locationID)
		if err != nil {
			return err
		}
		if balance := balances[p.componentID]; balance.IsNegative() {
			shortfalls = append(shortfalls, Shortfall{
				ComponentID: p.componentID,
				Missing:     balance.Neg(),
			})
		}
	}
	if len(shortfalls) > 0 {
		return &InsufficientInventoryError{Shortfalls: shortfalls}
	}
	return nil
}

// resolveOutputLocation picks the finished-goods location: the explicit
// override, then the tenant's configured one, then a sole finished_goods
// location. Anything less resolvable blocks the build.
func (s *Service) resolveOutputLocation(tx *gorm.DB, tenantID uint, settings model.TenantSettings, override *uint) (uint, error) {
	if override != nil {
		if _, err := s.tenantLocation(tx, tenantID, *override); err != nil {
			return 0, err
		}
		return *override, nil
	}
	if settings.FinishedGoodsLocationID != nil {
		if _, err := s.tenantLocation(tx, tenantID, *settings.FinishedGoodsLocationID); err != nil {
			return 0, err
		}
		return *settings.FinishedGoodsLocationID, nil
	}
	var locations []model.Location
	if err := tx.Where("tenant_id = ? AND kind = ?", tenantID, model.LocationKindFinishedGoods).
		Limit(2).Find(&locations).Error; err != nil {
		return 0, err
	}
	if len(locations) != 1 {
		return 0, ErrMissingOutputLocation
	}
	return locations[0].ID, nil
}

// initialStatus decides whether a new transaction lands as a draft
func (s *Service) initialStatus(settings model.TenantSettings, asDraft bool) string {
	if asDraft || settings.RequireApproval {
		return model.TransactionStatusDraft
	}
	return model.TransactionStatusApproved
}

// findOrCreateLot returns the lot identified by (component, location, number),
// creating it on first receipt.
func (s *Service) findOrCreateLot(tx *gorm.DB, tenantID, componentID, locationID uint, lotNumber string, expiry *time.Time, receivedAt time.Time) (*model.Lot, error) {
	var lot model.Lot
	err := tx.Where("tenant_id = ? AND component_id = ? AND location_id = ? AND lot_number = ?",
		tenantID, componentID, locationID, lotNumber).First(&lot).Error
	if err == nil {
		return &lot, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	lot = model.Lot{
		TenantID:    tenantID,
		ComponentID: componentID,
		LocationID:  locationID,
		LotNumber:   lotNumber,
		ExpiryDate:  expiry,
		ReceivedAt:  receivedAt,
	}
	if err := tx.Create(&lot).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

// consumptionLine builds a negative ledger line for component stock
func consumptionLine(tenantID, componentID, locationID uint, qty decimal.Decimal, unitCost decimal.Decimal) model.TransactionLine {
	id := componentID
	return model.TransactionLine{
		TenantID:       tenantID,
		ComponentID:    &id,
		LocationID:     locationID,
		QuantityChange: qty.Neg(),
		UnitCost:       unitCost,
	}
}

// commitLedger writes a transaction header and its lines as two inserts in
// the caller's gorm transaction. A failure on either statement rolls back the
// whole unit: a header without lines is never visible to readers.
func commitLedger(tx *gorm.DB, txn *model.Transaction) error {
	lines := txn.Lines
	txn.Lines = nil
	if err := tx.Create(txn).Error; err != nil {
		return err
	}
	for i := range lines {
		lines[i].TransactionID = txn.ID
	}
	if len(lines) > 0 {
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
	}
	txn.Lines = lines
	return nil
}
