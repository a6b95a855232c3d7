package service

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
)

// OnHand computes current on-hand quantity per component by summing the
// signed quantity changes of every line belonging to an approved transaction.
// Draft and rejected transactions never contribute. locationID, when given,
// restricts the sum to lines at that location. Every requested component is
// present in the result; components with no ledger history map to zero.
func (s *Service) OnHand(tenantID uint, componentIDs []uint, locationID *uint) (map[uint]decimal.Decimal, error) {
	return s.onHand(s.db, tenantID, componentIDs, locationID)
}

func (s *Service) onHand(tx *gorm.DB, tenantID uint, componentIDs []uint, locationID *uint) (map[uint]decimal.Decimal, error) {
	quantities := make(map[uint]decimal.Decimal, len(componentIDs))
	for _, id := range componentIDs {
		quantities[id] = decimal.Zero
	}
	if len(componentIDs) == 0 {
		return quantities, nil
	}

	type balanceRow struct {
		ComponentID uint
		Total       decimal.Decimal
	}
	var rows []balanceRow

	query := tx.Model(&model.TransactionLine{}).
		Select("transaction_lines.component_id AS component_id, COALESCE(SUM(transaction_lines.quantity_change), 0) AS total").
		Joins("JOIN transactions ON transactions.id = transaction_lines.transaction_id").
		Where("transactions.status = ?", model.TransactionStatusApproved).
		Where("transaction_lines.tenant_id = ?", tenantID).
		Where("transaction_lines.component_id IN ?", componentIDs)
	if locationID != nil {
		query = query.Where("transaction_lines.location_id = ?", *locationID)
	}
	if err := query.Group("transaction_lines.component_id").Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		quantities[row.ComponentID] = row.Total
	}
	return quantities, nil
}

// LotStock is the current balance of one lot, derived from approved ledger
// lines that reference it.
type LotStock struct {
	LotID      uint            `json:"lot_id"`
	LotNumber  string          `json:"lot_number"`
	ExpiryDate *time.Time      `json:"expiry_date,omitempty"`
	Balance    decimal.Decimal `json:"balance"`
}

// LotBalances returns the positive-balance lots for a component at a location
func (s *Service) LotBalances(tenantID, componentID, locationID uint) ([]LotStock, error) {
	return s.lotBalances(s.db, tenantID, componentID, locationID)
}

func (s *Service) lotBalances(tx *gorm.DB, tenantID, componentID, locationID uint) ([]LotStock, error) {
	var stocks []LotStock
	err := tx.Table("lots").
		Select("lots.id AS lot_id, lots.lot_number AS lot_number, lots.expiry_date AS expiry_date, COALESCE(SUM(transaction_lines.quantity_change), 0) AS balance").
		Joins("JOIN transaction_lines ON transaction_lines.lot_id = lots.id").
		Joins("JOIN transactions ON transactions.id = transaction_lines.transaction_id").
		Where("transactions.status = ?", model.TransactionStatusApproved).
		Where("lots.tenant_id = ? AND lots.component_id = ? AND lots.location_id = ?", tenantID, componentID, locationID).
		Group("lots.id, lots.lot_number, lots.expiry_date").
		Having("COALESCE(SUM(transaction_lines.quantity_change), 0) > 0").
		Order("lots.id ASC").
		Scan(&stocks).Error
	if err != nil {
		return nil, err
	}
	return stocks, nil
}

// ReorderAlert is a component whose on-hand stock has fallen to or below its
// reorder point.
type ReorderAlert struct {
	ComponentID  uint            `json:"component_id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	OnHand       decimal.Decimal `json:"on_hand"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
	LeadTimeDays int             `json:"lead_time_days"`
}

// ReorderAlerts reports active components at or below their reorder point
func (s *Service) ReorderAlerts(tenantID uint, locationID *uint) ([]ReorderAlert, error) {
	var components []model.Component
	if err := s.db.Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Where("reorder_point > 0").
		Order("code ASC").
		Find(&components).Error; err != nil {
		return nil, err
	}
	if len(components) == 0 {
		return []ReorderAlert{}, nil
	}

	ids := make([]uint, len(components))
	for i, component := range components {
		ids[i] = component.ID
	}
	quantities, err := s.OnHand(tenantID, ids, locationID)
	if err != nil {
		return nil, err
	}

	alerts := make([]ReorderAlert, 0)
	for _, component := range components {
		onHand := quantities[component.ID]
		if onHand.LessThanOrEqual(component.ReorderPoint) {
			alerts = append(alerts, ReorderAlert{
				ComponentID:  component.ID,
				Code:         component.Code,
				Name:         component.Name,
				OnHand:       onHand,
				ReorderPoint: component.ReorderPoint,
				LeadTimeDays: component.LeadTimeDays,
			})
		}
	}
	return alerts, nil
}
