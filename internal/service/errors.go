package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Sentinel errors surfaced by the core. Handlers map these to HTTP statuses;
// none of them leaves partial ledger state behind.
var (
	// ErrNotFound covers any tenant-scoped lookup miss. A record owned by a
	// different tenant is indistinguishable from one that does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNoBOMEffective blocks a build when no BOM version covers its date.
	ErrNoBOMEffective = errors.New("no BOM version effective on the requested date")

	// ErrVersionConflict is the optimistic-concurrency failure on BOM edits.
	// The caller must re-fetch and retry with the current lock version.
	ErrVersionConflict = errors.New("BOM version was modified concurrently")

	// ErrMissingOutputLocation blocks a build that requested finished-goods
	// output when no output location is given or configured.
	ErrMissingOutputLocation = errors.New("no output location resolvable for finished goods")

	// ErrDraftAlreadyDecided is the idempotent no-op failure for approving or
	// rejecting a transaction that already reached a terminal status.
	ErrDraftAlreadyDecided = errors.New("draft has already been approved or rejected")

	// ErrBatchTooLarge guards the batch-approval bound.
	ErrBatchTooLarge = errors.New("too many drafts in one batch")

	// ErrSameLocation rejects a transfer whose source and destination match.
	ErrSameLocation = errors.New("transfer source and destination must differ")
)

// InvalidLotOverrideError is raised when a manual lot override references a
// lot outside the caller's tenant, component or location. This is treated as
// a tenant-isolation violation: the whole allocation aborts, nothing is
// partially applied.
type InvalidLotOverrideError struct {
	LotID uint
}

func (e *InvalidLotOverrideError) Error() string {
	return fmt.Sprintf("lot override %d is outside the tenant, component or location scope", e.LotID)
}

// Shortfall describes missing stock for one component.
type Shortfall struct {
	ComponentID uint            `json:"component_id"`
	Required    decimal.Decimal `json:"required"`
	Available   decimal.Decimal `json:"available"`
	Missing     decimal.Decimal `json:"missing"`
}

// InsufficientInventoryError blocks an operation whose required quantities
// exceed on-hand stock and no override applies. It carries the per-component
// shortfall so the caller can render an override path.
type InsufficientInventoryError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientInventoryError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("component %d short %s", s.ComponentID, s.Missing.String()))
	}
	return "insufficient inventory: " + strings.Join(parts, ", ")
}

// ExpiredLotBlockError blocks an allocation that would consume expired stock
// while the tenant's expiry enforcement policy is active. OverrideAllowed
// tells the caller whether retrying with an explicit expired-lot override is
// permitted.
type ExpiredLotBlockError struct {
	ComponentID     uint   `json:"component_id"`
	LotIDs          []uint `json:"lot_ids"`
	OverrideAllowed bool   `json:"override_allowed"`
}

func (e *ExpiredLotBlockError) Error() string {
	return fmt.Sprintf("allocation for component %d blocked by %d expired lot(s)", e.ComponentID, len(e.LotIDs))
}
