package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
)

// decideDraftBehindReader registers a query callback that marks the draft
// approved right after the next read of a transactions row, simulating a
// reviewer who decides the draft between this caller's read and its
// conditional status update.
func decideDraftBehindReader(t *testing.T, db *gorm.DB, transactionID uint) {
	t.Helper()
	const name = "decide_draft_behind_reader"
	flipped := false
	require.NoError(t, db.Callback().Query().After("gorm:query").Register(name, func(tx *gorm.DB) {
		if flipped || tx.Statement.Table != "transactions" {
			return
		}
		flipped = true
		flip := tx.Session(&gorm.Session{NewDB: true}).
			Model(&model.Transaction{}).
			Where("id = ?", transactionID).
			Update("status", model.TransactionStatusApproved)
		assert.NoError(t, flip.Error)
	}))
	t.Cleanup(func() { db.Callback().Query().Remove(name) })
}

// draftReceipt stages a draft receipt of 10 bottles and returns it with the
// seeded component and warehouse.
func draftReceipt(t *testing.T, svc *Service) (*model.Transaction, model.Component, model.Location) {
	t.Helper()
	db := svc.DB()
	bottle := seedComponent(t, db, 1, "BOTTLE", "2.0000", false)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)
	txn, err := svc.CreateReceiptTransaction(1, ReceiptInput{
		ComponentID: bottle.ID,
		LocationID:  warehouse.ID,
		Quantity:    dec("10"),
		Date:        date(2024, time.March, 1),
		AsDraft:     true,
	})
	require.NoError(t, err)
	require.Equal(t, model.TransactionStatusDraft, txn.Status)
	return txn, bottle, warehouse
}

func TestDraftIsLedgerInert(t *testing.T) {
	svc := newTestService(t)
	_, bottle, warehouse := draftReceipt(t, svc)

	onHand, err := svc.OnHand(1, []uint{bottle.ID}, &warehouse.ID)
	require.NoError(t, err)
	assert.True(t, onHand[bottle.ID].IsZero(), "draft must not count, got %s", onHand[bottle.ID])
}

func TestApproveDraftAppliesLedgerEffect(t *testing.T) {
	svc := newTestService(t)
	txn, bottle, warehouse := draftReceipt(t, svc)

	approved, err := svc.ApproveDraft(1, txn.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, uint(42), *approved.ReviewedBy)
	assert.NotNil(t, approved.ReviewedAt)

	onHand, err := svc.OnHand(1, []uint{bottle.ID}, &warehouse.ID)
	require.NoError(t, err)
	assert.True(t, onHand[bottle.ID].Equal(dec("10")))
}

func TestRejectDraftStaysInert(t *testing.T) {
	svc := newTestService(t)
	txn, bottle, warehouse := draftReceipt(t, svc)

	rejected, err := svc.RejectDraft(1, txn.ID, 42, "wrong count")
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusRejected, rejected.Status)
	assert.Equal(t, "wrong count", rejected.RejectReason)

	onHand, err := svc.OnHand(1, []uint{bottle.ID}, &warehouse.ID)
	require.NoError(t, err)
	assert.True(t, onHand[bottle.ID].IsZero())
}

func TestApproveDraftTwiceFailsIdempotently(t *testing.T) {
	svc := newTestService(t)
	txn, bottle, warehouse := draftReceipt(t, svc)

	_, err := svc.ApproveDraft(1, txn.ID, 42)
	require.NoError(t, err)

	_, err = svc.ApproveDraft(1, txn.ID, 42)
	assert.ErrorIs(t, err, ErrDraftAlreadyDecided)

	// The second attempt produced no second ledger effect
	onHand, err := svc.OnHand(1, []uint{bottle.ID}, &warehouse.ID)
	require.NoError(t, err)
	assert.True(t, onHand[bottle.ID].Equal(dec("10")))
}

func TestApproveDraftLosesRaceToEarlierDecision(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()
	txn, _, _ := draftReceipt(t, svc)

	decideDraftBehindReader(t, db, txn.ID)

	_, err := svc.ApproveDraft(1, txn.ID, 99)
	require.ErrorIs(t, err, ErrDraftAlreadyDecided)

	// The losing reviewer must not have stamped the transaction
	var reloaded model.Transaction
	require.NoError(t, db.First(&reloaded, txn.ID).Error)
	assert.Nil(t, reloaded.ReviewedBy)
}

func TestRejectDraftLosesRaceToEarlierDecision(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()
	txn, _, _ := draftReceipt(t, svc)

	decideDraftBehindReader(t, db, txn.ID)

	_, err := svc.RejectDraft(1, txn.ID, 99, "too late")
	require.ErrorIs(t, err, ErrDraftAlreadyDecided)

	var reloaded model.Transaction
	require.NoError(t, db.First(&reloaded, txn.ID).Error)
	assert.Nil(t, reloaded.ReviewedBy)
	assert.Empty(t, reloaded.RejectReason)
}

func TestRejectAfterApproveFails(t *testing.T) {
	svc := newTestService(t)
	txn, _, _ := draftReceipt(t, svc)

	_, err := svc.ApproveDraft(1, txn.ID, 42)
	require.NoError(t, err)

	_, err = svc.RejectDraft(1, txn.ID, 42, "too late")
	assert.ErrorIs(t, err, ErrDraftAlreadyDecided)
}

func TestApproveDraftForeignTenant(t *testing.T) {
	svc := newTestService(t)
	txn, _, _ := draftReceipt(t, svc)

	_, err := svc.ApproveDraft(2, txn.ID, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApproveDraftBlocksWhenStockNoLongerCovers(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	bottle := seedComponent(t, db, 1, "BOTTLE", "2.0000", false)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)
	receive(t, svc, 1, ReceiptInput{ComponentID: bottle.ID, LocationID: warehouse.ID, Quantity: dec("5")})

	draft, err := svc.CreateAdjustmentTransaction(1, AdjustmentInput{
		ComponentID:    bottle.ID,
		LocationID:     warehouse.ID,
		QuantityChange: dec("-4"),
		Reason:         "cycle count",
		Date:           date(2024, time.April, 1),
		AsDraft:        true,
	})
	require.NoError(t, err)

	// Stock drains while the draft waits for review
	_, err = svc.CreateAdjustmentTransaction(1, AdjustmentInput{
		ComponentID:    bottle.ID,
		LocationID:     warehouse.ID,
		QuantityChange: dec("-3"),
		Reason:         "damage",
		Date:           date(2024, time.April, 2),
	})
	require.NoError(t, err)

	_, err = svc.ApproveDraft(1, draft.ID, 42)
	var insufficientErr *InsufficientInventoryError
	require.ErrorAs(t, err, &insufficientErr)

	// The failed approval left the draft pending
	var reloaded model.Transaction
	require.NoError(t, db.First(&reloaded, draft.ID).Error)
	assert.Equal(t, model.TransactionStatusDraft, reloaded.Status)
}

func TestApproveDraftsPartialFailure(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	bottle := seedComponent(t, db, 1, "BOTTLE", "2.0000", false)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)

	good, err := svc.CreateReceiptTransaction(1, ReceiptInput{
		ComponentID: bottle.ID, LocationID: warehouse.ID,
		Quantity: dec("10"), Date: date(2024, time.March, 1), AsDraft: true,
	})
	require.NoError(t, err)
	decided, err := svc.CreateReceiptTransaction(1, ReceiptInput{
		ComponentID: bottle.ID, LocationID: warehouse.ID,
		Quantity: dec("3"), Date: date(2024, time.March, 1), AsDraft: true,
	})
	require.NoError(t, err)
	_, err = svc.RejectDraft(1, decided.ID, 42, "duplicate")
	require.NoError(t, err)

	result, err := svc.ApproveDrafts(1, []uint{good.ID, decided.ID, 9999}, 42)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Results, 3)
	assert.True(t, result.Results[0].Approved)
	assert.False(t, result.Results[1].Approved)
	assert.NotEmpty(t, result.Results[1].Error)
	assert.False(t, result.Results[2].Approved)

	// Only the approved draft counts
	onHand, err := svc.OnHand(1, []uint{bottle.ID}, &warehouse.ID)
	require.NoError(t, err)
	assert.True(t, onHand[bottle.ID].Equal(dec("10")))
}

func TestApproveDraftsBatchLimit(t *testing.T) {
	svc := newTestService(t)

	ids := make([]uint, maxBatchApproval+1)
	for i := range ids {
		ids[i] = uint(i + 1)
	}
	_, err := svc.ApproveDrafts(1, ids, 42)
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestRequireApprovalSettingStagesDrafts(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	saveSettings(t, db, model.TenantSettings{TenantID: 1, RequireApproval: true})
	bottle := seedComponent(t, db, 1, "BOTTLE", "2.0000", false)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)

	txn, err := svc.CreateReceiptTransaction(1, ReceiptInput{
		ComponentID: bottle.ID, LocationID: warehouse.ID,
		Quantity: dec("10"), Date: date(2024, time.March, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusDraft, txn.Status)
}
