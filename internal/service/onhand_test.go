package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
)

func TestOnHandZeroInitialized(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	bottle := seedComponent(t, db, 1, "BOTTLE", "2.0000", false)

	onHand, err := svc.OnHand(1, []uint{bottle.ID}, nil)
	require.NoError(t, err)
	balance, ok := onHand[bottle.ID]
	require.True(t, ok, "component without ledger lines must still appear")
	assert.True(t, balance.IsZero())
}

func TestOnHandTenantIsolation(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	mine := seedComponent(t, db, 1, "BOTTLE", "2.0000", false)
	theirs := seedComponent(t, db, 2, "BOTTLE", "2.0000", false)
	myWarehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)
	theirWarehouse := seedLocation(t, db, 2, "Main", model.LocationKindWarehouse)

	receive(t, svc, 1, ReceiptInput{ComponentID: mine.ID, LocationID: myWarehouse.ID, Quantity: dec("10")})
	receive(t, svc, 2, ReceiptInput{ComponentID: theirs.ID, LocationID: theirWarehouse.ID, Quantity: dec("99")})

	onHand, err := svc.OnHand(1, []uint{mine.ID, theirs.ID}, nil)
	require.NoError(t, err)
	assert.True(t, onHand[mine.ID].Equal(dec("10")))
	assert.True(t, onHand[theirs.ID].IsZero())
}

func TestOnHandPerLocation(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	bottle := seedComponent(t, db, 1, "BOTTLE", "2.0000", false)
	main := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)
	annex := seedLocation(t, db, 1, "Annex", model.LocationKindWarehouse)
	receive(t, svc, 1, ReceiptInput{ComponentID: bottle.ID, LocationID: main.ID, Quantity: dec("10")})
	receive(t, svc, 1, ReceiptInput{ComponentID: bottle.ID, LocationID: annex.ID, Quantity: dec("4")})

	atMain, err := svc.OnHand(1, []uint{bottle.ID}, &main.ID)
	require.NoError(t, err)
	assert.True(t, atMain[bottle.ID].Equal(dec("10")))

	everywhere, err := svc.OnHand(1, []uint{bottle.ID}, nil)
	require.NoError(t, err)
	assert.True(t, everywhere[bottle.ID].Equal(dec("14")))
}

func TestReorderAlerts(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	low := seedComponent(t, db, 1, "LOW", "1.0000", false)
	require.NoError(t, db.Model(&model.Component{}).
		Where("id = ?", low.ID).
		Update("reorder_point", dec("20")).Error)
	healthy := seedComponent(t, db, 1, "HEALTHY", "1.0000", false)
	require.NoError(t, db.Model(&model.Component{}).
		Where("id = ?", healthy.ID).
		Update("reorder_point", dec("5")).Error)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)

	receive(t, svc, 1, ReceiptInput{ComponentID: low.ID, LocationID: warehouse.ID, Quantity: dec("20")})
	receive(t, svc, 1, ReceiptInput{ComponentID: healthy.ID, LocationID: warehouse.ID, Quantity: dec("50")})

	alerts, err := svc.ReorderAlerts(1, nil)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, low.ID, alerts[0].ComponentID)
	assert.True(t, alerts[0].OnHand.Equal(dec("20")))
	assert.True(t, alerts[0].ReorderPoint.Equal(dec("20")))
}

func TestSaveSettingsRejectsForeignFinishedGoodsLocation(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	foreign := seedLocation(t, db, 2, "FG", model.LocationKindFinishedGoods)

	_, err := svc.SaveSettings(1, model.TenantSettings{
		FinishedGoodsLocationID: &foreign.ID,
	}, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveSettingsUpserts(t *testing.T) {
	svc := newTestService(t)

	saved, err := svc.SaveSettings(1, model.TenantSettings{AllowNegativeInventory: true}, 42)
	require.NoError(t, err)
	assert.True(t, saved.AllowNegativeInventory)

	again, err := svc.SaveSettings(1, model.TenantSettings{EnforceExpiryPolicy: true}, 42)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)
	assert.False(t, again.AllowNegativeInventory)
	assert.True(t, again.EnforceExpiryPolicy)
}
