package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
)

func TestCreateBuildTransactionConsumesAndOutputs(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	bottle := seedComponent(t, db, 1, "BOTTLE", "2.0000", false)
	cap := seedComponent(t, db, 1, "CAP", "0.5000", false)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)
	finished := seedLocation(t, db, 1, "FG", model.LocationKindFinishedGoods)
	sku := seedSKU(t, db, 1, "SKU-1")
	version := seedBOM(t, db, 1, sku.ID, date(2024, time.January, 1), nil, []model.BOMLine{
		{ComponentID: bottle.ID, QuantityPerUnit: dec("3")},
		{ComponentID: cap.ID, QuantityPerUnit: dec("10")},
	})

	receive(t, svc, 1, ReceiptInput{ComponentID: bottle.ID, LocationID: warehouse.ID, Quantity: dec("30")})
	receive(t, svc, 1, ReceiptInput{ComponentID: cap.ID, LocationID: warehouse.ID, Quantity: dec("100")})

	txn, err := svc.CreateBuildTransaction(1, BuildInput{
		SKUID:                 sku.ID,
		UnitsToBuild:          5,
		Date:                  date(2024, time.April, 1),
		LocationID:            warehouse.ID,
		OutputToFinishedGoods: true,
		OutputLocationID:      &finished.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, model.TransactionTypeBuild, txn.Type)
	assert.Equal(t, model.TransactionStatusApproved, txn.Status)
	require.NotNil(t, txn.BOMVersionID)
	assert.Equal(t, version.ID, *txn.BOMVersionID)
	// Cost snapshot: 3x2.00 + 10x0.50 = 11.00 per unit
	assert.True(t, txn.UnitCost.Equal(dec("11.0000")), "unit cost %s", txn.UnitCost)
	assert.True(t, txn.TotalCost.Equal(dec("55.0000")), "total cost %s", txn.TotalCost)

	onHand, err := svc.OnHand(1, []uint{bottle.ID, cap.ID}, &warehouse.ID)
	require.NoError(t, err)
	assert.True(t, onHand[bottle.ID].Equal(dec("15")))
	assert.True(t, onHand[cap.ID].Equal(dec("50")))

	// One finished-goods output line carried on the SKU, not a component
	var outputs int
	for _, line := range txn.Lines {
		if line.SKUID != nil {
			outputs++
			assert.Equal(t, finished.ID, line.LocationID)
			assert.True(t, line.QuantityChange.Equal(dec("5")))
		}
	}
	assert.Equal(t, 1, outputs)
}

func TestCreateBuildTransactionInsufficientStock(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	bottle := seedComponent(t, db, 1, "BOTTLE", "2.0000", false)
	cap := seedComponent(t, db, 1, "CAP", "0.5000", false)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)
	sku := seedSKU(t, db, 1, "SKU-1")
	seedBOM(t, db, 1, sku.ID, date(2024, time.January, 1), nil, []model.BOMLine{
		{ComponentID: bottle.ID, QuantityPerUnit: dec("3")},
		{ComponentID: cap.ID, QuantityPerUnit: dec("10")},
	})

	receive(t, svc, 1, ReceiptInput{ComponentID: bottle.ID, LocationID: warehouse.ID, Quantity: dec("6")})

	_, err := svc.CreateBuildTransaction(1, BuildInput{
		SKUID:        sku.ID,
		UnitsToBuild: 4,
		Date:         date(2024, time.April, 1),
		LocationID:   warehouse.ID,
	})
	var insufficientErr *InsufficientInventoryError
	require.ErrorAs(t, err, &insufficientErr)
	// Both shortfalls reported at once
	require.Len(t, insufficientErr.Shortfalls, 2)

	// Nothing was committed
	var count int64
	require.NoError(t, db.Model(&model.Transaction{}).
		Where("type = ?", model.TransactionTypeBuild).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCreateBuildTransactionAtomicity(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	bottle := seedComponent(t, db, 1, "BOTTLE", "2.0000", false)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)
	sku := seedSKU(t, db, 1, "SKU-1")
	seedBOM(t, db, 1, sku.ID, date(2024, time.January, 1), nil, []model.BOMLine{
		{ComponentID: bottle.ID, QuantityPerUnit: dec("1")},
	})
	receive(t, svc, 1, ReceiptInput{ComponentID: bottle.ID, LocationID: warehouse.ID, Quantity: dec("10")})

	// Fail the line insert after the header insert succeeded
	lineInsertErr := errors.New("induced line insert failure")
	require.NoError(t, db.Callback().Create().Before("gorm:create").
		Register("fail_transaction_lines", func(tx *gorm.DB) {
			if tx.Statement.Table == "transaction_lines" {
				tx.AddError(lineInsertErr)
			}
		}))
	defer db.Callback().Create().Remove("fail_transaction_lines")

	_, err := svc.CreateBuildTransaction(1, BuildInput{
		SKUID:        sku.ID,
		UnitsToBuild: 2,
		Date:         date(2024, time.April, 1),
		LocationID:   warehouse.ID,
	})
	require.ErrorIs(t, err, lineInsertErr)

	// The header must have rolled back with the lines
	var count int64
	require.NoError(t, db.Model(&model.Transaction{}).
		Where("type = ?", model.TransactionTypeBuild).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCreateBuildTransactionRejectsBOMWithNoEffect(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	bottle := seedComponent(t, db, 1, "BOTTLE", "2.0000", false)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)
	sku := seedSKU(t, db, 1, "SKU-1")
	seedBOM(t, db, 1, sku.ID, date(2024, time.January, 1), nil, []model.BOMLine{
		{ComponentID: bottle.ID, QuantityPerUnit: dec("0")},
	})

	// Every line is zero-quantity and no output is requested, so there is
	// nothing to record
	_, err := svc.CreateBuildTransaction(1, BuildInput{
		SKUID:        sku.ID,
		UnitsToBuild: 5,
		Date:         date(2024, time.April, 1),
		LocationID:   warehouse.ID,
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	var count int64
	require.NoError(t, db.Model(&model.Transaction{}).
		Where("type = ?", model.TransactionTypeBuild).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCreateBuildTransactionAllowNegative(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	saveSettings(t, db, model.TenantSettings{TenantID: 1, AllowNegativeInventory: true})
	bottle := seedComponent(t, db, 1, "BOTTLE", "2.0000", false)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)
	sku := seedSKU(t, db, 1, "SKU-1")
	seedBOM(t, db, 1, sku.ID, date(2024, time.January, 1), nil, []model.BOMLine{
		{ComponentID: bottle.ID, QuantityPerUnit: dec("2")},
	})

	_, err := svc.CreateBuildTransaction(1, BuildInput{
		SKUID:        sku.ID,
		UnitsToBuild: 3,
		Date:         date(2024, time.April, 1),
		LocationID:   warehouse.ID,
	})
	require.NoError(t, err)

	onHand, err := svc.OnHand(1, []uint{bottle.ID}, &warehouse.ID)
	require.NoError(t, err)
	assert.True(t, onHand[bottle.ID].Equal(dec("-6")), "got %s", onHand[bottle.ID])
}

func TestCreateBuildTransactionConsumesLotsFEFO(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	powder := seedComponent(t, db, 1, "POWDER", "1.0000", true)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)
	sku := seedSKU(t, db, 1, "SKU-1")
	seedBOM(t, db, 1, sku.ID, date(2024, time.January, 1), nil, []model.BOMLine{
		{ComponentID: powder.ID, QuantityPerUnit: dec("4")},
	})
	receive(t, svc, 1, ReceiptInput{
		ComponentID: powder.ID, LocationID: warehouse.ID,
		Quantity: dec("5"), LotNumber: "EARLY", ExpiryDate: datePtr(2025, time.January, 1),
	})
	receive(t, svc, 1, ReceiptInput{
		ComponentID: powder.ID, LocationID: warehouse.ID,
		Quantity: dec("20"), LotNumber: "LATE", ExpiryDate: datePtr(2025, time.December, 1),
	})

	txn, err := svc.CreateBuildTransaction(1, BuildInput{
		SKUID:        sku.ID,
		UnitsToBuild: 2,
		Date:         date(2024, time.April, 1),
		LocationID:   warehouse.ID,
	})
	require.NoError(t, err)
	require.Len(t, txn.Lines, 2)
	assert.True(t, txn.Lines[0].QuantityChange.Equal(dec("-5")))
	assert.True(t, txn.Lines[1].QuantityChange.Equal(dec("-3")))

	stocks, err := svc.LotBalances(1, powder.ID, warehouse.ID)
	require.NoError(t, err)
	require.Len(t, stocks, 1)
	assert.Equal(t, "LATE", stocks[0].LotNumber)
	assert.True(t, stocks[0].Balance.Equal(dec("17")))
}

func TestCreateReceiptTransactionRaisesOnHand(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	bottle := seedComponent(t, db, 1, "BOTTLE", "2.0000", false)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)

	txn := receive(t, svc, 1, ReceiptInput{
		ComponentID: bottle.ID, LocationID: warehouse.ID, Quantity: dec("25"),
	})
	assert.Equal(t, model.TransactionTypeReceipt, txn.Type)
	require.Len(t, txn.Lines, 1)
	// Unit cost defaults to the component's current cost
	assert.True(t, txn.Lines[0].UnitCost.Equal(dec("2.0000")))

	onHand, err := svc.OnHand(1, []uint{bottle.ID}, nil)
	require.NoError(t, err)
	assert.True(t, onHand[bottle.ID].Equal(dec("25")))
}

func TestCreateReceiptTransactionInitialType(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	bottle := seedComponent(t, db, 1, "BOTTLE", "2.0000", false)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)

	txn, err := svc.CreateReceiptTransaction(1, ReceiptInput{
		ComponentID: bottle.ID, LocationID: warehouse.ID,
		Quantity: dec("100"), Date: date(2024, time.January, 1), Initial: true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TransactionTypeInitial, txn.Type)
}

func TestCreateReceiptTransactionRejectsNonPositive(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	bottle := seedComponent(t, db, 1, "BOTTLE", "2.0000", false)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)

	_, err := svc.CreateReceiptTransaction(1, ReceiptInput{
		ComponentID: bottle.ID, LocationID: warehouse.ID,
		Quantity: dec("0"), Date: date(2024, time.January, 1),
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCreateAdjustmentTransactionWriteOff(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	bottle := seedComponent(t, db, 1, "BOTTLE", "2.0000", false)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)
	receive(t, svc, 1, ReceiptInput{ComponentID: bottle.ID, LocationID: warehouse.ID, Quantity: dec("10")})

	_, err := svc.CreateAdjustmentTransaction(1, AdjustmentInput{
		ComponentID:    bottle.ID,
		LocationID:     warehouse.ID,
		QuantityChange: dec("-4"),
		Reason:         "damaged in storage",
		Date:           date(2024, time.April, 1),
	})
	require.NoError(t, err)

	onHand, err := svc.OnHand(1, []uint{bottle.ID}, &warehouse.ID)
	require.NoError(t, err)
	assert.True(t, onHand[bottle.ID].Equal(dec("6")))
}

func TestCreateAdjustmentTransactionBlocksOverdraw(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	bottle := seedComponent(t, db, 1, "BOTTLE", "2.0000", false)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)
	receive(t, svc, 1, ReceiptInput{ComponentID: bottle.ID, LocationID: warehouse.ID, Quantity: dec("3")})

	_, err := svc.CreateAdjustmentTransaction(1, AdjustmentInput{
		ComponentID:    bottle.ID,
		LocationID:     warehouse.ID,
		QuantityChange: dec("-5"),
		Reason:         "cycle count",
		Date:           date(2024, time.April, 1),
	})
	var insufficientErr *InsufficientInventoryError
	assert.ErrorAs(t, err, &insufficientErr)
}

func TestCreateTransferTransactionMirrorsLots(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	powder := seedComponent(t, db, 1, "POWDER", "1.0000", true)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)
	fba := seedLocation(t, db, 1, "FBA-US", model.LocationKindFBA)
	receive(t, svc, 1, ReceiptInput{
		ComponentID: powder.ID, LocationID: warehouse.ID,
		Quantity: dec("12"), LotNumber: "B100", ExpiryDate: datePtr(2025, time.June, 1),
	})

	txn, err := svc.CreateTransferTransaction(1, TransferInput{
		ComponentID:    powder.ID,
		FromLocationID: warehouse.ID,
		ToLocationID:   fba.ID,
		Quantity:       dec("7"),
		Date:           date(2024, time.April, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, model.TransactionTypeTransfer, txn.Type)

	sourceOnHand, err := svc.OnHand(1, []uint{powder.ID}, &warehouse.ID)
	require.NoError(t, err)
	assert.True(t, sourceOnHand[powder.ID].Equal(dec("5")))

	destStocks, err := svc.LotBalances(1, powder.ID, fba.ID)
	require.NoError(t, err)
	require.Len(t, destStocks, 1)
	// The destination lot keeps the number and expiry of the source lot
	assert.Equal(t, "B100", destStocks[0].LotNumber)
	require.NotNil(t, destStocks[0].ExpiryDate)
	assert.True(t, destStocks[0].ExpiryDate.Equal(date(2025, time.June, 1)))
	assert.True(t, destStocks[0].Balance.Equal(dec("7")))
}

func TestCreateTransferTransactionBlocksOverdraw(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	powder := seedComponent(t, db, 1, "POWDER", "1.0000", true)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)
	fba := seedLocation(t, db, 1, "FBA-US", model.LocationKindFBA)
	receive(t, svc, 1, ReceiptInput{
		ComponentID: powder.ID, LocationID: warehouse.ID,
		Quantity: dec("2"), LotNumber: "B100",
	})

	_, err := svc.CreateTransferTransaction(1, TransferInput{
		ComponentID:    powder.ID,
		FromLocationID: warehouse.ID,
		ToLocationID:   fba.ID,
		Quantity:       dec("5"),
		Date:           date(2024, time.April, 1),
	})
	var insufficientErr *InsufficientInventoryError
	assert.ErrorAs(t, err, &insufficientErr)
}

func TestCreateTransferTransactionRejectsSameLocation(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	powder := seedComponent(t, db, 1, "POWDER", "1.0000", true)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)

	_, err := svc.CreateTransferTransaction(1, TransferInput{
		ComponentID:    powder.ID,
		FromLocationID: warehouse.ID,
		ToLocationID:   warehouse.ID,
		Quantity:       dec("1"),
		Date:           date(2024, time.April, 1),
	})
	assert.ErrorIs(t, err, ErrSameLocation)
}

func TestBuildOutputLocationFallsBackToSettings(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	bottle := seedComponent(t, db, 1, "BOTTLE", "2.0000", false)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)
	finished := seedLocation(t, db, 1, "FG", model.LocationKindFinishedGoods)
	saveSettings(t, db, model.TenantSettings{TenantID: 1, FinishedGoodsLocationID: &finished.ID})
	sku := seedSKU(t, db, 1, "SKU-1")
	seedBOM(t, db, 1, sku.ID, date(2024, time.January, 1), nil, []model.BOMLine{
		{ComponentID: bottle.ID, QuantityPerUnit: dec("1")},
	})
	receive(t, svc, 1, ReceiptInput{ComponentID: bottle.ID, LocationID: warehouse.ID, Quantity: dec("10")})

	txn, err := svc.CreateBuildTransaction(1, BuildInput{
		SKUID:                 sku.ID,
		UnitsToBuild:          2,
		Date:                  date(2024, time.April, 1),
		LocationID:            warehouse.ID,
		OutputToFinishedGoods: true,
	})
	require.NoError(t, err)

	found := false
	for _, line := range txn.Lines {
		if line.SKUID != nil {
			found = true
			assert.Equal(t, finished.ID, line.LocationID)
		}
	}
	assert.True(t, found)
}

func TestBuildOutputLocationMissing(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	bottle := seedComponent(t, db, 1, "BOTTLE", "2.0000", false)
	warehouse := seedLocation(t, db, 1, "Main", model.LocationKindWarehouse)
	sku := seedSKU(t, db, 1, "SKU-1")
	seedBOM(t, db, 1, sku.ID, date(2024, time.January, 1), nil, []model.BOMLine{
		{ComponentID: bottle.ID, QuantityPerUnit: dec("1")},
	})
	receive(t, svc, 1, ReceiptInput{ComponentID: bottle.ID, LocationID: warehouse.ID, Quantity: dec("10")})

	_, err := svc.CreateBuildTransaction(1, BuildInput{
		SKUID:                 sku.ID,
		UnitsToBuild:          2,
		Date:                  date(2024, time.April, 1),
		LocationID:            warehouse.ID,
		OutputToFinishedGoods: true,
	})
	assert.ErrorIs(t, err, ErrMissingOutputLocation)
}
