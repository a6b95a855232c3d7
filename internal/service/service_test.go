package service

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/database"
)

// newTestService opens an in-memory database with the full schema. The pool
// is pinned to one connection: an in-memory sqlite database exists per
// connection, so a second connection would see an empty schema.
func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return New(db)
}

// The raw query fragments in this package spell the SKU foreign key as
// sku_id, so the migrated schema must agree with them. Without the explicit
// column tag gorm's naming strategy would split SKUID as sk_uid.
func TestMigratedSchemaSkuColumns(t *testing.T) {
	svc := newTestService(t)
	migrator := svc.DB().Migrator()

	require.True(t, migrator.HasColumn(&model.BOMVersion{}, "sku_id"))
	require.True(t, migrator.HasColumn(&model.Transaction{}, "sku_id"))
	require.True(t, migrator.HasColumn(&model.TransactionLine{}, "sku_id"))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	ts := date(y, m, d)
	return &ts
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedComponent(t *testing.T, db *gorm.DB, tenantID uint, code, cost string, lotTracked bool) model.Component {
	t.Helper()
	component := model.Component{
		TenantID:    tenantID,
		Code:        code,
		Name:        "Component " + code,
		CostPerUnit: dec(cost),
		LotTracked:  lotTracked,
		IsActive:    true,
	}
	require.NoError(t, db.Create(&component).Error)
	return component
}

func seedLocation(t *testing.T, db *gorm.DB, tenantID uint, name, kind string) model.Location {
	t.Helper()
	location := model.Location{
		TenantID: tenantID,
		Name:     name,
		Kind:     kind,
	}
	require.NoError(t, db.Create(&location).Error)
	return location
}

func seedSKU(t *testing.T, db *gorm.DB, tenantID uint, code string) model.SKU {
	t.Helper()
	sku := model.SKU{
		TenantID: tenantID,
		Code:     code,
		Name:     "SKU " + code,
		IsActive: true,
	}
	require.NoError(t, db.Create(&sku).Error)
	return sku
}

func seedBOM(t *testing.T, db *gorm.DB, tenantID, skuID uint, start time.Time, end *time.Time, lines []model.BOMLine) model.BOMVersion {
	t.Helper()
	version := model.BOMVersion{
		TenantID:           tenantID,
		SKUID:              skuID,
		Name:               "v" + start.Format("2006-01-02"),
		EffectiveStartDate: start,
		EffectiveEndDate:   end,
		IsActive:           true,
		LockVersion:        1,
		Lines:              lines,
	}
	require.NoError(t, db.Create(&version).Error)
	return version
}

// receive stocks a component through the normal receipt path so the balance
// comes from approved ledger lines, same as production traffic.
func receive(t *testing.T, svc *Service, tenantID uint, in ReceiptInput) *model.Transaction {
	t.Helper()
	if in.Date.IsZero() {
		in.Date = date(2024, time.March, 1)
	}
	txn, err := svc.CreateReceiptTransaction(tenantID, in)
	require.NoError(t, err)
	return txn
}

func saveSettings(t *testing.T, db *gorm.DB, settings model.TenantSettings) {
	t.Helper()
	require.NoError(t, db.Create(&settings).Error)
}
