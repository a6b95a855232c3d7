package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/internal/model"
)

func TestResolveActiveBOMBoundaries(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	component := seedComponent(t, db, 1, "CMP-1", "1.0000", false)
	sku := seedSKU(t, db, 1, "SKU-1")

	v1 := seedBOM(t, db, 1, sku.ID,
		date(2024, time.January, 1), datePtr(2024, time.May, 31),
		[]model.BOMLine{{ComponentID: component.ID, QuantityPerUnit: dec("1")}})
	v2 := seedBOM(t, db, 1, sku.ID,
		date(2024, time.June, 1), nil,
		[]model.BOMLine{{ComponentID: component.ID, QuantityPerUnit: dec("2")}})

	tests := []struct {
		name   string
		asOf   time.Time
		wantID uint
	}{
		{"last day of closed version", date(2024, time.May, 31), v1.ID},
		{"first day of successor", date(2024, time.June, 1), v2.ID},
		{"open-ended far future", date(2030, time.January, 1), v2.ID},
		{"first day of closed version", date(2024, time.January, 1), v1.ID},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.ResolveActiveBOM(1, sku.ID, tc.asOf)
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, got.ID)
			assert.Len(t, got.Lines, 1)
		})
	}
}

func TestResolveActiveBOMNoneEffective(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	component := seedComponent(t, db, 1, "CMP-1", "1.0000", false)
	sku := seedSKU(t, db, 1, "SKU-1")
	seedBOM(t, db, 1, sku.ID,
		date(2024, time.January, 1), nil,
		[]model.BOMLine{{ComponentID: component.ID, QuantityPerUnit: dec("1")}})

	_, err := svc.ResolveActiveBOM(1, sku.ID, date(2023, time.December, 31))
	assert.ErrorIs(t, err, ErrNoBOMEffective)
}

func TestResolveActiveBOMPrefersLatestStart(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	component := seedComponent(t, db, 1, "CMP-1", "1.0000", false)
	sku := seedSKU(t, db, 1, "SKU-1")

	seedBOM(t, db, 1, sku.ID,
		date(2024, time.January, 1), nil,
		[]model.BOMLine{{ComponentID: component.ID, QuantityPerUnit: dec("1")}})
	newer := seedBOM(t, db, 1, sku.ID,
		date(2024, time.March, 1), nil,
		[]model.BOMLine{{ComponentID: component.ID, QuantityPerUnit: dec("3")}})

	got, err := svc.ResolveActiveBOM(1, sku.ID, date(2024, time.April, 1))
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)
}

func TestResolveActiveBOMIgnoresInactive(t *testing.T) {
	svc := newTestService(t)
	db := svc.DB()

	component := seedComponent(t, db, 1, "CMP-1", "1.0000", false)
	sku := seedSKU(t, db, 1, "SKU-1")

	version := seedBOM(t, db, 1, sku.ID,
		date(2024, time.January, 1), nil,
		[]model.BOMLine{{ComponentID: component.ID, QuantityPerUnit: dec("1")}})
	require.NoError(t, db.Model(&model.BOMVersion{}).
		Where("id = ?", version.ID).
		Update("is_active", false).Error)

	_, err := svc.ResolveActiveBOM(1, sku.ID, date(2024, time.February, 1))
	assert.ErrorIs(t, err, ErrNoBOMEffective)
}
