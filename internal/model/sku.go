package model

import (
	"time"

	"gorm.io/gorm"
)

// SKU is a sellable product built from components according to a BOM
type SKU struct {
	ID          uint              `json:"id" gorm:"primaryKey"`
	TenantID    uint              `json:"tenant_id" gorm:"index;not null;uniqueIndex:idx_tenant_sku_code"`
	Code        string            `json:"code" gorm:"type:varchar(100);not null;uniqueIndex:idx_tenant_sku_code"` // Internal code, unique per tenant
	Name        string            `json:"name" gorm:"type:varchar(255);not null"`
	Channel     string            `json:"channel" gorm:"type:varchar(50)"` // Sales channel (shopify, amazon, wholesale, ...)
	ExternalIDs map[string]string `json:"external_ids,omitempty" gorm:"serializer:json"`
	IsActive    bool              `json:"is_active" gorm:"default:true"`
	CreatedBy   uint              `json:"created_by" gorm:"index"`
	UpdatedBy   uint              `json:"updated_by"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	DeletedAt   gorm.DeletedAt    `json:"deleted_at,omitempty" gorm:"index"`
}
