package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemShippingCost is a manually entered per-order-item shipping override.
// Only consulted when the business enables manual_shipping_per_item.
type OrderItemShippingCost struct {
	ID         uint            `gorm:"primary_key" json:"id"`
	BusinessId string          `gorm:"size:64;index:idx_item_shipping,priority:1;not null" json:"business_id" binding:"required"`
	OrderId    int64           `gorm:"index" json:"order_id"`
	ItemName   string          `gorm:"size:255" json:"item_name"`
	ShipDate   time.Time       `gorm:"type:date;index:idx_item_shipping,priority:2;not null" json:"ship_date" binding:"required"`
	Cost       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
