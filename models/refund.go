package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerRefund is money returned to a customer, dated on the refund day.
type CustomerRefund struct {
	ID         uint            `gorm:"primary_key" json:"id"`
	BusinessId string          `gorm:"size:64;index;not null" json:"business_id" binding:"required"`
	RefundDate time.Time       `gorm:"type:date;not null;index" json:"refund_date" binding:"required"`
	OrderId    int64           `gorm:"index" json:"order_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Reason     string          `gorm:"size:255" json:"reason"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
