package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// VatExpense is a VAT-bearing business expense dated on its payment day.
type VatExpense struct {
	ID          uint            `gorm:"primary_key" json:"id"`
	BusinessId  string          `gorm:"size:64;index;not null" json:"business_id" binding:"required"`
	ExpenseDate time.Time       `gorm:"type:date;not null;index" json:"expense_date" binding:"required"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	VatAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"vat_amount"`
	Description string          `gorm:"size:255" json:"description"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GeneralExpense is a VAT-free expense dated on its payment day.
type GeneralExpense struct {
	ID          uint            `gorm:"primary_key" json:"id"`
	BusinessId  string          `gorm:"size:64;index;not null" json:"business_id" binding:"required"`
	ExpenseDate time.Time       `gorm:"type:date;not null;index" json:"expense_date" binding:"required"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Description string          `gorm:"size:255" json:"description"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
