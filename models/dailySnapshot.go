package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyFinancialSnapshot is one day's computed profit-and-loss row for one business.
//
// Grain: (business_id, snapshot_date). Legacy rows created before multi-tenancy
// carry an empty business_id and are claimed in place on first sync.
//
// TotalExpenses, Profit and Roi are derived; ApplyDerived is the only place that
// writes them. Rows are never hard-deleted, only recomputed.
type DailyFinancialSnapshot struct {
	ID           uint      `gorm:"primary_key" json:"id"`
	BusinessId   string    `gorm:"size:64;uniqueIndex:idx_snapshot_biz_date,priority:1" json:"business_id"`
	SnapshotDate time.Time `gorm:"type:date;uniqueIndex:idx_snapshot_biz_date,priority:2;index" json:"snapshot_date"`

	Revenue     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"revenue"`
	OrdersCount int             `gorm:"default:0" json:"orders_count"`
	ItemsCount  int             `gorm:"default:0" json:"items_count"`

	// Ad spend is entered by hand and must survive every resync untouched.
	GoogleAdsCost   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"google_ads_cost"`
	FacebookAdsCost decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"facebook_ads_cost"`
	TiktokAdsCost   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tiktok_ads_cost"`

	ShippingCost   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"shipping_cost"`
	MaterialsCost  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"materials_cost"`
	CreditCardFees decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit_card_fees"`
	Vat            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"vat"`

	TotalExpenses decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_expenses"`
	Profit        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"profit"`
	Roi           decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"roi"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CostTotal sums every cost field of the snapshot.
func (s *DailyFinancialSnapshot) CostTotal() decimal.Decimal {
	return s.GoogleAdsCost.
		Add(s.FacebookAdsCost).
		Add(s.TiktokAdsCost).
		Add(s.ShippingCost).
		Add(s.MaterialsCost).
		Add(s.CreditCardFees).
		Add(s.Vat)
}

// ApplyDerived recomputes TotalExpenses, Profit and Roi from the cost and
// revenue fields. Every write path must call this before persisting.
func (s *DailyFinancialSnapshot) ApplyDerived() {
	s.TotalExpenses = s.CostTotal()
	s.Profit = s.Revenue.Sub(s.TotalExpenses)
	s.Roi = RoiPercent(s.Profit, s.Revenue)
}

// RoiPercent is the single ROI convention for the whole codebase:
// revenue > 0 -> profit/revenue*100; revenue == 0 with a loss -> -100;
// otherwise 0.
func RoiPercent(profit, revenue decimal.Decimal) decimal.Decimal {
	if revenue.IsPositive() {
		return profit.Div(revenue).Mul(decimal.NewFromInt(100))
	}
	if profit.IsNegative() {
		return decimal.NewFromInt(-100)
	}
	return decimal.Zero
}
