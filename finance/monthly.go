package finance

import (
	"context"
	"time"

	"bitbucket.org/shoppulse/dashboard_backend/models"
	"bitbucket.org/shoppulse/dashboard_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MonthlySummary is the month-level rollup. By construction it equals the
// field-wise sum of the month's stored snapshots plus the cost allocation on
// snapshot-less days; revenue is never re-derived on the read side.
type MonthlySummary struct {
	Month int `json:"month"`
	Year  int `json:"year"`

	Revenue     decimal.Decimal `json:"revenue"`
	OrdersCount int             `json:"orders_count"`
	ItemsCount  int             `json:"items_count"`

	GoogleAdsCost   decimal.Decimal `json:"google_ads_cost"`
	FacebookAdsCost decimal.Decimal `json:"facebook_ads_cost"`
	TiktokAdsCost   decimal.Decimal `json:"tiktok_ads_cost"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	MaterialsCost   decimal.Decimal `json:"materials_cost"`
	CreditCardFees  decimal.Decimal `json:"credit_card_fees"`
	Vat             decimal.Decimal `json:"vat"`

	Salaries        decimal.Decimal `json:"salaries"`
	VatExpenses     decimal.Decimal `json:"vat_expenses"`
	GeneralExpenses decimal.Decimal `json:"general_expenses"`
	Refunds         decimal.Decimal `json:"refunds"`

	TotalExpenses decimal.Decimal `json:"total_expenses"`
	Profit        decimal.Decimal `json:"profit"`
	Roi           decimal.Decimal `json:"roi"`
}

// MonthlyDayEntry is one day's line in the month breakdown.
type MonthlyDayEntry struct {
	Date        string `json:"date"`
	HasSnapshot bool   `json:"has_snapshot"`

	Revenue       decimal.Decimal `json:"revenue"`
	OrdersCount   int             `json:"orders_count"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	Profit        decimal.Decimal `json:"profit"`

	Salaries        decimal.Decimal `json:"salaries"`
	VatExpenses     decimal.Decimal `json:"vat_expenses"`
	GeneralExpenses decimal.Decimal `json:"general_expenses"`
	Refunds         decimal.Decimal `json:"refunds"`
}

// BuildMonthlyRollup replays the month's stored snapshots plus the cost
// allocation policy into a month summary and a per-day breakdown.
func BuildMonthlyRollup(ctx context.Context, db *gorm.DB, businessId string, month time.Month, year int) (*MonthlySummary, []MonthlyDayEntry, error) {
	settings, err := models.GetBusinessSettings(ctx, businessId)
	if err != nil {
		return nil, nil, err
	}
	if settings == nil {
		return nil, nil, NewConfigurationError("business %s has no settings row; platform not configured", businessId)
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	var rows []models.DailyFinancialSnapshot
	if err := db.WithContext(ctx).
		Where("business_id = ? AND snapshot_date BETWEEN ? AND ?", businessId, start, end).
		Order("snapshot_date asc").
		Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	snapshots := make(map[string]*models.DailyFinancialSnapshot, len(rows))
	for i := range rows {
		snapshots[utils.FormatDate(rows[i].SnapshotDate)] = &rows[i]
	}

	costs, err := LoadPeriodCosts(ctx, db, businessId, start, end)
	if err != nil {
		return nil, nil, err
	}
	allocation := AllocateCosts(costs, start, end, settings.SpreadMode())

	summary, breakdown := ComposeMonthlyRollup(start, end, snapshots, allocation)
	summary.Month = int(month)
	summary.Year = year
	return summary, breakdown, nil
}

// ComposeMonthlyRollup folds per-day snapshots and cost allocations into the
// month summary. Snapshot days contribute their stored fields verbatim, so
// the summary always matches whatever the day-level views display, even for
// hand-edited rows. Days without a snapshot contribute only their allocated
// periodic costs, with profit the exact negative of those costs.
//
// Currency is accumulated unrounded; rounding to 2dp happens once at the end.
func ComposeMonthlyRollup(start, end time.Time, snapshots map[string]*models.DailyFinancialSnapshot, allocation map[string]DailyCostContribution) (*MonthlySummary, []MonthlyDayEntry) {
	summary := &MonthlySummary{
		Revenue:         decimal.Zero,
		GoogleAdsCost:   decimal.Zero,
		FacebookAdsCost: decimal.Zero,
		TiktokAdsCost:   decimal.Zero,
		ShippingCost:    decimal.Zero,
		MaterialsCost:   decimal.Zero,
		CreditCardFees:  decimal.Zero,
		Vat:             decimal.Zero,
		Salaries:        decimal.Zero,
		VatExpenses:     decimal.Zero,
		GeneralExpenses: decimal.Zero,
		Refunds:         decimal.Zero,
		TotalExpenses:   decimal.Zero,
		Profit:          decimal.Zero,
	}
	breakdown := make([]MonthlyDayEntry, 0, utils.DaysBetween(start, end))

	utils.EachDay(start, end, func(day time.Time) {
		key := utils.FormatDate(day)
		entry := MonthlyDayEntry{
			Date:            key,
			Revenue:         decimal.Zero,
			TotalExpenses:   decimal.Zero,
			Profit:          decimal.Zero,
			Salaries:        decimal.Zero,
			VatExpenses:     decimal.Zero,
			GeneralExpenses: decimal.Zero,
			Refunds:         decimal.Zero,
		}

		if snapshot, ok := snapshots[key]; ok {
			entry.HasSnapshot = true
			entry.Revenue = snapshot.Revenue
			entry.OrdersCount = snapshot.OrdersCount
			entry.TotalExpenses = snapshot.TotalExpenses
			entry.Profit = snapshot.Profit

			summary.Revenue = summary.Revenue.Add(snapshot.Revenue)
			summary.OrdersCount += snapshot.OrdersCount
			summary.ItemsCount += snapshot.ItemsCount
			summary.GoogleAdsCost = summary.GoogleAdsCost.Add(snapshot.GoogleAdsCost)
			summary.FacebookAdsCost = summary.FacebookAdsCost.Add(snapshot.FacebookAdsCost)
			summary.TiktokAdsCost = summary.TiktokAdsCost.Add(snapshot.TiktokAdsCost)
			summary.ShippingCost = summary.ShippingCost.Add(snapshot.ShippingCost)
			summary.MaterialsCost = summary.MaterialsCost.Add(snapshot.MaterialsCost)
			summary.CreditCardFees = summary.CreditCardFees.Add(snapshot.CreditCardFees)
			summary.Vat = summary.Vat.Add(snapshot.Vat)
			summary.TotalExpenses = summary.TotalExpenses.Add(snapshot.TotalExpenses)
			summary.Profit = summary.Profit.Add(snapshot.Profit)
		} else if contribution, ok := allocation[key]; ok {
			costTotal := contribution.Total()
			entry.Salaries = contribution.Salaries
			entry.VatExpenses = contribution.VatExpenses
			entry.GeneralExpenses = contribution.GeneralExpenses
			entry.Refunds = contribution.Refunds
			entry.TotalExpenses = costTotal
			entry.Profit = costTotal.Neg()

			summary.Salaries = summary.Salaries.Add(contribution.Salaries)
			summary.VatExpenses = summary.VatExpenses.Add(contribution.VatExpenses)
			summary.GeneralExpenses = summary.GeneralExpenses.Add(contribution.GeneralExpenses)
			summary.Refunds = summary.Refunds.Add(contribution.Refunds)
			summary.TotalExpenses = summary.TotalExpenses.Add(costTotal)
			summary.Profit = summary.Profit.Sub(costTotal)
		}

		entry.Revenue = utils.RoundMoney(entry.Revenue)
		entry.TotalExpenses = utils.RoundMoney(entry.TotalExpenses)
		entry.Profit = utils.RoundMoney(entry.Profit)
		entry.Salaries = utils.RoundMoney(entry.Salaries)
		entry.VatExpenses = utils.RoundMoney(entry.VatExpenses)
		entry.GeneralExpenses = utils.RoundMoney(entry.GeneralExpenses)
		entry.Refunds = utils.RoundMoney(entry.Refunds)
		breakdown = append(breakdown, entry)
	})

	summary.Roi = models.RoiPercent(summary.Profit, summary.Revenue)

	summary.Revenue = utils.RoundMoney(summary.Revenue)
	summary.GoogleAdsCost = utils.RoundMoney(summary.GoogleAdsCost)
	summary.FacebookAdsCost = utils.RoundMoney(summary.FacebookAdsCost)
	summary.TiktokAdsCost = utils.RoundMoney(summary.TiktokAdsCost)
	summary.ShippingCost = utils.RoundMoney(summary.ShippingCost)
	summary.MaterialsCost = utils.RoundMoney(summary.MaterialsCost)
	summary.CreditCardFees = utils.RoundMoney(summary.CreditCardFees)
	summary.Vat = utils.RoundMoney(summary.Vat)
	summary.Salaries = utils.RoundMoney(summary.Salaries)
	summary.VatExpenses = utils.RoundMoney(summary.VatExpenses)
	summary.GeneralExpenses = utils.RoundMoney(summary.GeneralExpenses)
	summary.Refunds = utils.RoundMoney(summary.Refunds)
	summary.TotalExpenses = utils.RoundMoney(summary.TotalExpenses)
	summary.Profit = utils.RoundMoney(summary.Profit)
	summary.Roi = utils.RoundMoney(summary.Roi)

	return summary, breakdown
}
