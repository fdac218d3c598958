package finance

import (
	"context"
	"time"

	"bitbucket.org/shoppulse/dashboard_backend/models"
	"bitbucket.org/shoppulse/dashboard_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PeriodCosts bundles every periodic cost overlapping a date range. These live
// outside the snapshot table and are joined in at read time.
type PeriodCosts struct {
	Salaries        []models.Salary
	VatExpenses     []models.VatExpense
	GeneralExpenses []models.GeneralExpense
	Refunds         []models.CustomerRefund
}

// DailyCostContribution is one day's share of the periodic costs.
type DailyCostContribution struct {
	Salaries        decimal.Decimal
	VatExpenses     decimal.Decimal
	GeneralExpenses decimal.Decimal
	Refunds         decimal.Decimal
}

func (c DailyCostContribution) Total() decimal.Decimal {
	return c.Salaries.Add(c.VatExpenses).Add(c.GeneralExpenses).Add(c.Refunds)
}

// AllocateCosts turns periodic costs into per-day contributions over the
// inclusive range [start, end].
//
// Exact mode: each expense/refund lands on its own date; a salary is prorated
// over the days of its (month, year).
// Spread mode: each category's total over the range is divided by the number
// of days in the range and placed equally on every day, including days with no
// orders.
//
// An empty range or a range with no costs yields an empty/zero map, never a
// division error.
func AllocateCosts(costs PeriodCosts, start, end time.Time, mode string) map[string]DailyCostContribution {
	out := make(map[string]DailyCostContribution)
	days := utils.DaysBetween(start, end)
	if days == 0 {
		return out
	}

	utils.EachDay(start, end, func(day time.Time) {
		out[utils.FormatDate(day)] = DailyCostContribution{
			Salaries:        decimal.Zero,
			VatExpenses:     decimal.Zero,
			GeneralExpenses: decimal.Zero,
			Refunds:         decimal.Zero,
		}
	})

	if mode == models.SpreadModeSpread {
		totals := costs.Totals(start, end)
		perDay := DailyCostContribution{
			Salaries:        totals.Salaries.Div(decimal.NewFromInt(int64(days))),
			VatExpenses:     totals.VatExpenses.Div(decimal.NewFromInt(int64(days))),
			GeneralExpenses: totals.GeneralExpenses.Div(decimal.NewFromInt(int64(days))),
			Refunds:         totals.Refunds.Div(decimal.NewFromInt(int64(days))),
		}
		for key := range out {
			out[key] = perDay
		}
		return out
	}

	for _, salary := range costs.Salaries {
		daily := salary.DailyCost()
		utils.EachDay(start, end, func(day time.Time) {
			if !salary.CoversDate(day) {
				return
			}
			key := utils.FormatDate(day)
			entry := out[key]
			entry.Salaries = entry.Salaries.Add(daily)
			out[key] = entry
		})
	}
	for _, expense := range costs.VatExpenses {
		key := utils.FormatDate(expense.ExpenseDate)
		if entry, ok := out[key]; ok {
			entry.VatExpenses = entry.VatExpenses.Add(expense.Amount)
			out[key] = entry
		}
	}
	for _, expense := range costs.GeneralExpenses {
		key := utils.FormatDate(expense.ExpenseDate)
		if entry, ok := out[key]; ok {
			entry.GeneralExpenses = entry.GeneralExpenses.Add(expense.Amount)
			out[key] = entry
		}
	}
	for _, refund := range costs.Refunds {
		key := utils.FormatDate(refund.RefundDate)
		if entry, ok := out[key]; ok {
			entry.Refunds = entry.Refunds.Add(refund.Amount)
			out[key] = entry
		}
	}
	return out
}

// Totals sums each category over the inclusive range [start, end]. Salaries
// contribute their prorated daily cost for every day of their month that falls
// inside the range, so exact and spread allocations of the same range always
// sum to the same totals.
func (c PeriodCosts) Totals(start, end time.Time) DailyCostContribution {
	totals := DailyCostContribution{
		Salaries:        decimal.Zero,
		VatExpenses:     decimal.Zero,
		GeneralExpenses: decimal.Zero,
		Refunds:         decimal.Zero,
	}
	if utils.DaysBetween(start, end) == 0 {
		return totals
	}

	for _, salary := range c.Salaries {
		daily := salary.DailyCost()
		coveredDays := 0
		utils.EachDay(start, end, func(day time.Time) {
			if salary.CoversDate(day) {
				coveredDays++
			}
		})
		if coveredDays > 0 {
			totals.Salaries = totals.Salaries.Add(daily.Mul(decimal.NewFromInt(int64(coveredDays))))
		}
	}
	for _, expense := range c.VatExpenses {
		if dateInRange(expense.ExpenseDate, start, end) {
			totals.VatExpenses = totals.VatExpenses.Add(expense.Amount)
		}
	}
	for _, expense := range c.GeneralExpenses {
		if dateInRange(expense.ExpenseDate, start, end) {
			totals.GeneralExpenses = totals.GeneralExpenses.Add(expense.Amount)
		}
	}
	for _, refund := range c.Refunds {
		if dateInRange(refund.RefundDate, start, end) {
			totals.Refunds = totals.Refunds.Add(refund.Amount)
		}
	}
	return totals
}

func dateInRange(day, start, end time.Time) bool {
	d := utils.DateOnly(day)
	return !d.Before(utils.DateOnly(start)) && !d.After(utils.DateOnly(end))
}

// LoadPeriodCosts fetches the periodic costs overlapping [start, end] for one
// business. Salaries match on any (month, year) the range touches.
func LoadPeriodCosts(ctx context.Context, db *gorm.DB, businessId string, start, end time.Time) (PeriodCosts, error) {
	var costs PeriodCosts

	monthKeys := monthKeysInRange(start, end)
	if len(monthKeys) > 0 {
		if err := db.WithContext(ctx).
			Where("business_id = ? AND (year * 100 + month) IN ?", businessId, monthKeys).
			Find(&costs.Salaries).Error; err != nil {
			return costs, err
		}
	}

	if err := db.WithContext(ctx).
		Where("business_id = ? AND expense_date BETWEEN ? AND ?", businessId, utils.DateOnly(start), utils.DateOnly(end)).
		Find(&costs.VatExpenses).Error; err != nil {
		return costs, err
	}
	if err := db.WithContext(ctx).
		Where("business_id = ? AND expense_date BETWEEN ? AND ?", businessId, utils.DateOnly(start), utils.DateOnly(end)).
		Find(&costs.GeneralExpenses).Error; err != nil {
		return costs, err
	}
	if err := db.WithContext(ctx).
		Where("business_id = ? AND refund_date BETWEEN ? AND ?", businessId, utils.DateOnly(start), utils.DateOnly(end)).
		Find(&costs.Refunds).Error; err != nil {
		return costs, err
	}
	return costs, nil
}

func monthKeysInRange(start, end time.Time) []int {
	keys := []int{}
	seen := map[int]bool{}
	utils.EachDay(start, end, func(day time.Time) {
		key := day.Year()*100 + int(day.Month())
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	})
	return keys
}
