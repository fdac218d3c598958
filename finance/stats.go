package finance

import (
	"context"
	"time"

	"bitbucket.org/shoppulse/dashboard_backend/models"
	"bitbucket.org/shoppulse/dashboard_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PeriodStatistics aggregates a snapshot range plus the period-external
// periodic-cost totals into dashboard figures.
type PeriodStatistics struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	Revenue       decimal.Decimal `json:"revenue"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	// NetProfit is the snapshot-stored profit minus the period-external cost
	// totals below; those are subtracted here and nowhere else.
	NetProfit    decimal.Decimal `json:"net_profit"`
	ProfitMargin decimal.Decimal `json:"profit_margin"`

	OrdersCount     int             `json:"orders_count"`
	ItemsCount      int             `json:"items_count"`
	DaysWithSales   int             `json:"days_with_sales"`
	AvgDailyRevenue decimal.Decimal `json:"avg_daily_revenue"`
	AvgOrderValue   decimal.Decimal `json:"avg_order_value"`

	SalaryTotal         decimal.Decimal `json:"salary_total"`
	VatExpenseTotal     decimal.Decimal `json:"vat_expense_total"`
	GeneralExpenseTotal decimal.Decimal `json:"general_expense_total"`
	RefundTotal         decimal.Decimal `json:"refund_total"`

	Trends TrendPercentages `json:"trends"`

	BestRevenueDay    *DayHighlight `json:"best_revenue_day"`
	WorstRevenueDay   *DayHighlight `json:"worst_revenue_day"`
	MostProfitableDay *DayHighlight `json:"most_profitable_day"`
}

// TrendPercentages are percent changes versus the equal-length period
// immediately preceding the requested range.
type TrendPercentages struct {
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
	Orders  decimal.Decimal `json:"orders"`
}

type DayHighlight struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
}

// periodAggregates is the DB-free reduction of one period's data.
type periodAggregates struct {
	Revenue       decimal.Decimal
	TotalExpenses decimal.Decimal
	Profit        decimal.Decimal
	OrdersCount   int
	ItemsCount    int
	DaysWithSales int
	External      DailyCostContribution
	Snapshots     []models.DailyFinancialSnapshot
}

// BuildPeriodStatistics loads both the requested range and the equal-length
// prior range and reduces them into PeriodStatistics.
func BuildPeriodStatistics(ctx context.Context, db *gorm.DB, businessId string, start, end time.Time) (*PeriodStatistics, error) {
	start = utils.DateOnly(start)
	end = utils.DateOnly(end)
	days := utils.DaysBetween(start, end)
	if days == 0 {
		return nil, NewValidationError("invalid date range %s..%s", utils.FormatDate(start), utils.FormatDate(end))
	}

	current, err := loadPeriodAggregates(ctx, db, businessId, start, end)
	if err != nil {
		return nil, err
	}

	prevEnd := start.AddDate(0, 0, -1)
	prevStart := prevEnd.AddDate(0, 0, -(days - 1))
	previous, err := loadPeriodAggregates(ctx, db, businessId, prevStart, prevEnd)
	if err != nil {
		return nil, err
	}

	return ComposePeriodStatistics(start, end, current, previous), nil
}

func loadPeriodAggregates(ctx context.Context, db *gorm.DB, businessId string, start, end time.Time) (periodAggregates, error) {
	var rows []models.DailyFinancialSnapshot
	if err := db.WithContext(ctx).
		Where("business_id = ? AND snapshot_date BETWEEN ? AND ?", businessId, start, end).
		Order("snapshot_date asc").
		Find(&rows).Error; err != nil {
		return periodAggregates{}, err
	}

	costs, err := LoadPeriodCosts(ctx, db, businessId, start, end)
	if err != nil {
		return periodAggregates{}, err
	}

	return reducePeriod(rows, costs.Totals(start, end)), nil
}

func reducePeriod(snapshots []models.DailyFinancialSnapshot, external DailyCostContribution) periodAggregates {
	agg := periodAggregates{
		Revenue:       decimal.Zero,
		TotalExpenses: decimal.Zero,
		Profit:        decimal.Zero,
		External:      external,
		Snapshots:     snapshots,
	}
	for _, s := range snapshots {
		agg.Revenue = agg.Revenue.Add(s.Revenue)
		agg.TotalExpenses = agg.TotalExpenses.Add(s.TotalExpenses)
		agg.Profit = agg.Profit.Add(s.Profit)
		agg.OrdersCount += s.OrdersCount
		agg.ItemsCount += s.ItemsCount
		if s.Revenue.IsPositive() {
			agg.DaysWithSales++
		}
	}
	return agg
}

// netProfit subtracts the period-external costs from snapshot profit.
func (a periodAggregates) netProfit() decimal.Decimal {
	return a.Profit.Sub(a.External.Total())
}

// ComposePeriodStatistics is the pure assembly step, separated from loading so
// the arithmetic is testable without a database.
func ComposePeriodStatistics(start, end time.Time, current, previous periodAggregates) *PeriodStatistics {
	stats := &PeriodStatistics{
		StartDate:     utils.FormatDate(start),
		EndDate:       utils.FormatDate(end),
		Revenue:       utils.RoundMoney(current.Revenue),
		TotalExpenses: utils.RoundMoney(current.TotalExpenses),
		NetProfit:     utils.RoundMoney(current.netProfit()),
		OrdersCount:   current.OrdersCount,
		ItemsCount:    current.ItemsCount,
		DaysWithSales: current.DaysWithSales,

		SalaryTotal:         utils.RoundMoney(current.External.Salaries),
		VatExpenseTotal:     utils.RoundMoney(current.External.VatExpenses),
		GeneralExpenseTotal: utils.RoundMoney(current.External.GeneralExpenses),
		RefundTotal:         utils.RoundMoney(current.External.Refunds),
	}

	stats.ProfitMargin = utils.RoundMoney(models.RoiPercent(current.netProfit(), current.Revenue))

	days := utils.DaysBetween(start, end)
	if days > 0 {
		stats.AvgDailyRevenue = utils.RoundMoney(current.Revenue.Div(decimal.NewFromInt(int64(days))))
	} else {
		stats.AvgDailyRevenue = decimal.Zero
	}
	if current.OrdersCount > 0 {
		stats.AvgOrderValue = utils.RoundMoney(current.Revenue.Div(decimal.NewFromInt(int64(current.OrdersCount))))
	} else {
		stats.AvgOrderValue = decimal.Zero
	}

	stats.Trends = TrendPercentages{
		Revenue: trendPercent(current.Revenue, previous.Revenue),
		Profit:  trendPercent(current.netProfit(), previous.netProfit()),
		Orders:  trendPercent(decimal.NewFromInt(int64(current.OrdersCount)), decimal.NewFromInt(int64(previous.OrdersCount))),
	}

	stats.BestRevenueDay, stats.WorstRevenueDay, stats.MostProfitableDay = dayHighlights(current.Snapshots)
	return stats
}

// trendPercent is (current-previous)/|previous|*100. A zero baseline reports 0
// for no movement, otherwise a signed 100 (the same sentinel family as ROI).
func trendPercent(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if current.IsZero() {
			return decimal.Zero
		}
		if current.IsNegative() {
			return decimal.NewFromInt(-100)
		}
		return decimal.NewFromInt(100)
	}
	return utils.RoundMoney(current.Sub(previous).Div(previous.Abs()).Mul(utils.Percent100))
}

// dayHighlights scans snapshots in date order; strict comparisons keep the
// first occurrence on ties.
func dayHighlights(snapshots []models.DailyFinancialSnapshot) (best, worst, mostProfitable *DayHighlight) {
	if len(snapshots) == 0 {
		return nil, nil, nil
	}
	bestIdx, worstIdx, profitIdx := 0, 0, 0
	for i := 1; i < len(snapshots); i++ {
		if snapshots[i].Revenue.GreaterThan(snapshots[bestIdx].Revenue) {
			bestIdx = i
		}
		if snapshots[i].Revenue.LessThan(snapshots[worstIdx].Revenue) {
			worstIdx = i
		}
		if snapshots[i].Profit.GreaterThan(snapshots[profitIdx].Profit) {
			profitIdx = i
		}
	}
	highlight := func(s *models.DailyFinancialSnapshot) *DayHighlight {
		return &DayHighlight{
			Date:    utils.FormatDate(s.SnapshotDate),
			Revenue: utils.RoundMoney(s.Revenue),
			Profit:  utils.RoundMoney(s.Profit),
		}
	}
	return highlight(&snapshots[bestIdx]), highlight(&snapshots[worstIdx]), highlight(&snapshots[profitIdx])
}
