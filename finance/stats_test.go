package finance

import (
	"testing"

	"bitbucket.org/shoppulse/dashboard_backend/models"
)

func TestComposePeriodStatistics_TotalsAndAverages(t *testing.T) {
	snapshots := []models.DailyFinancialSnapshot{
		{SnapshotDate: date("2024-06-01"), Revenue: d("600"), TotalExpenses: d("200"), Profit: d("400"), OrdersCount: 3, ItemsCount: 5},
		{SnapshotDate: date("2024-06-02"), Revenue: d("400"), TotalExpenses: d("100"), Profit: d("300"), OrdersCount: 2, ItemsCount: 4},
		{SnapshotDate: date("2024-06-03")}, // zero-revenue day
	}
	external := DailyCostContribution{
		Salaries:        d("100"),
		VatExpenses:     d("50"),
		GeneralExpenses: d("30"),
		Refunds:         d("20"),
	}
	current := reducePeriod(snapshots, external)
	previous := reducePeriod(nil, DailyCostContribution{})

	stats := ComposePeriodStatistics(date("2024-06-01"), date("2024-06-04"), current, previous)

	if !stats.Revenue.Equal(d("1000")) {
		t.Fatalf("expected revenue 1000, got %s", stats.Revenue)
	}
	// 700 profit minus 200 of period-external costs.
	if !stats.NetProfit.Equal(d("500")) {
		t.Fatalf("expected net profit 500, got %s", stats.NetProfit)
	}
	if !stats.ProfitMargin.Equal(d("50")) {
		t.Fatalf("expected margin 50, got %s", stats.ProfitMargin)
	}
	if stats.OrdersCount != 5 || stats.ItemsCount != 9 {
		t.Fatalf("expected 5 orders / 9 items, got %d / %d", stats.OrdersCount, stats.ItemsCount)
	}
	if stats.DaysWithSales != 2 {
		t.Fatalf("expected 2 days with sales, got %d", stats.DaysWithSales)
	}
	// 1000 over the 4-day range.
	if !stats.AvgDailyRevenue.Equal(d("250")) {
		t.Fatalf("expected avg daily revenue 250, got %s", stats.AvgDailyRevenue)
	}
	if !stats.AvgOrderValue.Equal(d("200")) {
		t.Fatalf("expected avg order value 200, got %s", stats.AvgOrderValue)
	}
	if !stats.SalaryTotal.Equal(d("100")) || !stats.RefundTotal.Equal(d("20")) {
		t.Fatalf("external totals wrong: salary %s refund %s", stats.SalaryTotal, stats.RefundTotal)
	}
}

func TestComposePeriodStatistics_Trends(t *testing.T) {
	current := reducePeriod([]models.DailyFinancialSnapshot{
		{SnapshotDate: date("2024-06-01"), Revenue: d("150"), Profit: d("75"), OrdersCount: 3},
	}, DailyCostContribution{})
	previous := reducePeriod([]models.DailyFinancialSnapshot{
		{SnapshotDate: date("2024-05-31"), Revenue: d("100"), Profit: d("100"), OrdersCount: 2},
	}, DailyCostContribution{})

	stats := ComposePeriodStatistics(date("2024-06-01"), date("2024-06-01"), current, previous)

	if !stats.Trends.Revenue.Equal(d("50")) {
		t.Fatalf("expected revenue trend +50, got %s", stats.Trends.Revenue)
	}
	if !stats.Trends.Profit.Equal(d("-25")) {
		t.Fatalf("expected profit trend -25, got %s", stats.Trends.Profit)
	}
	if !stats.Trends.Orders.Equal(d("50")) {
		t.Fatalf("expected orders trend +50, got %s", stats.Trends.Orders)
	}
}

func TestTrendPercent_ZeroBaseline(t *testing.T) {
	cases := []struct {
		current  string
		previous string
		expected string
	}{
		{"0", "0", "0"},
		{"10", "0", "100"},
		{"-10", "0", "-100"},
		{"50", "-100", "150"}, // division by |previous| keeps the sign meaningful
	}
	for _, tc := range cases {
		got := trendPercent(d(tc.current), d(tc.previous))
		if !got.Equal(d(tc.expected)) {
			t.Fatalf("trendPercent(%s, %s): expected %s, got %s", tc.current, tc.previous, tc.expected, got)
		}
	}
}

func TestDayHighlights_FirstOccurrenceWinsTies(t *testing.T) {
	snapshots := []models.DailyFinancialSnapshot{
		{SnapshotDate: date("2024-06-01"), Revenue: d("100"), Profit: d("10")},
		{SnapshotDate: date("2024-06-02"), Revenue: d("300"), Profit: d("50")},
		{SnapshotDate: date("2024-06-03"), Revenue: d("300"), Profit: d("80")},
		{SnapshotDate: date("2024-06-04"), Revenue: d("100"), Profit: d("80")},
	}

	best, worst, profitable := dayHighlights(snapshots)
	if best.Date != "2024-06-02" {
		t.Fatalf("expected best revenue day 2024-06-02 (first of the tie), got %s", best.Date)
	}
	if worst.Date != "2024-06-01" {
		t.Fatalf("expected worst revenue day 2024-06-01 (first of the tie), got %s", worst.Date)
	}
	if profitable.Date != "2024-06-03" {
		t.Fatalf("expected most profitable day 2024-06-03 (first of the tie), got %s", profitable.Date)
	}
}

func TestDayHighlights_Empty(t *testing.T) {
	best, worst, profitable := dayHighlights(nil)
	if best != nil || worst != nil || profitable != nil {
		t.Fatal("expected nil highlights for empty period")
	}
}
