package finance

import (
	"testing"

	"bitbucket.org/shoppulse/dashboard_backend/models"
	"github.com/shopspring/decimal"
)

func TestComposeMonthlyRollup_SnapshotDaysSumVerbatim(t *testing.T) {
	start := date("2024-06-01")
	end := date("2024-06-03")

	day1 := &models.DailyFinancialSnapshot{
		SnapshotDate: date("2024-06-01"),
		Revenue:      d("1000"), OrdersCount: 4, ItemsCount: 9,
		MaterialsCost: d("300"), CreditCardFees: d("25"), Vat: d("170"),
		TotalExpenses: d("495"), Profit: d("505"),
	}
	// Hand-edited row whose derived fields were overridden: the rollup must
	// still take the stored values verbatim.
	day2 := &models.DailyFinancialSnapshot{
		SnapshotDate: date("2024-06-02"),
		Revenue:      d("500"), OrdersCount: 2, ItemsCount: 3,
		TotalExpenses: d("123.45"), Profit: d("376.55"),
	}
	snapshots := map[string]*models.DailyFinancialSnapshot{
		"2024-06-01": day1,
		"2024-06-02": day2,
	}
	// Day 3 has no snapshot, only an allocated cost.
	allocation := map[string]DailyCostContribution{
		"2024-06-03": {Salaries: d("100"), VatExpenses: decimal.Zero, GeneralExpenses: d("20"), Refunds: decimal.Zero},
	}

	summary, breakdown := ComposeMonthlyRollup(start, end, snapshots, allocation)

	if !summary.Revenue.Equal(d("1500")) {
		t.Fatalf("expected revenue 1500, got %s", summary.Revenue)
	}
	if summary.OrdersCount != 6 || summary.ItemsCount != 12 {
		t.Fatalf("expected 6 orders / 12 items, got %d / %d", summary.OrdersCount, summary.ItemsCount)
	}
	// 495 + 123.45 from snapshots, 120 allocated on the snapshot-less day.
	if !summary.TotalExpenses.Equal(d("738.45")) {
		t.Fatalf("expected expenses 738.45, got %s", summary.TotalExpenses)
	}
	// 505 + 376.55 - 120.
	if !summary.Profit.Equal(d("761.55")) {
		t.Fatalf("expected profit 761.55, got %s", summary.Profit)
	}

	if len(breakdown) != 3 {
		t.Fatalf("expected 3 breakdown days, got %d", len(breakdown))
	}

	// The summary equals the field-wise sum of the breakdown entries.
	sumRevenue, sumExpenses, sumProfit := decimal.Zero, decimal.Zero, decimal.Zero
	for _, entry := range breakdown {
		sumRevenue = sumRevenue.Add(entry.Revenue)
		sumExpenses = sumExpenses.Add(entry.TotalExpenses)
		sumProfit = sumProfit.Add(entry.Profit)
	}
	if !summary.Revenue.Equal(sumRevenue) || !summary.TotalExpenses.Equal(sumExpenses) || !summary.Profit.Equal(sumProfit) {
		t.Fatalf("summary does not reconcile with breakdown: %s/%s/%s vs %s/%s/%s",
			summary.Revenue, summary.TotalExpenses, summary.Profit, sumRevenue, sumExpenses, sumProfit)
	}
}

func TestComposeMonthlyRollup_AllocationOnlyDay(t *testing.T) {
	start := date("2024-06-01")
	end := date("2024-06-01")
	allocation := map[string]DailyCostContribution{
		"2024-06-01": {Salaries: d("100"), VatExpenses: d("30"), GeneralExpenses: decimal.Zero, Refunds: d("20")},
	}

	summary, breakdown := ComposeMonthlyRollup(start, end, nil, allocation)

	entry := breakdown[0]
	if entry.HasSnapshot {
		t.Fatal("expected HasSnapshot=false")
	}
	if !entry.TotalExpenses.Equal(d("150")) {
		t.Fatalf("expected expenses 150, got %s", entry.TotalExpenses)
	}
	if !entry.Profit.Equal(d("-150")) {
		t.Fatalf("expected profit -150, got %s", entry.Profit)
	}
	if !summary.Roi.Equal(d("-100")) {
		t.Fatalf("expected roi -100 on zero revenue with a loss, got %s", summary.Roi)
	}
}

func TestComposeMonthlyRollup_SnapshotDayIgnoresAllocation(t *testing.T) {
	// A day with both a snapshot and an allocated cost counts only the
	// snapshot; periodic costs on snapshot days are handled at the period
	// level, not per day.
	start := date("2024-06-01")
	end := date("2024-06-01")
	snapshots := map[string]*models.DailyFinancialSnapshot{
		"2024-06-01": {
			SnapshotDate: date("2024-06-01"),
			Revenue:      d("100"), TotalExpenses: d("40"), Profit: d("60"),
		},
	}
	allocation := map[string]DailyCostContribution{
		"2024-06-01": {Salaries: d("999")},
	}

	summary, _ := ComposeMonthlyRollup(start, end, snapshots, allocation)
	if !summary.TotalExpenses.Equal(d("40")) {
		t.Fatalf("expected expenses 40, got %s", summary.TotalExpenses)
	}
	if !summary.Salaries.IsZero() {
		t.Fatalf("expected no salary contribution, got %s", summary.Salaries)
	}
}
