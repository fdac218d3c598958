package finance

import (
	"testing"
	"time"

	"bitbucket.org/shoppulse/dashboard_backend/models"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	out, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return out
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAllocateCosts_SpreadCoversEveryDay(t *testing.T) {
	// 300 of general expenses spread over a 30-day month: 10 per day,
	// including the first and last day and days with no orders.
	costs := PeriodCosts{
		GeneralExpenses: []models.GeneralExpense{
			{ExpenseDate: date("2024-06-15"), Amount: d("300")},
		},
	}
	start := date("2024-06-01")
	end := date("2024-06-30")

	alloc := AllocateCosts(costs, start, end, models.SpreadModeSpread)
	if len(alloc) != 30 {
		t.Fatalf("expected 30 allocation days, got %d", len(alloc))
	}
	for _, day := range []string{"2024-06-01", "2024-06-15", "2024-06-30"} {
		entry, ok := alloc[day]
		if !ok {
			t.Fatalf("missing allocation for %s", day)
		}
		if !entry.GeneralExpenses.Equal(d("10")) {
			t.Fatalf("day %s: expected 10, got %s", day, entry.GeneralExpenses)
		}
	}
}

func TestAllocateCosts_ExactLandsOnOwnDate(t *testing.T) {
	costs := PeriodCosts{
		GeneralExpenses: []models.GeneralExpense{
			{ExpenseDate: date("2024-06-05"), Amount: d("300")},
		},
		Refunds: []models.CustomerRefund{
			{RefundDate: date("2024-06-10"), Amount: d("45.50")},
		},
	}
	start := date("2024-06-01")
	end := date("2024-06-30")

	alloc := AllocateCosts(costs, start, end, models.SpreadModeExact)
	if !alloc["2024-06-05"].GeneralExpenses.Equal(d("300")) {
		t.Fatalf("expected 300 on 2024-06-05, got %s", alloc["2024-06-05"].GeneralExpenses)
	}
	if !alloc["2024-06-06"].GeneralExpenses.IsZero() {
		t.Fatalf("expected 0 on 2024-06-06, got %s", alloc["2024-06-06"].GeneralExpenses)
	}
	if !alloc["2024-06-10"].Refunds.Equal(d("45.50")) {
		t.Fatalf("expected refund 45.50 on 2024-06-10, got %s", alloc["2024-06-10"].Refunds)
	}
}

func TestAllocateCosts_SalaryProratedOverItsMonth(t *testing.T) {
	// A June salary of 3000 contributes 100 per June day in exact mode.
	costs := PeriodCosts{
		Salaries: []models.Salary{
			{Month: 6, Year: 2024, Amount: d("3000")},
		},
	}
	alloc := AllocateCosts(costs, date("2024-06-01"), date("2024-06-30"), models.SpreadModeExact)
	if !alloc["2024-06-01"].Salaries.Equal(d("100")) {
		t.Fatalf("expected 100 on 2024-06-01, got %s", alloc["2024-06-01"].Salaries)
	}
	if !alloc["2024-06-30"].Salaries.Equal(d("100")) {
		t.Fatalf("expected 100 on 2024-06-30, got %s", alloc["2024-06-30"].Salaries)
	}
}

func TestAllocateCosts_SalaryOutsideRangeDoesNotLeak(t *testing.T) {
	// A May salary never shows up in a June-only exact allocation.
	costs := PeriodCosts{
		Salaries: []models.Salary{
			{Month: 5, Year: 2024, Amount: d("3100")},
		},
	}
	alloc := AllocateCosts(costs, date("2024-06-01"), date("2024-06-30"), models.SpreadModeExact)
	for day, entry := range alloc {
		if !entry.Salaries.IsZero() {
			t.Fatalf("day %s: expected 0 salary, got %s", day, entry.Salaries)
		}
	}
}

func TestAllocateCosts_EmptyRange(t *testing.T) {
	costs := PeriodCosts{
		GeneralExpenses: []models.GeneralExpense{
			{ExpenseDate: date("2024-06-05"), Amount: d("300")},
		},
	}
	alloc := AllocateCosts(costs, date("2024-06-30"), date("2024-06-01"), models.SpreadModeSpread)
	if len(alloc) != 0 {
		t.Fatalf("expected empty allocation for inverted range, got %d entries", len(alloc))
	}
}

func TestPeriodCostsTotals_ExactAndSpreadAgree(t *testing.T) {
	costs := PeriodCosts{
		Salaries: []models.Salary{
			{Month: 6, Year: 2024, Amount: d("3000")},
		},
		VatExpenses: []models.VatExpense{
			{ExpenseDate: date("2024-06-12"), Amount: d("120")},
		},
		GeneralExpenses: []models.GeneralExpense{
			{ExpenseDate: date("2024-06-20"), Amount: d("80")},
		},
		Refunds: []models.CustomerRefund{
			{RefundDate: date("2024-06-25"), Amount: d("55")},
		},
	}
	start := date("2024-06-01")
	end := date("2024-06-30")

	sumMode := func(mode string) decimal.Decimal {
		total := decimal.Zero
		for _, entry := range AllocateCosts(costs, start, end, mode) {
			total = total.Add(entry.Total())
		}
		return total
	}

	exact := sumMode(models.SpreadModeExact)
	spread := sumMode(models.SpreadModeSpread)
	if !exact.Equal(spread) {
		t.Fatalf("exact total %s != spread total %s", exact, spread)
	}
	if !exact.Equal(d("3255")) {
		t.Fatalf("expected total 3255, got %s", exact)
	}
}
