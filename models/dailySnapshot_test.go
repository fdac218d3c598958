package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	out, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return out
}

func TestApplyDerived(t *testing.T) {
	snapshot := DailyFinancialSnapshot{
		Revenue:        dec("1000"),
		GoogleAdsCost:  dec("50"),
		ShippingCost:   dec("30"),
		MaterialsCost:  dec("300"),
		CreditCardFees: dec("25"),
		Vat:            dec("170"),
	}
	snapshot.ApplyDerived()

	if !snapshot.TotalExpenses.Equal(dec("575")) {
		t.Fatalf("expected expenses 575, got %s", snapshot.TotalExpenses)
	}
	if !snapshot.Profit.Equal(dec("425")) {
		t.Fatalf("expected profit 425, got %s", snapshot.Profit)
	}
	if !snapshot.Roi.Equal(dec("42.5")) {
		t.Fatalf("expected roi 42.5, got %s", snapshot.Roi)
	}
}

func TestRoiPercent(t *testing.T) {
	cases := []struct {
		name     string
		profit   string
		revenue  string
		expected string
	}{
		{"positive revenue", "505", "1000", "50.5"},
		{"loss with revenue", "-200", "1000", "-20"},
		{"zero revenue zero profit", "0", "0", "0"},
		{"zero revenue with loss", "-75", "0", "-100"},
		{"zero revenue with gain", "10", "0", "0"},
	}
	for _, tc := range cases {
		got := RoiPercent(dec(tc.profit), dec(tc.revenue))
		if !got.Equal(dec(tc.expected)) {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.expected, got)
		}
	}
}

func TestBusinessSettingsDefaults(t *testing.T) {
	var settings BusinessSettings

	statuses := settings.ValidOrderStatuses()
	if len(statuses) != 1 || statuses[0] != DefaultOrderStatus {
		t.Fatalf("expected default statuses [%s], got %v", DefaultOrderStatus, statuses)
	}
	if settings.SpreadMode() != SpreadModeExact {
		t.Fatalf("expected default spread mode exact, got %s", settings.SpreadMode())
	}
}

func TestNormalizedMaterialsRate(t *testing.T) {
	cases := []struct {
		stored   string
		expected string
	}{
		{"0.30", "0.30"},
		{"30", "0.3"},
		{"1", "0.01"},
		{"0.999", "0.999"},
	}
	for _, tc := range cases {
		settings := BusinessSettings{MaterialsRate: dec(tc.stored)}
		got := settings.NormalizedMaterialsRate()
		if !got.Equal(dec(tc.expected)) {
			t.Fatalf("stored %s: expected %s, got %s", tc.stored, tc.expected, got)
		}
	}
}
