package finance

import (
	"testing"

	"bitbucket.org/shoppulse/dashboard_backend/models"
	"github.com/shopspring/decimal"
)

func baseSettings() *models.BusinessSettings {
	return &models.BusinessSettings{
		BusinessId:             "biz-1",
		MaterialsRate:          d("0.30"),
		CreditCardRate:         d("0.025"),
		VatRate:                d("0.17"),
		ValidOrderStatusesJSON: models.EncodeStringList([]string{"processing", "completed"}),
	}
}

func TestBuildDailySnapshot_GoldenBreakdown(t *testing.T) {
	// Revenue 1000 with rates materials 30%, credit card 2.5%, VAT 17%:
	// materials 300, fees 25, vat 170, expenses 495, profit 505, ROI 50.5%.
	orders := []Order{
		{ID: 1, Status: "processing", Total: d("600")},
		{ID: 2, Status: "completed", Total: d("400")},
	}

	snapshot, err := BuildDailySnapshot("biz-1", date("2024-06-10"), orders, nil, baseSettings(), nil)
	if err != nil {
		t.Fatalf("BuildDailySnapshot error: %v", err)
	}

	checks := []struct {
		name     string
		got      decimal.Decimal
		expected string
	}{
		{"revenue", snapshot.Revenue, "1000"},
		{"materials", snapshot.MaterialsCost, "300"},
		{"credit card fees", snapshot.CreditCardFees, "25"},
		{"vat", snapshot.Vat, "170"},
		{"total expenses", snapshot.TotalExpenses, "495"},
		{"profit", snapshot.Profit, "505"},
		{"roi", snapshot.Roi, "50.5"},
	}
	for _, check := range checks {
		if !check.got.Equal(d(check.expected)) {
			t.Fatalf("%s: expected %s, got %s", check.name, check.expected, check.got)
		}
	}
	if snapshot.OrdersCount != 2 {
		t.Fatalf("expected 2 orders, got %d", snapshot.OrdersCount)
	}
}

func TestBuildDailySnapshot_PercentageMaterialsRateNormalized(t *testing.T) {
	settings := baseSettings()
	settings.MaterialsRate = d("30") // stored as a percentage

	orders := []Order{{ID: 1, Status: "processing", Total: d("1000")}}
	snapshot, err := BuildDailySnapshot("biz-1", date("2024-06-10"), orders, nil, settings, nil)
	if err != nil {
		t.Fatalf("BuildDailySnapshot error: %v", err)
	}
	if !snapshot.MaterialsCost.Equal(d("300")) {
		t.Fatalf("expected materials 300, got %s", snapshot.MaterialsCost)
	}
}

func TestBuildDailySnapshot_NilSettingsIsConfigurationError(t *testing.T) {
	_, err := BuildDailySnapshot("biz-1", date("2024-06-10"), nil, nil, nil, nil)
	if !IsConfigurationError(err) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestBuildDailySnapshot_FiltersUncountedStatuses(t *testing.T) {
	orders := []Order{
		{ID: 1, Status: "processing", Total: d("100")},
		{ID: 2, Status: "pending", Total: d("999")},
		{ID: 3, Status: "cancelled", Total: d("999")},
	}
	snapshot, err := BuildDailySnapshot("biz-1", date("2024-06-10"), orders, nil, baseSettings(), nil)
	if err != nil {
		t.Fatalf("BuildDailySnapshot error: %v", err)
	}
	if !snapshot.Revenue.Equal(d("100")) {
		t.Fatalf("expected revenue 100, got %s", snapshot.Revenue)
	}
	if snapshot.OrdersCount != 1 {
		t.Fatalf("expected 1 counted order, got %d", snapshot.OrdersCount)
	}
}

func TestBuildDailySnapshot_AdSpendSurvivesResync(t *testing.T) {
	existing := &models.DailyFinancialSnapshot{
		ID:              7,
		GoogleAdsCost:   d("50"),
		FacebookAdsCost: d("20"),
		TiktokAdsCost:   d("5"),
	}

	// Resync with zero orders: everything recomputes to zero except the
	// hand-entered ad spend, which is carried forward untouched.
	snapshot, err := BuildDailySnapshot("biz-1", date("2024-06-10"), nil, existing, baseSettings(), nil)
	if err != nil {
		t.Fatalf("BuildDailySnapshot error: %v", err)
	}
	if snapshot.ID != 7 {
		t.Fatalf("expected existing row id 7, got %d", snapshot.ID)
	}
	if !snapshot.GoogleAdsCost.Equal(d("50")) || !snapshot.FacebookAdsCost.Equal(d("20")) || !snapshot.TiktokAdsCost.Equal(d("5")) {
		t.Fatalf("ad spend not carried forward: %s/%s/%s",
			snapshot.GoogleAdsCost, snapshot.FacebookAdsCost, snapshot.TiktokAdsCost)
	}
	if !snapshot.Revenue.IsZero() {
		t.Fatalf("expected zero revenue, got %s", snapshot.Revenue)
	}
	if !snapshot.TotalExpenses.Equal(d("75")) {
		t.Fatalf("expected expenses 75 (ad spend only), got %s", snapshot.TotalExpenses)
	}
	if !snapshot.Profit.Equal(d("-75")) {
		t.Fatalf("expected profit -75, got %s", snapshot.Profit)
	}
	if !snapshot.Roi.Equal(d("-100")) {
		t.Fatalf("expected roi -100 on zero revenue with a loss, got %s", snapshot.Roi)
	}
}

func TestBuildDailySnapshot_ManualShippingOverridesPlatform(t *testing.T) {
	settings := baseSettings()
	settings.ManualShippingPerItem = true

	orders := []Order{
		{ID: 1, Status: "processing", Total: d("100"), ShippingTotal: d("999")},
	}
	manual := []models.OrderItemShippingCost{
		{Cost: d("7.50")},
		{Cost: d("2.50")},
	}
	snapshot, err := BuildDailySnapshot("biz-1", date("2024-06-10"), orders, nil, settings, manual)
	if err != nil {
		t.Fatalf("BuildDailySnapshot error: %v", err)
	}
	if !snapshot.ShippingCost.Equal(d("10")) {
		t.Fatalf("expected manual shipping 10, got %s", snapshot.ShippingCost)
	}
}

func TestOrderShippingContribution_FreeShippingDeduction(t *testing.T) {
	settings := baseSettings()
	settings.FreeShippingMethodsJSON = models.EncodeStringList([]string{"free_shipping"})
	settings.FreeShippingDeduction = d("5")

	free := Order{
		ShippingTotal: d("12"),
		ShippingLines: []ShippingLine{{MethodId: "free_shipping"}},
	}
	paid := Order{
		ShippingTotal: d("12"),
		ShippingLines: []ShippingLine{{MethodId: "flat_rate"}},
	}

	if got := OrderShippingContribution(free, settings); !got.Equal(d("7")) {
		t.Fatalf("free-shipping order: expected 7, got %s", got)
	}
	if got := OrderShippingContribution(paid, settings); !got.Equal(d("12")) {
		t.Fatalf("paid-shipping order: expected 12, got %s", got)
	}

	settings.ChargeShippingOnFreeOrders = true
	if got := OrderShippingContribution(free, settings); !got.Equal(d("12")) {
		t.Fatalf("charge-on-free: expected 12, got %s", got)
	}
}
