package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"bitbucket.org/shoppulse/dashboard_backend/finance"
	"github.com/shopspring/decimal"
)

type fakeUpdater struct {
	failOn map[int64]error
	calls  []int64
}

func (f *fakeUpdater) UpdateVariationPrice(ctx context.Context, productId, variationId int64, price decimal.Decimal) error {
	f.calls = append(f.calls, variationId)
	if err, ok := f.failOn[variationId]; ok {
		return err
	}
	return nil
}

func TestUpdateVariationPrices_PartialFailure(t *testing.T) {
	updater := &fakeUpdater{
		failOn: map[int64]error{2: errors.New("api timeout")},
	}
	items := []VariationPriceItem{
		{ProductId: 1, VariationId: 1, Name: "Small", Price: json.Number("9.99")},
		{ProductId: 1, VariationId: 2, Name: "Medium", Price: json.Number("10.99")},
		{ProductId: 1, VariationId: 3, Name: "Large", Price: json.Number("11.99")},
	}

	result, err := UpdateVariationPrices(context.Background(), updater, items)
	if !finance.IsPartialBatchError(err) {
		t.Fatalf("expected PartialBatchError, got %v", err)
	}
	if !strings.Contains(err.Error(), "updated 2 of 3") {
		t.Fatalf("error should report counts: %v", err)
	}
	if result.Updated != 2 || result.Total != 3 {
		t.Fatalf("expected 2 of 3 updated, got %d of %d", result.Updated, result.Total)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(result.Errors), result.Errors)
	}
	if !strings.HasPrefix(result.Errors[0], "Medium: ") || !strings.Contains(result.Errors[0], "api timeout") {
		t.Fatalf("error should carry item name and reason: %s", result.Errors[0])
	}
	// Items 1 and 3 were still attempted despite item 2 failing.
	if len(updater.calls) != 3 {
		t.Fatalf("expected all 3 items attempted, got %d", len(updater.calls))
	}
}

func TestUpdateVariationPrices_EmptyItemsIsValidationError(t *testing.T) {
	_, err := UpdateVariationPrices(context.Background(), &fakeUpdater{}, nil)
	if !finance.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestUpdateVariationPrices_InvalidPriceFailsOnlyThatItem(t *testing.T) {
	updater := &fakeUpdater{}
	items := []VariationPriceItem{
		{ProductId: 1, VariationId: 1, Name: "Small", Price: json.Number("9.99")},
		{ProductId: 1, VariationId: 2, Name: "Medium", Price: json.Number("-1")},
		{ProductId: 1, VariationId: 3, Name: "Large", Price: json.Number("not-a-number")},
	}

	result, err := UpdateVariationPrices(context.Background(), updater, items)
	if !finance.IsPartialBatchError(err) {
		t.Fatalf("expected PartialBatchError, got %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("expected 1 updated, got %d", result.Updated)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %v", result.Errors)
	}
	// The invalid items never reached the platform.
	if len(updater.calls) != 1 {
		t.Fatalf("expected 1 platform call, got %d", len(updater.calls))
	}
}
