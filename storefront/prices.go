package storefront

import (
	"context"
	"fmt"
	"strings"

	"bitbucket.org/shoppulse/dashboard_backend/finance"
	"github.com/shopspring/decimal"
)

// VariationPriceUpdater is the single platform call a bulk price update needs.
type VariationPriceUpdater interface {
	UpdateVariationPrice(ctx context.Context, productId, variationId int64, price decimal.Decimal) error
}

// BatchResult reports a multi-item write. Updated counts the items that were
// persisted on the platform even when others failed.
type BatchResult struct {
	Updated int
	Total   int
	Errors  []string
}

// UpdateVariationPrices pushes each item's price independently. A failed item
// never aborts the batch: successes stay persisted and the failure list names
// each failed item with its reason. When any item failed the result comes back
// alongside a PartialBatchError carrying the same counts.
func UpdateVariationPrices(ctx context.Context, updater VariationPriceUpdater, items []VariationPriceItem) (BatchResult, error) {
	if len(items) == 0 {
		return BatchResult{}, finance.NewValidationError("items array is empty")
	}

	result := BatchResult{Total: len(items)}
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			name = fmt.Sprintf("variation %d", item.VariationId)
		}

		price, err := decimal.NewFromString(strings.TrimSpace(item.Price.String()))
		if err != nil || price.IsNegative() {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: invalid price %q", name, item.Price.String()))
			continue
		}

		if err := updater.UpdateVariationPrice(ctx, item.ProductId, item.VariationId, price); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		result.Updated++
	}
	if len(result.Errors) > 0 {
		return result, finance.NewPartialBatchError(result.Updated, result.Total, result.Errors)
	}
	return result, nil
}
