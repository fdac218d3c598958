package finance

import (
	"time"

	"bitbucket.org/shoppulse/dashboard_backend/models"
	"bitbucket.org/shoppulse/dashboard_backend/utils"
	"github.com/shopspring/decimal"
)

// BuildDailySnapshot computes the full cost/revenue breakdown for one
// (business, date) from the day's orders.
//
// Ad spend (google/facebook/tiktok) is never derived from orders: it is a
// manual input that must be carried forward from the existing snapshot on
// every rebuild. Dropping it here would silently zero out hand-entered spend
// on the next resync.
//
// Pure: no persistence, no side effects. A nil settings row is a
// ConfigurationError, never a silent all-zero default.
func BuildDailySnapshot(
	businessId string,
	date time.Time,
	orders []Order,
	existing *models.DailyFinancialSnapshot,
	settings *models.BusinessSettings,
	manualItemShipping []models.OrderItemShippingCost,
) (models.DailyFinancialSnapshot, error) {
	if settings == nil {
		return models.DailyFinancialSnapshot{}, NewConfigurationError("business %s has no settings row; platform not configured", businessId)
	}

	snapshot := models.DailyFinancialSnapshot{
		BusinessId:   businessId,
		SnapshotDate: utils.DateOnly(date),
		Revenue:      decimal.Zero,
	}

	statuses := settings.ValidOrderStatuses()
	counted := make([]Order, 0, len(orders))
	for _, order := range orders {
		if !statusIn(order.Status, statuses) {
			continue
		}
		counted = append(counted, order)
		snapshot.Revenue = snapshot.Revenue.Add(order.Total)
		snapshot.OrdersCount++
		snapshot.ItemsCount += order.ItemsCount()
	}

	if settings.ManualShippingPerItem {
		shipping := decimal.Zero
		for _, item := range manualItemShipping {
			shipping = shipping.Add(item.Cost)
		}
		snapshot.ShippingCost = shipping
	} else {
		shipping := decimal.Zero
		for _, order := range counted {
			shipping = shipping.Add(OrderShippingContribution(order, settings))
		}
		snapshot.ShippingCost = shipping
	}

	snapshot.MaterialsCost = snapshot.Revenue.Mul(settings.NormalizedMaterialsRate())
	snapshot.CreditCardFees = snapshot.Revenue.Mul(settings.CreditCardRate)
	snapshot.Vat = snapshot.Revenue.Mul(settings.VatRate)

	if existing != nil {
		snapshot.ID = existing.ID
		snapshot.GoogleAdsCost = existing.GoogleAdsCost
		snapshot.FacebookAdsCost = existing.FacebookAdsCost
		snapshot.TiktokAdsCost = existing.TiktokAdsCost
	}

	snapshot.ApplyDerived()
	return snapshot, nil
}

// OrderShippingContribution is one order's share of the day's shipping cost
// under the platform-reported shipping policy: the reported shipping total,
// minus the fixed free-shipping deduction when the order uses a configured
// free-shipping method and the business does not charge shipping on free
// orders.
func OrderShippingContribution(order Order, settings *models.BusinessSettings) decimal.Decimal {
	contribution := order.ShippingTotal
	if settings.ChargeShippingOnFreeOrders {
		return contribution
	}
	if order.UsesShippingMethod(settings.FreeShippingMethods()) {
		contribution = contribution.Sub(settings.FreeShippingDeduction)
	}
	return contribution
}
