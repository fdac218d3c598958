package finance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the engine's view of one commerce-platform order.
type Order struct {
	ID            int64
	Status        string
	Total         decimal.Decimal
	ShippingTotal decimal.Decimal
	CreatedAt     time.Time
	LineItems     []OrderLineItem
	ShippingLines []ShippingLine
}

type OrderLineItem struct {
	Name     string
	Quantity int
}

type ShippingLine struct {
	MethodId string
}

// ItemsCount sums line-item quantities.
func (o Order) ItemsCount() int {
	total := 0
	for _, item := range o.LineItems {
		total += item.Quantity
	}
	return total
}

// UsesShippingMethod reports whether any shipping line matches one of the
// given method ids.
func (o Order) UsesShippingMethod(methods []string) bool {
	for _, line := range o.ShippingLines {
		for _, m := range methods {
			if line.MethodId == m {
				return true
			}
		}
	}
	return false
}

// OrderSource lists orders from the commerce platform. The HTTP client in the
// storefront package implements it; tests substitute fakes.
type OrderSource interface {
	ListOrders(ctx context.Context, from, to time.Time, statuses []string) ([]Order, error)
}

func statusIn(status string, statuses []string) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
