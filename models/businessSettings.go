package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bitbucket.org/shoppulse/dashboard_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	SpreadModeExact  = "exact"
	SpreadModeSpread = "spread"
)

// DefaultOrderStatus is the single status counted as revenue when a business
// has not configured its own list.
const DefaultOrderStatus = "processing"

// BusinessSettings is the one typed configuration row per business. It is
// loaded once per operation and passed explicitly down the call chain; there is
// no ambient key/value settings fallback.
type BusinessSettings struct {
	ID         uint   `gorm:"primary_key" json:"id"`
	BusinessId string `gorm:"size:64;uniqueIndex;not null" json:"business_id" binding:"required"`

	// MaterialsRate accepts either a percentage (>= 1, e.g. 30) or a fraction
	// (< 1, e.g. 0.30). Use NormalizedMaterialsRate before multiplying.
	MaterialsRate  decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"materials_rate"`
	CreditCardRate decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"credit_card_rate"`
	VatRate        decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"vat_rate"`

	ExpensesSpreadMode string `gorm:"size:10;default:exact" json:"expenses_spread_mode"`

	ValidOrderStatusesJSON []byte `gorm:"type:json" json:"valid_order_statuses"`

	ManualShippingPerItem      bool            `gorm:"default:false" json:"manual_shipping_per_item"`
	ChargeShippingOnFreeOrders bool            `gorm:"default:false" json:"charge_shipping_on_free_orders"`
	FreeShippingMethodsJSON    []byte          `gorm:"type:json" json:"free_shipping_methods"`
	FreeShippingDeduction      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"free_shipping_deduction"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ValidOrderStatuses decodes the configured status list, defaulting to
// ["processing"] when unset or malformed.
func (s BusinessSettings) ValidOrderStatuses() []string {
	statuses := decodeStringList(s.ValidOrderStatusesJSON)
	if len(statuses) == 0 {
		return []string{DefaultOrderStatus}
	}
	return statuses
}

// FreeShippingMethods decodes the shipping-method ids treated as free shipping.
func (s BusinessSettings) FreeShippingMethods() []string {
	return decodeStringList(s.FreeShippingMethodsJSON)
}

// NormalizedMaterialsRate returns the materials rate as a fraction.
// Stored values >= 1 are treated as percentages.
func (s BusinessSettings) NormalizedMaterialsRate() decimal.Decimal {
	one := decimal.NewFromInt(1)
	if s.MaterialsRate.GreaterThanOrEqual(one) {
		return s.MaterialsRate.Div(decimal.NewFromInt(100))
	}
	return s.MaterialsRate
}

// SpreadMode returns the configured allocation mode, defaulting to exact.
func (s BusinessSettings) SpreadMode() string {
	if s.ExpensesSpreadMode == SpreadModeSpread {
		return SpreadModeSpread
	}
	return SpreadModeExact
}

func decodeStringList(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// EncodeStringList marshals a list for the JSON columns above.
func EncodeStringList(list []string) []byte {
	b, _ := json.Marshal(list)
	return b
}

const businessSettingsCachePrefix = "BusinessSettings:"

// GetBusinessSettings loads the settings row for a business, serving from the
// Redis cache when possible. A missing row returns (nil, nil); callers decide
// whether that is a configuration error.
func GetBusinessSettings(ctx context.Context, businessId string) (*BusinessSettings, error) {
	var settings BusinessSettings
	cacheKey := businessSettingsCachePrefix + businessId
	if found, err := config.GetRedisObject(cacheKey, &settings); err == nil && found {
		return &settings, nil
	}

	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := db.WithContext(ctx).Where("business_id = ?", businessId).Take(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	_ = config.SetRedisObject(cacheKey, settings, 5*time.Minute)
	return &settings, nil
}

// InvalidateBusinessSettingsCache drops the cached settings after a write.
func InvalidateBusinessSettingsCache(businessId string) {
	_ = config.DeleteRedisKey(businessSettingsCachePrefix + businessId)
}
