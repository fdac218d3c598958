package storefront

import (
	"errors"
	"net/http"
	"strings"

	"bitbucket.org/shoppulse/dashboard_backend/config"
	"bitbucket.org/shoppulse/dashboard_backend/finance"
	"bitbucket.org/shoppulse/dashboard_backend/models"
	"bitbucket.org/shoppulse/dashboard_backend/utils"
	"github.com/gin-gonic/gin"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

type SettingsRequest struct {
	MaterialsRate  decimal.Decimal `json:"materialsRate"`
	CreditCardRate decimal.Decimal `json:"creditCardRate"`
	VatRate        decimal.Decimal `json:"vatRate"`

	ExpensesSpreadMode string   `json:"expensesSpreadMode"`
	ValidOrderStatuses []string `json:"validOrderStatuses"`

	ManualShippingPerItem      bool            `json:"manualShippingPerItem"`
	ChargeShippingOnFreeOrders bool            `json:"chargeShippingOnFreeOrders"`
	FreeShippingMethods        []string        `json:"freeShippingMethods"`
	FreeShippingDeduction      decimal.Decimal `json:"freeShippingDeduction"`
}

func GetSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, err := resolveBusinessID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		settings, err := models.GetBusinessSettings(c.Request.Context(), businessId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if settings == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "settings not configured"})
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

// UpdateSettingsHandler upserts the one typed settings row per business and
// invalidates the cached copy.
func UpdateSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, err := resolveBusinessID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req SettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		mode := strings.TrimSpace(req.ExpensesSpreadMode)
		if mode == "" {
			mode = models.SpreadModeExact
		}
		if mode != models.SpreadModeExact && mode != models.SpreadModeSpread {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expensesSpreadMode must be exact or spread"})
			return
		}
		if req.MaterialsRate.IsNegative() || req.CreditCardRate.IsNegative() || req.VatRate.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rates must not be negative"})
			return
		}

		db := config.GetDB().WithContext(c.Request.Context())
		updates := map[string]interface{}{
			"materials_rate":                 req.MaterialsRate,
			"credit_card_rate":               req.CreditCardRate,
			"vat_rate":                       req.VatRate,
			"expenses_spread_mode":           mode,
			"valid_order_statuses_json":      models.EncodeStringList(req.ValidOrderStatuses),
			"manual_shipping_per_item":       req.ManualShippingPerItem,
			"charge_shipping_on_free_orders": req.ChargeShippingOnFreeOrders,
			"free_shipping_methods_json":     models.EncodeStringList(req.FreeShippingMethods),
			"free_shipping_deduction":        req.FreeShippingDeduction,
		}

		var existing models.BusinessSettings
		err = db.Where("business_id = ?", businessId).Take(&existing).Error
		if err == nil {
			if err := db.Model(&existing).Updates(updates).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		} else {
			settings := models.BusinessSettings{
				BusinessId:                 businessId,
				MaterialsRate:              req.MaterialsRate,
				CreditCardRate:             req.CreditCardRate,
				VatRate:                    req.VatRate,
				ExpensesSpreadMode:         mode,
				ValidOrderStatusesJSON:     models.EncodeStringList(req.ValidOrderStatuses),
				ManualShippingPerItem:      req.ManualShippingPerItem,
				ChargeShippingOnFreeOrders: req.ChargeShippingOnFreeOrders,
				FreeShippingMethodsJSON:    models.EncodeStringList(req.FreeShippingMethods),
				FreeShippingDeduction:      req.FreeShippingDeduction,
			}
			if err := db.Create(&settings).Error; err != nil {
				// A concurrent first write can land between the read and the
				// insert; the unique business_id key turns ours into an update.
				if isDuplicateKeyErr(err) {
					err = db.Model(&models.BusinessSettings{}).
						Where("business_id = ?", businessId).
						Updates(updates).Error
				}
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
			}
		}

		models.InvalidateBusinessSettingsCache(businessId)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

type AdCostsRequest struct {
	Date            string          `json:"date" binding:"required"`
	GoogleAdsCost   decimal.Decimal `json:"googleAdsCost"`
	FacebookAdsCost decimal.Decimal `json:"facebookAdsCost"`
	TiktokAdsCost   decimal.Decimal `json:"tiktokAdsCost"`
}

// UpdateAdCostsHandler records manual ad spend on a day's snapshot. These
// fields are hand-entered and survive every resync; this is their only write
// path besides the carry-forward in the snapshot builder.
func UpdateAdCostsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, err := resolveBusinessID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req AdCostsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		date, err := utils.ParseDate(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		if req.GoogleAdsCost.IsNegative() || req.FacebookAdsCost.IsNegative() || req.TiktokAdsCost.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ad costs must not be negative"})
			return
		}

		ctx := utils.SetBusinessIdInContext(c.Request.Context(), businessId)
		existing, err := finance.FindSnapshotForDay(ctx, config.GetDB(), businessId, date)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		snapshot := models.DailyFinancialSnapshot{
			BusinessId:   businessId,
			SnapshotDate: date,
		}
		if existing != nil {
			snapshot = *existing
		}

		snapshot.GoogleAdsCost = req.GoogleAdsCost
		snapshot.FacebookAdsCost = req.FacebookAdsCost
		snapshot.TiktokAdsCost = req.TiktokAdsCost
		snapshot.ApplyDerived()

		db := config.GetDB().WithContext(ctx)
		if existing != nil {
			// The resync upsert never touches the ad columns; this targeted
			// update is their only write path for an existing row.
			err = db.Model(&models.DailyFinancialSnapshot{}).
				Where("id = ?", snapshot.ID).
				Updates(map[string]interface{}{
					"google_ads_cost":   snapshot.GoogleAdsCost,
					"facebook_ads_cost": snapshot.FacebookAdsCost,
					"tiktok_ads_cost":   snapshot.TiktokAdsCost,
					"total_expenses":    snapshot.TotalExpenses,
					"profit":            snapshot.Profit,
					"roi":               snapshot.Roi,
				}).Error
		} else {
			err = db.Create(&snapshot).Error
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snapshot)
	}
}
