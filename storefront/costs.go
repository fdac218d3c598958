package storefront

import (
	"net/http"
	"strconv"
	"strings"

	"bitbucket.org/shoppulse/dashboard_backend/config"
	"bitbucket.org/shoppulse/dashboard_backend/models"
	"bitbucket.org/shoppulse/dashboard_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Manual cost inputs: salaries, expenses, refunds, and per-item shipping
// overrides. These feed the cost allocation policy and the snapshot builder;
// the handlers only persist rows, the computation stays in the finance package.

type SalaryRequest struct {
	EmployeeName string          `json:"employeeName"`
	Month        int             `json:"month" binding:"required,min=1,max=12"`
	Year         int             `json:"year" binding:"required,min=2000,max=2200"`
	Amount       decimal.Decimal `json:"amount"`
	Notes        string          `json:"notes"`
}

func CreateSalaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, err := resolveBusinessID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req SalaryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
			return
		}
		if req.Amount.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must not be negative"})
			return
		}

		salary := models.Salary{
			BusinessId:   businessId,
			EmployeeName: strings.TrimSpace(req.EmployeeName),
			Month:        req.Month,
			Year:         req.Year,
			Amount:       req.Amount,
			Notes:        req.Notes,
		}
		db := config.GetDB().WithContext(c.Request.Context())
		if err := db.Create(&salary).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, salary)
	}
}

func ListSalariesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, err := resolveBusinessID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		db := config.GetDB().WithContext(c.Request.Context())
		query := db.Where("business_id = ?", businessId)
		if v := strings.TrimSpace(c.Query("year")); v != "" {
			if year, err := strconv.Atoi(v); err == nil {
				query = query.Where("year = ?", year)
			}
		}
		if v := strings.TrimSpace(c.Query("month")); v != "" {
			if month, err := strconv.Atoi(v); err == nil {
				query = query.Where("month = ?", month)
			}
		}

		var salaries []models.Salary
		if err := query.Order("year desc, month desc, id desc").Find(&salaries).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": salaries})
	}
}

func DeleteSalaryHandler() gin.HandlerFunc {
	return deleteByIDHandler(&models.Salary{})
}

type VatExpenseRequest struct {
	ExpenseDate string          `json:"expenseDate" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	VatAmount   decimal.Decimal `json:"vatAmount"`
	Description string          `json:"description"`
}

func CreateVatExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, err := resolveBusinessID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req VatExpenseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
			return
		}
		date, err := utils.ParseDate(req.ExpenseDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expenseDate, expected YYYY-MM-DD"})
			return
		}
		if req.Amount.IsNegative() || req.VatAmount.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amounts must not be negative"})
			return
		}

		expense := models.VatExpense{
			BusinessId:  businessId,
			ExpenseDate: date,
			Amount:      req.Amount,
			VatAmount:   req.VatAmount,
			Description: strings.TrimSpace(req.Description),
		}
		db := config.GetDB().WithContext(c.Request.Context())
		if err := db.Create(&expense).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, expense)
	}
}

func ListVatExpensesHandler() gin.HandlerFunc {
	return listDatedHandler(func() interface{} { return &[]models.VatExpense{} }, "expense_date")
}

func DeleteVatExpenseHandler() gin.HandlerFunc {
	return deleteByIDHandler(&models.VatExpense{})
}

type GeneralExpenseRequest struct {
	ExpenseDate string          `json:"expenseDate" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func CreateGeneralExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, err := resolveBusinessID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req GeneralExpenseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
			return
		}
		date, err := utils.ParseDate(req.ExpenseDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expenseDate, expected YYYY-MM-DD"})
			return
		}
		if req.Amount.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must not be negative"})
			return
		}

		expense := models.GeneralExpense{
			BusinessId:  businessId,
			ExpenseDate: date,
			Amount:      req.Amount,
			Description: strings.TrimSpace(req.Description),
		}
		db := config.GetDB().WithContext(c.Request.Context())
		if err := db.Create(&expense).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, expense)
	}
}

func ListGeneralExpensesHandler() gin.HandlerFunc {
	return listDatedHandler(func() interface{} { return &[]models.GeneralExpense{} }, "expense_date")
}

func DeleteGeneralExpenseHandler() gin.HandlerFunc {
	return deleteByIDHandler(&models.GeneralExpense{})
}

type RefundRequest struct {
	RefundDate string          `json:"refundDate" binding:"required"`
	OrderId    int64           `json:"orderId"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
}

func CreateRefundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, err := resolveBusinessID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req RefundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
			return
		}
		date, err := utils.ParseDate(req.RefundDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid refundDate, expected YYYY-MM-DD"})
			return
		}
		if req.Amount.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must not be negative"})
			return
		}

		refund := models.CustomerRefund{
			BusinessId: businessId,
			RefundDate: date,
			OrderId:    req.OrderId,
			Amount:     req.Amount,
			Reason:     strings.TrimSpace(req.Reason),
		}
		db := config.GetDB().WithContext(c.Request.Context())
		if err := db.Create(&refund).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, refund)
	}
}

func ListRefundsHandler() gin.HandlerFunc {
	return listDatedHandler(func() interface{} { return &[]models.CustomerRefund{} }, "refund_date")
}

func DeleteRefundHandler() gin.HandlerFunc {
	return deleteByIDHandler(&models.CustomerRefund{})
}

type ItemShippingCostRequest struct {
	OrderId  int64           `json:"orderId"`
	ItemName string          `json:"itemName"`
	ShipDate string          `json:"shipDate" binding:"required"`
	Cost     decimal.Decimal `json:"cost"`
}

func CreateItemShippingCostHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, err := resolveBusinessID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req ItemShippingCostRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
			return
		}
		date, err := utils.ParseDate(req.ShipDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shipDate, expected YYYY-MM-DD"})
			return
		}
		if req.Cost.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cost must not be negative"})
			return
		}

		row := models.OrderItemShippingCost{
			BusinessId: businessId,
			OrderId:    req.OrderId,
			ItemName:   strings.TrimSpace(req.ItemName),
			ShipDate:   date,
			Cost:       req.Cost,
		}
		db := config.GetDB().WithContext(c.Request.Context())
		if err := db.Create(&row).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, row)
	}
}

func ListItemShippingCostsHandler() gin.HandlerFunc {
	return listDatedHandler(func() interface{} { return &[]models.OrderItemShippingCost{} }, "ship_date")
}

func DeleteItemShippingCostHandler() gin.HandlerFunc {
	return deleteByIDHandler(&models.OrderItemShippingCost{})
}

// listDatedHandler lists a business's rows of one dated table, optionally
// bounded by from/to query params on the given date column.
func listDatedHandler(newSlice func() interface{}, dateColumn string) gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, err := resolveBusinessID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		db := config.GetDB().WithContext(c.Request.Context())
		query := db.Where("business_id = ?", businessId)
		if v := strings.TrimSpace(c.Query("from")); v != "" {
			if from, err := utils.ParseDate(v); err == nil {
				query = query.Where(dateColumn+" >= ?", from)
			}
		}
		if v := strings.TrimSpace(c.Query("to")); v != "" {
			if to, err := utils.ParseDate(v); err == nil {
				query = query.Where(dateColumn+" <= ?", to)
			}
		}

		rows := newSlice()
		if err := query.Order(dateColumn + " desc, id desc").Find(rows).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": rows})
	}
}

func deleteByIDHandler(model interface{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, err := resolveBusinessID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		db := config.GetDB().WithContext(c.Request.Context())
		result := db.Where("id = ? AND business_id = ?", id, businessId).Delete(model)
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
