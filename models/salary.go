package models

import (
	"time"

	"bitbucket.org/shoppulse/dashboard_backend/utils"
	"github.com/shopspring/decimal"
)

// Salary is a monthly payroll cost. Granularity is (month, year); the daily
// contribution is always the amount prorated over the days of that month.
type Salary struct {
	ID           uint            `gorm:"primary_key" json:"id"`
	BusinessId   string          `gorm:"size:64;index;not null" json:"business_id" binding:"required"`
	EmployeeName string          `gorm:"size:255" json:"employee_name"`
	Month        int             `gorm:"not null" json:"month" binding:"required,min=1,max=12"`
	Year         int             `gorm:"not null" json:"year" binding:"required"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Notes        string          `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DailyCost prorates the salary over the days of its month.
func (s Salary) DailyCost() decimal.Decimal {
	days := utils.DaysInMonth(time.Month(s.Month), s.Year)
	if days == 0 {
		return decimal.Zero
	}
	return s.Amount.Div(decimal.NewFromInt(int64(days)))
}

// CoversDate reports whether the given date falls inside the salary's month.
func (s Salary) CoversDate(day time.Time) bool {
	return int(day.Month()) == s.Month && day.Year() == s.Year
}
