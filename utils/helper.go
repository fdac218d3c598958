package utils

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DateOnly truncates a timestamp to midnight UTC. Snapshot rows are keyed by
// calendar date, so every date passed into the engine goes through this first.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// DaysInMonth returns the number of calendar days in (month, year).
func DaysInMonth(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween counts calendar days in the inclusive range [start, end].
// Returns 0 when end is before start.
func DaysBetween(start, end time.Time) int {
	start = DateOnly(start)
	end = DateOnly(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// EachDay calls fn for every date in the inclusive range [start, end].
func EachDay(start, end time.Time, fn func(day time.Time)) {
	for d := DateOnly(start); !d.After(DateOnly(end)); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// RoundMoney rounds to 2 decimal places. Only for API/report boundaries;
// intermediate accumulation stays unrounded.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Percent100 is the decimal constant 100, shared by ROI/margin math.
var Percent100 = decimal.NewFromInt(100)

// ProcessValidationErrors flattens gin binding errors into a field->message map.
func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errorResponse["error"] = err.Error()
		return errorResponse
	}
	for _, fieldErr := range validationErrors {
		errorResponse[fieldErr.Field()] = fmt.Sprintf("failed on %q validation", fieldErr.Tag())
	}
	return errorResponse
}
