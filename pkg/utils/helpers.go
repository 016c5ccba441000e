package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseFloat parses a numeric cell, tolerating thousands separators.
// Returns NaN for empty or non-numeric cells.
func ParseFloat(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// MonthStr returns the abbreviated uppercase month name, e.g. "APR".
func MonthStr(month int) string {
	return strings.ToUpper(time.Date(1900, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("Jan"))
}

// Date formats a year/month pair as "YYYY-MM".
func Date(year, month int) string {
	return fmt.Sprintf("%d-%02d", year, month)
}

// PeriodStr names an aggregation window, e.g. "6_months-APR_SEP".
// Used for output file and directory names.
func PeriodStr(monthStart, monthEnd int) string {
	return fmt.Sprintf("%d_months-%s_%s", monthEnd-monthStart+1, MonthStr(monthStart), MonthStr(monthEnd))
}
