// Package datetime provides date and time utility functions.
package datetime

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/loan-review/pkg/constants"
)

// ErrInvalidDate is returned for contract dates that match no accepted layout.
var ErrInvalidDate = errors.New("invalid contract date")

// ContractDateLayouts are tried in order when parsing a contract date.
var ContractDateLayouts = []string{constants.ContractDateLayout, constants.ISODateLayout}

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseContractDate parses DD/MM/YYYY or YYYY-MM-DD into a UTC date.
func ParseContractDate(date string) (time.Time, error) {
	trimmed := strings.TrimSpace(date)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrInvalidDate)
	}
	for _, layout := range ContractDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q, expected DD/MM/YYYY or YYYY-MM-DD", ErrInvalidDate, date)
}

// MonthBounds returns the first and last day of the calendar month containing date.
func MonthBounds(date time.Time) (time.Time, time.Time) {
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// MonthKey formats the calendar month of date as YYYY-MM.
func MonthKey(date time.Time) string {
	return date.Format(constants.MonthLayout)
}

// FormatContractDate formats date as DD/MM/YYYY.
func FormatContractDate(date time.Time) string {
	return date.Format(constants.ContractDateLayout)
}
