// Package datetime provides the month calendar used to date schedule periods.
package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/emi-calculator/pkg/constants"
)

const (
	// MonthLayout is the format of a calendar month in config files and output.
	MonthLayout = constants.MonthLayout

	// DateLayout is the format of a full calendar date.
	DateLayout = constants.DateLayout
)

var monthNames = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// YearMonth is a calendar month. Month is 1-based.
type YearMonth struct {
	Year  int
	Month int
}

// NewYearMonth returns the YearMonth for year and month, validating the month.
func NewYearMonth(year, month int) (YearMonth, error) {
	if month < 1 || month > constants.MonthsPerYear {
		return YearMonth{}, fmt.Errorf("invalid month %d, expected 1-12", month)
	}
	return YearMonth{Year: year, Month: month}, nil
}

// FromTime returns the calendar month containing t.
func FromTime(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

// Parse accepts either a month ("2006-01") or a full date ("2006-01-02").
// The day of a full date is discarded.
func Parse(value string) (YearMonth, error) {
	trimmed := strings.TrimSpace(value)
	if t, err := time.Parse(MonthLayout, trimmed); err == nil {
		return FromTime(t), nil
	}
	t, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid date %q, expected %s or %s", value, MonthLayout, DateLayout)
	}
	return FromTime(t), nil
}

// MustParse parses a date string and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParse(value string) YearMonth {
	ym, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return ym
}

// Next returns the following calendar month, rolling the year after December.
func (ym YearMonth) Next() YearMonth {
	if ym.Month >= constants.MonthsPerYear {
		return YearMonth{Year: ym.Year + 1, Month: 1}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// Offset returns the month the given number of months away.
func (ym YearMonth) Offset(months int) YearMonth {
	index := ym.index() + months
	year := index / constants.MonthsPerYear
	month := index % constants.MonthsPerYear
	if month < 0 {
		month += constants.MonthsPerYear
		year--
	}
	return YearMonth{Year: year, Month: month + 1}
}

// Before returns true if ym is strictly before other.
func (ym YearMonth) Before(other YearMonth) bool {
	return ym.index() < other.index()
}

// OnOrAfter returns true if ym is the same month as other or later.
func (ym YearMonth) OnOrAfter(other YearMonth) bool {
	return !ym.Before(other)
}

// IsZero reports whether ym is the zero value.
func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

// MonthName returns the short English month name, e.g. "Nov".
func (ym YearMonth) MonthName() string {
	return MonthName(ym.Month)
}

// String formats ym using MonthLayout.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

func (ym YearMonth) index() int {
	return ym.Year*constants.MonthsPerYear + ym.Month - 1
}

// MonthName returns the short English name for a 1-based month number.
func MonthName(month int) string {
	if month < 1 || month > len(monthNames) {
		return ""
	}
	return monthNames[month-1]
}
