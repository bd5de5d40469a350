// Package period converts wall-clock instants into the day-slot, epoch, month and year
// identifiers used to name snapshot and rollup files.
package period

import (
	"fmt"
	"time"
)

// EpochOrigin is the start of epoch 1. Epochs are contiguous 7-day windows from here.
var EpochOrigin = time.Date(2022, time.October, 31, 0, 0, 0, 0, time.UTC)

// EpochLength is the duration of one epoch.
const EpochLength = 7 * 24 * time.Hour

// DayOfWeek returns the weekday slot of t in t's location: Monday=1 through Sunday=7.
func DayOfWeek(t time.Time) int {
	day := int(t.Weekday())
	if day == 0 {
		return 7
	}
	return day
}

// EpochNumber returns the 1-based epoch containing t.
func EpochNumber(t time.Time) int {
	elapsed := t.UnixMilli() - EpochOrigin.UnixMilli()
	length := EpochLength.Milliseconds()
	n := elapsed / length
	if elapsed < 0 && elapsed%length != 0 {
		n--
	}
	return int(n) + 1
}

// MonthLabel returns t's calendar month as YYYY-MM.
func MonthLabel(t time.Time) string {
	return t.Format("2006-01")
}

// YearLabel returns t's calendar year as YYYY.
func YearLabel(t time.Time) string {
	return t.Format("2006")
}

// PreviousMonth returns the calendar month before t's month.
func PreviousMonth(t time.Time) (int, time.Month) {
	prev := time.Date(t.Year(), t.Month()-1, 1, 0, 0, 0, 0, t.Location())
	return prev.Year(), prev.Month()
}

// PreviousMonthLabel returns the month before t's month as YYYY-MM.
func PreviousMonthLabel(t time.Time) string {
	year, month := PreviousMonth(t)
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// PreviousYear returns the calendar year before t's year.
func PreviousYear(t time.Time) int {
	return t.Year() - 1
}

// MonthBounds returns local midnight of the first and last calendar day of a month.
func MonthBounds(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
	return first, last
}

// EpochRangeForMonth returns the inclusive epoch range touched by a month's first and last day.
// Epochs straddling a month boundary belong to both months in full.
func EpochRangeForMonth(first, last time.Time) (int, int) {
	return EpochNumber(first), EpochNumber(last)
}
