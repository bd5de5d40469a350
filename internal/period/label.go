package period

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// LabelKind distinguishes current epoch labels from legacy week labels.
type LabelKind int

const (
	KindEpoch LabelKind = iota + 1
	// KindLegacyWeek is a compatibility shim for files written before epoch labels existed.
	KindLegacyWeek
)

// legacyWeeksPerMonth is the divisor of the week-to-month estimate. Boundary weeks can land
// in a neighbouring month.
const legacyWeeksPerMonth = 4.33

var (
	epochLabelRe = regexp.MustCompile(`(\d{4})-epoch-(\d+)`)
	legacyWeekRe = regexp.MustCompile(`(\d{4})-W(\d{2})`)
)

// WeeklyLabel identifies one weekly rollup file.
type WeeklyLabel struct {
	Year   int
	Kind   LabelKind
	Number int
}

// NewEpochLabel returns the epoch label for t, with the year taken from t's calendar.
func NewEpochLabel(t time.Time) WeeklyLabel {
	return WeeklyLabel{Year: t.Year(), Kind: KindEpoch, Number: EpochNumber(t)}
}

func (l WeeklyLabel) String() string {
	if l.Kind == KindLegacyWeek {
		return fmt.Sprintf("%04d-W%02d", l.Year, l.Number)
	}
	return fmt.Sprintf("%04d-epoch-%d", l.Year, l.Number)
}

// ParseWeeklyLabel extracts a weekly label from a file name. The epoch form wins when both match.
func ParseWeeklyLabel(name string) (WeeklyLabel, bool) {
	if m := epochLabelRe.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[1])
		epoch, err := strconv.Atoi(m[2])
		if err != nil {
			return WeeklyLabel{}, false
		}
		return WeeklyLabel{Year: year, Kind: KindEpoch, Number: epoch}, true
	}
	if m := legacyWeekRe.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[1])
		week, _ := strconv.Atoi(m[2])
		return WeeklyLabel{Year: year, Kind: KindLegacyWeek, Number: week}, true
	}
	return WeeklyLabel{}, false
}

// EstimateLegacyMonth maps a legacy week number to an approximate calendar month.
func EstimateLegacyMonth(week int) int {
	return int(math.Ceil(float64(week) / legacyWeeksPerMonth))
}

// InMonth reports whether the labelled file belongs to month. Epoch labels are matched against
// the inclusive epoch range; legacy labels use the week-to-month estimate.
func (l WeeklyLabel) InMonth(month time.Month, epochStart, epochEnd int) bool {
	switch l.Kind {
	case KindEpoch:
		return l.Number >= epochStart && l.Number <= epochEnd
	case KindLegacyWeek:
		return EstimateLegacyMonth(l.Number) == int(month)
	default:
		return false
	}
}
