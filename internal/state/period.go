package state

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// PeriodKey returns the canonical completion key for t under f:
// 2006-01-02 for daily, ISO week 2006-W02 for weekly, 2006-01 for monthly.
// The key is computed from t's own location.
func PeriodKey(f Frequency, t time.Time) string {
	switch f {
	case FrequencyWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case FrequencyMonthly:
		return t.Format(monthLayout)
	default:
		return t.Format(dayLayout)
	}
}

// ValidPeriodKey reports whether key is canonical for f. Round-tripping
// through the layout rejects zero padding mistakes like 2026-3-1.
func ValidPeriodKey(f Frequency, key string) bool {
	switch f {
	case FrequencyDaily:
		t, err := time.Parse(dayLayout, key)
		return err == nil && t.Format(dayLayout) == key
	case FrequencyMonthly:
		t, err := time.Parse(monthLayout, key)
		return err == nil && t.Format(monthLayout) == key
	case FrequencyWeekly:
		yearPart, weekPart, ok := strings.Cut(key, "-W")
		if !ok || len(yearPart) != 4 || len(weekPart) != 2 {
			return false
		}
		year, err := strconv.Atoi(yearPart)
		if err != nil {
			return false
		}
		week, err := strconv.Atoi(weekPart)
		if err != nil || week < 1 {
			return false
		}
		return week <= isoWeeksIn(year)
	default:
		return false
	}
}

// isoWeeksIn returns 52 or 53. December 28 always falls in the last ISO
// week of its year.
func isoWeeksIn(year int) int {
	_, w := time.Date(year, time.December, 28, 12, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

// PeriodStart returns the first instant, in loc, of the period that a
// canonical key names. Weekly periods start on the ISO Monday.
func PeriodStart(f Frequency, key string, loc *time.Location) (time.Time, bool) {
	if !ValidPeriodKey(f, key) {
		return time.Time{}, false
	}
	switch f {
	case FrequencyDaily:
		t, _ := time.ParseInLocation(dayLayout, key, loc)
		return t, true
	case FrequencyMonthly:
		t, _ := time.ParseInLocation(monthLayout, key, loc)
		return t, true
	default:
		year, _ := strconv.Atoi(key[:4])
		week, _ := strconv.Atoi(key[6:])
		// January 4 is always in ISO week 1.
		jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
		offset := (int(jan4.Weekday()) + 6) % 7
		monday := jan4.AddDate(0, 0, -offset)
		return monday.AddDate(0, 0, (week-1)*7), true
	}
}
