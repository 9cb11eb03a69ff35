package engine

import (
	"fmt"
	"time"

	"habitquest/internal/state"
)

// NextDueDate returns the start of the period after the one containing now.
func NextDueDate(now time.Time, f state.Frequency) (time.Time, error) {
	y, m, d := now.Date()
	loc := now.Location()
	switch f {
	case state.FrequencyDaily:
		return time.Date(y, m, d+1, 0, 0, 0, 0, loc), nil
	case state.FrequencyWeekly:
		offset := (int(now.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset+7, 0, 0, 0, 0, loc), nil
	case state.FrequencyMonthly:
		return time.Date(y, m+1, 1, 0, 0, 0, 0, loc), nil
	default:
		return time.Time{}, fmt.Errorf("invalid frequency: %q", f)
	}
}
