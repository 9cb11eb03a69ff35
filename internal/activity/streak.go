package activity

import (
	"time"
)

// dayDiff returns the number of calendar days from a to b in loc.
func dayDiff(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// nextStreak applies a completion at t to prev. A completion on the next
// calendar day extends the streak, the same day leaves it alone and any
// longer gap restarts it at 1. Risk is always cleared.
func nextStreak(prev StreakData, seen bool, t time.Time, loc *time.Location) StreakData {
	if !seen || prev.CurrentStreak == 0 {
		return StreakData{CurrentStreak: 1, LastCompletionDate: t}
	}
	next := prev
	next.StreakRisk = false
	switch diff := dayDiff(prev.LastCompletionDate, t, loc); {
	case diff < 0:
		// Clock went backwards; keep the later date.
		return next
	case diff == 0:
	case diff == 1:
		next.CurrentStreak++
	default:
		next.CurrentStreak = 1
	}
	next.LastCompletionDate = t
	return next
}

func dateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
