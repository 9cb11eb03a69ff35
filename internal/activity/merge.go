package activity

import (
	"sort"
	"time"
)

// mergeLog folds the stored log into local. base is the stored log local
// was last synced with, so counters written by another process since then
// add to ours instead of being overwritten. Completions are unioned and the
// newer streak per habit wins.
func mergeLog(local, base, stored Log, maxTimes int) Log {
	out := stored.clone()

	out.LastAppOpen = later(local.LastAppOpen, stored.LastAppOpen)
	out.LastHabitCompletion = later(local.LastHabitCompletion, stored.LastHabitCompletion)

	out.TotalSessions = stored.TotalSessions + max(0, local.TotalSessions-base.TotalSessions)
	for day, n := range local.DailySessions {
		out.DailySessions[day] += max(0, n-base.DailySessions[day])
	}
	if local.AverageSessionLength != base.AverageSessionLength {
		out.AverageSessionLength = local.AverageSessionLength
	}

	for id, name := range local.HabitNames {
		out.HabitNames[id] = name
	}
	for id, times := range local.HabitCompletionTimes {
		out.HabitCompletionTimes[id] = unionTimes(out.HabitCompletionTimes[id], times, maxTimes)
	}
	for id, s := range local.StreakData {
		other, ok := out.StreakData[id]
		if !ok {
			out.StreakData[id] = s
			continue
		}
		out.StreakData[id] = newerStreak(s, other)
	}
	return out
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// newerStreak keeps the streak with the later completion. For the same
// completion a warning recorded by either side sticks.
func newerStreak(a, b StreakData) StreakData {
	switch {
	case a.LastCompletionDate.After(b.LastCompletionDate):
		return a
	case b.LastCompletionDate.After(a.LastCompletionDate):
		return b
	}
	out := a
	out.CurrentStreak = max(a.CurrentStreak, b.CurrentStreak)
	out.StreakRisk = a.StreakRisk || b.StreakRisk
	return out
}

func unionTimes(a, b []time.Time, limit int) []time.Time {
	out := make([]time.Time, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	j := 0
	for i, t := range out {
		if i > 0 && t.Equal(out[j-1]) {
			continue
		}
		out[j] = t
		j++
	}
	out = out[:j]
	if limit > 0 && len(out) > limit {
		out = append([]time.Time(nil), out[len(out)-limit:]...)
	}
	return out
}
