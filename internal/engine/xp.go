package engine

import (
	"fmt"
	"math"
)

const (
	// XPRequiredCoef is the level curve constant: XP_req = 500 * (Level^1.5)
	XPRequiredCoef = 500.0

	// HabitBaseXP is the base XP used with difficulty multipliers.
	HabitBaseXP = 50.0

	// StreakBonusRate is the per-day streak bonus (5% per consecutive day).
	StreakBonusRate = 0.05

	// StreakBonusCap bounds how many streak days count toward the bonus.
	StreakBonusCap = 10

	// PointsPerXP converts awarded XP into spendable points.
	PointsPerXP = 10
)

// XPRequiredForLevel returns the total XP threshold required to be at the given level.
// Level 0 requires 0 XP.
func XPRequiredForLevel(level int) int {
	if level <= 0 {
		return 0
	}
	req := XPRequiredCoef * math.Pow(float64(level), 1.5)
	// Use ceil to avoid making thresholds easier due to floating point rounding.
	return int(math.Ceil(req))
}

// LevelForTotalXP returns the highest level L such that totalXP >= XPRequiredForLevel(L).
func LevelForTotalXP(totalXP int) int {
	if totalXP <= 0 {
		return 0
	}

	// Exponential search upper bound, then binary search.
	low := 0
	high := 1
	for XPRequiredForLevel(high) <= totalXP {
		low = high
		high *= 2
		if high > 1_000_000 {
			break
		}
	}

	for low+1 < high {
		mid := low + (high-low)/2
		if XPRequiredForLevel(mid) <= totalXP {
			low = mid
		} else {
			high = mid
		}
	}
	return low
}

func difficultyMultiplier(d Difficulty) (float64, error) {
	switch d {
	case DifficultyTrivial:
		return 1.0, nil
	case DifficultyEasy:
		return 2.0, nil
	case DifficultyMedium:
		return 5.0, nil
	case DifficultyHard:
		return 10.0, nil
	case DifficultyEpic:
		return 25.0, nil
	default:
		return 0, fmt.Errorf("invalid difficulty: %d", d)
	}
}

// CalculateXP returns the base XP for a habit of difficulty d.
// The value is frozen into the habit at creation time.
func CalculateXP(d Difficulty) (int, error) {
	mult, err := difficultyMultiplier(d)
	if err != nil {
		return 0, err
	}
	return int(math.Round(HabitBaseXP * mult)), nil
}

// AwardXP applies the streak bonus to a habit's frozen XP value.
// A streak of one (the first completion) earns no bonus.
func AwardXP(xpValue, streak int) int {
	if xpValue <= 0 {
		return 0
	}
	days := min(max(streak-1, 0), StreakBonusCap)
	return int(math.Round(float64(xpValue) * (1.0 + float64(days)*StreakBonusRate)))
}

// PointsForXP converts awarded XP to points; any positive award earns at least one.
func PointsForXP(xp int) int {
	if xp <= 0 {
		return 0
	}
	return max(1, xp/PointsPerXP)
}
