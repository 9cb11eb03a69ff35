package engine

import (
	"time"

	"habitquest/internal/activity"
	"habitquest/internal/state"
)

type Difficulty int

const (
	DifficultyTrivial Difficulty = 1
	DifficultyEasy    Difficulty = 2
	DifficultyMedium  Difficulty = 3
	DifficultyHard    Difficulty = 4
	DifficultyEpic    Difficulty = 5
)

func (d Difficulty) IsValid() bool {
	return d >= DifficultyTrivial && d <= DifficultyEpic
}

func (d Difficulty) String() string {
	switch d {
	case DifficultyTrivial:
		return "trivial"
	case DifficultyEasy:
		return "easy"
	case DifficultyMedium:
		return "medium"
	case DifficultyHard:
		return "hard"
	case DifficultyEpic:
		return "epic"
	default:
		return "unknown"
	}
}

// DefaultCategory is used when user input is missing.
const DefaultCategory = "general"

type HabitInput struct {
	Name       string
	Category   string
	Frequency  state.Frequency
	Difficulty Difficulty
}

type CompleteResult struct {
	HabitID       string
	Period        string
	XPAwarded     int
	PointsAwarded int
	LevelBefore   int
	LevelAfter    int
	LevelUp       bool
	Streak        activity.StreakData

	// NewAchievements lists achievements this completion earned.
	NewAchievements []Achievement
}

type HabitView struct {
	Habit   state.Habit
	Done    bool
	Streak  int
	NextDue time.Time
}

type GoalProgress struct {
	Goal state.CategoryGoal
	Done int
	Met  bool
}

type Summary struct {
	Level       int
	TotalXP     int
	XPIntoLevel int
	XPForNext   int
	Points      int
	ActiveCount int
	DoneCount   int
	DueCount    int
	Goals       []GoalProgress
}
