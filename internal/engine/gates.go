package engine

import "fmt"

const (
	LevelRewards       = 1
	LevelCategoryGoals = 2
)

// DifficultyUnlockLevels maps difficulty levels to the player level required.
// New players get trivial and easy habits; harder ones unlock as they level up.
var DifficultyUnlockLevels = map[Difficulty]int{
	DifficultyTrivial: 0,
	DifficultyEasy:    0,
	DifficultyMedium:  2,
	DifficultyHard:    4,
	DifficultyEpic:    8,
}

// MaxDifficultyForLevel returns the highest difficulty available at the given player level.
func MaxDifficultyForLevel(level int) Difficulty {
	max := DifficultyTrivial
	for diff, req := range DifficultyUnlockLevels {
		if level >= req && diff > max {
			max = diff
		}
	}
	return max
}

// CanUseDifficulty returns an error if the player level is too low for the requested difficulty.
func CanUseDifficulty(level int, difficulty Difficulty) error {
	reqLevel, ok := DifficultyUnlockLevels[difficulty]
	if !ok {
		return fmt.Errorf("invalid difficulty: %d", difficulty)
	}
	if level < reqLevel {
		return DifficultyGateError{
			Difficulty:    difficulty,
			RequiredLevel: reqLevel,
			CurrentLevel:  level,
		}
	}
	return nil
}

// DifficultyGateError is returned when a player tries to use a locked difficulty.
type DifficultyGateError struct {
	Difficulty    Difficulty
	RequiredLevel int
	CurrentLevel  int
}

func (e DifficultyGateError) Error() string {
	return fmt.Sprintf("difficulty %s requires level %d (currently %d)", e.Difficulty, e.RequiredLevel, e.CurrentLevel)
}

// MaxActiveHabits returns how many unarchived habits a player may keep.
func MaxActiveHabits(level int) int {
	switch {
	case level >= 10:
		return 50
	case level >= 3:
		return 20
	default:
		return 8
	}
}

func CanCreateReward(level int) error {
	if level < LevelRewards {
		return GateError{Feature: "rewards", RequiredLevel: LevelRewards}
	}
	return nil
}

func CanSetCategoryGoal(level int) error {
	if level < LevelCategoryGoals {
		return GateError{Feature: "category goals", RequiredLevel: LevelCategoryGoals}
	}
	return nil
}
