package engine

import (
	"fmt"
	"strconv"
	"strings"

	"habitquest/internal/state"
)

// ParseFrequency parses user input to a Frequency. Empty input means daily.
func ParseFrequency(input string) (state.Frequency, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	switch s {
	case "":
		return state.FrequencyDaily, nil
	case "day", "d":
		return state.FrequencyDaily, nil
	case "week", "w":
		return state.FrequencyWeekly, nil
	case "month", "m":
		return state.FrequencyMonthly, nil
	}
	f := state.Frequency(s)
	if !f.IsValid() {
		return "", fmt.Errorf("invalid frequency: %q", input)
	}
	return f, nil
}

// ParseDifficulty accepts 1..5 or a difficulty name. Empty input means trivial.
func ParseDifficulty(input string) (Difficulty, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	if s == "" {
		return DifficultyTrivial, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		d := Difficulty(n)
		if !d.IsValid() {
			return 0, fmt.Errorf("invalid difficulty: %q", input)
		}
		return d, nil
	}
	for d := DifficultyTrivial; d <= DifficultyEpic; d++ {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid difficulty: %q", input)
}

// ParseCategory normalizes a category name.
func ParseCategory(input string) string {
	s := strings.TrimSpace(strings.ToLower(input))
	if s == "" {
		return DefaultCategory
	}
	return s
}
