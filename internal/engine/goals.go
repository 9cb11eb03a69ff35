package engine

import (
	"fmt"
	"sort"
	"time"

	"habitquest/internal/state"
)

// SetCategoryGoal sets how many completions a category should reach per
// period. Setting the same category and period again replaces the target.
func (s *Service) SetCategoryGoal(category string, target int, period state.Frequency) (state.CategoryGoal, error) {
	if target <= 0 {
		return state.CategoryGoal{}, fmt.Errorf("goal target must be positive, got %d", target)
	}
	if !period.IsValid() {
		return state.CategoryGoal{}, fmt.Errorf("invalid frequency: %q", period)
	}
	category = ParseCategory(category)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.docs.Current()
	if err := CanSetCategoryGoal(LevelForTotalXP(doc.TotalXP)); err != nil {
		return state.CategoryGoal{}, err
	}

	goals := doc.CategoryGoals
	var g state.CategoryGoal
	found := false
	for i := range goals {
		if goals[i].Category == category && goals[i].Period == period {
			goals[i].Target = target
			g = goals[i]
			found = true
			break
		}
	}
	if !found {
		g = state.CategoryGoal{ID: s.newID(), Category: category, Target: target, Period: period}
		goals = append(goals, g)
	}
	if err := s.docs.Save(state.Patch{CategoryGoals: &goals}); err != nil {
		return state.CategoryGoal{}, fmt.Errorf("save goal: %w", err)
	}
	return g, nil
}

// GoalProgress reports each category goal against the current period.
func (s *Service) GoalProgress() []GoalProgress {
	return goalProgress(s.docs.Current(), s.now(), s.loc)
}

func goalProgress(doc state.Document, now time.Time, loc *time.Location) []GoalProgress {
	out := make([]GoalProgress, 0, len(doc.CategoryGoals))
	for _, g := range doc.CategoryGoals {
		current := state.PeriodKey(g.Period, now)
		done := 0
		for _, h := range doc.Habits {
			if h.Category != g.Category {
				continue
			}
			for key, v := range h.Completions {
				if !v {
					continue
				}
				start, ok := state.PeriodStart(h.Frequency, key, loc)
				if ok && state.PeriodKey(g.Period, start) == current {
					done++
				}
			}
		}
		out = append(out, GoalProgress{Goal: g, Done: done, Met: done >= g.Target})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Goal.Category < out[j].Goal.Category
	})
	return out
}
