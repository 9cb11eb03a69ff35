package engine

import (
	"fmt"
	"sort"

	"habitquest/internal/state"
)

// CreateHabit adds a habit with XP frozen from its difficulty.
func (s *Service) CreateHabit(in HabitInput) (state.Habit, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return state.Habit{}, err
	}
	if in.Frequency == "" {
		in.Frequency = state.FrequencyDaily
	}
	if !in.Frequency.IsValid() {
		return state.Habit{}, fmt.Errorf("invalid frequency: %q", in.Frequency)
	}
	if in.Difficulty == 0 {
		in.Difficulty = DifficultyTrivial
	}
	xp, err := CalculateXP(in.Difficulty)
	if err != nil {
		return state.Habit{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.docs.Current()
	level := LevelForTotalXP(doc.TotalXP)
	if err := CanUseDifficulty(level, in.Difficulty); err != nil {
		return state.Habit{}, err
	}
	if limit := MaxActiveHabits(level); activeHabits(doc) >= limit {
		return state.Habit{}, CapacityError{Limit: limit}
	}

	h := state.Habit{
		ID:          s.newID(),
		Name:        name,
		Category:    ParseCategory(in.Category),
		Frequency:   in.Frequency,
		Difficulty:  int(in.Difficulty),
		XPValue:     xp,
		CreatedAt:   s.now(),
		Completions: map[string]bool{},
	}
	habits := append(doc.Habits, h)
	if err := s.docs.Save(state.Patch{Habits: &habits}); err != nil {
		return state.Habit{}, fmt.Errorf("save habit: %w", err)
	}
	return h, nil
}

// CompleteHabit marks the habit done for the current period and awards
// XP and points. Completing twice in one period returns ErrAlreadyCompleted.
func (s *Service) CompleteHabit(id string) (CompleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.docs.Current()
	h := doc.Habit(id)
	if h == nil {
		return CompleteResult{}, NotFoundError{Kind: "habit", ID: id}
	}
	if h.Archived {
		return CompleteResult{}, fmt.Errorf("habit %q is archived", h.Name)
	}
	now := s.now()
	period := state.PeriodKey(h.Frequency, now)
	if h.Completions[period] {
		return CompleteResult{}, ErrAlreadyCompleted
	}

	before := NewAchievementChecker(doc, s.bestStreak(doc)).earnedSet()

	res := CompleteResult{
		HabitID:     id,
		Period:      period,
		LevelBefore: LevelForTotalXP(doc.TotalXP),
	}
	streak := 1
	if s.recorder != nil {
		streak = s.recorder.NextStreak(id).CurrentStreak
	}
	res.XPAwarded = AwardXP(h.XPValue, streak)
	res.PointsAwarded = PointsForXP(res.XPAwarded)

	h.Completions[period] = true
	doc.TotalXP += res.XPAwarded
	doc.Points += res.PointsAwarded
	res.LevelAfter = LevelForTotalXP(doc.TotalXP)
	res.LevelUp = res.LevelAfter > res.LevelBefore

	patch := state.Patch{Habits: &doc.Habits, TotalXP: &doc.TotalXP, Points: &doc.Points}
	if err := s.docs.Save(patch); err != nil {
		return CompleteResult{}, fmt.Errorf("save completion: %w", err)
	}
	if s.recorder != nil {
		res.Streak = s.recorder.RecordHabitCompletion(id, h.Name)
	}

	for _, a := range NewAchievementChecker(doc, s.bestStreak(doc)).GetAchievements() {
		if a.Earned && !before[a.ID] {
			res.NewAchievements = append(res.NewAchievements, a)
		}
	}
	return res, nil
}

// ArchiveHabit hides a habit from due lists; its history is kept.
func (s *Service) ArchiveHabit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.docs.Current()
	h := doc.Habit(id)
	if h == nil {
		return NotFoundError{Kind: "habit", ID: id}
	}
	if h.Archived {
		return nil
	}
	h.Archived = true
	if err := s.docs.Save(state.Patch{Habits: &doc.Habits}); err != nil {
		return fmt.Errorf("archive habit: %w", err)
	}
	return nil
}

// ListHabits returns habits sorted with due ones first, then by name.
func (s *Service) ListHabits(includeArchived bool) []HabitView {
	doc := s.docs.Current()
	now := s.now()
	var out []HabitView
	for _, h := range doc.Habits {
		if h.Archived && !includeArchived {
			continue
		}
		next, _ := NextDueDate(now, h.Frequency)
		out = append(out, HabitView{
			Habit:   h,
			Done:    h.Completions[state.PeriodKey(h.Frequency, now)],
			Streak:  s.streak(h.ID),
			NextDue: next,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Done != out[j].Done {
			return !out[i].Done
		}
		return out[i].Habit.Name < out[j].Habit.Name
	})
	return out
}

// FindHabit resolves a habit by id, or by case-insensitive name when the
// name is unique.
func (s *Service) FindHabit(ref string) (state.Habit, error) {
	doc := s.docs.Current()
	if h := doc.Habit(ref); h != nil {
		return *h, nil
	}
	var found []state.Habit
	for _, h := range doc.Habits {
		if equalFold(h.Name, ref) {
			found = append(found, h)
		}
	}
	switch len(found) {
	case 0:
		return state.Habit{}, NotFoundError{Kind: "habit", ID: ref}
	case 1:
		return found[0], nil
	default:
		return state.Habit{}, fmt.Errorf("habit name %q is ambiguous (%d matches)", ref, len(found))
	}
}
