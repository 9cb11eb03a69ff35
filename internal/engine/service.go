// Package engine holds the game rules on top of the persisted document:
// habit creation and completion, XP and levels, rewards, category goals
// and achievements.
package engine

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"habitquest/internal/activity"
	"habitquest/internal/clock"
	"habitquest/internal/state"
)

// Documents is the slice of the persistence engine the service writes through.
type Documents interface {
	Current() state.Document
	Save(patch state.Patch) error
}

// Recorder receives habit completions and reports streaks. The activity
// tracker implements it.
type Recorder interface {
	RecordHabitCompletion(habitID, name string) activity.StreakData
	// NextStreak is the streak a completion now would produce. It records
	// nothing.
	NextStreak(habitID string) activity.StreakData
	Streak(habitID string) (activity.StreakData, bool)
}

type Options struct {
	Recorder Recorder
	Clock    clock.Clock
	Location *time.Location
	NewID    func() string
}

// Service applies game rules and saves the resulting patches. Methods are
// safe for concurrent use; read-modify-write cycles are serialized.
type Service struct {
	docs     Documents
	recorder Recorder
	clock    clock.Clock
	loc      *time.Location
	newID    func() string

	mu sync.Mutex
}

func NewService(docs Documents, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Service{
		docs:     docs,
		recorder: opts.Recorder,
		clock:    opts.Clock,
		loc:      opts.Location,
		newID:    opts.NewID,
	}
}

func (s *Service) now() time.Time {
	return s.clock.Now().In(s.loc)
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errEmptyName
	}
	return name, nil
}

func (s *Service) streak(habitID string) int {
	if s.recorder == nil {
		return 0
	}
	sd, ok := s.recorder.Streak(habitID)
	if !ok {
		return 0
	}
	return sd.CurrentStreak
}

func (s *Service) bestStreak(doc state.Document) int {
	best := 0
	for _, h := range doc.Habits {
		best = max(best, s.streak(h.ID))
	}
	return best
}

func activeHabits(doc state.Document) int {
	n := 0
	for _, h := range doc.Habits {
		if !h.Archived {
			n++
		}
	}
	return n
}

// Level returns the player's current level.
func (s *Service) Level() int {
	return LevelForTotalXP(s.docs.Current().TotalXP)
}

// Status summarizes the player and the current period.
func (s *Service) Status() Summary {
	doc := s.docs.Current()
	now := s.now()
	level := LevelForTotalXP(doc.TotalXP)
	sum := Summary{
		Level:       level,
		TotalXP:     doc.TotalXP,
		XPIntoLevel: doc.TotalXP - XPRequiredForLevel(level),
		XPForNext:   XPRequiredForLevel(level+1) - XPRequiredForLevel(level),
		Points:      doc.Points,
		Goals:       goalProgress(doc, now, s.loc),
	}
	for _, h := range doc.Habits {
		if h.Archived {
			continue
		}
		sum.ActiveCount++
		if h.Completions[state.PeriodKey(h.Frequency, now)] {
			sum.DoneCount++
		} else {
			sum.DueCount++
		}
	}
	return sum
}
