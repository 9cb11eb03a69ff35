package activity

import (
	"time"
)

// StreakData tracks one habit's run of consecutive days. StreakRisk is set
// once a warning has gone out for the current risk window and cleared by
// the next completion.
type StreakData struct {
	CurrentStreak      int       `json:"currentStreak"`
	LastCompletionDate time.Time `json:"lastCompletionDate"`
	StreakRisk         bool      `json:"streakRisk"`
}

// Log is the per-device activity record. It is stored as deterministic
// CBOR under its own key.
type Log struct {
	LastAppOpen          time.Time              `json:"lastAppOpen"`
	LastHabitCompletion  time.Time              `json:"lastHabitCompletion"`
	TotalSessions        int                    `json:"totalSessions"`
	DailySessions        map[string]int         `json:"dailySessions"`
	AverageSessionLength time.Duration          `json:"averageSessionLength"`
	HabitCompletionTimes map[string][]time.Time `json:"habitCompletionTimes"`
	HabitNames           map[string]string      `json:"habitNames"`
	StreakData           map[string]StreakData  `json:"streakData"`
}

func newLog() Log {
	return Log{
		DailySessions:        map[string]int{},
		HabitCompletionTimes: map[string][]time.Time{},
		HabitNames:           map[string]string{},
		StreakData:           map[string]StreakData{},
	}
}

func (l *Log) normalize() {
	if l.DailySessions == nil {
		l.DailySessions = map[string]int{}
	}
	if l.HabitCompletionTimes == nil {
		l.HabitCompletionTimes = map[string][]time.Time{}
	}
	if l.HabitNames == nil {
		l.HabitNames = map[string]string{}
	}
	if l.StreakData == nil {
		l.StreakData = map[string]StreakData{}
	}
}

func (l Log) clone() Log {
	out := l
	out.DailySessions = make(map[string]int, len(l.DailySessions))
	for k, v := range l.DailySessions {
		out.DailySessions[k] = v
	}
	out.HabitCompletionTimes = make(map[string][]time.Time, len(l.HabitCompletionTimes))
	for k, v := range l.HabitCompletionTimes {
		out.HabitCompletionTimes[k] = append([]time.Time(nil), v...)
	}
	out.HabitNames = make(map[string]string, len(l.HabitNames))
	for k, v := range l.HabitNames {
		out.HabitNames[k] = v
	}
	out.StreakData = make(map[string]StreakData, len(l.StreakData))
	for k, v := range l.StreakData {
		out.StreakData[k] = v
	}
	return out
}

// Session is the open stretch of use. It only survives through the
// aggregates it adds to Log.
type Session struct {
	ID               string
	StartTime        time.Time
	LastActivity     time.Time
	EndTime          *time.Time
	InteractionCount int
	HabitCompletions []string
}

// InteractionKind names the UI events that keep a session alive.
type InteractionKind string

const (
	InteractionPointer InteractionKind = "pointer"
	InteractionKey     InteractionKind = "key"
	InteractionScroll  InteractionKind = "scroll"
	InteractionTouch   InteractionKind = "touch"
	InteractionFocus   InteractionKind = "focus"
)

func (k InteractionKind) IsValid() bool {
	switch k {
	case InteractionPointer, InteractionKey, InteractionScroll, InteractionTouch, InteractionFocus:
		return true
	default:
		return false
	}
}

// StreakRisk is a streak whose 24 hour window is running out.
type StreakRisk struct {
	HabitID        string
	Name           string
	CurrentStreak  int
	HoursRemaining float64
}
