package reminder

import (
	"fmt"
	"math"
	"time"
)

type Kind string

const (
	KindStreakWarning Kind = "streak-warning"
	KindMotivational  Kind = "motivational"
	KindEncouragement Kind = "encouragement"
)

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

// urgencyFor classifies a streak warning by hours left before it lapses.
func urgencyFor(hoursRemaining float64) Urgency {
	switch {
	case hoursRemaining <= 4:
		return UrgencyUrgent
	case hoursRemaining <= 8:
		return UrgencyHigh
	default:
		return UrgencyMedium
	}
}

type TaskState string

const (
	TaskIdle      TaskState = "idle"
	TaskScheduled TaskState = "scheduled"
	TaskFired     TaskState = "fired"
	TaskCancelled TaskState = "cancelled"
)

// ReminderTask is one delayed reminder.
type ReminderTask struct {
	Key           string
	FireAt        time.Time
	Kind          Kind
	TargetHabitID string
	State         TaskState

	habitName string
}

// Notification is what the scheduler hands to the UI.
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
	Kind    Kind
	HabitID string
	Sound   bool
	At      time.Time
}

func streakWarning(habitID, name string, streak int, hoursRemaining float64) Notification {
	if name == "" {
		name = "habit"
	}
	return Notification{
		Title:   "Streak at risk",
		Body:    fmt.Sprintf("Your %d-day %s streak ends in %s. Check in to keep it going.", streak, name, formatHours(hoursRemaining)),
		Urgency: urgencyFor(hoursRemaining),
		Kind:    KindStreakWarning,
		HabitID: habitID,
	}
}

func motivational(habitID, name string) Notification {
	n := Notification{
		Title:   "Time for a quick win",
		Body:    "You haven't completed a habit today. One small step keeps your progress moving.",
		Urgency: UrgencyLow,
		Kind:    KindMotivational,
		HabitID: habitID,
	}
	if name != "" {
		n.Body = fmt.Sprintf("%s is waiting for today's check-in.", name)
	}
	return n
}

func encouragement() Notification {
	return Notification{
		Title:   "Nice work today",
		Body:    "You've already made progress today. Keep the momentum going?",
		Urgency: UrgencyLow,
		Kind:    KindEncouragement,
	}
}

func formatHours(h float64) string {
	if h < 1 {
		m := int(math.Ceil(h * 60))
		if m <= 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	n := int(math.Round(h))
	if n == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", n)
}
