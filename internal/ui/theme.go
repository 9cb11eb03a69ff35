package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"habitquest/internal/reminder"
	"habitquest/internal/state"
)

// HabitQuest theme (CLI + TUI).
// Kept small: reusable styles and a few emojis.

const (
	IconQuest   = "🗺️"
	IconSparkle = "✨"
	IconPlus    = "➕"
	IconDone    = "✅"
	IconTrophy  = "🏆"
	IconBolt    = "⚡"
	IconInfo    = "ℹ️"
	IconWarn    = "⚠️"
	IconError   = "🧨"
	IconBox     = "📦"
	IconLoop    = "🔁"
	IconFire    = "🔥"
	IconBell    = "🔔"
	IconGift    = "🎁"
	IconTarget  = "🎯"
	IconCalWeek = "📅"
	IconCalMon  = "🗓️"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)

	Panel       = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
	PanelTitle  = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	SelectedRow = lipgloss.NewStyle().Bold(true).Foreground(cGold).Background(cPrimary)

	BadgeLevelUp = lipgloss.NewStyle().Bold(true).Foreground(cGold).Render("LEVEL UP")
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// HabitStatus renders the current-period state of a habit.
func HabitStatus(done, archived bool) string {
	switch {
	case archived:
		return Muted.Render("archived")
	case done:
		return Good.Render("done")
	default:
		return Warn.Render("due")
	}
}

func FrequencyIcon(f state.Frequency) string {
	switch f {
	case state.FrequencyWeekly:
		return IconCalWeek
	case state.FrequencyMonthly:
		return IconCalMon
	default:
		return IconLoop
	}
}

// Streak renders a streak count, highlighted once it is worth protecting.
func Streak(days int) string {
	switch {
	case days <= 0:
		return Muted.Render("no streak")
	case days >= 7:
		return Gold.Render(fmt.Sprintf("%s %d", IconFire, days))
	default:
		return Good.Render(fmt.Sprintf("%s %d", IconFire, days))
	}
}

// UrgencyStyle picks the style for a reminder of urgency u.
func UrgencyStyle(u reminder.Urgency) lipgloss.Style {
	switch u {
	case reminder.UrgencyUrgent:
		return Bad
	case reminder.UrgencyHigh:
		return Warn
	case reminder.UrgencyMedium:
		return Key
	default:
		return Muted
	}
}

// Notification renders a reminder as a single terminal line.
func Notification(n reminder.Notification) string {
	return fmt.Sprintf("%s %s %s", IconBell, UrgencyStyle(n.Urgency).Render(n.Title), n.Body)
}

// ProgressBar draws value/total as a fixed-width ASCII bar.
func ProgressBar(value int, total int, width int) string {
	if total <= 0 {
		total = 1
	}
	if width <= 3 {
		width = 3
	}
	value = min(max(value, 0), total)
	filled := min(int(float64(value)/float64(total)*float64(width)), width)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
