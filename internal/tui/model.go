package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"habitquest/internal/activity"
	"habitquest/internal/app"
	"habitquest/internal/engine"
	"habitquest/internal/reminder"
	"habitquest/internal/ui"
)

type boardModel struct {
	app *app.App

	width  int
	height int

	status   engine.Summary
	habits   []engine.HabitView
	risks    []activity.StreakRisk
	reminder reminder.Status
	selected int

	lastLog string
	loading bool
}

type loadedMsg struct {
	status   engine.Summary
	habits   []engine.HabitView
	risks    []activity.StreakRisk
	reminder reminder.Status
}

type completedMsg struct {
	name string
	res  engine.CompleteResult
	err  error
}

type archivedMsg struct {
	name string
	err  error
}

type notifiedMsg struct {
	n reminder.Notification
}

func newBoardModel(a *app.App) boardModel {
	return boardModel{
		app:     a,
		loading: true,
		lastLog: "Loaded.",
	}
}

func (m boardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m boardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		m.app.Tracker.Refresh()
		return loadedMsg{
			status:   m.app.Service.Status(),
			habits:   m.app.Service.ListHabits(false),
			risks:    m.app.Tracker.GetStreaksAtRisk(),
			reminder: m.app.Reminders.Status(),
		}
	}
}

func (m boardModel) completeCmd(id, name string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.app.Service.CompleteHabit(id)
		return completedMsg{name: name, res: res, err: err}
	}
}

func (m boardModel) archiveCmd(id, name string) tea.Cmd {
	return func() tea.Msg {
		return archivedMsg{name: name, err: m.app.Service.ArchiveHabit(id)}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.FocusMsg:
		m.app.Tracker.Focus()
		return m, nil
	case tea.BlurMsg:
		m.app.Tracker.Blur()
		return m, nil
	case tea.MouseMsg:
		m.app.Tracker.RecordInteraction(activity.InteractionPointer)
		return m, nil
	case loadedMsg:
		m.loading = false
		m.status = msg.status
		m.habits = msg.habits
		m.risks = msg.risks
		m.reminder = msg.reminder
		if m.selected >= len(m.habits) {
			m.selected = max(len(m.habits)-1, 0)
		}
		return m, nil
	case completedMsg:
		if msg.err != nil {
			m.lastLog = "Complete failed: " + msg.err.Error()
			return m, nil
		}
		m.lastLog = fmt.Sprintf("Completed %s: +%d XP, +%d points (streak %d)", msg.name, msg.res.XPAwarded, msg.res.PointsAwarded, msg.res.Streak.CurrentStreak)
		if msg.res.LevelUp {
			m.lastLog += fmt.Sprintf(" %s level %d", ui.BadgeLevelUp, msg.res.LevelAfter)
		}
		for _, a := range msg.res.NewAchievements {
			m.lastLog += fmt.Sprintf(" %s %s", a.Icon, a.Name)
		}
		return m, m.loadCmd()
	case archivedMsg:
		if msg.err != nil {
			m.lastLog = "Archive failed: " + msg.err.Error()
			return m, nil
		}
		m.lastLog = "Archived " + msg.name + "."
		return m, m.loadCmd()
	case notifiedMsg:
		m.lastLog = ui.Notification(msg.n)
		return m, m.loadCmd()
	case tea.KeyMsg:
		m.app.Tracker.RecordInteraction(activity.InteractionKey)
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			m.lastLog = "Refreshing…"
			return m, m.loadCmd()
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "j":
			if m.selected < len(m.habits)-1 {
				m.selected++
			}
			return m, nil
		case "c", " ", "enter":
			h, ok := m.current()
			if !ok {
				return m, nil
			}
			if h.Done {
				m.lastLog = "Already done this period."
				return m, nil
			}
			m.lastLog = fmt.Sprintf("Completing %s…", h.Habit.Name)
			return m, m.completeCmd(h.Habit.ID, h.Habit.Name)
		case "x":
			h, ok := m.current()
			if !ok {
				return m, nil
			}
			return m, m.archiveCmd(h.Habit.ID, h.Habit.Name)
		}
	}
	return m, nil
}

func (m boardModel) current() (engine.HabitView, bool) {
	if m.selected < 0 || m.selected >= len(m.habits) {
		return engine.HabitView{}, false
	}
	return m.habits[m.selected], true
}

func (m boardModel) View() string {
	header := m.renderHeader()
	sidebar := m.renderSidebar()
	main := m.renderMain()
	footer := m.renderFooter()

	// Simple 2-column layout.
	leftW := 28
	if m.width > 0 {
		leftW = max(min(leftW, m.width/2), 18)
	}

	linesLeft := strings.Split(sidebar, "\n")
	linesRight := strings.Split(main, "\n")
	rows := max(len(linesLeft), len(linesRight))

	var body strings.Builder
	for i := 0; i < rows; i++ {
		l, r := "", ""
		if i < len(linesLeft) {
			l = linesLeft[i]
		}
		if i < len(linesRight) {
			r = linesRight[i]
		}
		body.WriteString(padRight(l, leftW))
		body.WriteString("  ")
		body.WriteString(r)
		body.WriteString("\n")
	}

	return header + "\n" + body.String() + footer
}

func (m boardModel) renderHeader() string {
	if m.loading && m.habits == nil {
		return "HabitQuest — loading…"
	}
	s := m.status
	bar := ui.ProgressBar(s.XPIntoLevel, s.XPForNext, 30)
	return fmt.Sprintf("HabitQuest | Level %d | XP %d %s | Points %d", s.Level, s.TotalXP, bar, s.Points)
}

func (m boardModel) renderSidebar() string {
	lines := []string{"Today"}
	lines = append(lines, fmt.Sprintf("- done: %d/%d", m.status.DoneCount, m.status.ActiveCount))
	if len(m.status.Goals) > 0 {
		lines = append(lines, "", "Goals")
		for _, g := range m.status.Goals {
			lines = append(lines, fmt.Sprintf("- %s %d/%d %s", g.Goal.Category, g.Done, g.Goal.Target, g.Goal.Period))
		}
	}
	if len(m.risks) > 0 {
		lines = append(lines, "", "At risk")
		for _, r := range m.risks {
			lines = append(lines, fmt.Sprintf("- %s (%d) %.0fh", r.Name, r.CurrentStreak, r.HoursRemaining))
		}
	}
	lines = append(lines, "", "Reminders")
	switch {
	case !m.reminder.Enabled:
		lines = append(lines, "- paused")
	case !m.reminder.SnoozedUntil.IsZero():
		lines = append(lines, "- snoozed until "+m.reminder.SnoozedUntil.Format("15:04"))
	default:
		lines = append(lines, fmt.Sprintf("- sent today: %d", m.reminder.SentToday))
		for _, t := range m.reminder.Pending {
			lines = append(lines, fmt.Sprintf("- %s at %s", t.Kind, t.FireAt.Format("15:04")))
		}
	}
	lines = append(lines, "")
	lines = append(lines, "Keys")
	lines = append(lines, "- ↑/↓ or j/k: move")
	lines = append(lines, "- c/space: complete")
	lines = append(lines, "- x: archive")
	lines = append(lines, "- r: refresh")
	lines = append(lines, "- q: quit")
	return strings.Join(lines, "\n")
}

func (m boardModel) renderMain() string {
	if m.loading && m.habits == nil {
		return "Loading…"
	}
	out := []string{"Habits"}
	if len(m.habits) == 0 {
		out = append(out, "(none yet, add one with `hq add`)")
		return strings.Join(out, "\n")
	}
	for i, h := range m.habits {
		cursor := "  "
		if i == m.selected {
			cursor = "> "
		}
		mark := "[ ]"
		if h.Done {
			mark = "[x]"
		}
		streak := ""
		if h.Streak > 0 {
			streak = fmt.Sprintf(" 🔥%d", h.Streak)
		}
		out = append(out, fmt.Sprintf("%s%s %s %s (%s, xp=%d)%s", cursor, mark, ui.FrequencyIcon(h.Habit.Frequency), h.Habit.Name, h.Habit.Category, h.Habit.XPValue, streak))
	}
	return strings.Join(out, "\n")
}

func (m boardModel) renderFooter() string {
	return "\n" + m.lastLog
}

func padRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}
