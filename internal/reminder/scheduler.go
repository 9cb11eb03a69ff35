// Package reminder turns activity signals into timed, rate-limited
// notifications.
package reminder

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"habitquest/internal/activity"
	"habitquest/internal/clock"
)

const (
	subStreakCheck = "reminder:sub:streak-check"
	subEvaluate    = "reminder:sub:evaluate"
	subInitial     = "reminder:sub:initial-evaluate"
	subSnooze      = "reminder:sub:snooze"

	taskPrefix       = "reminder:task:"
	taskMotivational = taskPrefix + "motivational"
	taskEncourage    = taskPrefix + "encouragement"
)

// ActivitySource is the part of the activity tracker the scheduler reads.
type ActivitySource interface {
	// Refresh picks up activity stored by other processes.
	Refresh()
	GetStreaksAtRisk() []activity.StreakRisk
	ShouldSendStreakWarning(habitID string) bool
	MarkStreakWarned(habitID string)
	GetWeeklyActivityScore() int
	GetOptimalReminderTimes(habitID string) []int
	CompletedToday() bool
	LastHabitCompletion() (time.Time, bool)
}

type Options struct {
	Config   Config
	Location *time.Location
	Clock    clock.Clock
	Logger   *zap.Logger
}

// Status summarises the scheduler for display.
type Status struct {
	Enabled      bool
	SnoozedUntil time.Time
	SentToday    int
	Pending      []ReminderTask
}

type Scheduler struct {
	source ActivitySource
	notify func(Notification)
	loc    *time.Location
	clock  clock.Clock
	log    *zap.Logger
	timers *clock.Registry

	mu           sync.Mutex
	cfg          Config
	tasks        map[string]*ReminderTask
	snoozedUntil time.Time
	sentDay      string
	sentToday    int
	closed       bool
}

func New(source ActivitySource, notify func(Notification), opts Options) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if notify == nil {
		notify = func(Notification) {}
	}
	return &Scheduler{
		source: source,
		notify: notify,
		loc:    opts.Location,
		clock:  opts.Clock,
		log:    opts.Logger.Named("reminder"),
		timers: clock.NewRegistry(opts.Clock),
		cfg:    opts.Config,
		tasks:  map[string]*ReminderTask{},
	}
}

// Start subscribes the streak check and the daily evaluation when
// reminders are enabled.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribeLocked()
}

func (s *Scheduler) subscribeLocked() {
	if s.closed || !s.cfg.Enabled {
		return
	}
	if s.cfg.StreakReminders {
		s.timers.Every(subStreakCheck, s.cfg.CheckInterval, s.CheckStreaks)
	}
	s.timers.Every(subEvaluate, s.cfg.EvaluationInterval, s.Evaluate)
	if s.cfg.InitialEvaluationDelay > 0 {
		s.timers.After(subInitial, s.cfg.InitialEvaluationDelay, s.Evaluate)
	}
	s.log.Debug("reminders subscribed",
		zap.Duration("check_interval", s.cfg.CheckInterval),
		zap.Duration("evaluation_interval", s.cfg.EvaluationInterval))
}

// cancelAllLocked stops every subscription and marks scheduled tasks
// cancelled.
func (s *Scheduler) cancelAllLocked() {
	s.timers.CancelAll()
	for _, t := range s.tasks {
		if t.State == TaskScheduled {
			t.State = TaskCancelled
		}
	}
}

// activeLocked reports whether reminders may currently go out.
func (s *Scheduler) activeLocked(now time.Time) bool {
	return !s.closed && s.cfg.Enabled && !now.Before(s.snoozedUntil)
}

// CheckStreaks warns about every streak that is long enough, at risk and
// inside the tracker's warning band. The band and MarkStreakWarned keep
// it to one warning per window.
func (s *Scheduler) CheckStreaks() {
	s.mu.Lock()
	now := s.clock.Now()
	if !s.activeLocked(now) || !s.cfg.StreakReminders {
		s.mu.Unlock()
		return
	}
	s.source.Refresh()
	var out []Notification
	for _, r := range s.source.GetStreaksAtRisk() {
		if r.CurrentStreak < s.cfg.StreakWarningThreshold {
			continue
		}
		if !s.source.ShouldSendStreakWarning(r.HabitID) {
			continue
		}
		n := streakWarning(r.HabitID, r.Name, r.CurrentStreak, r.HoursRemaining)
		n.Sound = s.cfg.SoundEnabled
		n.At = now
		s.source.MarkStreakWarned(r.HabitID)
		out = append(out, n)
		s.log.Info("streak warning",
			zap.String("habit", r.HabitID),
			zap.Int("streak", r.CurrentStreak),
			zap.String("urgency", string(n.Urgency)))
	}
	s.mu.Unlock()

	for _, n := range out {
		s.notify(n)
	}
}

// Evaluate decides whether to queue a motivational or encouragement
// reminder for today.
func (s *Scheduler) Evaluate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	if !s.activeLocked(now) {
		return
	}
	s.source.Refresh()

	if s.cfg.AdaptiveFrequency {
		if score := s.source.GetWeeklyActivityScore(); score > s.cfg.HighActivityScore {
			s.log.Debug("skipping evaluation for an engaged week", zap.Int("score", score))
			return
		}
	}

	idle := math.Inf(1)
	if last, ok := s.source.LastHabitCompletion(); ok {
		idle = now.Sub(last).Hours()
	}
	completedToday := s.source.CompletedToday()

	switch {
	case !completedToday && idle > s.cfg.MotivationalIdleHours:
		if s.cfg.MotivationalReminders {
			s.scheduleMotivationalLocked(now)
		}
	case completedToday && idle > s.cfg.EncouragementIdleHours:
		s.scheduleLocked(ReminderTask{
			Key:    taskEncourage,
			FireAt: now.Add(s.cfg.EncouragementDelay),
			Kind:   KindEncouragement,
		}, now)
	}
}

// scheduleMotivationalLocked queues a motivational reminder at the next
// good hour, aimed at the streak closest to lapsing if there is one.
func (s *Scheduler) scheduleMotivationalLocked(now time.Time) {
	task := ReminderTask{Key: taskMotivational, Kind: KindMotivational}
	if risks := s.source.GetStreaksAtRisk(); len(risks) > 0 {
		task.TargetHabitID = risks[0].HabitID
		task.Key = taskMotivational + ":" + risks[0].HabitID
		task.habitName = risks[0].Name
	}

	hours := []int{s.cfg.ReminderStartHour}
	if s.cfg.IntelligentTiming {
		hours = s.source.GetOptimalReminderTimes(task.TargetHabitID)
	}
	task.FireAt = s.nextHour(now, hours)
	s.scheduleLocked(task, now)
}

// nextHour returns the soonest top of an hour in hours, inside active
// hours and after now. It falls back to the next start of active hours.
func (s *Scheduler) nextHour(now time.Time, hours []int) time.Time {
	local := now.In(s.loc)
	var best time.Time
	for _, h := range hours {
		if !s.cfg.inActiveHours(h) {
			continue
		}
		at := time.Date(local.Year(), local.Month(), local.Day(), h, 0, 0, 0, s.loc)
		if !at.After(now) {
			at = time.Date(local.Year(), local.Month(), local.Day()+1, h, 0, 0, 0, s.loc)
		}
		if best.IsZero() || at.Before(best) {
			best = at
		}
	}
	if best.IsZero() {
		best = time.Date(local.Year(), local.Month(), local.Day(), s.cfg.ReminderStartHour, 0, 0, 0, s.loc)
		if !best.After(now) {
			best = best.AddDate(0, 0, 1)
		}
	}
	return best
}

func (s *Scheduler) scheduleLocked(task ReminderTask, now time.Time) {
	task.State = TaskScheduled
	t := task
	s.tasks[t.Key] = &t
	// A zero delay may run the callback synchronously, under s.mu.
	delay := max(t.FireAt.Sub(now), time.Millisecond)
	s.timers.After(t.Key, delay, func() { s.fire(t.Key) })
	s.log.Debug("reminder scheduled",
		zap.String("key", t.Key),
		zap.Time("fire_at", t.FireAt))
}

func (s *Scheduler) fire(key string) {
	s.mu.Lock()
	task, ok := s.tasks[key]
	now := s.clock.Now()
	if !ok || task.State != TaskScheduled || !s.activeLocked(now) {
		s.mu.Unlock()
		return
	}
	if !s.allowLocked(now) {
		task.State = TaskCancelled
		s.mu.Unlock()
		s.log.Debug("reminder suppressed by rate limit", zap.String("key", key))
		return
	}

	var n Notification
	switch task.Kind {
	case KindMotivational:
		n = motivational(task.TargetHabitID, task.habitName)
	default:
		n = encouragement()
	}
	n.Sound = s.cfg.SoundEnabled
	n.At = now
	task.State = TaskFired
	s.sentToday++
	s.mu.Unlock()

	s.log.Info("reminder sent", zap.String("key", key), zap.String("kind", string(n.Kind)))
	s.notify(n)
}

// allowLocked applies the active-hours window and the daily cap.
func (s *Scheduler) allowLocked(now time.Time) bool {
	local := now.In(s.loc)
	if day := local.Format("2006-01-02"); day != s.sentDay {
		s.sentDay = day
		s.sentToday = 0
	}
	if !s.cfg.inActiveHours(local.Hour()) {
		return false
	}
	return s.sentToday < s.cfg.MaxRemindersPerDay
}

// OnHabitCompleted drops reminders aimed at habitID and any motivational
// reminder, since something was just done today.
func (s *Scheduler) OnHabitCompleted(habitID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.tasks {
		if t.State != TaskScheduled {
			continue
		}
		if t.TargetHabitID == habitID || t.Kind == KindMotivational {
			s.timers.Cancel(key)
			t.State = TaskCancelled
			s.log.Debug("reminder cancelled by completion", zap.String("key", key), zap.String("habit", habitID))
		}
	}
}

// Snooze silences reminders for d and then restarts the pipeline.
func (s *Scheduler) Snooze(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancelAllLocked()
	if d <= 0 {
		s.snoozedUntil = time.Time{}
		s.subscribeLocked()
		return
	}
	s.snoozedUntil = s.clock.Now().Add(d)
	s.armSnoozeLocked(d)
	s.log.Info("reminders snoozed", zap.Duration("for", d))
}

func (s *Scheduler) armSnoozeLocked(d time.Duration) {
	s.timers.After(subSnooze, d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.snoozedUntil = time.Time{}
		s.subscribeLocked()
	})
}

// Pause cancels everything and disables reminders until Resume.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllLocked()
	s.cfg.Enabled = false
	s.log.Info("reminders paused")
}

// Resume enables reminders and re-subscribes.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllLocked()
	s.cfg.Enabled = true
	s.snoozedUntil = time.Time{}
	s.subscribeLocked()
	s.log.Info("reminders resumed")
}

// UpdateConfig swaps the configuration and re-subscribes under it.
func (s *Scheduler) UpdateConfig(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllLocked()
	s.cfg = cfg
	if now := s.clock.Now(); s.snoozedUntil.After(now) {
		s.armSnoozeLocked(s.snoozedUntil.Sub(now))
		return
	}
	s.subscribeLocked()
}

func (s *Scheduler) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Pending returns scheduled tasks, soonest first.
func (s *Scheduler) Pending() []ReminderTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLocked()
}

func (s *Scheduler) pendingLocked() []ReminderTask {
	var out []ReminderTask
	for _, t := range s.tasks {
		if t.State == TaskScheduled {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].FireAt.Before(out[j].FireAt)
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Task returns the last known state of key; unknown keys are idle.
func (s *Scheduler) Task(key string) ReminderTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[key]; ok {
		return *t
	}
	return ReminderTask{Key: key, State: TaskIdle}
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	sent := s.sentToday
	if s.clock.Now().In(s.loc).Format("2006-01-02") != s.sentDay {
		sent = 0
	}
	return Status{
		Enabled:      s.cfg.Enabled,
		SnoozedUntil: s.snoozedUntil,
		SentToday:    sent,
		Pending:      s.pendingLocked(),
	}
}

// Subscriptions lists the live evaluation timers, for diagnostics. The
// snooze wake-up is reported by SnoozeArmed instead.
func (s *Scheduler) Subscriptions() []string {
	var out []string
	for _, k := range s.timers.Keys() {
		if !strings.HasPrefix(k, taskPrefix) && k != subSnooze {
			out = append(out, k)
		}
	}
	return out
}

// SnoozeArmed reports whether a snooze wake-up timer is pending.
func (s *Scheduler) SnoozeArmed() bool {
	return s.timers.Pending(subSnooze)
}

// Close cancels every timer.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllLocked()
	s.closed = true
}
