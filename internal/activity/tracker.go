// Package activity records sessions and habit completions and derives
// streak and engagement signals from them.
package activity

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"habitquest/internal/clock"
	"habitquest/internal/codec"
	"habitquest/internal/storage"
)

const (
	DefaultKey = "habitquest_activity"

	inactivityTimer = "activity:inactivity"
)

// DefaultReminderHours is returned by GetOptimalReminderTimes when there
// is no completion history.
var DefaultReminderHours = []int{9, 14, 19}

type Options struct {
	Key               string
	InactivityTimeout time.Duration

	// RiskWindowHours bounds how far ahead of a lapse a streak counts as
	// at risk.
	RiskWindowHours float64

	// WarningAfterHours opens the warning band; it closes at 24 hours.
	WarningAfterHours float64

	MaxCompletionTimes int
	Location           *time.Location
	Clock              clock.Clock
	Logger             *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		Key:                DefaultKey,
		InactivityTimeout:  15 * time.Minute,
		RiskWindowHours:    20,
		WarningAfterHours:  18,
		MaxCompletionTimes: 200,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Key == "" {
		o.Key = d.Key
	}
	if o.InactivityTimeout <= 0 {
		o.InactivityTimeout = d.InactivityTimeout
	}
	if o.RiskWindowHours <= 0 {
		o.RiskWindowHours = d.RiskWindowHours
	}
	if o.WarningAfterHours <= 0 {
		o.WarningAfterHours = d.WarningAfterHours
	}
	if o.MaxCompletionTimes <= 0 {
		o.MaxCompletionTimes = d.MaxCompletionTimes
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

type Tracker struct {
	store  storage.Store
	opts   Options
	log    *zap.Logger
	timers *clock.Registry

	mu        sync.Mutex
	data      Log
	session   *Session
	listeners []func(habitID string)
	closed    bool

	// synced is the stored log data was last merged with or written as.
	synced Log
}

// New loads the stored log, best-effort, and opens a session.
func New(ctx context.Context, store storage.Store, opts Options) *Tracker {
	opts = opts.withDefaults()
	t := &Tracker{
		store:  store,
		opts:   opts,
		log:    opts.Logger.Named("activity"),
		timers: clock.NewRegistry(opts.Clock),
		data:   newLog(),
		synced: newLog(),
	}
	t.load(ctx)

	t.mu.Lock()
	t.startSessionLocked(opts.Clock.Now())
	t.persistLocked()
	t.mu.Unlock()
	return t
}

func (t *Tracker) load(ctx context.Context) {
	if t.store == nil {
		return
	}
	if l, ok := t.readLocked(ctx); ok {
		t.data = l
		t.synced = l.clone()
	}
}

// readLocked returns the stored log. Missing, unreadable and corrupt logs
// all report false.
func (t *Tracker) readLocked(ctx context.Context) (Log, bool) {
	raw, ok, err := t.store.Get(ctx, t.opts.Key)
	if err != nil {
		t.log.Warn("activity log unreadable", zap.Error(err))
		return Log{}, false
	}
	if !ok {
		return Log{}, false
	}
	var l Log
	if err := codec.Unmarshal([]byte(raw), &l); err != nil {
		t.log.Warn("activity log corrupt", zap.Error(err))
		return Log{}, false
	}
	l.normalize()
	return l, true
}

// persistLocked merges whatever another process stored since the last
// sync and writes the result. Failures are logged and otherwise ignored.
func (t *Tracker) persistLocked() {
	if t.store == nil {
		return
	}
	ctx := context.Background()
	if stored, ok := t.readLocked(ctx); ok {
		t.data = mergeLog(t.data, t.synced, stored, t.opts.MaxCompletionTimes)
		t.synced = stored
	}
	raw, err := codec.Marshal(t.data)
	if err != nil {
		t.log.Warn("activity log encode failed", zap.Error(err))
		return
	}
	if err := t.store.Set(ctx, t.opts.Key, string(raw)); err != nil {
		t.log.Warn("activity log write failed", zap.Error(err))
		return
	}
	t.synced = t.data.clone()
}

// Refresh merges completions and sessions stored by other processes, such
// as a CLI command run while a long-lived host is open.
func (t *Tracker) Refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.store == nil || t.closed {
		return
	}
	if stored, ok := t.readLocked(context.Background()); ok {
		t.data = mergeLog(t.data, t.synced, stored, t.opts.MaxCompletionTimes)
		t.synced = stored
	}
}

// OnHabitCompleted registers fn to run after every recorded completion.
// Listeners run without the tracker lock held.
func (t *Tracker) OnHabitCompleted(fn func(habitID string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// RecordHabitCompletion logs a completion of habitID now and returns the
// habit's updated streak.
func (t *Tracker) RecordHabitCompletion(habitID, name string) StreakData {
	t.mu.Lock()
	now := t.opts.Clock.Now()
	if !t.closed {
		t.touchLocked(now)
		t.session.HabitCompletions = append(t.session.HabitCompletions, habitID)
	}

	times := append(t.data.HabitCompletionTimes[habitID], now)
	if extra := len(times) - t.opts.MaxCompletionTimes; extra > 0 {
		times = append([]time.Time(nil), times[extra:]...)
	}
	t.data.HabitCompletionTimes[habitID] = times
	if name != "" {
		t.data.HabitNames[habitID] = name
	}
	t.data.LastHabitCompletion = now

	prev, seen := t.data.StreakData[habitID]
	next := nextStreak(prev, seen, now, t.opts.Location)
	t.data.StreakData[habitID] = next
	t.persistLocked()

	listeners := append([]func(string){}, t.listeners...)
	t.mu.Unlock()

	t.log.Debug("habit completed",
		zap.String("habit", habitID),
		zap.Int("streak", next.CurrentStreak))
	for _, fn := range listeners {
		fn(habitID)
	}
	return next
}

// NextStreak returns the streak RecordHabitCompletion would produce for
// habitID now, without recording anything.
func (t *Tracker) NextStreak(habitID string) StreakData {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, seen := t.data.StreakData[habitID]
	return nextStreak(prev, seen, t.opts.Clock.Now(), t.opts.Location)
}

// RecordInteraction keeps the session alive, opening one if needed.
func (t *Tracker) RecordInteraction(kind InteractionKind) {
	if !kind.IsValid() {
		t.log.Debug("ignoring unknown interaction", zap.String("kind", string(kind)))
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.touchLocked(t.opts.Clock.Now())
}

// Focus is called when the app regains focus.
func (t *Tracker) Focus() {
	t.RecordInteraction(InteractionFocus)
}

// Blur notes the app losing focus. The session stays open until the
// inactivity timeout or Unload.
func (t *Tracker) Blur() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session != nil {
		t.session.LastActivity = t.opts.Clock.Now()
	}
}

// Unload closes the open session, as when the app exits.
func (t *Tracker) Unload() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return
	}
	t.closeSessionLocked(t.opts.Clock.Now())
	t.persistLocked()
}

// Close ends the session, stops timers and persists the log.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if t.session != nil {
		t.closeSessionLocked(t.opts.Clock.Now())
	}
	t.timers.CancelAll()
	t.closed = true
	t.persistLocked()
}

// touchLocked records activity at now, opening a session when none is
// open, and restarts the inactivity timer.
func (t *Tracker) touchLocked(now time.Time) {
	if t.session == nil {
		t.startSessionLocked(now)
		t.persistLocked()
	}
	t.session.LastActivity = now
	t.session.InteractionCount++
	t.timers.After(inactivityTimer, t.opts.InactivityTimeout, t.onInactive)
}

func (t *Tracker) startSessionLocked(now time.Time) {
	t.session = &Session{
		ID:           uuid.NewString(),
		StartTime:    now,
		LastActivity: now,
	}
	t.data.TotalSessions++
	t.data.LastAppOpen = now
	t.timers.After(inactivityTimer, t.opts.InactivityTimeout, t.onInactive)
	t.log.Debug("session started", zap.String("session", t.session.ID))
}

func (t *Tracker) onInactive() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil || t.closed {
		return
	}
	t.closeSessionLocked(t.session.LastActivity)
	t.persistLocked()
}

// closeSessionLocked folds the session into the running average and the
// per-day counter for the day it started.
func (t *Tracker) closeSessionLocked(end time.Time) {
	s := t.session
	t.session = nil
	t.timers.Cancel(inactivityTimer)

	s.EndTime = &end
	d := end.Sub(s.StartTime)
	if d < 0 {
		d = 0
	}
	n := t.data.TotalSessions
	if n < 1 {
		n = 1
	}
	t.data.AverageSessionLength = (t.data.AverageSessionLength*time.Duration(n-1) + d) / time.Duration(n)
	t.data.DailySessions[dateKey(s.StartTime, t.opts.Location)]++
	t.log.Debug("session closed",
		zap.String("session", s.ID),
		zap.Duration("length", d),
		zap.Int("interactions", s.InteractionCount))
}

// GetStreaksAtRisk returns habits whose streak lapses within the risk
// window, soonest first.
func (t *Tracker) GetStreaksAtRisk() []StreakRisk {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.opts.Clock.Now()
	var out []StreakRisk
	for id, s := range t.data.StreakData {
		if s.CurrentStreak <= 0 {
			continue
		}
		remaining := 24 - now.Sub(s.LastCompletionDate).Hours()
		if remaining <= 0 || remaining > t.opts.RiskWindowHours {
			continue
		}
		out = append(out, StreakRisk{
			HabitID:        id,
			Name:           t.data.HabitNames[id],
			CurrentStreak:  s.CurrentStreak,
			HoursRemaining: remaining,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].HoursRemaining != out[j].HoursRemaining {
			return out[i].HoursRemaining < out[j].HoursRemaining
		}
		return out[i].HabitID < out[j].HabitID
	})
	return out
}

// ShouldSendStreakWarning reports whether habitID is inside the warning
// band and has not been warned for this window yet.
func (t *Tracker) ShouldSendStreakWarning(habitID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.data.StreakData[habitID]
	if !ok || s.CurrentStreak <= 0 || s.StreakRisk {
		return false
	}
	h := t.opts.Clock.Now().Sub(s.LastCompletionDate).Hours()
	return h >= t.opts.WarningAfterHours && h < 24
}

// MarkStreakWarned records that a warning went out for habitID's current
// window.
func (t *Tracker) MarkStreakWarned(habitID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.data.StreakData[habitID]
	if !ok {
		return
	}
	s.StreakRisk = true
	t.data.StreakData[habitID] = s
	t.persistLocked()
}

// GetWeeklyActivityScore is the rounded percentage of the last seven
// calendar days, today included, with at least one session.
func (t *Tracker) GetWeeklyActivityScore() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.opts.Clock.Now().In(t.opts.Location)
	open := ""
	if t.session != nil {
		open = dateKey(t.session.StartTime, t.opts.Location)
	}
	y, m, d := now.Date()
	active := 0
	for i := 0; i < 7; i++ {
		key := time.Date(y, m, d-i, 12, 0, 0, 0, t.opts.Location).Format("2006-01-02")
		if t.data.DailySessions[key] >= 1 || key == open {
			active++
		}
	}
	return int(math.Round(float64(active) * 100 / 7))
}

// GetOptimalReminderTimes returns up to three hours of day when habitID,
// or any habit when habitID is empty, is most often completed. Ties go to
// the earlier hour.
func (t *Tracker) GetOptimalReminderTimes(habitID string) []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	var counts [24]int
	total := 0
	for id, times := range t.data.HabitCompletionTimes {
		if habitID != "" && id != habitID {
			continue
		}
		for _, ts := range times {
			counts[ts.In(t.opts.Location).Hour()]++
			total++
		}
	}
	if total == 0 {
		return append([]int(nil), DefaultReminderHours...)
	}
	hours := make([]int, 0, 24)
	for h, c := range counts {
		if c > 0 {
			hours = append(hours, h)
		}
	}
	sort.SliceStable(hours, func(i, j int) bool { return counts[hours[i]] > counts[hours[j]] })
	if len(hours) > 3 {
		hours = hours[:3]
	}
	return hours
}

// CompletedToday reports whether any habit was completed on today's
// calendar date.
func (t *Tracker) CompletedToday() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.data.LastHabitCompletion.IsZero() {
		return false
	}
	return dayDiff(t.data.LastHabitCompletion, t.opts.Clock.Now(), t.opts.Location) == 0
}

func (t *Tracker) LastHabitCompletion() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data.LastHabitCompletion, !t.data.LastHabitCompletion.IsZero()
}

func (t *Tracker) Streak(habitID string) (StreakData, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.data.StreakData[habitID]
	return s, ok
}

func (t *Tracker) HabitName(habitID string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data.HabitNames[habitID]
}

// Snapshot returns a copy of the log.
func (t *Tracker) Snapshot() Log {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data.clone()
}

// SessionInfo returns a copy of the open session.
func (t *Tracker) SessionInfo() (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return Session{}, false
	}
	s := *t.session
	s.HabitCompletions = append([]string(nil), s.HabitCompletions...)
	return s, true
}
