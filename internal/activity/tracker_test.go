package activity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitquest/internal/clock"
	"habitquest/internal/storage"
)

var epoch = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func newTestTracker(t *testing.T, store storage.Store) (*Tracker, *clock.FakeClock) {
	t.Helper()
	fc := clock.Fake(epoch)
	tr := New(context.Background(), store, Options{Clock: fc, Location: time.UTC})
	t.Cleanup(tr.Close)
	return tr, fc
}

func TestStreakConsecutiveDays(t *testing.T) {
	tr, fc := newTestTracker(t, storage.NewMemoryStore(0))
	assert.Equal(t, 1, tr.RecordHabitCompletion("read", "Read").CurrentStreak)
	fc.Advance(24 * time.Hour)
	assert.Equal(t, 2, tr.RecordHabitCompletion("read", "Read").CurrentStreak)
}

func TestStreakResetsAfterGap(t *testing.T) {
	tr, fc := newTestTracker(t, storage.NewMemoryStore(0))
	tr.RecordHabitCompletion("read", "Read")
	fc.Advance(24 * time.Hour)
	tr.RecordHabitCompletion("read", "Read")
	fc.Advance(48 * time.Hour)
	assert.Equal(t, 1, tr.RecordHabitCompletion("read", "Read").CurrentStreak)
}

func TestStreakSameDayIsCountedOnce(t *testing.T) {
	tr, fc := newTestTracker(t, storage.NewMemoryStore(0))
	tr.RecordHabitCompletion("read", "Read")
	fc.Advance(3 * time.Hour)
	s := tr.RecordHabitCompletion("read", "Read")
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, epoch.Add(3*time.Hour), s.LastCompletionDate)
}

func TestStreakUsesCalendarDaysNotElapsedHours(t *testing.T) {
	fc := clock.Fake(time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC))
	tr := New(context.Background(), nil, Options{Clock: fc, Location: time.UTC})
	defer tr.Close()

	tr.RecordHabitCompletion("read", "Read")
	fc.Advance(time.Hour) // 00:30 the next day
	assert.Equal(t, 2, tr.RecordHabitCompletion("read", "Read").CurrentStreak)
}

func TestShouldSendStreakWarningBand(t *testing.T) {
	tr, fc := newTestTracker(t, storage.NewMemoryStore(0))
	tr.RecordHabitCompletion("read", "Read")

	fc.Advance(17 * time.Hour)
	assert.False(t, tr.ShouldSendStreakWarning("read"), "hour 17")
	fc.Advance(2 * time.Hour)
	assert.True(t, tr.ShouldSendStreakWarning("read"), "hour 19")
	fc.Advance(6 * time.Hour)
	assert.False(t, tr.ShouldSendStreakWarning("read"), "hour 25")
}

func TestWarningIsIssuedOncePerWindow(t *testing.T) {
	tr, fc := newTestTracker(t, storage.NewMemoryStore(0))
	tr.RecordHabitCompletion("read", "Read")
	fc.Advance(19 * time.Hour)
	require.True(t, tr.ShouldSendStreakWarning("read"))

	tr.MarkStreakWarned("read")
	assert.False(t, tr.ShouldSendStreakWarning("read"))

	fc.Advance(2 * time.Hour)
	tr.RecordHabitCompletion("read", "Read")
	s, ok := tr.Streak("read")
	require.True(t, ok)
	assert.False(t, s.StreakRisk, "a completion clears the warned flag")
	assert.Equal(t, 2, s.CurrentStreak)
}

func TestGetStreaksAtRisk(t *testing.T) {
	tr, fc := newTestTracker(t, storage.NewMemoryStore(0))
	tr.RecordHabitCompletion("read", "Read")
	fc.Advance(2 * time.Hour)
	tr.RecordHabitCompletion("walk", "Walk")

	fc.Advance(3 * time.Hour) // read at 5h, walk at 3h since completion
	risks := tr.GetStreaksAtRisk()
	require.Len(t, risks, 1)
	assert.Equal(t, "read", risks[0].HabitID)
	assert.Equal(t, "Read", risks[0].Name)
	assert.InDelta(t, 19.0, risks[0].HoursRemaining, 1e-9)

	fc.Advance(2 * time.Hour)
	risks = tr.GetStreaksAtRisk()
	require.Len(t, risks, 2)
	assert.Equal(t, "read", risks[0].HabitID, "soonest lapse first")

	fc.Advance(18 * time.Hour) // read at 25h: lapsed
	risks = tr.GetStreaksAtRisk()
	require.Len(t, risks, 1)
	assert.Equal(t, "walk", risks[0].HabitID)
}

func TestWeeklyActivityScoreAllDays(t *testing.T) {
	tr, fc := newTestTracker(t, storage.NewMemoryStore(0))
	for day := 1; day < 7; day++ {
		fc.Advance(24 * time.Hour)
		tr.Focus()
	}
	assert.Equal(t, 100, tr.GetWeeklyActivityScore())
}

func TestWeeklyActivityScoreNoRecentDays(t *testing.T) {
	tr, fc := newTestTracker(t, storage.NewMemoryStore(0))
	fc.Advance(8 * 24 * time.Hour)
	_, open := tr.SessionInfo()
	require.False(t, open, "inactivity should have closed the launch session")
	assert.Equal(t, 0, tr.GetWeeklyActivityScore())
}

func TestWeeklyActivityScoreRounds(t *testing.T) {
	tr, fc := newTestTracker(t, storage.NewMemoryStore(0))
	fc.Advance(24 * time.Hour)
	tr.Focus()
	// Two of seven days.
	assert.Equal(t, 29, tr.GetWeeklyActivityScore())
}

func TestSessionAverageFolds(t *testing.T) {
	store := storage.NewMemoryStore(0)
	tr, fc := newTestTracker(t, store)

	fc.Advance(10 * time.Minute)
	tr.Unload()
	log := tr.Snapshot()
	assert.Equal(t, 10*time.Minute, log.AverageSessionLength)
	assert.Equal(t, 1, log.DailySessions["2026-03-02"])

	fc.Advance(time.Hour)
	tr.Focus()
	fc.Advance(10 * time.Minute)
	tr.RecordInteraction(InteractionKey)
	fc.Advance(10 * time.Minute)
	tr.RecordInteraction(InteractionScroll)
	fc.Advance(30 * time.Minute) // inactivity closes at the last interaction

	log = tr.Snapshot()
	assert.Equal(t, 2, log.TotalSessions)
	assert.Equal(t, 15*time.Minute, log.AverageSessionLength)
	assert.Equal(t, 2, log.DailySessions["2026-03-02"])
}

func TestInteractionExtendsSession(t *testing.T) {
	tr, fc := newTestTracker(t, storage.NewMemoryStore(0))
	first, ok := tr.SessionInfo()
	require.True(t, ok)

	for i := 0; i < 4; i++ {
		fc.Advance(10 * time.Minute)
		tr.RecordInteraction(InteractionPointer)
	}
	s, ok := tr.SessionInfo()
	require.True(t, ok)
	assert.Equal(t, first.ID, s.ID)
	assert.Equal(t, 4, s.InteractionCount)

	tr.RecordInteraction("wheel")
	s, _ = tr.SessionInfo()
	assert.Equal(t, 4, s.InteractionCount, "unknown kinds are ignored")
}

func TestBlurKeepsSessionOpen(t *testing.T) {
	tr, fc := newTestTracker(t, storage.NewMemoryStore(0))
	fc.Advance(5 * time.Minute)
	tr.Blur()
	_, ok := tr.SessionInfo()
	assert.True(t, ok)
	assert.Equal(t, 1, tr.Snapshot().TotalSessions)
}

func TestOptimalReminderTimes(t *testing.T) {
	tr, fc := newTestTracker(t, storage.NewMemoryStore(0))
	assert.Equal(t, []int{9, 14, 19}, tr.GetOptimalReminderTimes(""))

	at := func(day, hour int) {
		fc.Set(time.Date(2026, 3, 2+day, hour, 0, 0, 0, time.UTC))
	}
	at(1, 9)
	tr.RecordHabitCompletion("read", "Read")
	at(1, 20)
	tr.RecordHabitCompletion("walk", "Walk")
	at(2, 7)
	tr.RecordHabitCompletion("walk", "Walk")
	at(2, 9)
	tr.RecordHabitCompletion("read", "Read")
	at(2, 14)
	tr.RecordHabitCompletion("read", "Read")
	at(3, 20)
	tr.RecordHabitCompletion("walk", "Walk")

	assert.Equal(t, []int{9, 20, 7}, tr.GetOptimalReminderTimes(""))
	assert.Equal(t, []int{9, 14}, tr.GetOptimalReminderTimes("read"))
	assert.Equal(t, []int{9, 14, 19}, tr.GetOptimalReminderTimes("unknown"))
}

func TestCompletionTimesAreBounded(t *testing.T) {
	fc := clock.Fake(epoch)
	tr := New(context.Background(), nil, Options{Clock: fc, Location: time.UTC, MaxCompletionTimes: 3})
	defer tr.Close()

	for i := 0; i < 5; i++ {
		fc.Advance(time.Hour)
		tr.RecordHabitCompletion("read", "Read")
	}
	times := tr.Snapshot().HabitCompletionTimes["read"]
	require.Len(t, times, 3)
	assert.Equal(t, epoch.Add(3*time.Hour), times[0])
	assert.Equal(t, epoch.Add(5*time.Hour), times[2])
}

func TestCompletedToday(t *testing.T) {
	tr, fc := newTestTracker(t, storage.NewMemoryStore(0))
	assert.False(t, tr.CompletedToday())
	tr.RecordHabitCompletion("read", "Read")
	assert.True(t, tr.CompletedToday())
	fc.Advance(16 * time.Hour) // 00:00 next day
	assert.False(t, tr.CompletedToday())

	last, ok := tr.LastHabitCompletion()
	require.True(t, ok)
	assert.Equal(t, epoch, last)
}

func TestListenersRunWithoutLock(t *testing.T) {
	tr, _ := newTestTracker(t, storage.NewMemoryStore(0))
	var got []int
	tr.OnHabitCompleted(func(id string) {
		s, _ := tr.Streak(id)
		got = append(got, s.CurrentStreak)
	})
	tr.RecordHabitCompletion("read", "Read")
	assert.Equal(t, []int{1}, got)

	s, ok := tr.SessionInfo()
	require.True(t, ok)
	assert.Equal(t, []string{"read"}, s.HabitCompletions)
}

func TestLogPersistsAcrossTrackers(t *testing.T) {
	store := storage.NewMemoryStore(0)
	fc := clock.Fake(epoch)
	first := New(context.Background(), store, Options{Clock: fc, Location: time.UTC})
	first.RecordHabitCompletion("read", "Read")
	fc.Advance(24 * time.Hour)
	first.RecordHabitCompletion("read", "Read")
	first.MarkStreakWarned("read")
	first.Close()

	second := New(context.Background(), store, Options{Clock: fc, Location: time.UTC})
	defer second.Close()
	s, ok := second.Streak("read")
	require.True(t, ok)
	assert.Equal(t, 2, s.CurrentStreak)
	assert.True(t, s.StreakRisk)
	assert.Equal(t, "Read", second.HabitName("read"))

	log := second.Snapshot()
	assert.Equal(t, 3, log.TotalSessions, "two earlier sessions plus the one New opened")
	assert.Len(t, log.HabitCompletionTimes["read"], 2)
	assert.True(t, log.LastHabitCompletion.Equal(epoch.Add(24*time.Hour)))
}

func TestCorruptLogStartsFresh(t *testing.T) {
	store := storage.NewMemoryStore(0)
	store.Raw(DefaultKey, "\xff\x00garbage")
	tr, _ := newTestTracker(t, store)
	log := tr.Snapshot()
	assert.Equal(t, 1, log.TotalSessions)
	assert.Empty(t, log.StreakData)
}

func TestPersistFailureIsNotFatal(t *testing.T) {
	store := storage.NewMemoryStore(0)
	store.FailSet = func(string) error { return storage.ErrQuotaExceeded }
	tr, _ := newTestTracker(t, store)
	s := tr.RecordHabitCompletion("read", "Read")
	assert.Equal(t, 1, s.CurrentStreak)
}

func TestTrackersSharingAStoreMergeLogs(t *testing.T) {
	store := storage.NewMemoryStore(0)
	fc := clock.Fake(epoch)
	opts := Options{Clock: fc, Location: time.UTC}

	daemon := New(context.Background(), store, opts)
	fc.Advance(time.Minute)
	cli := New(context.Background(), store, opts)
	cli.RecordHabitCompletion("read", "Read")
	cli.Close()

	fc.Advance(time.Minute)
	daemon.Close()

	reopened := New(context.Background(), store, opts)
	defer reopened.Close()
	s, ok := reopened.Streak("read")
	require.True(t, ok, "completion from the other tracker survives")
	assert.Equal(t, 1, s.CurrentStreak)
	last, ok := reopened.LastHabitCompletion()
	require.True(t, ok)
	assert.True(t, last.Equal(epoch.Add(time.Minute)))

	log := reopened.Snapshot()
	assert.Equal(t, 3, log.TotalSessions)
	assert.Equal(t, 2, log.DailySessions["2026-03-02"])
	assert.Len(t, log.HabitCompletionTimes["read"], 1)
}

func TestRefreshPicksUpOtherCompletions(t *testing.T) {
	store := storage.NewMemoryStore(0)
	fc := clock.Fake(epoch)
	opts := Options{Clock: fc, Location: time.UTC}

	daemon := New(context.Background(), store, opts)
	defer daemon.Close()
	cli := New(context.Background(), store, opts)
	cli.RecordHabitCompletion("walk", "Walk")
	cli.Close()

	assert.False(t, daemon.CompletedToday())
	daemon.Refresh()
	assert.True(t, daemon.CompletedToday())
	assert.Equal(t, "Walk", daemon.HabitName("walk"))
}

func TestMergeLogKeepsNewerStreak(t *testing.T) {
	older := StreakData{CurrentStreak: 3, LastCompletionDate: epoch}
	newer := StreakData{CurrentStreak: 4, LastCompletionDate: epoch.Add(24 * time.Hour)}
	warned := older
	warned.StreakRisk = true

	assert.Equal(t, newer, newerStreak(warned, newer))
	assert.Equal(t, newer, newerStreak(newer, warned))
	assert.True(t, newerStreak(older, warned).StreakRisk)

	times := unionTimes([]time.Time{epoch, epoch.Add(time.Hour)}, []time.Time{epoch.Add(time.Hour), epoch.Add(2 * time.Hour)}, 2)
	assert.Equal(t, []time.Time{epoch.Add(time.Hour), epoch.Add(2 * time.Hour)}, times)
}
