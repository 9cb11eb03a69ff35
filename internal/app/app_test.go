package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"habitquest/internal/clock"
	"habitquest/internal/config"
	"habitquest/internal/engine"
	"habitquest/internal/persist"
	"habitquest/internal/reminder"
	"habitquest/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Activity.Timezone = "UTC"
	cfg.Persistence.RetryBackoff = 0
	return cfg
}

func openTestApp(t *testing.T, store storage.Store, clk *clock.FakeClock) *App {
	t.Helper()
	a, err := Open(context.Background(), Options{
		Config:     testConfig(),
		Store:      store,
		Clock:      clk,
		Registerer: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	return a
}

func TestCompletionCancelsMotivationalReminder(t *testing.T) {
	store := storage.NewMemoryStore(0)
	clk := clock.Fake(epoch)
	a := openTestApp(t, store, clk)
	defer a.Close(context.Background())

	h, err := a.Service.CreateHabit(engine.HabitInput{Name: "Read"})
	require.NoError(t, err)

	a.Reminders.Evaluate()
	pending := a.Reminders.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, reminder.KindMotivational, pending[0].Kind)
	assert.True(t, pending[0].FireAt.Equal(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)), "fire at %v", pending[0].FireAt)

	res, err := a.Service.CompleteHabit(h.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak.CurrentStreak)
	assert.Empty(t, a.Reminders.Pending(), "completion should cancel the motivational reminder")
}

func TestReminderNotificationsReachEverySink(t *testing.T) {
	store := storage.NewMemoryStore(0)
	clk := clock.Fake(epoch)
	var fromOpts, fromSink []reminder.Notification
	a, err := Open(context.Background(), Options{
		Config: testConfig(),
		Store:  store,
		Clock:  clk,
		Notify: func(n reminder.Notification) { fromOpts = append(fromOpts, n) },
	})
	require.NoError(t, err)
	defer a.Close(context.Background())
	a.OnNotify(func(n reminder.Notification) { fromSink = append(fromSink, n) })

	a.Reminders.Evaluate()
	clk.Advance(time.Hour)

	require.Len(t, fromOpts, 1)
	require.Len(t, fromSink, 1)
	assert.Equal(t, reminder.KindMotivational, fromOpts[0].Kind)
	assert.Equal(t, fromOpts[0], fromSink[0])
}

func TestStateSurvivesReopen(t *testing.T) {
	store := storage.NewMemoryStore(0)
	clk := clock.Fake(epoch)

	a := openTestApp(t, store, clk)
	h, err := a.Service.CreateHabit(engine.HabitInput{Name: "Stretch", Difficulty: engine.DifficultyEasy})
	require.NoError(t, err)
	_, err = a.Service.CompleteHabit(h.ID)
	require.NoError(t, err)
	assert.Equal(t, persist.SourceNone, a.LoadSource)
	require.NoError(t, a.Close(context.Background()))
	require.NoError(t, a.Close(context.Background()), "second close is a no-op")

	clk.Advance(time.Hour)
	b := openTestApp(t, store, clk)
	defer b.Close(context.Background())

	assert.Equal(t, persist.SourcePrimary, b.LoadSource)
	list := b.Service.ListHabits(false)
	require.Len(t, list, 1)
	assert.True(t, list[0].Done)
	assert.Equal(t, 1, list[0].Streak)
	assert.Equal(t, 100, b.Service.Status().TotalXP)
}

func TestPauseIsRemembered(t *testing.T) {
	store := storage.NewMemoryStore(0)
	clk := clock.Fake(epoch)

	a := openTestApp(t, store, clk)
	a.StartReminders()
	require.NotEmpty(t, a.Reminders.Subscriptions())
	require.NoError(t, a.PauseReminders())
	assert.Empty(t, a.Reminders.Subscriptions())
	require.NoError(t, a.Close(context.Background()))

	b := openTestApp(t, store, clk)
	defer b.Close(context.Background())
	b.StartReminders()
	assert.False(t, b.Reminders.Config().Enabled)
	assert.Empty(t, b.Reminders.Subscriptions())

	// A config reload does not override the user's pause.
	b.ApplyReminderConfig(reminder.DefaultConfig())
	assert.False(t, b.Reminders.Config().Enabled)

	require.NoError(t, b.ResumeReminders())
	assert.True(t, b.Reminders.Config().Enabled)
	assert.NotEmpty(t, b.Reminders.Subscriptions())
}

func TestSnoozeIsRestored(t *testing.T) {
	store := storage.NewMemoryStore(0)
	clk := clock.Fake(epoch)

	a := openTestApp(t, store, clk)
	until, err := a.SnoozeReminders(2 * time.Hour)
	require.NoError(t, err)
	assert.True(t, until.Equal(epoch.Add(2*time.Hour)))
	require.NoError(t, a.Close(context.Background()))

	clk.Advance(30 * time.Minute)
	b := openTestApp(t, store, clk)
	defer b.Close(context.Background())
	stored, ok := b.SnoozedUntil()
	require.True(t, ok, "the stored snooze is visible before reminders start")
	assert.True(t, until.Equal(stored))
	b.StartReminders()
	assert.True(t, until.Equal(b.Reminders.Status().SnoozedUntil))
	assert.Empty(t, b.Reminders.Subscriptions())
	assert.True(t, b.Reminders.SnoozeArmed())

	clk.Advance(90 * time.Minute)
	assert.NotEmpty(t, b.Reminders.Subscriptions(), "reminders resume once the snooze ends")
	assert.False(t, b.Reminders.SnoozeArmed())
	_, ok = b.SnoozedUntil()
	assert.False(t, ok)
}

func TestDailySessionsKeepBackups(t *testing.T) {
	store := storage.NewMemoryStore(0)
	clk := clock.Fake(epoch)

	a := openTestApp(t, store, clk)
	h, err := a.Service.CreateHabit(engine.HabitInput{Name: "Read"})
	require.NoError(t, err)
	require.NoError(t, a.Close(context.Background()))

	for day := 1; day <= 4; day++ {
		clk.Advance(24 * time.Hour)
		a := openTestApp(t, store, clk)
		_, err := a.Service.CompleteHabit(h.ID)
		require.NoError(t, err)
		require.NoError(t, a.Close(context.Background()))
	}

	a = openTestApp(t, store, clk)
	defer a.Close(context.Background())
	backups, err := a.Persist.ListBackups(context.Background())
	require.NoError(t, err)
	assert.Len(t, backups, 5)
}

func TestOpenWithSQLite(t *testing.T) {
	cfg := testConfig()
	cfg.DataDir = t.TempDir()

	a, err := Open(context.Background(), Options{Config: cfg})
	require.NoError(t, err)
	_, err = a.Service.CreateHabit(engine.HabitInput{Name: "Walk"})
	require.NoError(t, err)
	require.NoError(t, a.Close(context.Background()))

	_, err = os.Stat(filepath.Join(cfg.DataDir, "habitquest.db"))
	require.NoError(t, err)

	b, err := Open(context.Background(), Options{Config: cfg})
	require.NoError(t, err)
	defer b.Close(context.Background())
	assert.Len(t, b.Service.ListHabits(false), 1)
}
