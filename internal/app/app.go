// Package app owns one instance of each core component and wires them
// together for the CLI and the board.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"habitquest/internal/activity"
	"habitquest/internal/clock"
	"habitquest/internal/config"
	"habitquest/internal/engine"
	"habitquest/internal/persist"
	"habitquest/internal/reminder"
	"habitquest/internal/storage"
)

type Options struct {
	Config *config.Config

	// Store replaces the SQLite store; the host does not close it.
	Store storage.Store

	Clock      clock.Clock
	Logger     *zap.Logger
	Registerer prometheus.Registerer
	Notify     func(reminder.Notification)
}

type App struct {
	Config     *config.Config
	Store      storage.Store
	Persist    *persist.Engine
	Tracker    *activity.Tracker
	Reminders  *reminder.Scheduler
	Service    *engine.Service
	LoadSource persist.LoadSource

	log   *zap.Logger
	clock clock.Clock
	db    *sql.DB

	notifyMu sync.Mutex
	sinks    []func(reminder.Notification)

	closeOnce sync.Once
	closeErr  error
}

// Open builds the components, loads the stored document and wires
// tracker completions into the reminder scheduler. Reminders are not
// started; call StartReminders for long-running surfaces.
func Open(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Store:  opts.Store,
		log:    opts.Logger,
		clock:  opts.Clock,
	}
	if opts.Notify != nil {
		a.OnNotify(opts.Notify)
	}
	if a.Store == nil {
		path, err := cfg.DatabasePath()
		if err != nil {
			return nil, err
		}
		db, err := storage.Open(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.db = db
		a.Store = storage.NewSQLiteStore(db, cfg.Persistence.QuotaBytes)
		a.log.Debug("store opened", zap.String("path", path))
	}

	popts, err := cfg.PersistOptions()
	if err != nil {
		a.closeDB()
		return nil, err
	}
	popts.Clock = opts.Clock
	popts.Logger = opts.Logger
	popts.Metrics = persist.NewMetrics(opts.Registerer)
	a.Persist, err = persist.New(a.Store, popts)
	if err != nil {
		a.closeDB()
		return nil, err
	}
	_, a.LoadSource = a.Persist.Load(ctx, a.Persist.Key())
	a.Persist.Start(ctx)
	a.log.Debug("document loaded", zap.Stringer("source", a.LoadSource))

	aopts, err := cfg.ActivityOptions()
	if err != nil {
		_ = a.Persist.Close(ctx)
		a.closeDB()
		return nil, err
	}
	aopts.Clock = opts.Clock
	aopts.Logger = opts.Logger
	a.Tracker = activity.New(ctx, a.Store, aopts)

	a.Reminders = reminder.New(a.Tracker, a.dispatch, reminder.Options{
		Config:   a.reminderConfig(cfg.Reminders),
		Location: loc,
		Clock:    opts.Clock,
		Logger:   opts.Logger,
	})
	a.Tracker.OnHabitCompleted(a.Reminders.OnHabitCompleted)

	a.Service = engine.NewService(a.Persist, engine.Options{
		Recorder: a.Tracker,
		Clock:    opts.Clock,
		Location: loc,
	})
	return a, nil
}

// OnNotify adds a receiver for reminder notifications.
func (a *App) OnNotify(fn func(reminder.Notification)) {
	a.notifyMu.Lock()
	defer a.notifyMu.Unlock()
	a.sinks = append(a.sinks, fn)
}

func (a *App) dispatch(n reminder.Notification) {
	a.notifyMu.Lock()
	sinks := append([]func(reminder.Notification){}, a.sinks...)
	a.notifyMu.Unlock()
	for _, fn := range sinks {
		fn(n)
	}
}

// reminderConfig overlays the user's stored reminder settings on cfg.
func (a *App) reminderConfig(cfg reminder.Config) reminder.Config {
	settings := a.Persist.Current().Settings
	if settings.RemindersPaused {
		cfg.Enabled = false
	}
	return cfg
}

// StartReminders subscribes the scheduler and restores a stored snooze.
func (a *App) StartReminders() {
	a.Reminders.Start()
	if until, ok := a.SnoozedUntil(); ok {
		a.Reminders.Snooze(until.Sub(a.clock.Now()))
	}
}

// SnoozedUntil returns the stored snooze deadline while it is still ahead
// and reminders are not paused.
func (a *App) SnoozedUntil() (time.Time, bool) {
	settings := a.Persist.Current().Settings
	if settings.SnoozedUntil == nil || settings.RemindersPaused {
		return time.Time{}, false
	}
	if !settings.SnoozedUntil.After(a.clock.Now()) {
		return time.Time{}, false
	}
	return *settings.SnoozedUntil, true
}

// ApplyReminderConfig swaps in reloaded reminder settings.
func (a *App) ApplyReminderConfig(cfg reminder.Config) {
	a.Reminders.UpdateConfig(a.reminderConfig(cfg))
}

func (a *App) PauseReminders() error {
	if err := a.Service.SetRemindersPaused(true); err != nil {
		return err
	}
	a.Reminders.Pause()
	return nil
}

func (a *App) ResumeReminders() error {
	if err := a.Service.SetRemindersPaused(false); err != nil {
		return err
	}
	a.Reminders.Resume()
	return nil
}

func (a *App) SnoozeReminders(d time.Duration) (time.Time, error) {
	until, err := a.Service.SnoozeReminders(d)
	if err != nil {
		return time.Time{}, err
	}
	a.Reminders.Snooze(d)
	return until, nil
}

// Close stops reminders, ends the activity session and flushes the
// document. It is safe to call more than once.
func (a *App) Close(ctx context.Context) error {
	a.closeOnce.Do(func() {
		a.Reminders.Close()
		a.Tracker.Close()
		var errs []error
		if err := a.Persist.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush document: %w", err))
		}
		if err := a.closeDB(); err != nil {
			errs = append(errs, err)
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}

func (a *App) closeDB() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	if err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
