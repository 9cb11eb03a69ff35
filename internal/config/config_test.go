package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitquest/internal/persist"
	"habitquest/internal/storage"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "zstd", cfg.Persistence.Compression)
	assert.Equal(t, time.Second, cfg.Persistence.Debounce)
	assert.True(t, cfg.Reminders.Enabled)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	t.Setenv(storage.DBPathEnv, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	t.Setenv(storage.DBPathEnv, "")
	path := writeFile(t, "hq.yaml", `
data_dir: /tmp/hq
log:
  level: debug
persistence:
  debounce: 2s
  compression: lz4
reminders:
  max_reminders_per_day: 4
  encouragement_delay: 30m
activity:
  timezone: Europe/Rome
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 2*time.Second, cfg.Persistence.Debounce)
	assert.Equal(t, 5*time.Second, cfg.Persistence.BatchInterval, "unset fields keep defaults")
	assert.Equal(t, 4, cfg.Reminders.MaxRemindersPerDay)
	assert.Equal(t, 30*time.Minute, cfg.Reminders.EncouragementDelay)
	assert.True(t, cfg.Reminders.StreakReminders)

	db, err := cfg.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/hq", "habitquest.db"), db)

	opts, err := cfg.PersistOptions()
	require.NoError(t, err)
	assert.Equal(t, "lz4", opts.Compressor.Name())
	assert.Equal(t, persist.DefaultKey, opts.Key)

	aopts, err := cfg.ActivityOptions()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Rome", aopts.Location.String())
}

func TestLoadJSONC(t *testing.T) {
	t.Setenv(storage.DBPathEnv, "")
	path := writeFile(t, "hq.jsonc", `{
  // comments and trailing commas are fine
  "db_path": "/var/lib/hq.db",
  "persistence": {"compression": "none", "max_retries": 5,},
}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/hq.db", cfg.DBPath)
	assert.Equal(t, 5, cfg.Persistence.MaxRetries)

	opts, err := cfg.PersistOptions()
	require.NoError(t, err)
	assert.Nil(t, opts.Compressor)
}

func TestEnvOverridesDBPath(t *testing.T) {
	t.Setenv(storage.DBPathEnv, "/env/hq.db")
	path := writeFile(t, "hq.yaml", "db_path: /file/hq.db\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/env/hq.db", cfg.DBPath)
}

func TestResolvePath(t *testing.T) {
	t.Setenv(PathEnv, "/etc/hq.yaml")
	assert.Equal(t, "/x.yaml", ResolvePath("/x.yaml"))
	assert.Equal(t, "/etc/hq.yaml", ResolvePath(""))
}

func TestValidateCollectsProblems(t *testing.T) {
	_, err := Parse("bad.yaml", []byte(`
log:
  level: loud
persistence:
  compression: brotli
  debounce: 10s
  batch_interval: 5s
  max_retries: -1
activity:
  timezone: Mars/Olympus
reminders:
  reminder_start_hour: 23
  reminder_end_hour: 7
`))
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		`log.level "loud"`,
		`unknown compression "brotli"`,
		"debounce 10s exceeds batch_interval 5s",
		"max_retries must be non-negative",
		"activity.timezone",
		"reminder_start_hour 23 is after reminder_end_hour 7",
	} {
		assert.Contains(t, msg, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestWatchReloadsOnWrite(t *testing.T) {
	t.Setenv(storage.DBPathEnv, "")
	path := writeFile(t, "hq.yaml", "reminders:\n  max_reminders_per_day: 2\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, nil, func(c *Config) { got <- c })
	}()

	// Give the watcher a moment to register before editing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("reminders:\n  max_reminders_per_day: 5\n"), 0o600))

	select {
	case cfg := <-got:
		assert.Equal(t, 5, cfg.Reminders.MaxRemindersPerDay)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	require.NoError(t, <-done)
}
