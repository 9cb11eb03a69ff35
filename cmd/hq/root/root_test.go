package root

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitquest/internal/config"
	"habitquest/internal/storage"
)

func runHQ(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--db", db}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandsRoundTrip(t *testing.T) {
	t.Setenv(config.PathEnv, "")
	t.Setenv(storage.DBPathEnv, "")
	dir := t.TempDir()
	db := filepath.Join(dir, "hq.db")

	out, err := runHQ(t, db, "add", "Read", "--difficulty", "easy", "--category", "mind")
	require.NoError(t, err)
	assert.Contains(t, out, "Added")
	assert.Contains(t, out, "100 XP")

	out, err = runHQ(t, db, "do", "read")
	require.NoError(t, err)
	assert.Contains(t, out, "+100 XP, +10 points")
	assert.Contains(t, out, "First Check-in")

	_, err = runHQ(t, db, "do", "read")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already completed")

	out, err = runHQ(t, db, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Read")
	assert.Contains(t, out, "done")

	exported := filepath.Join(dir, "export.json")
	_, err = runHQ(t, db, "export", "-o", exported)
	require.NoError(t, err)

	_, err = runHQ(t, db, "reset")
	require.Error(t, err, "reset needs --yes")
	_, err = runHQ(t, db, "reset", "--yes")
	require.NoError(t, err)

	out, err = runHQ(t, db, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "none yet")

	out, err = runHQ(t, db, "import", exported)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 1 habits")

	out, err = runHQ(t, db, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Points: 10")
	assert.Contains(t, out, "This period: 1 done, 0 due")
}

func TestImportRejectsInvalidFile(t *testing.T) {
	t.Setenv(config.PathEnv, "")
	t.Setenv(storage.DBPathEnv, "")
	dir := t.TempDir()
	db := filepath.Join(dir, "hq.db")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, writeText(bad, `{"habits": [], "points": -1}`))

	out, err := runHQ(t, db, "import", bad)
	require.Error(t, err)
	assert.Contains(t, out, `missing section "rewards"`)
}

func TestRemindCommands(t *testing.T) {
	t.Setenv(config.PathEnv, "")
	t.Setenv(storage.DBPathEnv, "")
	db := filepath.Join(t.TempDir(), "hq.db")

	out, err := runHQ(t, db, "remind", "snooze", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "snoozed")

	out, err = runHQ(t, db, "remind", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "snoozed until")
	assert.NotContains(t, out, "No streaks need attention")

	_, err = runHQ(t, db, "remind", "pause")
	require.NoError(t, err)
	out, err = runHQ(t, db, "remind", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "paused")

	_, err = runHQ(t, db, "remind", "resume")
	require.NoError(t, err)
	out, err = runHQ(t, db, "remind", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "No streaks need attention")

	_, err = runHQ(t, db, "remind", "snooze", "zero")
	require.Error(t, err)
}

func TestBackupCommand(t *testing.T) {
	t.Setenv(config.PathEnv, "")
	t.Setenv(storage.DBPathEnv, "")
	db := filepath.Join(t.TempDir(), "hq.db")

	_, err := runHQ(t, db, "add", "Walk")
	require.NoError(t, err)
	out, err := runHQ(t, db, "backup")
	require.NoError(t, err)
	assert.Contains(t, out, "Backup created")

	out, err = runHQ(t, db, "backup", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "habitquest_data_backup_")
}

func writeText(path, body string) error {
	return os.WriteFile(path, []byte(body), 0o600)
}
