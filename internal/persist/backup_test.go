package persist

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitquest/internal/clock"
	"habitquest/internal/state"
	"habitquest/internal/storage"
)

const legacyDocument = `{"habits":[{"id":"h1","name":"Read","frequency":"daily","difficulty":2,"xpValue":20,` +
	`"createdAt":"2026-01-01T00:00:00Z","completions":{"2026-01-01":true}}],` +
	`"rewards":[],"inventory":[],"categoryGoals":[],"settings":{"soundEnabled":true,"remindersPaused":false},` +
	`"points":10,"totalXP":20}`

func TestLegacyDocumentIsSnapshottedThenMigrated(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	store.Raw(DefaultKey, legacyDocument)

	var seenFrom string
	e, _ := newTestEngine(t, store, func(o *Options) {
		o.Migrator = func(_ context.Context, from, to string, doc json.RawMessage) (json.RawMessage, error) {
			seenFrom = from
			return doc, nil
		}
	})

	doc, src := e.Load(ctx, DefaultKey)
	require.NotNil(t, doc)
	assert.Equal(t, SourcePrimary, src)
	assert.Equal(t, LegacyVersion, seenFrom)
	assert.Equal(t, 10, doc.Points)

	backups, err := e.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	snapshot, _, _ := store.Get(ctx, backups[0].Key)
	assert.Equal(t, legacyDocument, snapshot)

	raw, _, _ := store.Get(ctx, DefaultKey)
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	assert.Equal(t, SchemaVersion, env.Version)
}

func TestMigrationFailureServesStoredVersion(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	store.Raw(DefaultKey, legacyDocument)

	e, _ := newTestEngine(t, store, func(o *Options) {
		o.Migrator = func(context.Context, string, string, json.RawMessage) (json.RawMessage, error) {
			return nil, errors.New("unsupported layout")
		}
	})

	doc, src := e.Load(ctx, DefaultKey)
	require.NotNil(t, doc)
	assert.Equal(t, SourcePrimary, src)
	assert.Equal(t, 10, doc.Points)

	raw, _, _ := store.Get(ctx, DefaultKey)
	assert.Equal(t, legacyDocument, raw, "primary must not be rewritten after a failed migration")
	backups, err := e.ListBackups(ctx)
	require.NoError(t, err)
	assert.Len(t, backups, 1, "snapshot is taken before the migrator runs")
}

func TestRetentionSweepDeletesOnlyExpiredBackups(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	e, fc := newTestEngine(t, store)
	require.NoError(t, e.SaveImmediate(ctx, state.FullPatch(sampleDoc())))

	first, err := e.CreateBackup(ctx)
	require.NoError(t, err)
	fc.Advance(20 * 24 * time.Hour)
	second, err := e.CreateBackup(ctx)
	require.NoError(t, err)
	fc.Advance(11 * 24 * time.Hour)
	third, err := e.CreateBackup(ctx)
	require.NoError(t, err)

	backups, err := e.ListBackups(ctx)
	require.NoError(t, err)
	var keys []string
	for _, b := range backups {
		keys = append(keys, b.Key)
	}
	assert.Equal(t, []string{second.Key, third.Key}, keys)
	_, ok, _ := store.Get(ctx, first.Key)
	assert.False(t, ok)
}

func TestPeriodicBackup(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	e, fc := newTestEngine(t, store)
	e.Start(ctx)

	fc.Advance(24 * time.Hour)
	backups, err := e.ListBackups(ctx)
	require.NoError(t, err)
	assert.Empty(t, backups, "nothing stored yet")

	// The first flush has no backup to compare against, so it takes one.
	require.NoError(t, e.SaveImmediate(ctx, state.FullPatch(sampleDoc())))
	backups, err = e.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)

	// A flush inside the interval does not.
	require.NoError(t, e.SaveImmediate(ctx, state.Patch{Points: intp(5)}))
	backups, err = e.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)

	fc.Advance(48 * time.Hour)
	backups, err = e.ListBackups(ctx)
	require.NoError(t, err)
	assert.Len(t, backups, 3)
}

func TestShortSessionsStillBackUpDaily(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	fc := clock.Fake(epoch)

	for day := 0; day < 5; day++ {
		e, err := New(store, Options{Clock: fc, RetryBackoff: 0})
		require.NoError(t, err)
		e.Load(ctx, DefaultKey)
		e.Start(ctx)
		require.NoError(t, e.Save(state.Patch{Points: intp(day + 1)}))
		fc.Advance(time.Minute)
		require.NoError(t, e.Close(ctx))
		fc.Advance(24 * time.Hour)
	}

	e, err := New(store, Options{Clock: fc})
	require.NoError(t, err)
	defer e.Close(ctx)
	backups, err := e.ListBackups(ctx)
	require.NoError(t, err)
	assert.Len(t, backups, 5, "one backup per daily session")
}

func TestBackupTakesDataStoredByAnotherEngine(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	e, _ := newTestEngine(t, store)
	require.NoError(t, e.SaveImmediate(ctx, state.FullPatch(sampleDoc())))

	other, _ := newTestEngine(t, store)
	other.Load(ctx, DefaultKey)
	require.NoError(t, other.SaveImmediate(ctx, state.Patch{Points: intp(77)}))

	b, err := e.CreateBackup(ctx)
	require.NoError(t, err)
	raw, ok, err := store.Get(ctx, b.Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"points":77`)
}

func TestStartBacksUpStaleData(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	e, fc := newTestEngine(t, store)
	require.NoError(t, e.SaveImmediate(ctx, state.FullPatch(sampleDoc())))
	require.NoError(t, e.Close(ctx))

	fc.Advance(time.Hour)
	f, err := New(store, Options{Clock: fc})
	require.NoError(t, err)
	defer f.Close(ctx)
	f.Load(ctx, DefaultKey)
	f.Start(ctx)
	backups, err := f.ListBackups(ctx)
	require.NoError(t, err)
	assert.Len(t, backups, 1, "stored data without any backup is backed up on start")

	g, err := New(store, Options{Clock: fc})
	require.NoError(t, err)
	defer g.Close(ctx)
	g.Start(ctx)
	backups, err = g.ListBackups(ctx)
	require.NoError(t, err)
	assert.Len(t, backups, 1, "a recent backup is not repeated")
}

func TestBackupsInSameMillisecondGetDistinctKeys(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	e, _ := newTestEngine(t, store)
	require.NoError(t, e.SaveImmediate(ctx, state.FullPatch(sampleDoc())))

	a, err := e.CreateBackup(ctx)
	require.NoError(t, err)
	b, err := e.CreateBackup(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, a.Key, b.Key)
}

func TestResetDeletesEverything(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	store.Raw("habitquest_activity", "keep me")
	e, _ := newTestEngine(t, store)
	require.NoError(t, e.SaveImmediate(ctx, state.FullPatch(sampleDoc())))
	_, err := e.CreateBackup(ctx)
	require.NoError(t, err)
	require.NoError(t, e.Save(state.Patch{Points: intp(1)}))

	require.NoError(t, e.Reset(ctx))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"habitquest_activity"}, keys)
	assert.False(t, e.HasPending())
	doc, src := e.Load(ctx, DefaultKey)
	assert.Nil(t, doc)
	assert.Equal(t, SourceNone, src)
}

func TestCreateBackupWithoutDataFails(t *testing.T) {
	e, _ := newTestEngine(t, storage.NewMemoryStore(0))
	_, err := e.CreateBackup(context.Background())
	assert.ErrorIs(t, err, ErrNoData)
}
