package persist

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitquest/internal/state"
	"habitquest/internal/storage"
)

func TestExportIncludesPendingSections(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, storage.NewMemoryStore(0))
	require.NoError(t, e.SaveImmediate(ctx, state.FullPatch(sampleDoc())))
	require.NoError(t, e.Save(state.Patch{Points: intp(77)}))

	out, err := e.ExportData()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{\n  \""), "export should be indented")

	var doc state.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 77, doc.Points)
	assert.Len(t, doc.Habits, 1)
}

func TestImportReplaceFromExport(t *testing.T) {
	ctx := context.Background()
	src, _ := newTestEngine(t, storage.NewMemoryStore(0))
	require.NoError(t, src.SaveImmediate(ctx, state.FullPatch(sampleDoc())))
	exported, err := src.ExportData()
	require.NoError(t, err)

	store := storage.NewMemoryStore(0)
	dst, _ := newTestEngine(t, store)
	res := dst.ImportData(ctx, exported, ImportReplace)
	require.True(t, res.Success, res.Error)
	assert.Contains(t, res.Summary, "1 habits")
	assert.Equal(t, 1, store.Writes(DefaultKey))

	doc, _ := dst.Load(ctx, DefaultKey)
	require.NotNil(t, doc)
	assert.Equal(t, 40, doc.Points)
}

func TestImportAcceptsEnvelope(t *testing.T) {
	ctx := context.Background()
	srcStore := storage.NewMemoryStore(0)
	src, _ := newTestEngine(t, srcStore)
	require.NoError(t, src.SaveImmediate(ctx, state.FullPatch(sampleDoc())))
	envelope, _, _ := srcStore.Get(ctx, DefaultKey)

	dst, _ := newTestEngine(t, storage.NewMemoryStore(0))
	res := dst.ImportData(ctx, envelope, ImportReplace)
	assert.True(t, res.Success, res.Error)
}

func TestImportRejectsInvalidWithoutTouchingData(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	e, _ := newTestEngine(t, store)
	require.NoError(t, e.SaveImmediate(ctx, state.FullPatch(sampleDoc())))
	before, _, _ := store.Get(ctx, DefaultKey)

	bad := `{"habits":[{"id":"x","name":"","frequency":"hourly","difficulty":1,"completions":{}}],` +
		`"rewards":[],"inventory":[],"categoryGoals":[],"settings":{},"points":-3,"totalXP":0}`
	res := e.ImportData(ctx, bad, ImportReplace)
	assert.False(t, res.Success)
	assert.Equal(t, []string{
		"points must be non-negative, got -3",
		"habits[0]: empty name",
		`habits[0]: invalid frequency "hourly"`,
	}, res.Problems)

	res = e.ImportData(ctx, "not json", ImportMerge)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Problems)

	after, _, _ := store.Get(ctx, DefaultKey)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, store.Writes(DefaultKey))
}

func TestImportMergeUnionsByID(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, storage.NewMemoryStore(0))
	require.NoError(t, e.SaveImmediate(ctx, state.FullPatch(sampleDoc())))

	incoming := state.New()
	incoming.Habits = []state.Habit{
		{ID: "h1", Name: "Read", Frequency: state.FrequencyDaily, Difficulty: 2, XPValue: 20,
			Completions: map[string]bool{"2026-02-28": true}},
		{ID: "h2", Name: "Walk", Frequency: state.FrequencyDaily, Difficulty: 1, XPValue: 10,
			Completions: map[string]bool{}},
	}
	incoming.TotalXP = 500
	raw, err := json.Marshal(incoming)
	require.NoError(t, err)

	res := e.ImportData(ctx, string(raw), ImportMerge)
	require.True(t, res.Success, res.Error)

	doc := e.Current()
	require.Len(t, doc.Habits, 2)
	assert.Len(t, doc.Habit("h1").Completions, 3)
	assert.Equal(t, 40, doc.Points)
	assert.Equal(t, 500, doc.TotalXP)
	assert.Len(t, doc.Rewards, 1)
}
