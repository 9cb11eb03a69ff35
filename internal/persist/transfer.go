package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"habitquest/internal/state"
)

type ImportMode string

const (
	ImportReplace ImportMode = "replace"
	ImportMerge   ImportMode = "merge"
)

// ImportResult is shown to the user as-is.
type ImportResult struct {
	Success  bool     `json:"success"`
	Summary  string   `json:"summary"`
	Error    string   `json:"error,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

// ExportData returns the current document, pending sections included, as
// indented JSON.
func (e *Engine) ExportData() (string, error) {
	doc := e.Current()
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", &Error{Kind: KindSerializationFailed, Op: "export", Err: err}
	}
	return string(out), nil
}

// ImportData validates data, a bare document or a stored envelope, and
// writes it immediately. Nothing is touched unless the whole input
// validates.
func (e *Engine) ImportData(ctx context.Context, data string, mode ImportMode) ImportResult {
	if mode != ImportReplace && mode != ImportMerge {
		return ImportResult{Error: fmt.Sprintf("unknown import mode %q", mode)}
	}

	docJSON, _, err := openEnvelope(data)
	if err != nil {
		return ImportResult{Error: "input could not be read", Problems: []string{errors.Unwrap(err).Error()}}
	}
	incoming, err := state.Decode(docJSON)
	if err != nil {
		var ve *state.ValidationError
		if errors.As(err, &ve) {
			return ImportResult{Error: "input failed validation", Problems: ve.Problems}
		}
		return ImportResult{Error: "input is not a document", Problems: []string{err.Error()}}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		next    state.Document
		summary string
	)
	switch mode {
	case ImportMerge:
		merged, sum := state.Merge(e.pending.Apply(e.base), incoming)
		if err := merged.Validate(); err != nil {
			var ve *state.ValidationError
			errors.As(err, &ve)
			return ImportResult{Error: "merged document failed validation", Problems: ve.Problems}
		}
		next = merged
		summary = fmt.Sprintf("merged %d new and %d updated habits, %d rewards, %d goals, %d inventory items",
			sum.HabitsAdded, sum.HabitsUpdated, sum.RewardsAdded, sum.GoalsAdded, sum.ItemsAdded)
	default:
		next = incoming
		summary = fmt.Sprintf("imported %d habits, %d rewards, %d goals, %d inventory items",
			len(incoming.Habits), len(incoming.Rewards), len(incoming.CategoryGoals), len(incoming.Inventory))
	}

	previous := e.pending
	if err := e.enqueueLocked(state.FullPatch(next)); err != nil {
		return ImportResult{Error: err.Error()}
	}
	if err := e.flushLocked(ctx); err != nil {
		e.pending = previous
		if !previous.IsEmpty() {
			e.timers.After(batchTimer, e.opts.BatchInterval, e.onTimer)
		}
		e.log.Error("import write failed", zap.Error(err))
		return ImportResult{Error: err.Error()}
	}
	e.log.Info("data imported", zap.String("mode", string(mode)), zap.String("summary", summary))
	return ImportResult{Success: true, Summary: summary}
}
