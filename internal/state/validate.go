package state

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RequiredSections are the top-level keys every stored document carries.
var RequiredSections = []string{
	"habits", "rewards", "inventory", "categoryGoals", "settings", "points", "totalXP",
}

// ValidationError lists every problem found in a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid document: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid document: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// CheckSections verifies data is a JSON object carrying every required
// section. Malformed JSON is returned as-is.
func CheckSections(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var problems []string
	for _, name := range RequiredSections {
		v, ok := raw[name]
		if !ok || string(v) == "null" {
			problems = append(problems, fmt.Sprintf("missing section %q", name))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Validate checks document invariants and returns a *ValidationError
// listing all of them, or nil.
func (d Document) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if d.Points < 0 {
		add("points must be non-negative, got %d", d.Points)
	}
	if d.TotalXP < 0 {
		add("totalXP must be non-negative, got %d", d.TotalXP)
	}

	seen := map[string]bool{}
	for i, h := range d.Habits {
		where := fmt.Sprintf("habits[%d]", i)
		if h.ID == "" {
			add("%s: empty id", where)
		} else if seen[h.ID] {
			add("%s: duplicate id %q", where, h.ID)
		}
		seen[h.ID] = true
		if strings.TrimSpace(h.Name) == "" {
			add("%s: empty name", where)
		}
		if !h.Frequency.IsValid() {
			add("%s: invalid frequency %q", where, h.Frequency)
			continue
		}
		if h.Difficulty < 1 || h.Difficulty > 5 {
			add("%s: difficulty %d out of range 1..5", where, h.Difficulty)
		}
		if h.XPValue < 0 {
			add("%s: negative xpValue", where)
		}
		for _, key := range sortedKeys(h.Completions) {
			if !ValidPeriodKey(h.Frequency, key) {
				add("%s: completion key %q is not a %s period", where, key, h.Frequency)
			}
		}
	}

	rewards := map[string]bool{}
	for i, r := range d.Rewards {
		if r.ID == "" {
			add("rewards[%d]: empty id", i)
		} else if rewards[r.ID] {
			add("rewards[%d]: duplicate id %q", i, r.ID)
		}
		rewards[r.ID] = true
		if r.Cost < 0 {
			add("rewards[%d]: negative cost", i)
		}
	}

	items := map[string]bool{}
	for i, it := range d.Inventory {
		if it.ID == "" {
			add("inventory[%d]: empty id", i)
		} else if items[it.ID] {
			add("inventory[%d]: duplicate id %q", i, it.ID)
		}
		items[it.ID] = true
	}

	goals := map[string]bool{}
	for i, g := range d.CategoryGoals {
		if g.ID == "" {
			add("categoryGoals[%d]: empty id", i)
		} else if goals[g.ID] {
			add("categoryGoals[%d]: duplicate id %q", i, g.ID)
		}
		goals[g.ID] = true
		if !g.Period.IsValid() {
			add("categoryGoals[%d]: invalid period %q", i, g.Period)
		}
		if g.Target < 0 {
			add("categoryGoals[%d]: negative target", i)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
