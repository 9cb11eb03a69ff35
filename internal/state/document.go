// Package state defines the aggregate document the persistence engine
// owns: habits, rewards, inventory, category goals, settings and the
// point/XP counters.
package state

import (
	"encoding/json"
	"time"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

type Habit struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Category   string    `json:"category,omitempty"`
	Frequency  Frequency `json:"frequency"`
	Difficulty int       `json:"difficulty"`
	XPValue    int       `json:"xpValue"`
	CreatedAt  time.Time `json:"createdAt"`
	Archived   bool      `json:"archived,omitempty"`
	// Completions is keyed by the canonical period string for Frequency.
	Completions map[string]bool `json:"completions"`
}

type Reward struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Cost int    `json:"cost"`
}

type InventoryItem struct {
	ID         string    `json:"id"`
	RewardID   string    `json:"rewardId"`
	Name       string    `json:"name"`
	RedeemedAt time.Time `json:"redeemedAt"`
}

type CategoryGoal struct {
	ID       string    `json:"id"`
	Category string    `json:"category"`
	Target   int       `json:"target"`
	Period   Frequency `json:"period"`
}

type Settings struct {
	Theme           string     `json:"theme,omitempty"`
	SoundEnabled    bool       `json:"soundEnabled"`
	RemindersPaused bool       `json:"remindersPaused"`
	SnoozedUntil    *time.Time `json:"snoozedUntil,omitempty"`
}

// Document is the single persisted aggregate.
type Document struct {
	Habits        []Habit         `json:"habits"`
	Rewards       []Reward        `json:"rewards"`
	Inventory     []InventoryItem `json:"inventory"`
	CategoryGoals []CategoryGoal  `json:"categoryGoals"`
	Settings      Settings        `json:"settings"`
	Points        int             `json:"points"`
	TotalXP       int             `json:"totalXP"`
}

// New returns an empty document with every section present.
func New() Document {
	return Document{
		Habits:        []Habit{},
		Rewards:       []Reward{},
		Inventory:     []InventoryItem{},
		CategoryGoals: []CategoryGoal{},
	}
}

// Clone returns a deep copy so callers can mutate without touching the
// engine's base document.
func (d Document) Clone() Document {
	out := d
	out.Habits = make([]Habit, len(d.Habits))
	for i, h := range d.Habits {
		h.Completions = cloneCompletions(h.Completions)
		out.Habits[i] = h
	}
	out.Rewards = append([]Reward{}, d.Rewards...)
	out.Inventory = append([]InventoryItem{}, d.Inventory...)
	out.CategoryGoals = append([]CategoryGoal{}, d.CategoryGoals...)
	if d.Settings.SnoozedUntil != nil {
		v := *d.Settings.SnoozedUntil
		out.Settings.SnoozedUntil = &v
	}
	return out
}

func cloneCompletions(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Habit returns the habit with id, or nil.
func (d *Document) Habit(id string) *Habit {
	for i := range d.Habits {
		if d.Habits[i].ID == id {
			return &d.Habits[i]
		}
	}
	return nil
}

// Decode parses a JSON document, checking required sections and
// invariants. The returned error is a *ValidationError for structural
// problems, or the JSON error for malformed input.
func Decode(data []byte) (Document, error) {
	if err := CheckSections(data); err != nil {
		return Document{}, err
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, err
	}
	d.normalize()
	if err := d.Validate(); err != nil {
		return Document{}, err
	}
	return d, nil
}

// normalize replaces nil collections so empty sections encode as [].
func (d *Document) normalize() {
	if d.Habits == nil {
		d.Habits = []Habit{}
	}
	if d.Rewards == nil {
		d.Rewards = []Reward{}
	}
	if d.Inventory == nil {
		d.Inventory = []InventoryItem{}
	}
	if d.CategoryGoals == nil {
		d.CategoryGoals = []CategoryGoal{}
	}
	for i := range d.Habits {
		if d.Habits[i].Completions == nil {
			d.Habits[i].Completions = map[string]bool{}
		}
	}
}
