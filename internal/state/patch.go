package state

import (
	"sort"
)

// Patch is a partial document. Each non-nil field replaces that whole
// section when applied.
type Patch struct {
	Habits        *[]Habit         `json:"habits,omitempty"`
	Rewards       *[]Reward        `json:"rewards,omitempty"`
	Inventory     *[]InventoryItem `json:"inventory,omitempty"`
	CategoryGoals *[]CategoryGoal  `json:"categoryGoals,omitempty"`
	Settings      *Settings        `json:"settings,omitempty"`
	Points        *int             `json:"points,omitempty"`
	TotalXP       *int             `json:"totalXP,omitempty"`
}

// FullPatch returns a patch that replaces every section with d's.
func FullPatch(d Document) Patch {
	d = d.Clone()
	return Patch{
		Habits:        &d.Habits,
		Rewards:       &d.Rewards,
		Inventory:     &d.Inventory,
		CategoryGoals: &d.CategoryGoals,
		Settings:      &d.Settings,
		Points:        &d.Points,
		TotalXP:       &d.TotalXP,
	}
}

func (p Patch) IsEmpty() bool {
	return p.Habits == nil && p.Rewards == nil && p.Inventory == nil &&
		p.CategoryGoals == nil && p.Settings == nil && p.Points == nil && p.TotalXP == nil
}

// Sections lists the section names p touches, in document order.
func (p Patch) Sections() []string {
	var out []string
	if p.Habits != nil {
		out = append(out, "habits")
	}
	if p.Rewards != nil {
		out = append(out, "rewards")
	}
	if p.Inventory != nil {
		out = append(out, "inventory")
	}
	if p.CategoryGoals != nil {
		out = append(out, "categoryGoals")
	}
	if p.Settings != nil {
		out = append(out, "settings")
	}
	if p.Points != nil {
		out = append(out, "points")
	}
	if p.TotalXP != nil {
		out = append(out, "totalXP")
	}
	return out
}

// Merge folds later into p; sections present in later win.
func (p Patch) Merge(later Patch) Patch {
	if later.Habits != nil {
		p.Habits = later.Habits
	}
	if later.Rewards != nil {
		p.Rewards = later.Rewards
	}
	if later.Inventory != nil {
		p.Inventory = later.Inventory
	}
	if later.CategoryGoals != nil {
		p.CategoryGoals = later.CategoryGoals
	}
	if later.Settings != nil {
		p.Settings = later.Settings
	}
	if later.Points != nil {
		p.Points = later.Points
	}
	if later.TotalXP != nil {
		p.TotalXP = later.TotalXP
	}
	return p
}

// Apply returns a copy of d with p's sections replaced.
func (p Patch) Apply(d Document) Document {
	out := d.Clone()
	if p.Habits != nil {
		out.Habits = Document{Habits: *p.Habits}.Clone().Habits
	}
	if p.Rewards != nil {
		out.Rewards = append([]Reward{}, *p.Rewards...)
	}
	if p.Inventory != nil {
		out.Inventory = append([]InventoryItem{}, *p.Inventory...)
	}
	if p.CategoryGoals != nil {
		out.CategoryGoals = append([]CategoryGoal{}, *p.CategoryGoals...)
	}
	if p.Settings != nil {
		out.Settings = Document{Settings: *p.Settings}.Clone().Settings
	}
	if p.Points != nil {
		out.Points = *p.Points
	}
	if p.TotalXP != nil {
		out.TotalXP = *p.TotalXP
	}
	out.normalize()
	return out
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
