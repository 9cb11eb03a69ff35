package state

// MergeSummary counts what Merge changed, for import reporting.
type MergeSummary struct {
	HabitsAdded   int
	HabitsUpdated int
	RewardsAdded  int
	GoalsAdded    int
	ItemsAdded    int
}

// Merge combines incoming into current by id. Incoming entries replace
// current ones with the same id; habit completions are unioned; points
// and totalXP take the larger value; settings stay as current.
func Merge(current, incoming Document) (Document, MergeSummary) {
	var sum MergeSummary
	out := current.Clone()
	in := incoming.Clone()

	for _, h := range in.Habits {
		existing := out.Habit(h.ID)
		if existing == nil {
			out.Habits = append(out.Habits, h)
			sum.HabitsAdded++
			continue
		}
		completions := existing.Completions
		for k, v := range h.Completions {
			if v {
				completions[k] = true
			}
		}
		*existing = h
		existing.Completions = filterCompletions(completions, h.Frequency)
		sum.HabitsUpdated++
	}

	out.Rewards, sum.RewardsAdded = mergeByID(out.Rewards, in.Rewards, func(r Reward) string { return r.ID })
	out.CategoryGoals, sum.GoalsAdded = mergeByID(out.CategoryGoals, in.CategoryGoals, func(g CategoryGoal) string { return g.ID })
	out.Inventory, sum.ItemsAdded = mergeByID(out.Inventory, in.Inventory, func(i InventoryItem) string { return i.ID })

	out.Points = max(out.Points, in.Points)
	out.TotalXP = max(out.TotalXP, in.TotalXP)
	out.normalize()
	return out, sum
}

// filterCompletions drops keys that are not canonical for f, which happens
// when an incoming habit changed frequency.
func filterCompletions(c map[string]bool, f Frequency) map[string]bool {
	out := make(map[string]bool, len(c))
	for k, v := range c {
		if ValidPeriodKey(f, k) {
			out[k] = v
		}
	}
	return out
}

func mergeByID[T any](current, incoming []T, id func(T) string) ([]T, int) {
	index := make(map[string]int, len(current))
	for i, v := range current {
		index[id(v)] = i
	}
	added := 0
	for _, v := range incoming {
		if i, ok := index[id(v)]; ok {
			current[i] = v
			continue
		}
		index[id(v)] = len(current)
		current = append(current, v)
		added++
	}
	return current, added
}
