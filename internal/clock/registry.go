package clock

import (
	"sort"
	"sync"
	"time"
)

// Registry tracks named timers so they can be cancelled one at a time,
// by predicate, or all together on teardown. Scheduling a key that is
// already pending replaces the earlier timer.
//
// Callbacks run without the registry lock held and may call back into
// the registry.
type Registry struct {
	mu      sync.Mutex
	clock   Clock
	entries map[string]*entry
}

type entry struct {
	timer    *Timer
	interval time.Duration
	due      time.Time
}

// NewRegistry returns an empty registry driven by c.
func NewRegistry(c Clock) *Registry {
	return &Registry{clock: c, entries: map[string]*entry{}}
}

// After schedules f to run once after d under key.
func (r *Registry) After(key string, d time.Duration, f func()) {
	r.schedule(key, d, 0, f)
}

// Every schedules f to run every d under key until the key is cancelled.
func (r *Registry) Every(key string, d time.Duration, f func()) {
	if d <= 0 {
		panic("clock: non-positive interval for Registry.Every")
	}
	r.schedule(key, d, d, f)
}

func (r *Registry) schedule(key string, d, interval time.Duration, f func()) {
	e := &entry{interval: interval}

	r.mu.Lock()
	if old, ok := r.entries[key]; ok {
		old.timer.Stop()
	}
	r.entries[key] = e
	r.mu.Unlock()

	r.arm(key, e, d, f)
}

func (r *Registry) arm(key string, e *entry, d time.Duration, f func()) {
	r.mu.Lock()
	e.due = r.clock.Now().Add(d)
	r.mu.Unlock()

	t := r.clock.AfterFunc(d, func() { r.fire(key, e, f) })

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries[key] == e {
		e.timer = t
		return
	}
	// Cancelled or replaced while arming, or already fired synchronously.
	t.Stop()
}

func (r *Registry) fire(key string, e *entry, f func()) {
	r.mu.Lock()
	if r.entries[key] != e {
		r.mu.Unlock()
		return
	}
	if e.interval == 0 {
		delete(r.entries, key)
	}
	r.mu.Unlock()

	f()

	if e.interval == 0 {
		return
	}
	r.mu.Lock()
	current := r.entries[key] == e
	r.mu.Unlock()
	if current {
		r.arm(key, e, e.interval, f)
	}
}

// Cancel stops the timer under key. It reports whether one was pending.
func (r *Registry) Cancel(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return false
	}
	delete(r.entries, key)
	e.timer.Stop()
	return true
}

// CancelMatching stops every timer whose key satisfies match and returns
// the cancelled keys in sorted order.
func (r *Registry) CancelMatching(match func(key string) bool) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var keys []string
	for key, e := range r.entries {
		if !match(key) {
			continue
		}
		delete(r.entries, key)
		e.timer.Stop()
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// CancelAll stops every timer and returns how many were pending.
func (r *Registry) CancelAll() int {
	return len(r.CancelMatching(func(string) bool { return true }))
}

// Pending reports whether key has a live timer.
func (r *Registry) Pending(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[key]
	return ok
}

// Due returns when the timer under key fires next.
func (r *Registry) Due(key string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return time.Time{}, false
	}
	return e.due, true
}

// Keys returns the pending keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of pending timers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
