package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAfterReplacesSameKey(t *testing.T) {
	c := Fake(epoch)
	r := NewRegistry(c)
	var got []string

	r.After("flush", 2*time.Second, func() { got = append(got, "first") })
	r.After("flush", 3*time.Second, func() { got = append(got, "second") })
	require.Equal(t, 1, r.Len())

	c.Advance(2 * time.Second)
	assert.Empty(t, got)
	c.Advance(time.Second)
	assert.Equal(t, []string{"second"}, got)
	assert.False(t, r.Pending("flush"))
}

func TestRegistryEveryRearmsUntilCancelled(t *testing.T) {
	c := Fake(epoch)
	r := NewRegistry(c)
	ticks := 0
	r.Every("check", time.Hour, func() { ticks++ })

	c.Advance(3 * time.Hour)
	assert.Equal(t, 3, ticks)

	due, ok := r.Due("check")
	require.True(t, ok)
	assert.Equal(t, epoch.Add(4*time.Hour), due)

	assert.True(t, r.Cancel("check"))
	c.Advance(5 * time.Hour)
	assert.Equal(t, 3, ticks)
	assert.Equal(t, 0, c.PendingCount())
}

func TestRegistryCallbackMayCancelItself(t *testing.T) {
	c := Fake(epoch)
	r := NewRegistry(c)
	ticks := 0
	r.Every("once", time.Minute, func() {
		ticks++
		r.Cancel("once")
	})
	c.Advance(10 * time.Minute)
	assert.Equal(t, 1, ticks)
}

func TestRegistryCancelMatching(t *testing.T) {
	c := Fake(epoch)
	r := NewRegistry(c)
	fired := map[string]bool{}
	for _, key := range []string{"reminder:run", "reminder:read", "streak-check"} {
		key := key
		r.After(key, time.Minute, func() { fired[key] = true })
	}

	cancelled := r.CancelMatching(func(key string) bool { return key[:9] == "reminder:" })
	assert.Equal(t, []string{"reminder:read", "reminder:run"}, cancelled)
	assert.Equal(t, []string{"streak-check"}, r.Keys())

	c.Advance(time.Minute)
	assert.Equal(t, map[string]bool{"streak-check": true}, fired)
}

func TestRegistryCancelAll(t *testing.T) {
	c := Fake(epoch)
	r := NewRegistry(c)
	r.After("a", time.Second, func() { t.Fatal("a fired") })
	r.Every("b", time.Second, func() { t.Fatal("b fired") })

	assert.Equal(t, 2, r.CancelAll())
	c.Advance(time.Minute)
	assert.Equal(t, 0, c.PendingCount())
	assert.False(t, r.Cancel("a"))
}
