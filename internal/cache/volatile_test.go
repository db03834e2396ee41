package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type route struct {
	ID    string
	Price int
}

func TestVolatile_LiveScheduleExpiresAfterFiveMinutes(t *testing.T) {
	clock := newFakeClock()
	c := NewVolatile(VolatileTTL, 0, clock.Now)

	routes := []route{{ID: "route_001", Price: 1200}}
	c.Set("liveSchedule", routes)

	clock.Advance(4*time.Minute + 59*time.Second)
	got, ok := c.Get("liveSchedule")
	require.True(t, ok)
	assert.Equal(t, routes, got)

	clock.Advance(2 * time.Second)
	_, ok = c.Get("liveSchedule")
	assert.False(t, ok)
}

func TestVolatile_ExactTTLIsValid(t *testing.T) {
	clock := newFakeClock()
	c := NewVolatile(time.Minute, 0, clock.Now)

	c.Set("k", "v")
	clock.Advance(time.Minute)
	_, ok := c.Get("k")
	assert.True(t, ok, "an entry aged exactly ttl must be valid")

	clock.Advance(time.Nanosecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestVolatile_SetOverwritesAndResetsAge(t *testing.T) {
	clock := newFakeClock()
	c := NewVolatile(time.Minute, 0, clock.Now)

	c.Set("k", "old")
	clock.Advance(50 * time.Second)
	c.Set("k", "new")
	clock.Advance(50 * time.Second)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestVolatile_Invalidate(t *testing.T) {
	c := NewVolatile(time.Hour, 0, nil)

	c.Set("a", 1)
	c.Set("b", 2)

	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)

	c.InvalidateAll()
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestVolatile_Status(t *testing.T) {
	clock := newFakeClock()
	c := NewVolatile(5*time.Minute, 0, clock.Now)

	c.Set("liveSchedule", []route{})
	clock.Advance(2 * time.Minute)

	status := c.Status()
	require.Len(t, status, 1)
	assert.Equal(t, "liveSchedule", status[0].Key)
	assert.Equal(t, 2*time.Minute, status[0].Age)
	assert.Equal(t, 3*time.Minute, status[0].ExpiresIn)
}

func TestIsExpired(t *testing.T) {
	base := time.Unix(0, 0)
	assert.False(t, IsExpired(base, base.Add(time.Second), time.Second))
	assert.True(t, IsExpired(base, base.Add(time.Second+1), time.Second))
	assert.False(t, IsExpired(base, base, 0))
}
