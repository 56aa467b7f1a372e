package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestMemory(t *testing.T, ttl time.Duration) (*Memory[string], *fakeClock) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	memory := newMemory[string](ctx, ttl, clock.Now)
	return memory, clock
}

func TestMemory(t *testing.T) {
	memory, clock := newTestMemory(t, time.Minute)

	memory.Set("k1", "v1", 0)
	clock.Advance(time.Nanosecond)

	// should be expired as TTL is 0 second
	_, err := memory.Get("k1")
	assert.ErrorIs(t, err, ErrNotFound)

	memory.Set("k2", "v2")
	v, err := memory.Get("k2")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	_, err = memory.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryReadsExtendTTL(t *testing.T) {
	memory, clock := newTestMemory(t, time.Minute)
	memory.Set("ip", "limiter")

	clock.Advance(50 * time.Second)
	_, err := memory.Get("ip")
	require.NoError(t, err)

	clock.Advance(50 * time.Second)
	_, err = memory.Get("ip")
	require.NoError(t, err)

	clock.Advance(61 * time.Second)
	_, err = memory.Get("ip")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryGetOrSet(t *testing.T) {
	memory, _ := newTestMemory(t, time.Minute)

	calls := 0
	valueFunc := func() string {
		calls++
		return "computed"
	}

	assert.Equal(t, "computed", memory.GetOrSet("k", valueFunc))
	assert.Equal(t, "computed", memory.GetOrSet("k", valueFunc))
	assert.Equal(t, 1, calls)
}

func TestMemorySweep(t *testing.T) {
	memory, clock := newTestMemory(t, time.Second)
	memory.Set("a", "1")
	memory.Set("b", "2", time.Hour)

	clock.Advance(2 * time.Second)
	memory.sweep()

	assert.Equal(t, 1, memory.Len())
}

func TestMemoryExpirerStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	memory := NewMemory[int](ctx, time.Second)
	cancel()

	select {
	case <-memory.Done():
	case <-time.After(time.Second):
		t.Fatal("expirer did not stop")
	}
}
