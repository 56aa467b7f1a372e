package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/swellcycle/surfboard-gwp/internal/must"
)

var ErrNotFound = errors.New("cache entry not found")

type entry[V any] struct {
	mu        sync.Mutex
	expiresAt time.Time
	v         V
	ttl       time.Duration
}

func (e *entry[V]) isExpired(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return now.After(e.expiresAt)
}

// touch pushes the expiration back by the entry ttl.
func (e *entry[V]) touch(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.expiresAt = now.Add(e.ttl)
}

// Memory is a concurrency safe key value store whose entries expire after
// they have not been read for their ttl.
type Memory[V any] struct {
	m          *sync.Map
	defaultTTL time.Duration
	now        func() time.Time
	done       chan struct{}
}

// NewMemory starts a cache. Expired entries are swept every second until ctx
// is done.
func NewMemory[V any](ctx context.Context, defaultTTL time.Duration) *Memory[V] {
	return newMemory[V](ctx, defaultTTL, time.Now)
}

func newMemory[V any](ctx context.Context, defaultTTL time.Duration, now func() time.Time) *Memory[V] {
	cache := &Memory[V]{
		m:          new(sync.Map),
		defaultTTL: defaultTTL,
		now:        now,
		done:       make(chan struct{}),
	}

	go cache.expirer(ctx)

	return cache
}

func (m *Memory[V]) Set(k string, v V, ttl ...time.Duration) {
	entryTTL := m.defaultTTL
	if len(ttl) > 0 {
		entryTTL = ttl[0]
	}

	m.m.Store(k, &entry[V]{
		expiresAt: m.now().Add(entryTTL),
		v:         v,
		ttl:       entryTTL,
	})

	slog.Debug("new cache entry", "key", k)
}

func (m *Memory[V]) Get(k string) (v V, err error) {
	loaded, found := m.m.Load(k)
	if !found {
		return v, ErrNotFound
	}

	e, ok := loaded.(*entry[V])
	must.Assert(ok, "loaded value is not an entry")

	now := m.now()
	if e.isExpired(now) {
		slog.Debug("cache expired", "key", k)
		m.m.CompareAndDelete(k, e)
		return v, ErrNotFound
	}

	e.touch(now)
	return e.v, nil
}

// GetOrSet returns the value stored at key, computing and storing it with
// valueFunc when missing. Concurrent callers of a missing key share the
// first stored value.
func (m *Memory[V]) GetOrSet(key string, valueFunc func() V, ttl ...time.Duration) V {
	if v, err := m.Get(key); err == nil {
		return v
	}

	entryTTL := m.defaultTTL
	if len(ttl) > 0 {
		entryTTL = ttl[0]
	}
	fresh := &entry[V]{
		expiresAt: m.now().Add(entryTTL),
		v:         valueFunc(),
		ttl:       entryTTL,
	}

	actual, loaded := m.m.LoadOrStore(key, fresh)
	if loaded {
		if e, ok := actual.(*entry[V]); ok && !e.isExpired(m.now()) {
			return e.v
		}
		m.m.Store(key, fresh)
	}
	return fresh.v
}

// Len returns the number of live entries.
func (m *Memory[V]) Len() int {
	n := 0
	m.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Done is closed once the expirer goroutine has stopped.
func (m *Memory[V]) Done() <-chan struct{} {
	return m.done
}

func (m *Memory[V]) sweep() {
	now := m.now()
	m.m.Range(func(k, v any) bool {
		e, ok := v.(*entry[V])
		must.Assert(ok, "loaded value is not an entry")

		if e.isExpired(now) {
			slog.Debug("cache expired", "key", k)
			m.m.CompareAndDelete(k, e)
		}
		return true
	})
}

func (m *Memory[V]) expirer(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}
