package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Memory is an in-process cache with TTL expiry and optional LRU bounding.
type Memory[V any] struct {
	items      map[string]*list.Element
	order      *list.List // front = most recently used
	now        func() time.Time
	stop       chan struct{}
	defaultTTL time.Duration
	sweep      time.Duration
	maxEntries int
	mu         sync.Mutex
	closed     bool
}

type memoryItem[V any] struct {
	expires time.Time // zero = never
	value   V
	key     string
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	now        func() time.Time
	defaultTTL time.Duration
	sweep      time.Duration
	maxEntries int
}

// WithDefaultTTL sets the TTL used when Set gets zero. Defaults to one hour.
func WithDefaultTTL(d time.Duration) MemoryOption {
	return func(c *memoryConfig) { c.defaultTTL = d }
}

// WithSweepInterval sets how often expired entries are purged in the
// background. Zero disables the sweeper; expired entries are then dropped
// lazily on access. Defaults to one minute.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(c *memoryConfig) { c.sweep = d }
}

// WithMaxEntries bounds the cache, evicting the least recently used entry.
func WithMaxEntries(n int) MemoryOption {
	return func(c *memoryConfig) { c.maxEntries = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *memoryConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMemory creates a Memory cache. Call Close to stop the sweeper.
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	cfg := memoryConfig{
		now:        time.Now,
		defaultTTL: time.Hour,
		sweep:      time.Minute,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Memory[V]{
		items:      make(map[string]*list.Element),
		order:      list.New(),
		now:        cfg.now,
		stop:       make(chan struct{}),
		defaultTTL: cfg.defaultTTL,
		sweep:      cfg.sweep,
		maxEntries: cfg.maxEntries,
	}
	if m.sweep > 0 {
		go m.sweeper()
	}
	return m
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	el, ok := m.items[key]
	if !ok {
		return zero, ErrNotFound
	}
	it := el.Value.(*memoryItem[V])
	if m.expired(it) {
		m.remove(el)
		return zero, ErrNotFound
	}
	m.order.MoveToFront(el)
	return it.value, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if ttl == 0 {
		ttl = m.defaultTTL
	}
	var expires time.Time
	if ttl > 0 {
		expires = m.now().Add(ttl)
	}

	if el, ok := m.items[key]; ok {
		it := el.Value.(*memoryItem[V])
		it.value, it.expires = value, expires
		m.order.MoveToFront(el)
		return nil
	}

	if m.maxEntries > 0 && len(m.items) >= m.maxEntries {
		if oldest := m.order.Back(); oldest != nil {
			m.remove(oldest)
		}
	}
	m.items[key] = m.order.PushFront(&memoryItem[V]{key: key, value: value, expires: expires})
	return nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if el, ok := m.items[key]; ok {
		m.remove(el)
	}
	return nil
}

// Len returns the number of stored entries, expired ones included until purged.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close stops the sweeper. It is idempotent.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.stop)
	}
	return nil
}

// Purge removes every expired entry.
func (m *Memory[V]) Purge() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for el := m.order.Back(); el != nil; {
		prev := el.Prev()
		if m.expired(el.Value.(*memoryItem[V])) {
			m.remove(el)
		}
		el = prev
	}
}

func (m *Memory[V]) sweeper() {
	t := time.NewTicker(m.sweep)
	defer t.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-t.C:
			m.Purge()
		}
	}
}

func (m *Memory[V]) expired(it *memoryItem[V]) bool {
	return !it.expires.IsZero() && m.now().After(it.expires)
}

// remove must be called with mu held.
func (m *Memory[V]) remove(el *list.Element) {
	m.order.Remove(el)
	delete(m.items, el.Value.(*memoryItem[V]).key)
}

var _ Cache[any] = (*Memory[any])(nil)
