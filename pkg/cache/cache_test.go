package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edmunds-dev/edmunds/pkg/cache"
)

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
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

func newMemory[V any](t *testing.T, opts ...cache.MemoryOption) *cache.Memory[V] {
	t.Helper()
	m := cache.NewMemory[V](append([]cache.MemoryOption{cache.WithSweepInterval(0)}, opts...)...)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMemory_GetSet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()
		m := newMemory[string](t)

		_, err := m.Get(ctx, "nope")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("stores and overwrites", func(t *testing.T) {
		t.Parallel()
		m := newMemory[int](t)

		require.NoError(t, m.Set(ctx, "a", 1, 0))
		require.NoError(t, m.Set(ctx, "a", 2, 0))

		v, err := m.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, 2, v)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		m := newMemory[int](t)

		require.NoError(t, m.Set(ctx, "a", 1, 0))
		require.NoError(t, m.Delete(ctx, "a"))
		require.NoError(t, m.Delete(ctx, "a"))

		_, err := m.Get(ctx, "a")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})
}

func TestMemory_TTL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := &fakeClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	m := newMemory[string](t, cache.WithClock(clock.Now), cache.WithDefaultTTL(time.Minute))

	require.NoError(t, m.Set(ctx, "short", "x", 10*time.Second))
	require.NoError(t, m.Set(ctx, "default", "y", 0))
	require.NoError(t, m.Set(ctx, "forever", "z", -1))

	clock.Advance(11 * time.Second)
	_, err := m.Get(ctx, "short")
	require.ErrorIs(t, err, cache.ErrNotFound)

	v, err := m.Get(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "y", v)

	clock.Advance(time.Hour)
	m.Purge()
	assert.Equal(t, 1, m.Len())

	v, err = m.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "z", v)
}

func TestMemory_MaxEntries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newMemory[int](t, cache.WithMaxEntries(2))

	require.NoError(t, m.Set(ctx, "a", 1, 0))
	require.NoError(t, m.Set(ctx, "b", 2, 0))

	// touch a so b becomes the oldest
	_, err := m.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "c", 3, 0))
	assert.Equal(t, 2, m.Len())

	_, err = m.Get(ctx, "b")
	require.ErrorIs(t, err, cache.ErrNotFound)
	_, err = m.Get(ctx, "a")
	require.NoError(t, err)
	_, err = m.Get(ctx, "c")
	require.NoError(t, err)
}

func TestMemory_Close(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := cache.NewMemory[int](cache.WithSweepInterval(time.Millisecond))

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	require.ErrorIs(t, m.Set(ctx, "a", 1, 0), cache.ErrClosed)
	require.ErrorIs(t, m.Delete(ctx, "a"), cache.ErrClosed)
}

func TestJSON(t *testing.T) {
	t.Parallel()

	type user struct {
		Name  string   `json:"name"`
		Roles []string `json:"roles"`
	}

	var codec cache.JSON[user]
	data, err := codec.Encode(user{Name: "ada", Roles: []string{"admin"}})
	require.NoError(t, err)

	got, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Name)
	assert.Equal(t, []string{"admin"}, got.Roles)

	_, err = codec.Decode([]byte("{"))
	require.ErrorIs(t, err, cache.ErrDecode)

	_, err = cache.JSON[chan int]{}.Encode(make(chan int))
	require.ErrorIs(t, err, cache.ErrEncode)
}

func TestLoader(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("loads once and caches", func(t *testing.T) {
		t.Parallel()
		l := cache.NewLoader[string](newMemory[string](t))

		var calls atomic.Int32
		load := func(context.Context) (string, error) {
			calls.Add(1)
			return "v", nil
		}

		for range 3 {
			v, err := l.Get(ctx, "k", time.Minute, load)
			require.NoError(t, err)
			assert.Equal(t, "v", v)
		}
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("concurrent misses share one load", func(t *testing.T) {
		t.Parallel()
		l := cache.NewLoader[int](newMemory[int](t))

		var calls atomic.Int32
		release := make(chan struct{})
		load := func(context.Context) (int, error) {
			calls.Add(1)
			<-release
			return 42, nil
		}

		var wg sync.WaitGroup
		results := make([]int, 8)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := l.Get(ctx, "shared", time.Minute, load)
				assert.NoError(t, err)
				results[i] = v
			}()
		}

		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		for _, v := range results {
			assert.Equal(t, 42, v)
		}
		assert.LessOrEqual(t, calls.Load(), int32(len(results)))
		assert.GreaterOrEqual(t, calls.Load(), int32(1))
	})

	t.Run("load error is not cached", func(t *testing.T) {
		t.Parallel()
		l := cache.NewLoader[string](newMemory[string](t))
		boom := errors.New("boom")

		_, err := l.Get(ctx, "k", time.Minute, func(context.Context) (string, error) { return "", boom })
		require.ErrorIs(t, err, boom)

		v, err := l.Get(ctx, "k", time.Minute, func(context.Context) (string, error) { return "ok", nil })
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
	})

	t.Run("forget reloads", func(t *testing.T) {
		t.Parallel()
		l := cache.NewLoader[int](newMemory[int](t))

		n := 0
		load := func(context.Context) (int, error) { n++; return n, nil }

		v, _ := l.Get(ctx, "k", time.Minute, load)
		assert.Equal(t, 1, v)
		require.NoError(t, l.Forget(ctx, "k"))
		v, _ = l.Get(ctx, "k", time.Minute, load)
		assert.Equal(t, 2, v)
	})
}
