package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingFetcher returns value once release is closed and counts calls.
func blockingFetcher(value string, release <-chan struct{}, calls *atomic.Int32) Fetcher[string] {
	return func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		return value, nil
	}
}

func staticFetcher(value string, calls *atomic.Int32) Fetcher[string] {
	return func(ctx context.Context) (string, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestQuery_ColdKeyForegroundFetch(t *testing.T) {
	m, _ := newTestManager(t, DefaultConfig())
	release := make(chan struct{})
	var calls atomic.Int32

	q := NewQuery(context.Background(), m, "/r", blockingFetcher("fresh", release, &calls))
	defer q.Close()

	state := q.State()
	assert.True(t, state.Loading)
	assert.False(t, state.HasData)

	close(release)
	q.Wait()

	state = q.State()
	assert.Equal(t, "fresh", state.Data)
	assert.True(t, state.HasData)
	assert.False(t, state.Loading)
	assert.False(t, state.IsStale)
	assert.NoError(t, state.Err)
	assert.Equal(t, int32(1), calls.Load())

	entry, ok := m.Get("/r")
	require.True(t, ok)
	assert.Equal(t, "fresh", entry.Data)
	assert.False(t, m.IsLoading("/r"))
}

func TestQuery_FreshHitSkipsFetch(t *testing.T) {
	m, _ := newTestManager(t, DefaultConfig())
	m.Set("/r", "cached", time.Minute)
	var calls atomic.Int32

	q := NewQuery(context.Background(), m, "/r", staticFetcher("fetched", &calls))
	defer q.Close()
	q.Wait()

	state := q.State()
	assert.Equal(t, "cached", state.Data)
	assert.False(t, state.Loading)
	assert.False(t, state.IsStale)
	assert.Zero(t, calls.Load())
}

func TestQuery_StaleWhileRevalidate(t *testing.T) {
	m, clock := newTestManager(t, Config{StaleTime: 10 * time.Millisecond})
	m.Set("/r", "old", time.Minute)
	clock.Advance(20 * time.Millisecond)

	release := make(chan struct{})
	var calls atomic.Int32
	q := NewQuery(context.Background(), m, "/r", blockingFetcher("new", release, &calls))
	defer q.Close()

	state := q.State()
	assert.Equal(t, "old", state.Data)
	assert.True(t, state.IsStale)
	assert.False(t, state.Loading, "background revalidation never sets Loading")
	assert.False(t, m.IsLoading("/r"))

	close(release)
	q.Wait()

	state = q.State()
	assert.Equal(t, "new", state.Data)
	assert.False(t, state.IsStale)
	assert.False(t, state.Loading)
	assert.Equal(t, int32(1), calls.Load())
}

func TestQuery_BindingStaleTimeOverride(t *testing.T) {
	m, clock := newTestManager(t, Config{StaleTime: time.Hour})
	m.Set("/r", "old", time.Hour)
	clock.Advance(10 * time.Millisecond)

	var calls atomic.Int32
	q := NewQuery(context.Background(), m, "/r", staticFetcher("new", &calls), WithStaleTime(5*time.Millisecond))
	defer q.Close()
	q.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "new", q.State().Data)
}

func TestQuery_FetchFailure(t *testing.T) {
	boom := errors.New("boom")
	failing := func(ctx context.Context) (string, error) { return "", boom }

	t.Run("background failure keeps stale data", func(t *testing.T) {
		m, clock := newTestManager(t, Config{StaleTime: 10 * time.Millisecond})
		m.Set("/r", "old", time.Minute)
		clock.Advance(20 * time.Millisecond)

		q := NewQuery(context.Background(), m, "/r", failing)
		defer q.Close()
		q.Wait()

		state := q.State()
		assert.Equal(t, "old", state.Data)
		assert.True(t, state.HasData)
		assert.ErrorIs(t, state.Err, boom)
		assert.False(t, state.Loading)

		entry, ok := m.Get("/r")
		require.True(t, ok)
		assert.Equal(t, "old", entry.Data)
	})

	t.Run("foreground failure leaves key absent", func(t *testing.T) {
		m, _ := newTestManager(t, DefaultConfig())

		q := NewQuery(context.Background(), m, "/r", failing)
		defer q.Close()
		q.Wait()

		state := q.State()
		assert.False(t, state.HasData)
		assert.False(t, state.Loading)
		assert.ErrorIs(t, state.Err, boom)
		assert.False(t, m.Has("/r"))
	})

	t.Run("mutate returns the error", func(t *testing.T) {
		m, _ := newTestManager(t, DefaultConfig())
		m.Set("/r", "old", time.Minute)

		q := NewQuery(context.Background(), m, "/r", failing)
		defer q.Close()

		err := q.Mutate(context.Background())

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, "old", q.State().Data)
		assert.False(t, m.IsLoading("/r"))
	})
}

func TestQuery_Disabled(t *testing.T) {
	m, _ := newTestManager(t, DefaultConfig())
	var calls atomic.Int32

	q := NewQuery(context.Background(), m, "/r", staticFetcher("v", &calls), WithEnabled(false))
	defer q.Close()
	q.Wait()

	assert.Zero(t, calls.Load())
	assert.False(t, q.State().Loading)
	assert.False(t, q.State().HasData)

	require.NoError(t, q.Mutate(context.Background()))
	assert.Equal(t, "v", q.State().Data)
	assert.Equal(t, int32(1), calls.Load())
}

func TestQuery_DisabledStaleDoesNotRevalidate(t *testing.T) {
	m, clock := newTestManager(t, Config{StaleTime: time.Millisecond})
	m.Set("/r", "old", time.Minute)
	clock.Advance(time.Second)
	var calls atomic.Int32

	q := NewQuery(context.Background(), m, "/r", staticFetcher("new", &calls), WithEnabled(false))
	defer q.Close()
	q.Wait()

	assert.Zero(t, calls.Load())
	assert.Equal(t, "old", q.State().Data)
	assert.True(t, q.State().IsStale)
}

func TestQuery_SharedKeyPropagation(t *testing.T) {
	m, _ := newTestManager(t, DefaultConfig())
	var callsA, callsB atomic.Int32

	a := NewQuery(context.Background(), m, "/r", staticFetcher("a", &callsA))
	defer a.Close()
	a.Wait()

	b := NewQuery(context.Background(), m, "/r", staticFetcher("b", &callsB))
	defer b.Close()
	b.Wait()
	assert.Equal(t, "a", b.State().Data, "second binding adopts the fresh entry")
	assert.Zero(t, callsB.Load())

	require.NoError(t, b.Mutate(context.Background()))

	assert.Equal(t, "b", a.State().Data)
	assert.Equal(t, "b", b.State().Data)
}

func TestQuery_RedundantColdFetches(t *testing.T) {
	m, _ := newTestManager(t, DefaultConfig())
	release := make(chan struct{})
	var calls atomic.Int32

	a := NewQuery(context.Background(), m, "/r", blockingFetcher("v", release, &calls))
	b := NewQuery(context.Background(), m, "/r", blockingFetcher("v", release, &calls))
	defer a.Close()
	defer b.Close()

	close(release)
	a.Wait()
	b.Wait()

	assert.Equal(t, int32(2), calls.Load(), "concurrent cold activations are not deduplicated")
	assert.Equal(t, "v", a.State().Data)
	assert.Equal(t, "v", b.State().Data)
}

func TestQuery_LastCompletedWriteWins(t *testing.T) {
	m, _ := newTestManager(t, DefaultConfig())

	gates := []chan struct{}{make(chan struct{}), make(chan struct{})}
	started := make(chan struct{}, 2)
	var n atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		i := n.Add(1) - 1
		started <- struct{}{}
		<-gates[i]
		return fmt.Sprintf("call-%d", i), nil
	}

	q := NewQuery(context.Background(), m, "/r", fetch, WithEnabled(false))
	defer q.Close()

	errs := make(chan error, 2)
	go func() { errs <- q.Mutate(context.Background()) }()
	<-started
	go func() { errs <- q.Mutate(context.Background()) }()
	<-started

	close(gates[1])
	require.NoError(t, <-errs)
	close(gates[0])
	require.NoError(t, <-errs)

	entry, ok := m.Get("/r")
	require.True(t, ok)
	assert.Equal(t, "call-0", entry.Data)
	assert.Equal(t, "call-0", q.State().Data)
}

func TestQuery_Invalidate(t *testing.T) {
	m, _ := newTestManager(t, DefaultConfig())
	m.Set("/r", "v", time.Minute)
	var calls atomic.Int32

	a := NewQuery(context.Background(), m, "/r", staticFetcher("v", &calls))
	b := NewQuery(context.Background(), m, "/r", staticFetcher("v", &calls))
	defer a.Close()
	defer b.Close()

	a.Invalidate()

	assert.False(t, m.Has("/r"))
	assert.False(t, a.State().HasData)
	assert.False(t, b.State().HasData, "peers observe the removal")
	assert.Empty(t, b.State().Data)
}

func TestQuery_SetKey(t *testing.T) {
	m, _ := newTestManager(t, DefaultConfig())
	var calls atomic.Int32

	q := NewQuery(context.Background(), m, "/a", staticFetcher("v", &calls))
	defer q.Close()
	q.Wait()

	q.SetKey("/b")
	q.Wait()

	assert.Equal(t, "/b", q.Key())
	assert.True(t, m.Has("/b"))
	assert.Equal(t, int32(2), calls.Load())

	m.Set("/a", "other", time.Minute)
	assert.Equal(t, "v", q.State().Data, "old key no longer reaches the binding")
	assert.Equal(t, 1, m.Stats().Subscribers)

	q.SetKey("/b")
	q.Wait()
	assert.Equal(t, int32(2), calls.Load(), "same key is a no-op")
}

func TestQuery_Close(t *testing.T) {
	m, _ := newTestManager(t, DefaultConfig())
	m.Set("/r", "v", time.Minute)
	var calls atomic.Int32

	q := NewQuery(context.Background(), m, "/r", staticFetcher("v", &calls))
	q.Close()
	q.Close()

	m.Set("/r", "after", time.Minute)

	assert.Equal(t, "v", q.State().Data)
	assert.Zero(t, m.Stats().Subscribers)
}

func TestQuery_ForegroundFetchHonoursCallerContext(t *testing.T) {
	m, _ := newTestManager(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())

	fetch := func(fctx context.Context) (string, error) {
		<-fctx.Done()
		return "", fctx.Err()
	}

	q := NewQuery(ctx, m, "/r", fetch)
	defer q.Close()
	cancel()
	q.Wait()

	st := q.State()
	assert.ErrorIs(t, st.Err, context.Canceled)
	assert.False(t, st.Loading)
	assert.False(t, m.Has("/r"))
}

func TestQuery_BackgroundRefetchOutlivesCallerContext(t *testing.T) {
	m, clock := newTestManager(t, DefaultConfig())
	m.Set("/r", "old", time.Minute)
	clock.Advance(45 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	fetch := func(fctx context.Context) (string, error) {
		<-release
		if err := fctx.Err(); err != nil {
			return "", err
		}
		return "new", nil
	}

	q := NewQuery(ctx, m, "/r", fetch)
	defer q.Close()
	require.True(t, q.State().IsStale)
	cancel()
	close(release)
	q.Wait()

	entry, ok := m.Get("/r")
	require.True(t, ok)
	assert.Equal(t, "new", entry.Data)
}

func TestQuery_TypeMismatch(t *testing.T) {
	t.Run("cached value of another type is refetched", func(t *testing.T) {
		m, _ := newTestManager(t, DefaultConfig())
		m.Set("/r", 42, time.Minute)
		var calls atomic.Int32

		q := NewQuery(context.Background(), m, "/r", staticFetcher("s", &calls))
		defer q.Close()
		q.Wait()

		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, "s", q.State().Data)
	})

	t.Run("pushed value of another type is ignored", func(t *testing.T) {
		m, _ := newTestManager(t, DefaultConfig())
		m.Set("/r", "s", time.Minute)
		var calls atomic.Int32

		q := NewQuery(context.Background(), m, "/r", staticFetcher("s", &calls))
		defer q.Close()

		m.Set("/r", 5, time.Minute)

		assert.Equal(t, "s", q.State().Data)
	})
}

func TestQuery_WithTTL(t *testing.T) {
	m, _ := newTestManager(t, DefaultConfig())
	var calls atomic.Int32

	q := NewQuery(context.Background(), m, "/r", staticFetcher("v", &calls), WithTTL(time.Hour))
	defer q.Close()
	q.Wait()

	entry, ok := m.Get("/r")
	require.True(t, ok)
	assert.Equal(t, time.Hour, entry.TTL)
}

func TestQuery_OnChange(t *testing.T) {
	m, _ := newTestManager(t, DefaultConfig())
	var calls, changes atomic.Int32

	q := NewQuery(context.Background(), m, "/r", staticFetcher("v", &calls), WithOnChange(func() {
		changes.Add(1)
	}))
	defer q.Close()
	q.Wait()

	assert.Positive(t, changes.Load())
}

type fetchRecorder struct {
	noopRecorder
	mu         sync.Mutex
	foreground int
	background int
	failures   int
}

func (r *fetchRecorder) RecordFetch(_ time.Duration, foreground bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if foreground {
		r.foreground++
	} else {
		r.background++
	}
	if err != nil {
		r.failures++
	}
}

func TestQuery_FetchRecorder(t *testing.T) {
	rec := &fetchRecorder{}
	clock := newFakeClock()
	m := NewManager(Config{StaleTime: time.Millisecond}, WithClock(clock.Now), WithoutGC(), WithRecorder(rec), WithLogger(zerolog.Nop()))
	defer m.Destroy()
	var calls atomic.Int32

	q := NewQuery(context.Background(), m, "/r", staticFetcher("v", &calls))
	q.Wait()
	q.Close()

	clock.Advance(time.Second)
	q2 := NewQuery(context.Background(), m, "/r", staticFetcher("v2", &calls))
	q2.Wait()
	q2.Close()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 1, rec.foreground)
	assert.Equal(t, 1, rec.background)
	assert.Zero(t, rec.failures)
}

func TestUseCache(t *testing.T) {
	var calls atomic.Int32

	t.Run("without provider", func(t *testing.T) {
		q, err := UseCache(context.Background(), "/r", staticFetcher("v", &calls))
		assert.ErrorIs(t, err, ErrNoProvider)
		assert.Nil(t, q)
	})

	t.Run("with provider", func(t *testing.T) {
		p := NewProvider(DefaultConfig(), WithoutGC(), WithLogger(zerolog.Nop()))
		defer p.Close()
		ctx := WithProvider(context.Background(), p)

		q, err := UseCache(ctx, "/r", staticFetcher("v", &calls))
		require.NoError(t, err)
		defer q.Close()
		q.Wait()

		assert.Equal(t, "v", q.State().Data)
		assert.True(t, p.Manager().Has("/r"))
	})
}

func TestUsePageCache(t *testing.T) {
	p := NewProvider(DefaultConfig(), WithoutGC(), WithLogger(zerolog.Nop()))
	defer p.Close()
	ctx := WithProvider(context.Background(), p)
	var calls atomic.Int32

	params := map[string]any{"status": "open", "page": 1, "q": ""}
	q, err := UsePageCache(ctx, "/hackathons", params, staticFetcher("list", &calls))
	require.NoError(t, err)
	defer q.Close()
	q.Wait()

	assert.Equal(t, "/hackathons?page=1&status=open", q.Key())
	assert.True(t, p.Manager().Has("/hackathons?page=1&status=open"))
}

func TestQuery_FollowsLastWriteUnderOverlappingPushes(t *testing.T) {
	m, _ := newTestManager(t, DefaultConfig())
	m.Set("/k", "seed", time.Minute)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var q *Query[string]
	q = NewQuery(context.Background(), m, "/k", staticFetcher("unused", new(atomic.Int32)),
		WithOnChange(func() {
			if q != nil && q.State().Data == "A" {
				once.Do(func() {
					close(entered)
					<-release
				})
			}
		}))
	defer q.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Set("/k", "A", time.Minute)
	}()
	<-entered

	m.Set("/k", "B", time.Minute)
	close(release)
	<-done

	assert.Equal(t, "B", q.State().Data)
}
