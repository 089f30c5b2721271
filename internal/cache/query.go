package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Fetcher loads the value for one key. It may fail; failures never touch
// the cached value.
type Fetcher[T any] func(ctx context.Context) (T, error)

// FetchRecorder is an optional extension of Recorder that observes fetch
// latency per outcome.
type FetchRecorder interface {
	RecordFetch(duration time.Duration, foreground bool, err error)
}

// State is what a Query exposes to its consumer.
type State[T any] struct {
	Data    T
	HasData bool
	Loading bool
	IsStale bool
	Err     error
}

type queryOptions struct {
	ttl       time.Duration
	staleTime time.Duration
	enabled   bool
	onChange  func()
}

// QueryOption configures a Query.
type QueryOption func(*queryOptions)

// WithTTL sets the TTL passed to Manager.Set for fetched values.
func WithTTL(ttl time.Duration) QueryOption {
	return func(o *queryOptions) {
		o.ttl = ttl
	}
}

// WithStaleTime overrides the manager's stale threshold for this binding.
func WithStaleTime(d time.Duration) QueryOption {
	return func(o *queryOptions) {
		o.staleTime = d
	}
}

// WithEnabled turns automatic fetching on or off. Mutate works either way.
func WithEnabled(enabled bool) QueryOption {
	return func(o *queryOptions) {
		o.enabled = enabled
	}
}

// WithOnChange registers a callback invoked after every change to the
// Query's state. Read the new state with State.
func WithOnChange(fn func()) QueryOption {
	return func(o *queryOptions) {
		o.onChange = fn
	}
}

// Query binds a Fetcher to one cache key and keeps a local view of the
// value in sync with the Manager.
//
// On activation an existing entry is adopted synchronously; a stale one also
// triggers a background refetch that leaves Loading untouched. A missing
// entry triggers a foreground fetch. The foreground fetch started by NewQuery
// and Mutate run on the caller's context. Background refetches, and fetches
// started by SetKey, run on that context detached from its cancellation and
// may still write to the Manager after Close. Two Queries that activate on
// the same cold key both fetch.
type Query[T any] struct {
	m       *Manager
	fetcher Fetcher[T]
	opts    queryOptions
	ctx     context.Context
	logger  zerolog.Logger

	mu          sync.Mutex
	key         string
	state       State[T]
	unsubscribe func()
	closed      bool

	inflight sync.WaitGroup
}

// NewQuery binds fetcher to key on m and activates it.
func NewQuery[T any](ctx context.Context, m *Manager, key string, fetcher Fetcher[T], opts ...QueryOption) *Query[T] {
	o := queryOptions{enabled: true}
	for _, opt := range opts {
		opt(&o)
	}

	q := &Query[T]{
		m:       m,
		fetcher: fetcher,
		opts:    o,
		ctx:     context.WithoutCancel(ctx),
		logger:  m.logger,
	}
	q.activate(ctx, key)
	return q
}

// UseCache binds fetcher to key on the Manager carried by ctx.
// It returns ErrNoProvider when ctx has none.
func UseCache[T any](ctx context.Context, key string, fetcher Fetcher[T], opts ...QueryOption) (*Query[T], error) {
	m, err := FromContext(ctx)
	if err != nil {
		return nil, err
	}
	return NewQuery(ctx, m, key, fetcher, opts...), nil
}

// UsePageCache is UseCache keyed by GenerateKey(route, params).
func UsePageCache[T any](ctx context.Context, route string, params map[string]any, fetcher Fetcher[T], opts ...QueryOption) (*Query[T], error) {
	return UseCache(ctx, GenerateKey(route, params), fetcher, opts...)
}

// Key returns the key the Query is currently bound to.
func (q *Query[T]) Key() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.key
}

// State returns a snapshot of the Query's state.
func (q *Query[T]) State() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Wait blocks until every fetch started by this Query has finished.
func (q *Query[T]) Wait() {
	q.inflight.Wait()
}

// SetKey rebinds the Query to key: the old subscription is dropped, local
// state is reset and the new key is activated.
func (q *Query[T]) SetKey(key string) {
	q.mu.Lock()
	if q.closed || q.key == key {
		q.mu.Unlock()
		return
	}
	unsubscribe := q.unsubscribe
	q.unsubscribe = nil
	q.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	q.activate(q.ctx, key)
}

// Mutate refetches in the foreground regardless of freshness and returns
// the fetch error, which is also recorded in State.
func (q *Query[T]) Mutate(ctx context.Context) error {
	key := q.Key()
	q.beginForeground(key)

	q.inflight.Add(1)
	defer q.inflight.Done()
	return q.fetch(ctx, key, true)
}

// Invalidate deletes the Manager entry and resets the local value.
func (q *Query[T]) Invalidate() {
	key := q.Key()
	q.m.Invalidate(key)

	q.mu.Lock()
	loading := q.state.Loading
	q.state = State[T]{Loading: loading}
	q.mu.Unlock()
	q.changed()
}

// Close drops the subscription. In-flight fetches keep running.
func (q *Query[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	unsubscribe := q.unsubscribe
	q.unsubscribe = nil
	q.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// activate binds key. ctx carries the foreground fetch of a cold key.
func (q *Query[T]) activate(ctx context.Context, key string) {
	q.mu.Lock()
	q.key = key
	q.state = State[T]{}
	q.unsubscribe = q.m.Subscribe(key, q.onPush(key))
	q.mu.Unlock()

	if entry, ok := q.m.Get(key); ok {
		if data, typed := entry.Data.(T); typed {
			stale := q.isStale(entry)
			q.mu.Lock()
			q.state.Data = data
			q.state.HasData = true
			q.state.IsStale = stale
			q.mu.Unlock()
			q.changed()

			if stale && q.opts.enabled {
				q.launch(func() {
					_ = q.fetch(q.ctx, key, false)
				})
			}
			return
		}
		q.logger.Warn().Str("key", key).Msg("Cached value has unexpected type, refetching")
	}

	if !q.opts.enabled {
		return
	}
	q.beginForeground(key)
	q.launch(func() {
		_ = q.fetch(ctx, key, true)
	})
}

func (q *Query[T]) beginForeground(key string) {
	q.mu.Lock()
	if q.key == key {
		q.state.Loading = true
	}
	q.mu.Unlock()
	q.changed()
	q.m.SetLoading(key, true)
}

func (q *Query[T]) launch(fn func()) {
	q.inflight.Add(1)
	go func() {
		defer q.inflight.Done()
		fn()
	}()
}

// fetch runs the fetcher once. Foreground fetches own the Loading flag;
// background ones only update data on success.
func (q *Query[T]) fetch(ctx context.Context, key string, foreground bool) error {
	start := time.Now()
	v, err := q.fetcher(ctx)
	if fr, ok := q.m.recorder.(FetchRecorder); ok {
		fr.RecordFetch(time.Since(start), foreground, err)
	}

	if err != nil {
		q.logger.Warn().
			Err(err).
			Str("key", key).
			Bool("foreground", foreground).
			Msg("Cache fetch failed")
	} else {
		q.m.Set(key, v, q.opts.ttl)
	}

	q.mu.Lock()
	if q.key == key {
		if err != nil {
			q.state.Err = err
		} else {
			q.state.Data = v
			q.state.HasData = true
			q.state.IsStale = false
			q.state.Err = nil
		}
		if foreground {
			q.state.Loading = false
		}
	}
	q.mu.Unlock()

	if foreground {
		q.m.SetLoading(key, false)
	}
	q.changed()
	return err
}

// onPush keeps the local view in sync with writes made by anyone sharing key.
func (q *Query[T]) onPush(key string) Subscriber {
	return func(data any) {
		var (
			v     T
			typed bool
			stale bool
		)
		if data != nil {
			if v, typed = data.(T); !typed {
				q.logger.Warn().Str("key", key).Msg("Ignoring cache update of unexpected type")
				return
			}
			if entry, ok := q.m.Get(key); ok {
				stale = q.isStale(entry)
			}
		}

		q.mu.Lock()
		if q.closed || q.key != key {
			q.mu.Unlock()
			return
		}
		if data == nil {
			var zero T
			q.state.Data = zero
			q.state.HasData = false
			q.state.IsStale = false
		} else {
			q.state.Data = v
			q.state.HasData = true
			q.state.IsStale = stale
		}
		q.mu.Unlock()
		q.changed()
	}
}

func (q *Query[T]) isStale(entry Entry) bool {
	if q.opts.staleTime > 0 {
		return entry.Age(q.m.now()) > q.opts.staleTime
	}
	return entry.IsStale
}

func (q *Query[T]) changed() {
	if q.opts.onChange != nil {
		q.opts.onChange()
	}
}
