// Package cache provides an in-process stale-while-revalidate cache.
//
// A Manager owns every entry, computes TTL expiry and staleness lazily on
// read, bounds itself by entry count and estimated memory, and notifies
// subscribers of a key whenever that key is written, flagged as loading or
// removed. Query binds an arbitrary fetch function to one key on top of it.
package cache

import (
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Subscriber receives the new data for a key, or nil once the entry is gone.
type Subscriber func(data any)

// Recorder receives operation and size signals from a Manager.
// It is implemented by the metrics package.
type Recorder interface {
	RecordOperation(operation, result string)
	RecordSize(size, capacity int, memory, maxMemory int64)
}

type noopRecorder struct{}

func (noopRecorder) RecordOperation(string, string)    {}
func (noopRecorder) RecordSize(int, int, int64, int64) {}

// subscription serializes deliveries to one Subscriber. Each push carries
// the version of the write that produced it, taken under the manager lock;
// a push older than one already accepted is dropped, and pushes arriving
// while the subscriber is running are coalesced to the newest. A subscriber
// therefore always ends on the value of the last write to its key.
type subscription struct {
	fn Subscriber

	mu         sync.Mutex
	accepted   uint64
	pending    any
	hasPending bool
	draining   bool
}

func (s *subscription) deliver(version uint64, data any) {
	s.mu.Lock()
	if version <= s.accepted {
		s.mu.Unlock()
		return
	}
	s.accepted = version
	s.pending, s.hasPending = data, true
	if s.draining {
		// The goroutine already delivering picks this up next.
		s.mu.Unlock()
		return
	}
	s.draining = true
	for s.hasPending {
		next := s.pending
		s.pending, s.hasPending = nil, false
		s.mu.Unlock()
		s.call(next)
		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
}

// call runs the subscriber and releases the drain if it panics.
func (s *subscription) call(data any) {
	done := false
	defer func() {
		if !done {
			s.mu.Lock()
			s.draining = false
			s.pending, s.hasPending = nil, false
			s.mu.Unlock()
		}
	}()
	s.fn(data)
	done = true
}

// item is the stored form of an Entry.
type item struct {
	Entry
	seq  uint64 // insertion order, breaks timestamp ties during eviction
	size int64  // estimated bytes, computed once on write
}

// Manager is the authoritative store of cache entries. It is safe for
// concurrent use. Each operation mutates the maps under a single lock
// acquisition; subscribers run after the lock is released, on the goroutine
// that triggered the change, or on the goroutine already delivering to that
// subscriber when writes overlap.
//
// Concurrent writers to one key are not fenced: the last Set to complete
// wins, and every subscriber of the key settles on that value.
type Manager struct {
	mu          sync.Mutex
	cfg         Config
	entries     map[string]*item
	subscribers map[string]map[uint64]*subscription
	seq         uint64
	version     uint64
	nextSubID   uint64

	now      func() time.Time
	logger   zerolog.Logger
	recorder Recorder

	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	disableGC bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now. Tests use it to drive staleness and expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger used for maintenance events.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithRecorder wires operation counters and size gauges.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithoutGC skips the background sweep. Expired entries are still removed
// lazily on read and by RunGC.
func WithoutGC() Option {
	return func(m *Manager) {
		m.disableGC = true
	}
}

// NewManager creates a Manager and starts its garbage-collection goroutine.
// Call Destroy when the owning scope shuts down.
func NewManager(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:         cfg.withDefaults(),
		entries:     make(map[string]*item),
		subscribers: make(map[string]map[uint64]*subscription),
		now:         time.Now,
		logger:      log.Logger.With().Str("component", "cache").Logger(),
		recorder:    noopRecorder{},
		stopCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	if !m.disableGC {
		m.wg.Add(1)
		go m.gcLoop()
	}
	return m
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// GenerateKey builds the canonical key for route and params.
func (m *Manager) GenerateKey(route string, params map[string]any) string {
	return GenerateKey(route, params)
}

// Get returns the entry for key. An entry older than its TTL is deleted and
// reported as absent. An entry older than the stale threshold has IsStale
// set on the stored entry as a side effect of this read, so later readers
// and revalidation logic observe the transition too.
func (m *Manager) Get(key string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.entries[key]
	if !ok {
		m.recorder.RecordOperation("get", "miss")
		return Entry{}, false
	}

	now := m.now()
	if it.expired(now) {
		delete(m.entries, key)
		m.recordSizeLocked()
		m.recorder.RecordOperation("get", "expired")
		return Entry{}, false
	}

	if now.Sub(it.Timestamp) > m.cfg.StaleTime {
		it.IsStale = true
		m.recorder.RecordOperation("get", "stale")
	} else {
		m.recorder.RecordOperation("get", "hit")
	}
	return it.Entry, true
}

// Set stores data under key, replacing any previous entry, and notifies the
// key's subscribers. A ttl <= 0 uses the configured default. Size and memory
// limits are enforced before the new entry is inserted.
func (m *Manager) Set(key string, data any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.cfg.DefaultTTL
	}
	size := estimateSize(key, data)

	m.mu.Lock()
	m.enforceLimitsLocked()
	m.seq++
	m.entries[key] = &item{
		Entry: Entry{
			Data:      data,
			Timestamp: m.now(),
			TTL:       ttl,
		},
		seq:  m.seq,
		size: size,
	}
	subs, version := m.subscribersLocked(key)
	m.recordSizeLocked()
	m.mu.Unlock()

	m.recorder.RecordOperation("set", "success")
	notify(subs, version, data)
}

// SetLoading flips the loading flag of an existing entry and notifies
// subscribers with the entry's current data. It is a no-op for absent keys.
func (m *Manager) SetLoading(key string, loading bool) {
	m.mu.Lock()
	it, ok := m.entries[key]
	if !ok {
		m.mu.Unlock()
		return
	}
	it.Loading = loading
	data := it.Data
	subs, version := m.subscribersLocked(key)
	m.mu.Unlock()

	notify(subs, version, data)
}

// Has reports whether Get would return an entry.
func (m *Manager) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// IsStale reports whether the entry for key is stale. Absent keys are not stale.
func (m *Manager) IsStale(key string) bool {
	e, ok := m.Get(key)
	return ok && e.IsStale
}

// IsLoading reports whether a foreground fetch is in flight for key.
func (m *Manager) IsLoading(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.entries[key]
	return ok && it.Loading
}

// Invalidate deletes the entry for key and notifies its subscribers with nil.
// Invalidating an absent key is harmless.
func (m *Manager) Invalidate(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	subs, version := m.subscribersLocked(key)
	m.recordSizeLocked()
	m.mu.Unlock()

	m.recorder.RecordOperation("invalidate", "success")
	notify(subs, version, nil)
}

// InvalidatePattern deletes every key matched by the regular expression
// pattern and notifies each key's subscribers. An invalid pattern deletes
// nothing and returns an error. It returns the number of deleted keys.
func (m *Manager) InvalidatePattern(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	m.mu.Lock()
	var removed []string
	for key := range m.entries {
		if re.MatchString(key) {
			delete(m.entries, key)
			removed = append(removed, key)
		}
	}
	var (
		subs    []*subscription
		version uint64
	)
	for _, key := range removed {
		var group []*subscription
		group, version = m.subscribersLocked(key)
		subs = append(subs, group...)
	}
	m.recordSizeLocked()
	m.mu.Unlock()

	m.recorder.RecordOperation("invalidate_pattern", "success")
	notify(subs, version, nil)
	return len(removed), nil
}

// Clear deletes every entry and notifies every subscriber group with nil.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]*item)
	var (
		all     []*subscription
		version uint64
	)
	for key := range m.subscribers {
		var group []*subscription
		group, version = m.subscribersLocked(key)
		all = append(all, group...)
	}
	m.recordSizeLocked()
	m.mu.Unlock()

	m.recorder.RecordOperation("clear", "success")
	notify(all, version, nil)
}

// Subscribe registers fn for changes to key. The returned function removes
// exactly this registration; removing the last one drops the key's group.
func (m *Manager) Subscribe(key string, fn Subscriber) (unsubscribe func()) {
	m.mu.Lock()
	m.nextSubID++
	id := m.nextSubID
	group, ok := m.subscribers[key]
	if !ok {
		group = make(map[uint64]*subscription)
		m.subscribers[key] = group
	}
	group[id] = &subscription{fn: fn}
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			group, ok := m.subscribers[key]
			if !ok {
				return
			}
			delete(group, id)
			if len(group) == 0 {
				delete(m.subscribers, key)
			}
		})
	}
}

// Destroy stops the GC goroutine and empties entries and subscribers.
// It is safe to call more than once; the Manager is not meant to be reused.
func (m *Manager) Destroy() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()

		m.mu.Lock()
		m.entries = make(map[string]*item)
		m.subscribers = make(map[string]map[uint64]*subscription)
		m.recordSizeLocked()
		m.mu.Unlock()

		m.logger.Debug().Msg("Cache manager destroyed")
	})
}

// Stats returns a diagnostic snapshot without side effects.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	mem := m.memoryLocked()

	return Stats{
		Size:                  len(m.entries),
		MaxSize:               m.cfg.MaxSize,
		EstimatedMemoryUsage:  mem,
		MaxMemoryUsage:        m.cfg.MaxMemoryUsage,
		MemoryUsagePercentage: float64(mem) / float64(m.cfg.MaxMemoryUsage) * 100,
		Entries:               keys,
		Subscribers:           len(m.subscribers),
	}
}

// subscribersLocked copies the subscriptions registered for key and stamps
// the change with a new version.
func (m *Manager) subscribersLocked(key string) ([]*subscription, uint64) {
	m.version++
	group := m.subscribers[key]
	if len(group) == 0 {
		return nil, m.version
	}
	subs := make([]*subscription, 0, len(group))
	for _, s := range group {
		subs = append(subs, s)
	}
	return subs, m.version
}

func (m *Manager) recordSizeLocked() {
	m.recorder.RecordSize(len(m.entries), m.cfg.MaxSize, m.memoryLocked(), m.cfg.MaxMemoryUsage)
}

func notify(subs []*subscription, version uint64, data any) {
	for _, s := range subs {
		s.deliver(version, data)
	}
}
