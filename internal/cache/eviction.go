package cache

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	// sizeEvictionRatio is the share of entries dropped when the count limit is hit.
	sizeEvictionRatio = 0.2
	// memoryTargetRatio is the fraction of MaxMemoryUsage the memory pass shrinks to.
	memoryTargetRatio = 0.8
	// fallbackDataSize is charged for data that cannot be serialized.
	fallbackDataSize int64 = 1024
)

// estimateSize approximates the footprint of one entry: two bytes per key
// character plus two bytes per character of the JSON encoding of data. It is
// a heuristic for triggering eviction, not a measurement.
func estimateSize(key string, data any) int64 {
	size := int64(2 * len(key))
	raw, err := json.Marshal(data)
	if err != nil {
		return size + fallbackDataSize
	}
	return size + int64(2*len(raw))
}

func (m *Manager) memoryLocked() int64 {
	var total int64
	for _, it := range m.entries {
		total += it.size
	}
	return total
}

type keyedItem struct {
	key string
	*item
}

// oldestFirstLocked returns all entries sorted by write time, oldest first.
func (m *Manager) oldestFirstLocked() []keyedItem {
	items := make([]keyedItem, 0, len(m.entries))
	for key, it := range m.entries {
		items = append(items, keyedItem{key: key, item: it})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Timestamp.Equal(items[j].Timestamp) {
			return items[i].seq < items[j].seq
		}
		return items[i].Timestamp.Before(items[j].Timestamp)
	})
	return items
}

// enforceLimitsLocked applies the size limit and then the memory limit.
// Evicted keys are not announced to subscribers.
func (m *Manager) enforceLimitsLocked() {
	if len(m.entries) >= m.cfg.MaxSize {
		n := int(float64(len(m.entries)) * sizeEvictionRatio)
		if n < 1 {
			n = 1
		}
		for _, it := range m.oldestFirstLocked()[:n] {
			delete(m.entries, it.key)
		}
		m.recorder.RecordOperation("evict", "size")
		m.logger.Debug().
			Int("evicted", n).
			Int("max_size", m.cfg.MaxSize).
			Msg("Cache size limit reached, evicted oldest entries")
	}
	m.enforceMemoryLocked()
}

// enforceMemoryLocked drops the oldest entries until the estimate is back
// under memoryTargetRatio of the limit.
func (m *Manager) enforceMemoryLocked() {
	total := m.memoryLocked()
	if total <= m.cfg.MaxMemoryUsage {
		return
	}

	target := int64(float64(m.cfg.MaxMemoryUsage) * memoryTargetRatio)
	evicted := 0
	for _, it := range m.oldestFirstLocked() {
		if total <= target {
			break
		}
		delete(m.entries, it.key)
		total -= it.size
		evicted++
	}
	m.recorder.RecordOperation("evict", "memory")
	m.logger.Debug().
		Int("evicted", evicted).
		Int64("estimated_bytes", total).
		Int64("max_bytes", m.cfg.MaxMemoryUsage).
		Msg("Cache memory limit exceeded, evicted oldest entries")
}

// gcLoop runs the periodic sweep until Destroy.
func (m *Manager) gcLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.RunGC()
		case <-m.stopCh:
			return
		}
	}
}

// RunGC deletes every entry older than its own TTL and re-applies the memory
// limit. Subscribers are not notified; consumers miss on their next read.
// It returns the number of expired entries removed.
func (m *Manager) RunGC() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	expired := 0
	for key, it := range m.entries {
		if it.expired(now) {
			delete(m.entries, key)
			expired++
		}
	}
	m.enforceMemoryLocked()
	m.recordSizeLocked()

	if expired > 0 {
		m.recorder.RecordOperation("gc", "expired")
		m.logger.Debug().Int("expired", expired).Int("remaining", len(m.entries)).Msg("Cache GC sweep")
	}
	return expired
}
