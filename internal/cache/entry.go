package cache

import "time"

// Entry is a snapshot of one cached value.
//
// IsStale implies the entry has not exceeded its TTL: expired entries are
// deleted, never marked stale. Loading is independent of staleness, so a
// loading entry may still carry previously cached data.
type Entry struct {
	Data      any
	Timestamp time.Time
	TTL       time.Duration
	IsStale   bool
	Loading   bool
}

// Age returns how old the entry is relative to now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.Timestamp)
}

// expired reports whether the entry outlived its own TTL.
func (e *Entry) expired(now time.Time) bool {
	return now.Sub(e.Timestamp) > e.TTL
}

// Stats is a diagnostic snapshot of a Manager.
type Stats struct {
	Size                  int      `json:"size"`
	MaxSize               int      `json:"max_size"`
	EstimatedMemoryUsage  int64    `json:"estimated_memory_usage"`
	MaxMemoryUsage        int64    `json:"max_memory_usage"`
	MemoryUsagePercentage float64  `json:"memory_usage_percentage"`
	Entries               []string `json:"entries"`
	Subscribers           int      `json:"subscribers"`
}
