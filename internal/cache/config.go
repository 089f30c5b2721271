package cache

import "time"

const (
	// DefaultTTL is how long an entry lives when the caller gives no TTL.
	DefaultTTL = 5 * time.Minute
	// DefaultStaleTime is the age after which an entry is served as stale.
	DefaultStaleTime = 30 * time.Second
	// DefaultGCInterval is the period of the expired-entry sweep.
	DefaultGCInterval = 10 * time.Minute
	// DefaultMaxSize is the hard cap on entry count.
	DefaultMaxSize = 100
	// DefaultMaxMemoryUsage is the soft cap on estimated memory (50 MB).
	DefaultMaxMemoryUsage int64 = 50 * 1024 * 1024
)

// Config holds the process-wide cache settings, fixed at construction.
// StaleTime should not exceed DefaultTTL, otherwise entries expire before
// they can ever be revalidated in the background.
type Config struct {
	DefaultTTL     time.Duration
	StaleTime      time.Duration
	GCInterval     time.Duration
	MaxSize        int
	MaxMemoryUsage int64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTTL:     DefaultTTL,
		StaleTime:      DefaultStaleTime,
		GCInterval:     DefaultGCInterval,
		MaxSize:        DefaultMaxSize,
		MaxMemoryUsage: DefaultMaxMemoryUsage,
	}
}

// withDefaults fills every non-positive field from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = d.DefaultTTL
	}
	if c.StaleTime <= 0 {
		c.StaleTime = d.StaleTime
	}
	if c.GCInterval <= 0 {
		c.GCInterval = d.GCInterval
	}
	if c.MaxSize <= 0 {
		c.MaxSize = d.MaxSize
	}
	if c.MaxMemoryUsage <= 0 {
		c.MaxMemoryUsage = d.MaxMemoryUsage
	}
	return c
}
