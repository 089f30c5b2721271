package middleware

import (
	"hash/fnv"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/hackathon-service/internal/domain/dto"
	"github.com/guttosm/hackathon-service/internal/i18n"
	"github.com/guttosm/hackathon-service/internal/metrics"
)

const (
	// defaultNumShards is the default number of shards for the rate limiter.
	defaultNumShards = 16

	scopeIP      = "ip"
	scopeSubject = "subject"
)

// counter is one identifier's fixed window.
type counter struct {
	used  int
	start time.Time
}

// rateLimiterShard is a single shard of the rate limiter.
type rateLimiterShard struct {
	mu       sync.Mutex
	counters map[string]*counter
}

// verdict is the outcome of taking one request from a window.
type verdict struct {
	allowed   bool
	remaining int
	// reset is the time left until the window restarts.
	reset time.Duration
}

// ShardedRateLimiter is a fixed-window limiter whose counters are spread
// across shards to reduce lock contention. One limiter serves every scope;
// keys are prefixed with the scope so an IP and a subject never collide.
type ShardedRateLimiter struct {
	shards   []*rateLimiterShard
	rate     int
	window   time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a new sharded rate limiter with the specified rate and window.
func NewRateLimiter(rate int, window time.Duration) *ShardedRateLimiter {
	return NewShardedRateLimiter(rate, window, defaultNumShards)
}

// NewShardedRateLimiter creates a new sharded rate limiter with custom shard count.
func NewShardedRateLimiter(rate int, window time.Duration, numShards int) *ShardedRateLimiter {
	if numShards <= 0 {
		numShards = defaultNumShards
	}

	shards := make([]*rateLimiterShard, numShards)
	for i := range shards {
		shards[i] = &rateLimiterShard{counters: make(map[string]*counter)}
	}

	rl := &ShardedRateLimiter{
		shards: shards,
		rate:   rate,
		window: window,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}

	go rl.sweepLoop()
	return rl
}

func (rl *ShardedRateLimiter) shardFor(key string) *rateLimiterShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return rl.shards[h.Sum32()%uint32(len(rl.shards))]
}

// take consumes one request from key's window.
func (rl *ShardedRateLimiter) take(key string) verdict {
	shard := rl.shardFor(key)
	now := rl.now()

	shard.mu.Lock()
	defer shard.mu.Unlock()

	c, ok := shard.counters[key]
	if !ok || now.Sub(c.start) >= rl.window {
		c = &counter{start: now}
		shard.counters[key] = c
	}
	reset := rl.window - now.Sub(c.start)

	if c.used >= rl.rate {
		return verdict{reset: reset}
	}
	c.used++
	return verdict{allowed: true, remaining: rl.rate - c.used, reset: reset}
}

// RateLimit limits requests per client IP.
func (rl *ShardedRateLimiter) RateLimit() gin.HandlerFunc {
	return rl.limit(func(c *gin.Context) (string, string) {
		return scopeIP, c.ClientIP()
	})
}

// SubjectRateLimit limits requests per authenticated subject and falls back
// to the client IP for anonymous requests.
func (rl *ShardedRateLimiter) SubjectRateLimit() gin.HandlerFunc {
	return rl.limit(func(c *gin.Context) (string, string) {
		if subject := c.GetString(SubjectKey); subject != "" {
			return scopeSubject, subject
		}
		return scopeIP, c.ClientIP()
	})
}

func (rl *ShardedRateLimiter) limit(identify func(*gin.Context) (scope, id string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, id := identify(c)
		v := rl.take(scope + ":" + id)

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.rate))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(v.remaining))

		if !v.allowed {
			metrics.RecordRateLimited(scope)
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(v.reset.Seconds()))))
			message := i18n.T(c, i18n.ErrKeyRateLimitExceeded)
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewError(dto.ErrCodeRateLimit, message).WithRequestID(GetRequestID(c)))
			return
		}

		c.Next()
	}
}

// sweepLoop drops finished windows every minute until Stop.
func (rl *ShardedRateLimiter) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stopCh:
			return
		}
	}
}

// sweep removes every counter whose window has ended.
func (rl *ShardedRateLimiter) sweep() int {
	now := rl.now()
	removed := 0

	for _, shard := range rl.shards {
		shard.mu.Lock()
		for key, c := range shard.counters {
			if now.Sub(c.start) >= rl.window {
				delete(shard.counters, key)
				removed++
			}
		}
		shard.mu.Unlock()
	}
	return removed
}

// Stop ends the sweep goroutine. It is safe to call more than once.
func (rl *ShardedRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Size returns how many identifiers currently hold a window.
func (rl *ShardedRateLimiter) Size() int {
	total := 0
	for _, shard := range rl.shards {
		shard.mu.Lock()
		total += len(shard.counters)
		shard.mu.Unlock()
	}
	return total
}
