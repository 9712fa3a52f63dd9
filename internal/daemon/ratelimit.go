package daemon

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

const (
	rateLimitCleanupInterval = 5 * time.Minute
	rateLimitIdleAfter       = 10 * time.Minute
)

// RateLimiter is a per-IP token bucket guarding the login form.
type RateLimiter struct {
	buckets sync.Map // client IP -> *bucket
	rate    float64  // tokens per second
	burst   int
	clock   clockwork.Clock
	stop    chan struct{}
	once    sync.Once
}

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter allows burst requests at once and rate per second after
// that. A non-positive rate disables limiting.
func NewRateLimiter(rate float64, burst int, clock clockwork.Clock) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	rl := &RateLimiter{
		rate:  rate,
		burst: burst,
		clock: clock,
		stop:  make(chan struct{}),
	}

	if rl.Enabled() {
		go rl.cleanup(clock.NewTicker(rateLimitCleanupInterval))
	}

	return rl
}

func (rl *RateLimiter) Enabled() bool {
	return rl.rate > 0
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Enabled() {
			c.Next()
			return
		}

		ip := c.ClientIP()

		if !rl.Allow(ip) {
			LogWithCorrelation(c).WithFields(logrus.Fields{
				"ip":   ip,
				"path": c.Request.URL.Path,
			}).Warnln("Login rate limit exceeded")

			c.Header("Retry-After", strconv.Itoa(int(1/rl.rate)+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many login attempts. Please try again later.",
			})
			return
		}

		c.Next()
	}
}

// Allow consumes a token for ip when one is available.
func (rl *RateLimiter) Allow(ip string) bool {
	now := rl.clock.Now()

	value, _ := rl.buckets.LoadOrStore(ip, &bucket{
		tokens:     float64(rl.burst),
		lastRefill: now,
	})

	b := value.(*bucket)
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens += now.Sub(b.lastRefill).Seconds() * rl.rate
	if b.tokens > float64(rl.burst) {
		b.tokens = float64(rl.burst)
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func (rl *RateLimiter) cleanup(ticker clockwork.Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			rl.evictIdle()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle() int {
	cutoff := rl.clock.Now().Add(-rateLimitIdleAfter)
	count := 0

	rl.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)
		b.mu.Lock()
		idle := b.lastRefill.Before(cutoff)
		b.mu.Unlock()

		if idle {
			rl.buckets.Delete(key)
			count++
		}
		return true
	})

	if count > 0 {
		logrus.WithField("count", count).Debugln("Evicted idle rate limiter buckets")
	}
	return count
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() {
		close(rl.stop)
	})
}

// Size returns the number of tracked client IPs.
func (rl *RateLimiter) Size() int {
	count := 0
	rl.buckets.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}
