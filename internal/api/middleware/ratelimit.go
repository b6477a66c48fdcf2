package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"lec-simulator/internal/api/models"
	"lec-simulator/internal/data"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long a client's bucket is kept after its last request. Buckets
// are kept at least until they would have refilled, so eviction never grants extra burst.
const DefaultIdleTTL = 10 * time.Minute

// RateLimiter hands out one token bucket per client IP. Idle buckets expire.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients *data.TTLCache[*rate.Limiter]
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	idle := DefaultIdleTTL
	if perSecond > 0 {
		refill := min(float64(burst)/perSecond, (24 * time.Hour).Seconds())
		idle = max(idle, time.Duration(refill*float64(time.Second)))
	}
	return newRateLimiter(perSecond, burst, idle)
}

func newRateLimiter(perSecond float64, burst int, idle time.Duration) *RateLimiter {
	return &RateLimiter{limit: rate.Limit(perSecond), burst: burst, clients: data.NewTTLCache[*rate.Limiter](idle)}
}

// Close stops the background eviction of idle buckets.
func (l *RateLimiter) Close() {
	if l != nil {
		l.clients.Close()
	}
}

// limiter returns the client's bucket and extends its idle deadline.
func (l *RateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.clients.Get(key)
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
	}
	l.clients.Set(key, lim)
	return lim
}

// Middleware rejects requests over the client's budget with 429 and a Retry-After hint.
// A nil limiter or a non-positive rate lets everything through.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.limit <= 0 {
			c.Next()
			return
		}
		r := l.limiter(c.ClientIP()).Reserve()
		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			c.Header("Retry-After", strconv.Itoa(int(delay.Round(time.Second)/time.Second)+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Detail: "Too many simulation requests, retry later",
				Code:   "RATE_LIMITED",
				Errors: []string{},
			})
			return
		}
		c.Next()
	}
}
