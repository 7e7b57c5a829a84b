package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"pipocanota/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// visitor is one client IP's token bucket
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter hands out a bucket per client IP and forgets idle ones
type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	every    rate.Limit
	burst    int
	idle     time.Duration
}

func newIPLimiter(requests int, window time.Duration) *ipLimiter {
	if requests < 1 {
		requests = 1
	}
	idle := 2 * window
	if idle < 10*time.Minute {
		idle = 10 * time.Minute
	}
	return &ipLimiter{
		visitors: make(map[string]*visitor),
		every:    rate.Every(window / time.Duration(requests)),
		burst:    requests,
		idle:     idle,
	}
}

func (l *ipLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.every, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (l *ipLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.visitors, ip)
		}
	}
}

// RateLimiter allows each client IP `requests` per `window`, with bursts up
// to the same number. Rejected requests get a Retry-After header and a 429
// AppError. /health is never limited.
func RateLimiter(requests int, window time.Duration) fiber.Handler {
	limiter := newIPLimiter(requests, window)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for now := range ticker.C {
			limiter.sweep(now)
		}
	}()

	return func(c *fiber.Ctx) error {
		if c.Path() == "/health" {
			return c.Next()
		}

		now := time.Now()
		r := limiter.get(c.IP(), now).ReserveN(now, 1)
		if delay := r.DelayFrom(now); delay > 0 {
			r.CancelAt(now)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			return utils.NewAppError(fiber.StatusTooManyRequests, "error_rate_limited", "rate limit exceeded", nil).
				WithContext("ip", c.IP())
		}

		return c.Next()
	}
}
