package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cividup/cividup/internal/api/response"
	"github.com/cividup/cividup/internal/cache"
)

const (
	defaultRequestsPerMinute = 60
	limitWindow              = time.Minute
)

// RateLimit counts requests per API key in fixed one-minute windows backed
// by Redis, so the limit holds across server instances.
type RateLimit struct {
	cache          cache.Cache
	requestsPerMin int
}

func NewRateLimit(c cache.Cache, requestsPerMin int) *RateLimit {
	if requestsPerMin <= 0 {
		requestsPerMin = defaultRequestsPerMinute
	}
	return &RateLimit{cache: c, requestsPerMin: requestsPerMin}
}

// Limit enforces the per-key budget. Counters are keyed by the key prefix
// plus the window start, so a new window begins cleanly at every minute
// boundary. Redis being down must not take report intake with it, so errors
// fail open.
func (rl *RateLimit) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix, ok := getKeyPrefix(r)
		if !ok {
			// Routes outside the authenticated group are not limited.
			next.ServeHTTP(w, r)
			return
		}

		windowStart := time.Now().Truncate(limitWindow)
		count, err := rl.cache.IncrWithExpiry(r.Context(),
			cache.RateLimitKey(prefix, windowStart), 2*limitWindow)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		remaining := rl.requestsPerMin - int(count)
		if remaining < 0 {
			remaining = 0
		}
		reset := windowStart.Add(limitWindow)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerMin))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if count > int64(rl.requestsPerMin) {
			retryAfter := int64(time.Until(reset).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.Error(w, http.StatusTooManyRequests,
				"RATE_LIMIT_EXCEEDED", "Too many requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
