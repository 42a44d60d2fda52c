package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// rateEntry tracks request counts per IP within a fixed window.
type rateEntry struct {
	count     int
	windowEnd time.Time
}

type rateLimiter struct {
	limit     int
	window    time.Duration
	now       func() time.Time
	mu        sync.Mutex
	entries   map[string]*rateEntry
	nextPurge time.Time
}

// purgeInterval bounds how often expired entries are dropped from the map.
const purgeInterval = 5 * time.Minute

// RateLimiter returns a per-IP fixed-window limiter, e.g. 1000 req/min.
// Each call owns its own counters, so groups can be limited independently.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	rl := &rateLimiter{limit: limit, window: window, now: time.Now, entries: make(map[string]*rateEntry)}
	return rl.handle
}

func (rl *rateLimiter) handle(c *gin.Context) {
	ok, retryAt := rl.allow(c.ClientIP())
	if !ok {
		c.Header("Retry-After", retryAt.UTC().Format(http.TimeFormat))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many requests, try again shortly"))
		return
	}
	c.Next()
}

func (rl *rateLimiter) allow(ip string) (bool, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.After(rl.nextPurge) {
		rl.purgeLocked(now)
		rl.nextPurge = now.Add(purgeInterval)
	}

	entry, exists := rl.entries[ip]
	if !exists {
		entry = &rateEntry{}
		rl.entries[ip] = entry
	}
	if now.After(entry.windowEnd) {
		entry.count = 0
		entry.windowEnd = now.Add(rl.window)
	}
	entry.count++
	return entry.count <= rl.limit, entry.windowEnd
}

// purgeLocked removes expired entries so IPs that never return do not leak.
func (rl *rateLimiter) purgeLocked(now time.Time) {
	purged := 0
	for ip, entry := range rl.entries {
		if now.After(entry.windowEnd) {
			delete(rl.entries, ip)
			purged++
		}
	}
	if purged > 0 {
		log.Debug().Int("entries_purged", purged).Int("entries_remaining", len(rl.entries)).Msg("rate limiter map purged")
	}
}
