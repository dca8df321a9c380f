package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitor is one client IP's token bucket.
type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// RateLimiter tracks a token bucket per client IP. Idle buckets are pruned
// inline once per ttl; there is no janitor goroutine to manage.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rps       rate.Limit
	burst     int
	ttl       time.Duration
	lastPrune time.Time
}

// NewRateLimiter creates a limiter allowing rps sustained requests per IP
// with the given burst. Buckets idle longer than ttl are discarded.
func NewRateLimiter(rps rate.Limit, burst int, ttl time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors:  make(map[string]*visitor),
		rps:       rps,
		burst:     burst,
		ttl:       ttl,
		lastPrune: time.Now(),
	}
}

// NewLoginRateLimiter sizes a limiter for credential endpoints: slow enough
// to blunt brute force, generous enough for a call floor behind one NAT.
func NewLoginRateLimiter() *RateLimiter {
	return NewRateLimiter(rate.Limit(5), 10, 10*time.Minute)
}

// NewWebhookRateLimiter sizes a limiter for provider callbacks, which arrive
// in bursts proportional to the dial rate: several status and AMD events per
// launched call.
func NewWebhookRateLimiter() *RateLimiter {
	return NewRateLimiter(rate.Limit(100), 200, 10*time.Minute)
}

// Allow reports whether a request from ip fits its bucket.
func (rl *RateLimiter) Allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	if now.Sub(rl.lastPrune) > rl.ttl {
		rl.prune(now)
	}
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	rl.mu.Unlock()

	return v.bucket.Allow()
}

// prune drops buckets idle past ttl. Caller holds the lock.
func (rl *RateLimiter) prune(now time.Time) {
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.visitors, ip)
		}
	}
	rl.lastPrune = now
}

// RateLimit rejects requests over the per-IP budget with 429 and a
// Retry-After hint. Mount after chi's RealIP so proxied addresses resolve
// to the real client.
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(clientIP(r)) {
				w.Header().Set("Retry-After", "1")
				writeAuthError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
