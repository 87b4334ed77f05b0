package chi

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter is one client's token bucket with its last-seen time for
// eviction.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware throttles requests per client. Authenticated requests
// are keyed by API key, anonymous ones by remote IP. A zero rps disables
// throttling.
func RateLimitMiddleware(rps float64, burst int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rps <= 0 {
			return next
		}

		var (
			mu      sync.Mutex
			clients = make(map[string]*clientLimiter)
		)

		// Drop buckets idle for more than three minutes.
		evict := func(now time.Time) {
			for key, c := range clients {
				if now.Sub(c.lastSeen) > 3*time.Minute {
					delete(clients, key)
				}
			}
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			key := clientKey(r)

			mu.Lock()
			c, ok := clients[key]
			if !ok {
				if len(clients) > 10000 {
					evict(time.Now())
				}
				c = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
				clients[key] = c
			}
			c.lastSeen = time.Now()
			allowed := c.limiter.Allow()
			mu.Unlock()

			if !allowed {
				writeError(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return auth
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
