package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const idleClient = 10 * time.Minute

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter hands out one token bucket per client IP.
type Limiter struct {
	mu        sync.Mutex
	perMinute int
	clients   map[string]*client
	lastSweep time.Time
	now       func() time.Time
}

func NewLimiter(perMinute int) *Limiter {
	return &Limiter{
		perMinute: perMinute,
		clients:   make(map[string]*client),
		now:       time.Now,
	}
}

// Allow takes a token for ip.
func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) > time.Minute {
		for k, c := range l.clients {
			if now.Sub(c.seen) > idleClient {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}
	c, ok := l.clients[ip]
	if !ok {
		c = &client{lim: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)}
		l.clients[ip] = c
	}
	c.seen = now
	return c.lim.AllowN(now, 1)
}

// RateLimit answers 429 once a client exceeds perMinute requests. Proxy
// headers only pick the bucket when trustProxy is set.
func RateLimit(perMinute int, trustProxy bool, logger zerolog.Logger) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := NewLimiter(perMinute)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, trustProxy)
			if !l.Allow(ip) {
				logger.Warn().Str("rid", GetRequestID(r)).Str("ip", ip).Str("path", r.URL.Path).Msg("rate limited")
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.Header().Set("Retry-After", strconv.Itoa(int((time.Minute/time.Duration(perMinute)).Seconds())+1))
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Zu viele Anfragen, bitte später erneut versuchen"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the peer address. With trustProxy it prefers X-Real-IP and
// then the last X-Forwarded-For hop, which is the one the proxy appended.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			hops := strings.Split(fwd, ",")
			if ip := strings.TrimSpace(hops[len(hops)-1]); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
