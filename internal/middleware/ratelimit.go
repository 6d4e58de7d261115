package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// Throttle caps requests per client IP over a fixed window. Counters are
// per process, which is enough for the two surfaces it guards: the admin
// login (password guessing) and the public Slack webhook (floods from
// anything that is not Slack). Caps come from config so operators can
// loosen the webhook cap for large workspaces.
type Throttle struct {
	mu      sync.Mutex
	callers map[string]*callerWindow
	limit   int
	window  time.Duration
}

type callerWindow struct {
	count   int
	resetAt time.Time
}

func NewThrottle(limit int, window time.Duration) *Throttle {
	t := &Throttle{
		callers: make(map[string]*callerWindow),
		limit:   limit,
		window:  window,
	}
	go t.evictLoop()
	return t
}

// evictLoop drops expired windows so idle IPs do not accumulate.
func (t *Throttle) evictLoop() {
	ticker := time.NewTicker(t.window)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		t.mu.Lock()
		for key, c := range t.callers {
			if now.After(c.resetAt) {
				delete(t.callers, key)
			}
		}
		t.mu.Unlock()
	}
}

// allow records one request for the caller and reports whether it stays
// within the cap. The window is fixed, anchored at the caller's first
// request, so a burst cannot extend its own window by retrying.
func (t *Throttle) allow(key string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.callers[key]
	if !ok || now.After(c.resetAt) {
		t.callers[key] = &callerWindow{count: 1, resetAt: now.Add(t.window)}
		return true
	}
	c.count++
	return c.count <= t.limit
}

func (t *Throttle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.allow(clientKey(r), time.Now()) {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey normalizes RemoteAddr to the bare IP. RealIP runs earlier in
// the chain, so behind a proxy this is the forwarded client address.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
