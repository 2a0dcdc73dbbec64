// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key. It is safe for concurrent use.
// Buckets idle for longer than the idle window are dropped.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter allowing perMinute events per key per minute with
// bursts of up to burst. It starts a cleanup goroutine; call Stop to end it.
func New(perMinute, burst int) *Limiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	l := &Limiter{
		buckets: make(map[string]*bucket),
		every:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		idle:    10 * time.Minute,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether one more event for key fits in its bucket.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// Reset forgets key's bucket.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.idle)
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// ClientIP returns the address a request came from. X-Forwarded-For and
// X-Real-IP are honoured only when trustProxy is set, since any client can
// write them; otherwise the host part of RemoteAddr is used.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// JoinLimiter throttles invite code guesses. It limits both the signed-in
// user and the client IP, so one account cannot sweep the code space and
// neither can many accounts from one address.
type JoinLimiter struct {
	user       *Limiter
	ip         *Limiter
	trustProxy bool
}

// NewJoinLimiter applies perMinute/burst per user and four times that per IP.
// trustProxy makes the IP limit key on forwarding headers; set it only
// behind a proxy that overwrites them.
func NewJoinLimiter(perMinute, burst int, trustProxy bool) *JoinLimiter {
	return &JoinLimiter{
		user:       New(perMinute, burst),
		ip:         New(perMinute*4, burst*4),
		trustProxy: trustProxy,
	}
}

// Check reports whether a join attempt may proceed. The message is shown to
// the caller when it may not.
func (jl *JoinLimiter) Check(r *http.Request, userID string) (bool, string) {
	if !jl.ip.Allow(ClientIP(r, jl.trustProxy)) {
		return false, "Too many join attempts from this network. Please wait a minute."
	}
	if !jl.user.Allow(userID) {
		return false, "Too many join attempts. Please wait a minute before trying another code."
	}
	return true, ""
}

// Stop ends both cleanup goroutines.
func (jl *JoinLimiter) Stop() {
	jl.user.Stop()
	jl.ip.Stop()
}
