package http

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter hands out a token bucket per client. Each bucket holds max
// tokens and refills max tokens per window.
type RateLimiter struct {
	max    int
	window time.Duration
	every  rate.Limit

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateDecision is the outcome of one Allow call.
type RateDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter time.Duration
}

// NewRateLimiter creates a limiter allowing max requests per window.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		max:     max,
		window:  window,
		every:   rate.Limit(float64(max) / window.Seconds()),
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// Allow consumes one token for clientID.
func (l *RateLimiter) Allow(clientID string) RateDecision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	cl, ok := l.clients[clientID]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.every, l.max)}
		l.clients[clientID] = cl
	}
	cl.lastSeen = now

	d := RateDecision{Limit: l.max}

	r := cl.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		d.RetryAfter = delay
	} else {
		d.Allowed = true
	}

	tokens := cl.limiter.TokensAt(now)
	d.Remaining = int(math.Max(0, math.Floor(tokens)))
	missing := float64(l.max) - tokens
	d.Reset = now.Add(time.Duration(missing / float64(l.every) * float64(time.Second)))

	return d
}

// sweep drops clients idle for a full window; their buckets would be full
// again anyway.
func (l *RateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for id, cl := range l.clients {
		if now.Sub(cl.lastSeen) >= l.window {
			delete(l.clients, id)
		}
	}
}

// Len returns the number of tracked clients.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
