package sources

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

const (
	// DefaultHostRate allows one request per second to each upstream host.
	DefaultHostRate = rate.Limit(1)

	// DefaultHostBurst lets pollers that share a host fire together once.
	DefaultHostBurst = 2
)

// HostLimiter throttles outbound requests per upstream host.
type HostLimiter struct {
	mu    sync.Mutex
	hosts map[string]*rate.Limiter
	r     rate.Limit
	b     int
}

// NewHostLimiter creates a limiter allowing r requests per second with
// burst b to each host.
func NewHostLimiter(r rate.Limit, b int) *HostLimiter {
	return &HostLimiter{
		hosts: make(map[string]*rate.Limiter),
		r:     r,
		b:     b,
	}
}

// Limiter returns the limiter for host, creating it on first use.
func (l *HostLimiter) Limiter(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.hosts[host]
	if !exists {
		limiter = rate.NewLimiter(l.r, l.b)
		l.hosts[host] = limiter
	}

	return limiter
}

// Wait blocks until a request to host is allowed or ctx is done.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	return l.Limiter(host).Wait(ctx)
}
