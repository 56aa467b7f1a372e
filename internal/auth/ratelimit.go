package auth

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/swellcycle/surfboard-gwp/internal/cache"
	"golang.org/x/time/rate"
)

// visitorTTL is how long an idle client keeps its limiter.
const visitorTTL = 3 * time.Minute

// LoginLimiter throttles login attempts per client IP.
type LoginLimiter struct {
	visitors *cache.Memory[*rate.Limiter]
	limit    rate.Limit
	burst    int
}

// NewLoginLimiter allows perMinute attempts per minute and client. Idle
// clients are forgotten until ctx is done.
func NewLoginLimiter(ctx context.Context, perMinute int) *LoginLimiter {
	return &LoginLimiter{
		visitors: cache.NewMemory[*rate.Limiter](ctx, visitorTTL),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
	}
}

// Allow consumes one attempt for the client of r.
func (l *LoginLimiter) Allow(r *http.Request) bool {
	limiter := l.visitors.GetOrSet(ClientIP(r), func() *rate.Limiter {
		return rate.NewLimiter(l.limit, l.burst)
	})
	return limiter.Allow()
}

// ClientIP returns the remote address of r without its port.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = strings.TrimSuffix(strings.TrimPrefix(r.RemoteAddr, "["), "]")
	}
	return ip
}
