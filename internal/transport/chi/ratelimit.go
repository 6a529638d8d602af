package chi

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kailas-cloud/pemrank/internal/domain"
	"github.com/kailas-cloud/pemrank/internal/metrics"
	apiv1 "github.com/kailas-cloud/pemrank/pkg/api/v1"
)

// limiterTTL is how long per-client limiters live before the table is reset.
const limiterTTL = time.Hour

// RateLimitConfig configures the token bucket in front of POST /rank.
type RateLimitConfig struct {
	RPS       float64
	Burst     int
	PerClient bool
}

// Enabled reports whether limiting is active.
func (c RateLimitConfig) Enabled() bool { return c.RPS > 0 }

type limiterSet struct {
	cfg     RateLimitConfig
	global  *rate.Limiter
	mu      sync.Mutex
	clients map[string]*rate.Limiter
	reset   time.Time
	now     func() time.Time
}

func newLimiterSet(cfg RateLimitConfig) *limiterSet {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	ls := &limiterSet{cfg: cfg, now: time.Now}
	if cfg.PerClient {
		ls.clients = make(map[string]*rate.Limiter)
		ls.reset = ls.now()
	} else {
		ls.global = rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
	}
	return ls
}

func (ls *limiterSet) limiter(client string) *rate.Limiter {
	if ls.global != nil {
		return ls.global
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.now().Sub(ls.reset) > limiterTTL {
		ls.clients = make(map[string]*rate.Limiter)
		ls.reset = ls.now()
	}
	l, ok := ls.clients[client]
	if !ok {
		l = rate.NewLimiter(rate.Limit(ls.cfg.RPS), ls.cfg.Burst)
		ls.clients[client] = l
	}
	return l
}

// RateLimitMiddleware rejects requests over the configured rate with 429.
// A zero RPS disables limiting.
func RateLimitMiddleware(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled() {
			return next
		}
		ls := newLimiterSet(cfg)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ls.limiter(clientKey(r)).Allow() {
				metrics.HTTPRateLimitedTotal.WithLabelValues(r.URL.Path).Inc()
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, apiv1.ErrorCodeRateLimited, domain.ErrRateLimited.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey identifies the caller by remote host. Forwarding headers are
// honoured only after chi's RealIP middleware has rewritten RemoteAddr.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
