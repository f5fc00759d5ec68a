package api

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"whitelabel/apps/backend/internal/assets"
	"whitelabel/apps/backend/internal/cache"
)

const (
	// limiterIdleTTL bounds how long an idle client's limiter is remembered
	limiterIdleTTL    = 10 * time.Minute
	maxTrackedClients = 10000
)

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// corsMiddleware handles CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+adminKeyHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimiter keeps one token bucket per client. Clients are keyed by their
// connection address; X-Forwarded-For is only read from trusted proxies.
type RateLimiter struct {
	responder
	limit      rate.Limit
	burst      int
	maxClients int
	trusted    []netip.Prefix
	clock      clock.Clock
	limiters   *cache.TTLCache[string, *rate.Limiter]
}

func NewRateLimiter(rps float64, burst int, trustedProxies []string, clk clock.Clock, logger *zap.Logger) (*RateLimiter, error) {
	trusted, err := parseTrustedProxies(trustedProxies)
	if err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	return &RateLimiter{
		responder:  responder{logger: logger},
		limit:      rate.Limit(rps),
		burst:      burst,
		maxClients: maxTrackedClients,
		trusted:    trusted,
		clock:      clk,
		limiters:   cache.NewTTLCache[string, *rate.Limiter](limiterIdleTTL, clk),
	}, nil
}

// Allow reports whether client may make another request now. New clients are
// refused while maxClients limiters are live.
func (rl *RateLimiter) Allow(client string) bool {
	limiter, ok := rl.limiters.Acquire(client, func() *rate.Limiter {
		return rate.NewLimiter(rl.limit, rl.burst)
	}, rl.maxClients)
	if !ok {
		return false
	}
	return limiter.AllowN(rl.clock.Now(), 1)
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := rl.clientKey(r)
		if !rl.Allow(client) {
			rl.logger.Warn("Rate limit exceeded", zap.String("client", client), zap.String("path", r.URL.Path))
			w.Header().Set("Retry-After", "1")
			rl.writeErrorResponse(w, http.StatusTooManyRequests, "rate_limited", "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey returns the connection host. When the peer is a trusted proxy,
// X-Forwarded-For is walked from the right and the first hop that is not a
// trusted proxy wins.
func (rl *RateLimiter) clientKey(r *http.Request) string {
	remote := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remote = host
	}
	peer, err := netip.ParseAddr(remote)
	if err != nil || !rl.isTrusted(peer) {
		return remote
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		addr, err := netip.ParseAddr(hop)
		if err != nil {
			// unparsable hop, nothing to its left can be trusted
			return remote
		}
		if !rl.isTrusted(addr) {
			return addr.Unmap().String()
		}
	}
	return remote
}

func (rl *RateLimiter) isTrusted(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, prefix := range rl.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// parseTrustedProxies accepts bare IPs and CIDR ranges.
func parseTrustedProxies(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, value := range values {
		if strings.Contains(value, "/") {
			prefix, err := netip.ParsePrefix(value)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", value, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(value)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", value, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// assetValidationMiddleware rejects unknown {symbol} route values.
func (s *Server) assetValidationMiddleware(validator *assets.Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			symbol := mux.Vars(r)["symbol"]
			if !validator.IsSupported(symbol) {
				s.writeErrorResponse(w, http.StatusNotFound, "unsupported_asset", "Asset "+symbol+" is not supported")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
