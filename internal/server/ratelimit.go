package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the limiter table; the least recently seen
// client is forgotten first.
const maxTrackedClients = 10000

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int

	// TrustedProxies lists the addresses or CIDRs whose X-Forwarded-For
	// header identifies the client. Any other peer is keyed by its own
	// address.
	TrustedProxies []string
}

// Enabled reports whether rate limiting should be enforced.
func (c RateLimitConfig) Enabled() bool {
	return c.RequestsPerSecond > 0 && c.Burst > 0
}

// RateLimitMiddleware enforces a token bucket per client address. Requests
// over the limit get 429 with a Retry-After header.
func RateLimitMiddleware(cfg RateLimitConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled() {
		return func(next http.Handler) http.Handler { return next }
	}

	trusted, err := parseProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Warn("ignoring invalid trusted proxy", slog.String("error", err.Error()))
	}

	// lru.New only fails for a non-positive size.
	clients, _ := lru.New[string, *rate.Limiter](maxTrackedClients)
	var mu sync.Mutex

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		if l, ok := clients.Get(key); ok {
			return l
		}
		l := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
		clients.Add(key, l)
		return l
	}

	retryAfter := strconv.Itoa(int(math.Max(1, math.Ceil(1/cfg.RequestsPerSecond))))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r, trusted)
			if !limiterFor(key).Allow() {
				logger.Warn("rate limit exceeded",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("client", key),
					slog.String("path", r.URL.Path))
				w.Header().Set("Retry-After", retryAfter)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "Too Many Requests",
					"message": "Too many requests. Please wait a moment and try again.",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// proxySet is a list of trusted proxy networks.
type proxySet []netip.Prefix

// parseProxies accepts bare addresses and CIDRs. Invalid entries are
// skipped and reported together.
func parseProxies(list []string) (proxySet, error) {
	var out proxySet
	var bad []string
	for _, raw := range list {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			if pfx, err := netip.ParsePrefix(raw); err == nil {
				out = append(out, pfx.Masked())
				continue
			}
		} else if addr, err := netip.ParseAddr(raw); err == nil {
			addr = addr.Unmap()
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		bad = append(bad, raw)
	}
	if len(bad) > 0 {
		return out, fmt.Errorf("invalid trusted proxies: %s", strings.Join(bad, ", "))
	}
	return out, nil
}

func (p proxySet) contains(host string) bool {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, pfx := range p {
		if pfx.Contains(addr) {
			return true
		}
	}
	return false
}

// clientKey identifies the caller. X-Forwarded-For is only read when the
// peer is a trusted proxy, and then the nearest untrusted hop wins.
func clientKey(r *http.Request, trusted proxySet) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		peer = host
	}
	if !trusted.contains(peer) {
		return peer
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop != "" && !trusted.contains(hop) {
			return hop
		}
	}
	return peer
}
