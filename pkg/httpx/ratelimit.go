package httpx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/silverbridge/backend/pkg/authsdk"
	"github.com/silverbridge/backend/pkg/cryptox"
	"github.com/silverbridge/backend/pkg/slogx"
)

// RateLimitConfig is a token bucket refilled at RequestsPerWindow per
// Window and holding at most Burst tokens.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

func (c RateLimitConfig) limit() rate.Limit {
	return rate.Limit(float64(c.RequestsPerWindow) / c.Window.Seconds())
}

// Rate limit profiles. Each can be overridden with
// RATELIMIT_{STRICT,MODERATE,LENIENT,PUBLIC}_{REQUESTS,WINDOW_SEC,BURST}.
var (
	// StrictLimit guards credential endpoints: login, join and SMS codes.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit guards token rotation and logout.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}

	// LenientLimit guards authenticated reads and health checks.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}

	// PublicLimit guards the JWKS document, which every relying service polls.
	PublicLimit = RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
)

func init() {
	for name, profile := range map[string]*RateLimitConfig{
		"STRICT":   &StrictLimit,
		"MODERATE": &ModerateLimit,
		"LENIENT":  &LenientLimit,
		"PUBLIC":   &PublicLimit,
	} {
		*profile = RateLimitFromEnv(name, *profile)
	}
}

// RateLimitFromEnv overlays RATELIMIT_<profile>_REQUESTS, _WINDOW_SEC and
// _BURST on def. Missing, unparseable or non-positive values keep the
// default.
func RateLimitFromEnv(profile string, def RateLimitConfig) RateLimitConfig {
	positive := func(field string) (int, bool) {
		n, err := strconv.Atoi(os.Getenv("RATELIMIT_" + profile + "_" + field))
		return n, err == nil && n > 0
	}

	cfg := def
	if n, ok := positive("REQUESTS"); ok {
		cfg.RequestsPerWindow = n
	}
	if n, ok := positive("WINDOW_SEC"); ok {
		cfg.Window = time.Duration(n) * time.Second
	}
	if n, ok := positive("BURST"); ok {
		cfg.Burst = n
	}
	return cfg
}

// KeyFunc derives the bucket a request is counted against. An empty key
// exempts the request.
type KeyFunc func(*http.Request) string

var trustedProxies atomic.Pointer[[]netip.Prefix]

// ParseTrustedProxies parses a comma separated list of CIDRs or bare
// addresses.
func ParseTrustedProxies(list string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "/") {
			p, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", part, err)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(part)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", part, err)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

// SetTrustedProxies sets the peers whose forwarding headers ClientIP
// believes. With none set, the headers are ignored.
func SetTrustedProxies(prefixes []netip.Prefix) {
	trustedProxies.Store(&prefixes)
}

func isTrustedProxy(addr string) bool {
	p := trustedProxies.Load()
	if p == nil {
		return false
	}
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, prefix := range *p {
		if prefix.Contains(a) {
			return true
		}
	}
	return false
}

// ClientIP is the connection's remote address unless that peer is a
// trusted proxy. Behind one, it is the right-most X-Forwarded-For hop that
// is not itself a trusted proxy, then X-Real-IP. Hops left of that are
// client controlled and never used.
func ClientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if !isTrustedProxy(peer) {
		return peer
	}

	var hops []string
	for _, hop := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if hop = strings.TrimSpace(hop); hop != "" {
			hops = append(hops, hop)
		}
	}
	for i := len(hops) - 1; i >= 0; i-- {
		if !isTrustedProxy(hops[i]) {
			return hops[i]
		}
	}
	if len(hops) > 0 {
		return hops[0]
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

// PrincipalKey is the subject the request gate attached, if any.
func PrincipalKey(r *http.Request) string {
	id, _ := r.Context().Value(CtxKeyUserID).(string)
	return id
}

// JoinKeys concatenates the non-empty keys of fns.
func JoinKeys(fns ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(fns))
		for _, fn := range fns {
			if k := fn(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, "|")
	}
}

// JSONBodyField keys on a top-level string field of a JSON body, such as
// the phone number of a login attempt. The body is put back for the handler.
func JSONBodyField(name string) KeyFunc {
	return func(r *http.Request) string {
		if r.Body == nil {
			return ""
		}
		buf, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(buf))
		if err != nil {
			return ""
		}

		var doc map[string]json.RawMessage
		if json.Unmarshal(buf, &doc) != nil {
			return ""
		}
		var v string
		if json.Unmarshal(doc[name], &v) != nil {
			return ""
		}
		return strings.TrimSpace(v)
	}
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// limiterSet holds one bucket per key. Buckets idle long enough to have
// refilled completely are indistinguishable from new ones and get swept.
type limiterSet struct {
	cfg  RateLimitConfig
	idle time.Duration

	mu        sync.Mutex
	buckets   map[string]*bucket
	nextSweep time.Time
}

func newLimiterSet(cfg RateLimitConfig) *limiterSet {
	idle := time.Duration(float64(cfg.Burst) / float64(cfg.limit()) * float64(time.Second))
	return &limiterSet{
		cfg:       cfg,
		idle:      max(idle, cfg.Window),
		buckets:   make(map[string]*bucket),
		nextSweep: time.Now().Add(cfg.Window),
	}
}

func (s *limiterSet) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.After(s.nextSweep) {
		for k, b := range s.buckets {
			if now.Sub(b.lastSeen) > s.idle {
				delete(s.buckets, k)
			}
		}
		s.nextSweep = now.Add(s.cfg.Window)
	}

	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(s.cfg.limit(), s.cfg.Burst)}
		s.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim
}

// RateLimit rejects requests whose bucket is empty with 429 and a
// Retry-After header.
func RateLimit(cfg RateLimitConfig, key KeyFunc) Middleware {
	set := newLimiterSet(cfg)
	perSecond := float64(cfg.limit())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				slogx.FromContext(r.Context()).Warn("rate limit: no key for request, not limited",
					slog.String("path", r.URL.Path))
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now()
			lim := set.get(k, now)

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerWindow))
			h.Set("X-RateLimit-Window", cfg.Window.String())

			if lim.AllowN(now, 1) {
				h.Set("X-RateLimit-Remaining", strconv.Itoa(int(lim.TokensAt(now))))
				next.ServeHTTP(w, r)
				return
			}

			wait := (1 - lim.TokensAt(now)) / perSecond
			retryAfter := max(int(math.Ceil(wait)), 1)
			h.Set("X-RateLimit-Remaining", "0")
			h.Set("Retry-After", strconv.Itoa(retryAfter))

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				slog.String("key_fp", cryptox.FingerprintToken(k)),
				slog.String("path", r.URL.Path),
				slog.Int("retry_after", retryAfter),
			)
			authsdk.ErrRateLimited.WriteError(w)
		})
	}
}

// RateLimitByIP buckets by client address.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, ClientIP)
}

// RateLimitByUser buckets by authenticated subject and address. It must run
// after the request gate.
func RateLimitByUser(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, JoinKeys(PrincipalKey, ClientIP))
}

// RateLimitByIPAndJSONField buckets by client address and a body field, so
// one address probing many phone numbers gets a budget per number.
func RateLimitByIPAndJSONField(cfg RateLimitConfig, field string) Middleware {
	return RateLimit(cfg, JoinKeys(ClientIP, JSONBodyField(field)))
}
