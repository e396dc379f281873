package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/repclub/guard/internal/ratelimit"
	"github.com/repclub/guard/internal/security"
	pkghttp "github.com/repclub/guard/pkg/http"
)

// IPRateLimitConfig holds the per-IP edge limiting configuration.
// Forwarding headers are honored only for requests arriving from
// TrustedProxies; anything else is keyed by its socket address.
type IPRateLimitConfig struct {
	RequestsPerMinute int
	TrustedProxies    []string // CIDR ranges
}

// DefaultIPRateLimit returns the edge limit for auth-adjacent endpoints
// (20 requests per minute per IP). This is the per-IP fairness layer the
// in-memory limiter deliberately does not provide for anonymous callers.
func DefaultIPRateLimit() IPRateLimitConfig {
	return IPRateLimitConfig{
		RequestsPerMinute: 20,
	}
}

// RateLimitByIP creates a middleware that rate limits requests by client
// IP. The key comes from ExtractClientIP, so a spoofed X-Forwarded-For
// from an untrusted source cannot dodge the limit or starve another
// client's bucket.
func RateLimitByIP(config IPRateLimitConfig) func(next http.Handler) http.Handler {
	ipConfig := &pkghttp.IPConfig{TrustedProxies: config.TrustedProxies}

	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return pkghttp.ExtractClientIP(r, ipConfig), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, "Rate limit exceeded", 0)
		}),
	)
}

// Quota creates a middleware that enforces a named preset through the
// in-memory limiter, keyed by caller identity. identify extracts the
// caller's user ID from the request ("" means anonymous, which shares one
// bucket per endpoint).
func Quota(store *ratelimit.Store, cfg ratelimit.Config, endpoint string, identify func(*http.Request) string) func(next http.Handler) http.Handler {
	limiter := ratelimit.New(store, cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := limiter.Check(identify(r), endpoint)
			if !result.Allowed {
				pkghttp.WriteTooManyRequests(w, security.RateLimitedMessage(result.RetryAfter), result.RetryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
