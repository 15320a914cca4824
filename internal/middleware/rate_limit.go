package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/netip"
	"time"

	pkghttp "github.com/BradenHooton/loginguard/pkg/http"
	"github.com/go-chi/httprate"
)

// maxKeyBodyBytes bounds how much of a login request body is read to find its ip
const maxKeyBodyBytes = 4 << 10

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
}

// DefaultLoginRateLimit returns the default per-address limit for the login endpoints
func DefaultLoginRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 120,
	}
}

// RateLimit creates a middleware that rate limits requests per key
func RateLimit(config RateLimitConfig, keyFunc httprate.KeyFunc) func(next http.Handler) http.Handler {
	if config.RequestsPerMinute <= 0 {
		config = DefaultLoginRateLimit()
	}

	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, "rate limit exceeded")
		}),
	)
}

// RateLimitByIP rate limits by the connecting client. Forwarding headers only
// count when the peer is in ipConfig's trusted set.
func RateLimitByIP(config RateLimitConfig, ipConfig *pkghttp.IPConfig) func(next http.Handler) http.Handler {
	return RateLimit(config, KeyByClientIP(ipConfig))
}

// RateLimitByLoginIP rate limits the login endpoints by the end-user address in
// the request body. Every end user reaches this service through the same
// authentication front end, so the connecting peer is not a useful key.
func RateLimitByLoginIP(config RateLimitConfig, ipConfig *pkghttp.IPConfig) func(next http.Handler) http.Handler {
	return RateLimit(config, KeyByLoginIP(ipConfig))
}

// KeyByClientIP keys requests by the connecting client address
func KeyByClientIP(ipConfig *pkghttp.IPConfig) httprate.KeyFunc {
	return func(r *http.Request) (string, error) {
		return pkghttp.ExtractClientIP(r, ipConfig), nil
	}
}

// KeyByLoginIP keys requests by the "ip" field of a JSON body, falling back to
// the client address when the body carries no valid ip. The body is restored
// for the handler.
func KeyByLoginIP(ipConfig *pkghttp.IPConfig) httprate.KeyFunc {
	fallback := KeyByClientIP(ipConfig)

	return func(r *http.Request) (string, error) {
		if r.Body == nil {
			return fallback(r)
		}

		head, err := io.ReadAll(io.LimitReader(r.Body, maxKeyBodyBytes))
		if err != nil {
			return "", err
		}
		r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(head), r.Body), Closer: r.Body}

		var body struct {
			IP string `json:"ip"`
		}
		if json.Unmarshal(head, &body) == nil {
			if addr, err := netip.ParseAddr(body.IP); err == nil {
				return "login:" + addr.Unmap().String(), nil
			}
		}

		return fallback(r)
	}
}

type readCloser struct {
	io.Reader
	io.Closer
}
