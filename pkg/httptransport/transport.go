// Package httptransport provides composable http.RoundTripper decorators
// for outbound API calls: bearer auth injection, request IDs, user agent,
// and request logging.
package httptransport

import (
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(r).
func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Decorator wraps a RoundTripper with additional behaviour.
type Decorator func(http.RoundTripper) http.RoundTripper

// Wrap applies decorators to rt so that the first decorator listed is the
// outermost, matching reading order at the call site. A nil rt defaults to
// http.DefaultTransport.
func Wrap(rt http.RoundTripper, decorators ...Decorator) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	for i := len(decorators) - 1; i >= 0; i-- {
		rt = decorators[i](rt)
	}
	return rt
}

// BearerAuth attaches an Authorization header using the token source. When
// the source returns an empty string (guest session) no header is set.
// The request is cloned before mutation, as RoundTrippers must not modify
// the caller's request.
func BearerAuth(token func() string) Decorator {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			t := token()
			if t == "" {
				return next.RoundTrip(r)
			}
			r = r.Clone(r.Context())
			r.Header.Set("Authorization", "Bearer "+t)
			return next.RoundTrip(r)
		})
	}
}

// RequestID ensures every outbound request carries a unique X-Request-ID.
// An already-present valid header is kept; otherwise a UUID v4 is generated.
func RequestID() Decorator {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if isValidRequestID(r.Header.Get("X-Request-ID")) {
				return next.RoundTrip(r)
			}
			r = r.Clone(r.Context())
			r.Header.Set("X-Request-ID", uuid.New().String())
			return next.RoundTrip(r)
		})
	}
}

// UserAgent sets the User-Agent header on every outbound request.
func UserAgent(ua string) Decorator {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			r = r.Clone(r.Context())
			r.Header.Set("User-Agent", ua)
			return next.RoundTrip(r)
		})
	}
}

// LogRequests logs each outbound request with method, URL, status, and
// duration via the contextual logger.
func LogRequests() Decorator {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)

			lg := zctx.From(r.Context()).With(
				zap.String("method", r.Method),
				zap.String("url", r.URL.String()),
				zap.Duration("duration", time.Since(start)),
			)
			if err != nil {
				lg.Warn("Request failed", zap.Error(err))
				return resp, err
			}
			lg.Debug("Request completed", zap.Int("status", resp.StatusCode))
			return resp, nil
		})
	}
}

// isValidRequestID checks that id is non-empty, at most 128 bytes, and
// contains only printable ASCII (0x20-0x7E).
func isValidRequestID(id string) bool {
	if len(id) == 0 || len(id) > 128 {
		return false
	}
	for i := range len(id) {
		if id[i] < 0x20 || id[i] > 0x7E {
			return false
		}
	}
	return true
}
