// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries a per-request id so client and service logs can be correlated.
const RequestIDHeader = "X-Request-ID"

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// LogTransport is an http.RoundTripper middleware that tags each outgoing
// request with a request id and logs method, path, status and duration.
func LogTransport(logger *logrus.Logger) func(next http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		if next == nil {
			next = http.DefaultTransport
		}
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()

			// RoundTrip must not modify the caller's request
			r = r.Clone(r.Context())
			if r.Header.Get(RequestIDHeader) == "" {
				r.Header.Set(RequestIDHeader, uuid.NewString())
			}

			resp, err := next.RoundTrip(r)

			fields := logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"duration":   time.Since(start),
				"request_id": r.Header.Get(RequestIDHeader),
			}
			if err != nil {
				fields["error"] = err
				logger.WithFields(fields).Debug("HTTP request failed")
				return resp, err
			}
			fields["status"] = resp.StatusCode
			logger.WithFields(fields).Debug("HTTP request")
			return resp, nil
		})
	}
}
