// internal/middleware/logging_test.go
package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogTransportSetsRequestID(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)

	client := &http.Client{Transport: LogTransport(logger)(nil)}
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/health", nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.NotEmpty(t, seen)
	assert.Empty(t, req.Header.Get(RequestIDHeader), "caller's request must not be modified")
	assert.Contains(t, buf.String(), "/api/health")
	assert.Contains(t, buf.String(), seen)
}

func TestLogTransportKeepsExistingRequestID(t *testing.T) {
	var seen string
	next := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		seen = r.Header.Get(RequestIDHeader)
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
	})

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	req := httptest.NewRequest(http.MethodGet, "http://example.invalid/x", nil)
	req.RequestURI = ""
	req.Header.Set(RequestIDHeader, "fixed-id")

	_, err := LogTransport(logger)(next).RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", seen)
}
