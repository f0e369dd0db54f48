package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trivia-api/internal/config"
	"github.com/gokatarajesh/trivia-api/internal/logging"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type echoRoutes struct{}

func (echoRoutes) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/echo/{word}", func(w http.ResponseWriter, r *http.Request) {
		logger := logging.FromContext(r.Context())
		logger.Info().Msg("echo")
		_, _ = w.Write([]byte(r.PathValue("word")))
	})
}

func testConfig() *config.App {
	return &config.App{
		HTTPAddr: "127.0.0.1:0",
		CORS: config.CORS{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         60,
		},
	}
}

func newTestHandler(t *testing.T, db Pinger) (http.Handler, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	srv := NewHTTPServer(testConfig(), zerolog.Nop(), db, nil, echoRoutes{}, nil, NewMetrics(reg), reg)
	return srv.Handler, reg
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h, _ := newTestHandler(t, fakePinger{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestPing(t *testing.T) {
	h, _ := newTestHandler(t, fakePinger{})
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pong":true}`, rec.Body.String())

	h, _ = newTestHandler(t, fakePinger{err: errors.New("connection refused")})
	rec = serve(h, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "upstream_error")
}

func TestRequestIDAndMetrics(t *testing.T) {
	h, reg := newTestHandler(t, fakePinger{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/echo/hello", nil))
	assert.Equal(t, "hello", rec.Body.String())
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/v1/echo/again", nil)
	req.Header.Set(requestIDHeader, "6f1c1a4e-3b2d-4a8b-9a57-0e9d3f8c2b11")
	rec = serve(h, req)
	assert.Equal(t, "6f1c1a4e-3b2d-4a8b-9a57-0e9d3f8c2b11", rec.Header().Get(requestIDHeader))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `trivia_http_request_duration_seconds_count{method="GET",route="GET /v1/echo/{word}",status="200"} 2`)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestUnmatchedRouteLabel(t *testing.T) {
	h, _ := newTestHandler(t, fakePinger{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), `route="unmatched",status="404"`))
}

func TestPlaySocketNotConfigured(t *testing.T) {
	h, _ := newTestHandler(t, fakePinger{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/ws/play", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestHandler(t, fakePinger{})

	req := httptest.NewRequest(http.MethodOptions, "/v1/echo/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := serve(h, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/v1/echo/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec = serve(h, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWSUpgraderOriginCheck(t *testing.T) {
	up := NewWSUpgrader([]string{"http://localhost:3000"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"http://localhost:3000/", true},
		{"http://localhost:4000", false},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/ws/play", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, up.CheckOrigin(req), "origin %q", tt.origin)
	}

	assert.True(t, NewWSUpgrader([]string{"*"}).CheckOrigin(func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/ws/play", nil)
		req.Header.Set("Origin", "https://anywhere.example")
		return req
	}()))
}
