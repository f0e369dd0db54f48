package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-api/internal/config"
	"github.com/gokatarajesh/trivia-api/internal/logging"
	httperrors "github.com/gokatarajesh/trivia-api/pkg/http/errors"
)

const pingTimeout = 2 * time.Second

// Pinger is a dependency that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouteRegistrar mounts a group of API routes.
type RouteRegistrar interface {
	Register(mux *http.ServeMux)
}

// NewWSUpgrader accepts WebSocket upgrades from the configured CORS origins.
// Requests without an Origin header (non-browser clients) are allowed.
func NewWSUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(allowedOrigins, "*") {
				return true
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false
			}
			return slices.Contains(allowedOrigins, u.Scheme+"://"+u.Host)
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// NewHTTPServer wires base routes (health, metrics, ping) plus the API routes.
// cache and playHandler may be nil.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, db Pinger, cache *redis.Client, routes RouteRegistrar, playHandler http.HandlerFunc, metrics *Metrics, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /v1/ping", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		if err := pingDependencies(ctx, db, cache); err != nil {
			reqLogger := logging.FromContextOr(r.Context(), logger)
			reqLogger.Error().Err(err).Msg("dependency ping failed")
			httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, "upstream error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]bool{"pong": true})
	})

	if routes != nil {
		routes.Register(mux)
	}

	if playHandler != nil {
		mux.HandleFunc("GET /ws/play", playHandler)
	} else {
		mux.HandleFunc("GET /ws/play", func(w http.ResponseWriter, r *http.Request) {
			httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "play socket is not configured")
		})
	}

	var handler http.Handler = mux
	handler = securityHeaders(handler)
	handler = requestContext(logger, metrics, handler)
	handler = cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	})(handler)

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func pingDependencies(ctx context.Context, db Pinger, cache *redis.Client) error {
	if db != nil {
		if err := db.Ping(ctx); err != nil {
			return err
		}
	}
	if cache != nil {
		if err := cache.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	return nil
}
