// Package api exposes the coordinator's HTTP request surface.
package api

import (
	_ "embed"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/luchenqun/lucky-dog/internal/logger"
	"github.com/luchenqun/lucky-dog/pkg/coordinator"
	"github.com/luchenqun/lucky-dog/pkg/coordinator/api/handlers"
	apiMiddleware "github.com/luchenqun/lucky-dog/pkg/coordinator/api/middleware"
)

//go:embed dashboard.html
var dashboardHTML []byte

// NewRouter creates and configures the chi router with all middleware
// and routes.
//
// Routes:
//   - GET  /                   - static progress dashboard
//   - GET  /health             - liveness probe
//   - GET  /metrics            - Prometheus metrics
//   - GET  /count              - total candidate count
//   - GET  /records/{id}       - candidate by id
//   - GET  /records/random     - arbitrary candidate
//   - GET  /records/by-pwd/{pwd} - candidate by passphrase
//   - GET  /work/stats         - progress snapshot
//   - POST /work/request       - lease a batch (token)
//   - POST /work/result        - submit a batch result (token)
//   - POST /work/found         - confirm found (token)
//   - POST /work/reset-timeout - force stale-lease reclamation (token)
//   - POST /work/reset-found   - sample-store reset (token, policy-gated)
func NewRouter(coord *coordinator.Coordinator, sweeper *coordinator.Sweeper) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	recordsHandler := handlers.NewRecordsHandler(coord)
	workHandler := handlers.NewWorkHandler(coord, sweeper)

	// Dashboard and probes - unauthenticated
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(dashboardHTML)
	})
	r.Get("/health", handlers.Health)
	r.Method(http.MethodGet, "/metrics", coord.Metrics.Handler())

	// Candidate reads - unauthenticated
	r.Get("/count", recordsHandler.Count)
	r.Route("/records", func(r chi.Router) {
		r.Get("/random", recordsHandler.Random)
		r.Get("/by-pwd/{pwd}", recordsHandler.ByPwd)
		r.Get("/{id}", recordsHandler.ByID)
	})

	r.Route("/work", func(r chi.Router) {
		// Progress snapshot - unauthenticated, dashboard polls it
		r.Get("/stats", workHandler.Stats)

		// Mutating operations - shared-secret token required
		r.Group(func(r chi.Router) {
			r.Use(apiMiddleware.TokenAuth(coord.Token))

			r.Post("/request", workHandler.Request)
			r.Post("/result", workHandler.Result)
			r.Post("/found", workHandler.Found)
			r.Post("/reset-timeout", workHandler.ResetTimeout)
			r.Post("/reset-found", workHandler.ResetFound)
		})
	})

	return r
}

// requestLogger is a custom middleware that logs requests using the
// internal logger. Probe and poll endpoints log at DEBUG to keep the
// output readable.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		}

		if isQuietPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}

// isQuietPath returns true for endpoints polled continuously by probes,
// the dashboard and workers.
func isQuietPath(path string) bool {
	switch path {
	case "/health", "/metrics", "/work/stats", "/work/request", "/work/result":
		return true
	}
	return false
}
