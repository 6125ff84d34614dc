package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/api/handlers"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/redis"
)

// NewRouter wires routes and the middleware chain: recovery, request
// logging, then auth and quota on everything under /api. Health stays open.
func NewRouter(
	events *handlers.EventsHandler,
	jobs *handlers.JobsHandler,
	outcomes *handlers.OutcomesHandler,
	stream *handlers.StreamHandler,
	users contracts.UserRepository,
	limiter *redis.RateLimiter,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware(users, log))
	api.Use(quotaMiddleware(limiter, log))

	// Event endpoints
	api.HandleFunc("/events", events.List).Methods("GET")
	api.HandleFunc("/events/{id:[0-9]+}", events.Get).Methods("GET")

	// Job endpoints
	api.HandleFunc("/jobs", jobs.List).Methods("GET")
	api.HandleFunc("/jobs/{id}", jobs.Get).Methods("GET")
	api.HandleFunc("/scan", jobs.Scan).Methods("POST")
	api.HandleFunc("/scanners", jobs.ListScanners).Methods("GET")

	// Outcome endpoints
	api.HandleFunc("/outcomes/summary", outcomes.Summary).Methods("GET")

	// Live stream
	api.HandleFunc("/stream", stream.Connect).Methods("GET")

	// Apply middleware
	r.Use(recoveryMiddleware(log))
	r.Use(loggingMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "impact-radar-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					writeError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
