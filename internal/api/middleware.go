package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/auth"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/redis"
)

// authMiddleware resolves the request's API key to a caller and stamps it
// onto the context. Requests without a valid key get 401.
func authMiddleware(users contracts.UserRepository, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := auth.ExtractAPIKey(r)
			if key == "" {
				writeError(w, http.StatusUnauthorized, "Missing API key")
				return
			}

			caller, err := users.GetByAPIKeyHash(r.Context(), auth.HashAPIKey(key))
			if err != nil {
				log.WithError(err).Error("Caller resolution failed")
				writeError(w, http.StatusInternalServerError, "Authentication unavailable")
				return
			}
			if caller == nil {
				writeError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithCaller(r.Context(), *caller)))
		})
	}
}

// quotaMiddleware enforces the per-plan sliding window. Limiter errors fail
// open with a warn log.
func quotaMiddleware(limiter *redis.RateLimiter, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := auth.CallerFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Missing API key")
				return
			}

			quota := redis.UserQuota(caller.UserID, caller.Plan.RequestsPerMinute())
			allowed, _, err := limiter.Allow(r.Context(), quota)
			if err != nil {
				log.WithError(err).Warn("Quota check failed, allowing request")
				allowed = true
			}
			if !allowed {
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
