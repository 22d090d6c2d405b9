package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/api/handlers"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// SSOT: route registration happens in this function only
func NewRouter(ranking *handlers.RankingHandler, hub *Hub, store *Store, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(store)).Methods("GET")

	// API v1
	api := r.PathPrefix("/api/v1").Subrouter()

	// Ranking endpoints
	api.HandleFunc("/ranking", ranking.GetLatest).Methods("GET")
	api.HandleFunc("/ranking/top", ranking.GetTop).Methods("GET")
	api.HandleFunc("/refresh", ranking.Refresh).Methods("POST")

	// Websocket subscribers
	r.HandleFunc("/ws", hub.ServeWS)

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health plus snapshot freshness
func healthCheckHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "ok",
			"service":  "premarket-api",
			"snapshot": store.Stats(),
		})
	}
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

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
