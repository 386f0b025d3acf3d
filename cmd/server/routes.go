package main

import (
	"fmt"
	"net/http"
)

// setupRoutes registers all HTTP routes and middleware.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/metrics", s.handleMetrics)
	mux.HandleFunc("/api/identify", s.handleIdentify)
	mux.HandleFunc("/api/mappings", s.handleMappings)
	mux.HandleFunc("/api/shabad/", s.handleShabad)

	return corsMiddleware(s.cfg.AllowedOrigins)(mux)
}

// corsMiddleware adds CORS headers to responses.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				allowed = true
			} else {
				for _, allowedOrigin := range allowedOrigins {
					if allowedOrigin == origin {
						w.Header().Set("Access-Control-Allow-Origin", origin)
						allowed = true
						break
					}
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
				w.Header().Set("Access-Control-Max-Age", "3600")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	handler := s.setupRoutes()

	addr := fmt.Sprintf(":%d", s.cfg.ServerPort)
	s.log.Infof("Shabad identification server starting on %s", addr)
	s.log.Infof("   Database: %s", s.cfg.DBPath)
	s.log.Infof("   Sample rate: %d Hz", s.cfg.SampleRate)
	s.log.Infof("   Min confidence: %.2f", s.cfg.MinConfidence)
	s.log.Infof("Endpoints:")
	s.log.Infof("   GET  /health           - Health check")
	s.log.Infof("   GET  /api/metrics      - Index and mapping metrics")
	s.log.Infof("   POST /api/identify     - Identify an uploaded audio clip")
	s.log.Infof("   GET  /api/mappings     - List audio-to-shabad mappings")
	s.log.Infof("   GET  /api/shabad/{id}  - Catalog proxy for display text")

	return http.ListenAndServe(addr, handler)
}
