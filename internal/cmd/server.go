package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

func setupServer(cfg Config, services *Services) *http.Server {
	r := chi.NewRouter()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	r.Mount("/api/drafts", services.Draft.Routes())
	r.Mount("/ws/drafts", services.Gateway.Routes())

	setupHealthCheck(r, services)

	return &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: c.Handler(r),
	}
}

func setupHealthCheck(r chi.Router, services *Services) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{
			"status":  "ok",
			"gateway": services.Manager.Stats(),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
