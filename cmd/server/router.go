package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/rpattn/propertyapi/internal/middleware"
	"github.com/rpattn/propertyapi/internal/property"
	"github.com/rpattn/propertyapi/internal/respond"
)

const healthTimeout = 2 * time.Second

type routerDeps struct {
	logger     *zap.Logger
	properties *property.Handler
	imports    http.Handler
	exports    http.Handler
	health     func(context.Context) error
}

func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(deps.logger))
	r.Use(middleware.Metrics())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := deps.health(ctx); err != nil {
			deps.logger.Warn("health check failed", zap.Error(err))
			respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	api := deps.properties.Routes()
	api.Post("/import", deps.imports.ServeHTTP)
	api.Get("/export", deps.exports.ServeHTTP)
	r.Mount("/api/properties", api)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return corsHandler.Handler(r)
}
