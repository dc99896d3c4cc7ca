// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

// Package api exposes the cached statistics over HTTP using the chi
// router with the cors and httprate middleware from its ecosystem.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ajwhitfield/covidcache/internal/clock"
	"github.com/ajwhitfield/covidcache/internal/config"
	"github.com/ajwhitfield/covidcache/internal/database"
	"github.com/ajwhitfield/covidcache/internal/usecase"
)

// Router wires handlers and middleware into the HTTP surface.
type Router struct {
	handler *Handler
	cfg     config.APIConfig
}

// NewRouter creates a Router over the cache and the use-case services.
func NewRouter(db *database.DB, svc *usecase.Service, refresher *usecase.Refresher, clk clock.Clock, cfg config.APIConfig) *Router {
	return &Router{
		handler: NewHandler(db, svc, refresher, clk),
		cfg:     cfg,
	}
}

// Setup builds the full route tree.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}))

	r.Get("/healthz", rt.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(rt.cfg.RateLimitReqs, rt.cfg.RateLimitWindow))
		r.Use(prometheusMetrics)

		r.Get("/areas", rt.handler.ListAreas)
		r.Get("/areas/{code}", rt.handler.AreaDetail)
		r.Get("/areas/{code}/summary", rt.handler.AreaSummary)
		r.Post("/areas/{code}/sync", rt.handler.SyncArea)

		r.Get("/summaries", rt.handler.ListSummaries)

		r.Get("/saved-areas", rt.handler.ListSavedAreas)
		r.Post("/saved-areas", rt.handler.SaveArea)
		r.Delete("/saved-areas/{code}", rt.handler.DeleteSavedArea)

		r.Post("/sync", rt.handler.SyncAll)
	})

	return r
}
