// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ajwhitfield/covidcache/internal/metrics"
)

// prometheusMetrics records request counts and latency per route
// pattern, so path parameters don't explode label cardinality.
func prometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
