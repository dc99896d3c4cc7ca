// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

// Package metrics defines the Prometheus instruments exported at /metrics.
// All instruments register via promauto at package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRuns counts synchroniser outcomes per dataset.
	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "covidcache_sync_runs_total",
		Help: "Synchroniser runs by dataset and outcome (updated, not_modified, skipped_fresh, skipped_offline, failed)",
	}, []string{"dataset", "outcome"})

	// SyncDuration observes wall time per synchroniser run.
	SyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "covidcache_sync_duration_seconds",
		Help:    "Duration of synchroniser runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"dataset"})

	// SyncRowsReplaced counts rows written by full-replace syncs.
	SyncRowsReplaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "covidcache_sync_rows_replaced_total",
		Help: "Rows written into the cache by full-replace syncs",
	}, []string{"dataset"})

	// UpstreamRequests counts calls to the dashboard API by status class.
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "covidcache_upstream_requests_total",
		Help: "Upstream dashboard API requests by result (success, not_modified, http_error, transport_error)",
	}, []string{"result"})

	// CleanerRuns counts cleaner executions by kind and outcome.
	CleanerRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "covidcache_cleaner_runs_total",
		Help: "Cleaner runs by kind (reachability, expiry) and outcome (ok, failed)",
	}, []string{"kind", "outcome"})

	// CleanerRowsDeleted counts rows pruned per table.
	CleanerRowsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "covidcache_cleaner_rows_deleted_total",
		Help: "Cache rows deleted by the cleaner, per kind and table",
	}, []string{"kind", "table"})

	// HTTPRequests counts API requests by route and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "covidcache_http_requests_total",
		Help: "HTTP API requests by method, route and status code",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes API request latency by route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "covidcache_http_request_duration_seconds",
		Help:    "HTTP API request duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// SavedAreas gauges the current saved-area count.
	SavedAreas = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "covidcache_saved_areas",
		Help: "Number of areas the user has saved",
	})
)

// Sync outcome label values.
const (
	OutcomeUpdated        = "updated"
	OutcomeNotModified    = "not_modified"
	OutcomeSkippedFresh   = "skipped_fresh"
	OutcomeSkippedOffline = "skipped_offline"
	OutcomeFailed         = "failed"
)
