// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

// Package sync implements the per-dataset synchronisation state machine
// and the manager that fans runs out concurrently.
//
// Every dataset follows the same states:
//
//	CHECK_CONNECTIVITY -> CHECK_STALENESS -> FETCH -> WRITE | NOOP | FAIL
//
// One generic Synchronizer parameterised by a Dataset configuration
// replaces the near-identical per-dataset variants the pattern would
// otherwise need: datasets differ only in key, staleness policy, filter
// construction and row shape.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ajwhitfield/covidcache/internal/clock"
	"github.com/ajwhitfield/covidcache/internal/covidapi"
	"github.com/ajwhitfield/covidcache/internal/database"
	"github.com/ajwhitfield/covidcache/internal/logging"
	"github.com/ajwhitfield/covidcache/internal/metrics"
	"github.com/ajwhitfield/covidcache/internal/models"
)

// MetadataStore is the slice of the cache the state machine itself
// needs; dataset Write functions carry their own store access.
type MetadataStore interface {
	GetMetadata(ctx context.Context, id string) (*models.Metadata, error)
	TouchMetadataSyncTime(ctx context.Context, id string, syncTime time.Time) error
}

// Dataset configures one synchroniser.
type Dataset[T any] struct {
	// ID is the dataset's metadata ID.
	ID string

	// Staleness gates the fetch when metadata already exists.
	Staleness StalenessPolicy

	// Offline chooses fail-vs-skip when the source is unreachable.
	Offline OfflinePolicy

	// Fetch calls the remote source. The watermark is the stored
	// last_updated_at (zero on first sync) and is sent as
	// If-Modified-Since. Returns the payload and the response
	// Last-Modified (zero when the upstream omits it).
	Fetch func(ctx context.Context, watermark time.Time) (T, time.Time, error)

	// Write persists the payload and the metadata row in one
	// transaction. Only called for a successful fetch with rows.
	Write func(ctx context.Context, payload T, meta models.Metadata) error

	// Count reports the payload's row count for logging and metrics.
	Count func(payload T) int
}

// Syncer is the non-generic face of a synchroniser, so differently-typed
// datasets share a registry.
type Syncer interface {
	ID() string
	Sync(ctx context.Context) Result
}

// Synchronizer runs the state machine for one dataset. Not re-entrant;
// invoked at most once per logical trigger.
type Synchronizer[T any] struct {
	dataset       Dataset[T]
	store         MetadataStore
	conn          Connectivity
	clock         clock.Clock
	retryAttempts int
	retryDelay    time.Duration
}

// NewSynchronizer assembles a synchroniser for a dataset.
func NewSynchronizer[T any](ds Dataset[T], store MetadataStore, conn Connectivity, clk clock.Clock, retryAttempts int, retryDelay time.Duration) *Synchronizer[T] {
	return &Synchronizer[T]{
		dataset:       ds,
		store:         store,
		conn:          conn,
		clock:         clk,
		retryAttempts: retryAttempts,
		retryDelay:    retryDelay,
	}
}

// ID returns the dataset's metadata ID.
func (s *Synchronizer[T]) ID() string {
	return s.dataset.ID
}

// Sync runs the state machine once.
func (s *Synchronizer[T]) Sync(ctx context.Context) Result {
	start := s.clock.Now()
	result := s.run(ctx)
	result.Dataset = s.dataset.ID
	result.Duration = s.clock.Now().Sub(start)
	if result.Err != nil {
		result.Error = result.Err.Error()
	}

	metrics.SyncRuns.WithLabelValues(s.dataset.ID, string(result.Status)).Inc()
	metrics.SyncDuration.WithLabelValues(s.dataset.ID).Observe(result.Duration.Seconds())

	event := logging.Debug()
	if result.Failed() {
		event = logging.Warn().Err(result.Err)
	}
	event.
		Str("dataset", s.dataset.ID).
		Str("status", string(result.Status)).
		Int("rows", result.Rows).
		Msg("Sync finished")

	return result
}

func (s *Synchronizer[T]) run(ctx context.Context) Result {
	// CHECK_CONNECTIVITY
	if !s.conn.Reachable(ctx) {
		if s.dataset.Offline == OfflineFail {
			return Result{Status: StatusFailed, Err: ErrOffline}
		}
		return Result{Status: StatusSkippedOffline}
	}

	// CHECK_STALENESS
	now := s.clock.Now()
	var watermark time.Time
	meta, err := s.store.GetMetadata(ctx, s.dataset.ID)
	switch {
	case err == nil:
		if !s.dataset.Staleness.IsStale(meta, now) {
			return Result{Status: StatusSkippedFresh}
		}
		watermark = meta.LastUpdatedAt
	case errors.Is(err, database.ErrNotFound):
		// First-ever sync: fetch unconditionally, no watermark.
	default:
		return Result{Status: StatusFailed, Err: fmt.Errorf("read metadata: %w", err)}
	}

	// FETCH
	var (
		payload      T
		lastModified time.Time
	)
	err = retryWithBackoff(ctx, s.dataset.ID, s.retryAttempts, s.retryDelay, func() error {
		var fetchErr error
		payload, lastModified, fetchErr = s.dataset.Fetch(ctx, watermark)
		return fetchErr
	})

	switch {
	case errors.Is(err, covidapi.ErrNotModified):
		// NOOP: bump last_sync_time so the staleness gate resets; the
		// watermark and all cached rows stay as they are.
		if touchErr := s.store.TouchMetadataSyncTime(ctx, s.dataset.ID, s.clock.Now()); touchErr != nil {
			return Result{Status: StatusFailed, Err: fmt.Errorf("record not-modified: %w", touchErr)}
		}
		return Result{Status: StatusNotModified}
	case err != nil:
		// FAIL: transport errors, upstream error responses and empty
		// bodies all leave the cache untouched.
		return Result{Status: StatusFailed, Err: err}
	}

	// WRITE: the response watermark becomes the new last_updated_at,
	// falling back to the sync time when the upstream omits it.
	if lastModified.IsZero() {
		lastModified = now
	}
	newMeta := models.Metadata{
		ID:            s.dataset.ID,
		LastUpdatedAt: lastModified,
		LastSyncTime:  s.clock.Now(),
	}
	if err := s.dataset.Write(ctx, payload, newMeta); err != nil {
		return Result{Status: StatusFailed, Err: fmt.Errorf("write %s: %w", s.dataset.ID, err)}
	}

	rows := s.dataset.Count(payload)
	metrics.SyncRowsReplaced.WithLabelValues(s.dataset.ID).Add(float64(rows))
	return Result{Status: StatusUpdated, Rows: rows}
}
