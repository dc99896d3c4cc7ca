// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package sync

import (
	"context"
	stdsync "sync"

	"github.com/google/uuid"

	"github.com/ajwhitfield/covidcache/internal/logging"
)

// SyncerSource builds the synchroniser set for one run. The set is
// dynamic: per-area synchronisers follow the current saved areas.
type SyncerSource interface {
	BuildSyncers(ctx context.Context) ([]Syncer, error)
}

// Manager fans one sync trigger out to every dataset synchroniser
// concurrently. Each result is captured independently: one dataset's
// failure never cancels or aborts its siblings.
type Manager struct {
	source SyncerSource
}

// NewManager creates a Manager over a syncer source.
func NewManager(source SyncerSource) *Manager {
	return &Manager{source: source}
}

// SyncAll runs every synchroniser concurrently and returns all results.
// Safe to invoke repeatedly; datasets guard themselves via staleness.
func (m *Manager) SyncAll(ctx context.Context) ([]Result, error) {
	syncers, err := m.source.BuildSyncers(ctx)
	if err != nil {
		return nil, err
	}
	return m.Run(ctx, syncers), nil
}

// Run fans the given synchronisers out concurrently and waits for all of
// them. Results keep the input order.
func (m *Manager) Run(ctx context.Context, syncers []Syncer) []Result {
	runID := uuid.NewString()
	logging.Info().
		Str("run_id", runID).
		Int("datasets", len(syncers)).
		Msg("Sync run started")

	results := make([]Result, len(syncers))
	var wg stdsync.WaitGroup
	for i, s := range syncers {
		wg.Add(1)
		go func(i int, s Syncer) {
			defer wg.Done()
			results[i] = s.Sync(ctx)
		}(i, s)
	}
	wg.Wait()

	var updated, failed int
	for _, r := range results {
		switch {
		case r.Status == StatusUpdated:
			updated++
		case r.Failed():
			failed++
		}
	}
	logging.Info().
		Str("run_id", runID).
		Int("updated", updated).
		Int("failed", failed).
		Int("total", len(results)).
		Msg("Sync run finished")

	return results
}
