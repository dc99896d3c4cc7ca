// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package sync

import (
	"context"
	"time"

	"github.com/ajwhitfield/covidcache/internal/models"
)

// StalenessPolicy decides whether a dataset with existing metadata needs
// a re-fetch. A dataset with no metadata row is always fetched (the
// first-ever sync has nothing to conditionally update against).
type StalenessPolicy interface {
	IsStale(meta *models.Metadata, now time.Time) bool
}

// IntervalStaleness re-fetches once the last sync is older than a fixed
// minimum refresh interval. The common policy for hourly datasets.
type IntervalStaleness struct {
	Interval time.Duration
}

func (p IntervalStaleness) IsStale(meta *models.Metadata, now time.Time) bool {
	return now.Sub(meta.LastSyncTime) >= p.Interval
}

// DailyStaleness re-fetches when the last sync happened on an earlier
// UTC calendar day. Used by the area summary, whose snapshots are keyed
// to calendar dates rather than a rolling interval.
type DailyStaleness struct{}

func (DailyStaleness) IsStale(meta *models.Metadata, now time.Time) bool {
	y1, m1, d1 := meta.LastSyncTime.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}

// NeverStale fetches only when no metadata exists. Used by area lookups,
// which are immutable geography cached until reclaimed.
type NeverStale struct{}

func (NeverStale) IsStale(*models.Metadata, time.Time) bool {
	return false
}

// OfflinePolicy chooses the behaviour when connectivity is absent.
type OfflinePolicy int

const (
	// OfflineSkip silently no-ops; staleness is re-evaluated next run.
	// The policy for background/periodic synchronisers.
	OfflineSkip OfflinePolicy = iota

	// OfflineFail reports ErrOffline. The policy for user-triggered
	// refreshes whose caller needs to surface the condition.
	OfflineFail
)

// Connectivity probes whether the data source is reachable. The covidapi
// client provides a TCP-dial implementation; tests inject fakes.
type Connectivity interface {
	Reachable(ctx context.Context) bool
}
