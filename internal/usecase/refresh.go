// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/ajwhitfield/covidcache/internal/models"
	"github.com/ajwhitfield/covidcache/internal/sync"
)

// Refresher triggers on-demand synchronisation, the path behind
// screen-open and pull-to-refresh.
type Refresher struct {
	registry *sync.Registry
	manager  *sync.Manager
}

// NewRefresher creates a Refresher.
func NewRefresher(registry *sync.Registry, manager *sync.Manager) *Refresher {
	return &Refresher{registry: registry, manager: manager}
}

// RefreshArea syncs one area's dataset set and returns the per-dataset
// results. An offline condition surfaces as ErrOffline in the returned
// error; other dataset failures are reported in the results only, so a
// partial refresh still lands what it can.
func (r *Refresher) RefreshArea(ctx context.Context, areaCode string, areaType models.AreaType) ([]sync.Result, error) {
	syncers, err := r.registry.SyncersForArea(ctx, areaCode, areaType)
	if err != nil {
		return nil, fmt.Errorf("build syncers for %s: %w", areaCode, err)
	}
	results := r.manager.Run(ctx, syncers)
	for _, res := range results {
		if errors.Is(res.Err, sync.ErrOffline) {
			return results, sync.ErrOffline
		}
	}
	return results, nil
}

// RefreshAll triggers the full background synchroniser set once.
func (r *Refresher) RefreshAll(ctx context.Context) ([]sync.Result, error) {
	return r.manager.SyncAll(ctx)
}
