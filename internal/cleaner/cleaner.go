// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

// Package cleaner reclaims cache rows that no saved area justifies and
// datasets that have not synced recently enough to be trusted.
//
// Two independent passes:
//
//   - reachability: recompute the full reachable set from the saved
//     areas and delete everything outside it, in one transaction
//   - expiry: delete any dataset whose metadata last_sync_time is older
//     than the configured cutoff, reachable or not
//
// Reachability is recomputed from scratch on every pass instead of
// reference-counted, so a missed or duplicated association edge can
// never leak rows permanently.
package cleaner

import (
	"context"
	"errors"
	"fmt"

	"github.com/ajwhitfield/covidcache/internal/clock"
	"github.com/ajwhitfield/covidcache/internal/config"
	"github.com/ajwhitfield/covidcache/internal/database"
	"github.com/ajwhitfield/covidcache/internal/logging"
	"github.com/ajwhitfield/covidcache/internal/metrics"
	"github.com/ajwhitfield/covidcache/internal/models"
)

// Cleaner runs the reachability and expiry passes over the cache.
type Cleaner struct {
	db    *database.DB
	clock clock.Clock
	cfg   config.CleanerConfig
}

// New creates a Cleaner.
func New(db *database.DB, clk clock.Clock, cfg config.CleanerConfig) *Cleaner {
	return &Cleaner{db: db, clock: clk, cfg: cfg}
}

// Run executes both passes. The passes are independent: a reachability
// failure does not suppress expiry. Returns the combined error, if any.
func (c *Cleaner) Run(ctx context.Context) error {
	pruneErr := c.runPass(ctx, "reachability", c.PruneUnreachable)
	expireErr := c.runPass(ctx, "expiry", c.ExpireStale)
	return errors.Join(pruneErr, expireErr)
}

func (c *Cleaner) runPass(ctx context.Context, kind string, pass func(context.Context) (database.DeleteCounts, error)) error {
	counts, err := pass(ctx)
	if err != nil {
		metrics.CleanerRuns.WithLabelValues(kind, metrics.OutcomeFailed).Inc()
		logging.Error().Err(err).Str("kind", kind).Msg("Cleaner pass failed")
		return fmt.Errorf("%s pass: %w", kind, err)
	}
	metrics.CleanerRuns.WithLabelValues(kind, "ok").Inc()
	for table, n := range counts {
		metrics.CleanerRowsDeleted.WithLabelValues(kind, table).Add(float64(n))
	}
	logging.Info().
		Str("kind", kind).
		Int64("deleted", counts.Total()).
		Msg("Cleaner pass finished")
	return nil
}

// PruneUnreachable recomputes the reachable set and deletes everything
// outside it in one transaction.
func (c *Cleaner) PruneUnreachable(ctx context.Context) (database.DeleteCounts, error) {
	reachable, err := c.ComputeReachable(ctx)
	if err != nil {
		return nil, err
	}
	return c.db.PruneUnreachable(ctx, reachable)
}

// ExpireStale deletes every dataset that has not synced within the
// configured cutoff window.
func (c *Cleaner) ExpireStale(ctx context.Context) (database.DeleteCounts, error) {
	cutoff := c.clock.Now().Add(-c.cfg.ExpiryCutoff)
	return c.db.ExpireDatasets(ctx, cutoff)
}

// ComputeReachable builds the reachable snapshot: the saved areas, each
// saved area's lookup chain and dependency edges, and the national
// codes, which back the hierarchical fallbacks and must always survive.
func (c *Cleaner) ComputeReachable(ctx context.Context) (*models.ReachableSet, error) {
	rs := models.NewReachableSet()

	// The area list and the summary rollup are justified by their own
	// metadata rows, not by any saved area.
	rs.MetadataIDs[models.AreaListMetadataID] = struct{}{}
	rs.MetadataIDs[models.AreaSummaryMetadataID] = struct{}{}

	keepArea := func(code string) {
		if code == "" {
			return
		}
		rs.AreaCodes[code] = struct{}{}
		rs.MetadataIDs[models.AreaMetadataID(code)] = struct{}{}
	}
	keepHealthcare := func(code string) {
		if code == "" {
			return
		}
		rs.HealthcareCodes[code] = struct{}{}
		rs.MetadataIDs[models.HealthcareMetadataID(code)] = struct{}{}
	}
	keepAlertLevel := func(code string) {
		if code == "" {
			return
		}
		rs.AlertLevelCodes[code] = struct{}{}
		rs.MetadataIDs[models.AlertLevelMetadataID(code)] = struct{}{}
	}
	keepSoa := func(code string) {
		if code == "" {
			return
		}
		rs.SoaCodes[code] = struct{}{}
		rs.MetadataIDs[models.SoaMetadataID(code)] = struct{}{}
	}

	for _, code := range models.NationalCodes() {
		keepArea(code)
		keepHealthcare(code)
	}

	saved, err := c.db.ListSavedAreas(ctx)
	if err != nil {
		return nil, fmt.Errorf("list saved areas: %w", err)
	}

	// Trust-to-region mappings cover saved areas that are bare NHS trust
	// codes: those never match a geographic lookup chain, so without the
	// mapping their healthcare series would look unreachable.
	healthcareLookups, err := c.db.ListHealthcareLookups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list healthcare lookups: %w", err)
	}
	trustRegions := make(map[string]string, len(healthcareLookups))
	for _, hl := range healthcareLookups {
		trustRegions[hl.NhsTrustCode] = hl.NhsRegionCode
	}

	savedCodes := make(map[string]struct{}, len(saved))
	for _, sa := range saved {
		savedCodes[sa.AreaCode] = struct{}{}
		keepArea(sa.AreaCode)

		if region, ok := trustRegions[sa.AreaCode]; ok {
			keepHealthcare(sa.AreaCode)
			keepHealthcare(region)
		}

		lookup, err := c.db.FindLookupByAreaCode(ctx, sa.AreaCode)
		switch {
		case errors.Is(err, database.ErrNotFound):
			// Lookup not fetched yet; nothing further to derive. Keep
			// the metadata row so an in-flight fetch is not expired
			// between write and the next pass.
			rs.MetadataIDs[models.LookupMetadataID(sa.AreaCode)] = struct{}{}
			continue
		case err != nil:
			return nil, fmt.Errorf("resolve lookup for %s: %w", sa.AreaCode, err)
		}

		rs.LookupCodes[lookup.LsoaCode] = struct{}{}
		rs.MetadataIDs[models.LookupMetadataID(sa.AreaCode)] = struct{}{}

		for _, code := range lookup.ContainingCodes() {
			keepArea(code)
		}
		for _, code := range lookup.HealthcareCodes() {
			keepHealthcare(code)
		}
		keepHealthcare(lookup.NationCode)
		keepAlertLevel(lookup.LtlaCode)
		keepSoa(lookup.MsoaCode)
	}

	// Dependency edges recorded at sync time cover anything the lookup
	// chain alone does not, e.g. deps resolved under an older lookup.
	edges, err := c.db.ListAssociations(ctx, savedCodes)
	if err != nil {
		return nil, fmt.Errorf("list associations: %w", err)
	}
	for _, e := range edges {
		switch e.AssociationType {
		case models.AssociationAreaData:
			keepArea(e.AssociatedAreaCode)
		case models.AssociationAreaLookup:
			rs.LookupCodes[e.AssociatedAreaCode] = struct{}{}
		case models.AssociationHealthcare:
			keepHealthcare(e.AssociatedAreaCode)
		case models.AssociationAlertLevel:
			keepAlertLevel(e.AssociatedAreaCode)
		case models.AssociationSoaData:
			keepSoa(e.AssociatedAreaCode)
		}
	}

	return rs, nil
}
