// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ajwhitfield/covidcache/internal/clock"
	"github.com/ajwhitfield/covidcache/internal/config"
	"github.com/ajwhitfield/covidcache/internal/covidapi"
	"github.com/ajwhitfield/covidcache/internal/database"
	"github.com/ajwhitfield/covidcache/internal/logging"
	"github.com/ajwhitfield/covidcache/internal/models"
	"github.com/ajwhitfield/covidcache/internal/stats"
)

// Registry builds the synchroniser set from the current cache state:
// fixed datasets (area list, UK overview, area summary) plus per-area
// datasets derived from the saved areas and their lookup chains.
type Registry struct {
	db     *database.DB
	client *covidapi.Client
	conn   Connectivity
	clock  clock.Clock
	cfg    config.SyncConfig
}

// NewRegistry creates a Registry. The covidapi client doubles as the
// default Connectivity probe.
func NewRegistry(db *database.DB, client *covidapi.Client, conn Connectivity, clk clock.Clock, cfg config.SyncConfig) *Registry {
	return &Registry{db: db, client: client, conn: conn, clock: clk, cfg: cfg}
}

// newSyncer wires a dataset into a synchroniser with the registry's
// shared store, connectivity, clock and retry settings.
func newSyncer[T any](r *Registry, ds Dataset[T]) Syncer {
	return NewSynchronizer(ds, r.db, r.conn, r.clock, r.cfg.RetryAttempts, r.cfg.RetryDelay)
}

// BuildSyncers assembles the background synchroniser set. All background
// datasets use OfflineSkip: with no network the run silently no-ops and
// staleness is re-evaluated next time.
func (r *Registry) BuildSyncers(ctx context.Context) ([]Syncer, error) {
	syncers := []Syncer{
		r.areaListSyncer(),
		r.summarySyncer(),
	}
	seen := map[string]struct{}{
		models.AreaListMetadataID:    {},
		models.AreaSummaryMetadataID: {},
	}

	add := func(s Syncer) {
		if _, dup := seen[s.ID()]; dup {
			return
		}
		seen[s.ID()] = struct{}{}
		syncers = append(syncers, s)
	}

	// The UK overview backs the final fallback of every use case.
	add(r.areaDataSyncer(models.CodeUK, models.AreaTypeOverview, OfflineSkip))

	saved, err := r.db.ListSavedAreas(ctx)
	if err != nil {
		return nil, fmt.Errorf("list saved areas: %w", err)
	}
	for _, sa := range saved {
		if err := r.addAreaSyncers(ctx, sa.AreaCode, sa.AreaType, OfflineSkip, add); err != nil {
			return nil, err
		}
	}
	return syncers, nil
}

// SyncersForArea assembles the synchroniser set for one area, the path
// behind screen-open and pull-to-refresh. The area's own data uses
// OfflineFail so the caller can surface the condition.
func (r *Registry) SyncersForArea(ctx context.Context, areaCode string, areaType models.AreaType) ([]Syncer, error) {
	var syncers []Syncer
	seen := make(map[string]struct{})
	add := func(s Syncer) {
		if _, dup := seen[s.ID()]; dup {
			return
		}
		seen[s.ID()] = struct{}{}
		syncers = append(syncers, s)
	}
	if err := r.addAreaSyncers(ctx, areaCode, areaType, OfflineFail, add); err != nil {
		return nil, err
	}
	return syncers, nil
}

// addAreaSyncers adds the dataset set one area depends on: its own daily
// series, its lookup chain (fetched once, then cached indefinitely), the
// containing areas' series for hierarchical fallback, healthcare for its
// NHS codes and nation, alert level for local authorities, and SOA data
// for MSOAs. Each resolved dependency is recorded as an association edge
// for the cleaner.
func (r *Registry) addAreaSyncers(ctx context.Context, areaCode string, areaType models.AreaType, offline OfflinePolicy, add func(Syncer)) error {
	add(r.areaDataSyncer(areaCode, areaType, offline))

	lookup, err := r.db.FindLookupByAreaCode(ctx, areaCode)
	switch {
	case errors.Is(err, database.ErrNotFound):
		if areaTypeNeedsLookup(areaType) {
			add(r.lookupSyncer(areaCode, areaType))
		}
		return nil
	case err != nil:
		return fmt.Errorf("resolve lookup for %s: %w", areaCode, err)
	}

	associate := func(code string, t models.AssociationType) {
		if code == "" || code == areaCode {
			return
		}
		if err := r.db.InsertAssociation(ctx, models.AreaAssociation{
			AreaCode:           areaCode,
			AssociatedAreaCode: code,
			AssociationType:    t,
		}); err != nil {
			logging.Warn().Err(err).Str("area", areaCode).Str("dep", code).Msg("Failed to record association")
		}
	}

	associate(lookup.LsoaCode, models.AssociationAreaLookup)

	// Containing areas back the self -> region -> nation fallback chain.
	if lookup.RegionCode != nil && *lookup.RegionCode != "" {
		add(r.areaDataSyncer(*lookup.RegionCode, models.AreaTypeRegion, OfflineSkip))
		associate(*lookup.RegionCode, models.AssociationAreaData)
	}
	if lookup.NationCode != "" {
		add(r.areaDataSyncer(lookup.NationCode, models.AreaTypeNation, OfflineSkip))
		associate(lookup.NationCode, models.AssociationAreaData)

		add(r.healthcareSyncer(lookup.NationCode, models.AreaTypeNation))
		associate(lookup.NationCode, models.AssociationHealthcare)
	}

	if lookup.NhsTrustCode != nil && *lookup.NhsTrustCode != "" {
		add(r.healthcareSyncer(*lookup.NhsTrustCode, models.AreaTypeNHSTrust))
		associate(*lookup.NhsTrustCode, models.AssociationHealthcare)
	}
	if lookup.NhsRegionCode != nil && *lookup.NhsRegionCode != "" {
		add(r.healthcareSyncer(*lookup.NhsRegionCode, models.AreaTypeNHSRegion))
		associate(*lookup.NhsRegionCode, models.AssociationHealthcare)
	}

	if lookup.LtlaCode != "" {
		add(r.alertLevelSyncer(lookup.LtlaCode, models.AreaTypeLTLA))
		associate(lookup.LtlaCode, models.AssociationAlertLevel)
	}

	if lookup.MsoaCode != "" {
		add(r.soaSyncer(lookup.MsoaCode))
		associate(lookup.MsoaCode, models.AssociationSoaData)
	}

	return nil
}

// areaTypeNeedsLookup reports whether an area type requires a geographic
// lookup chain. Nations, regions and the overview are their own chain.
func areaTypeNeedsLookup(t models.AreaType) bool {
	switch t {
	case models.AreaTypeMSOA, models.AreaTypeLTLA, models.AreaTypeUTLA:
		return true
	default:
		return false
	}
}

// syncedAreaTypes are the area types the area-list dataset covers.
var syncedAreaTypes = []models.AreaType{
	models.AreaTypeNation,
	models.AreaTypeRegion,
	models.AreaTypeUTLA,
	models.AreaTypeLTLA,
}

// areaListSyncer keeps the searchable area list current. The list is
// upserted, not replaced, so bootstrap seed areas survive.
func (r *Registry) areaListSyncer() Syncer {
	return newSyncer(r, Dataset[[]models.Area]{
		ID:        models.AreaListMetadataID,
		Staleness: IntervalStaleness{Interval: r.cfg.RefreshInterval},
		Offline:   OfflineSkip,
		Fetch: func(ctx context.Context, watermark time.Time) ([]models.Area, time.Time, error) {
			var (
				all          []models.Area
				lastModified time.Time
				notModified  int
			)
			for _, at := range syncedAreaTypes {
				rows, lm, err := covidapi.FetchAll[covidapi.AreaRow](ctx, r.client, covidapi.Request{
					Filters:       covidapi.Filters{AreaType: string(at)},
					Structure:     covidapi.StructureAreas,
					ModifiedSince: watermark,
				})
				if errors.Is(err, covidapi.ErrNotModified) {
					notModified++
					continue
				}
				if err != nil {
					return nil, time.Time{}, fmt.Errorf("fetch %s areas: %w", at, err)
				}
				if lm.After(lastModified) {
					lastModified = lm
				}
				for _, row := range rows {
					all = append(all, models.Area{
						AreaCode: row.AreaCode,
						AreaName: row.AreaName,
						AreaType: at,
					})
				}
			}
			if notModified == len(syncedAreaTypes) {
				return nil, time.Time{}, covidapi.ErrNotModified
			}
			if len(all) == 0 {
				return nil, time.Time{}, covidapi.ErrEmptyBody
			}
			return all, lastModified, nil
		},
		Write: func(ctx context.Context, areas []models.Area, meta models.Metadata) error {
			return r.db.UpsertAreas(ctx, areas, meta)
		},
		Count: func(areas []models.Area) int { return len(areas) },
	})
}

// areaDataSyncer keeps one area's daily series current.
func (r *Registry) areaDataSyncer(areaCode string, areaType models.AreaType, offline OfflinePolicy) Syncer {
	return newSyncer(r, Dataset[[]models.AreaData]{
		ID:        models.AreaMetadataID(areaCode),
		Staleness: IntervalStaleness{Interval: r.cfg.RefreshInterval},
		Offline:   offline,
		Fetch: func(ctx context.Context, watermark time.Time) ([]models.AreaData, time.Time, error) {
			rows, lm, err := covidapi.FetchAll[covidapi.DailyRow](ctx, r.client, covidapi.Request{
				Filters:       covidapi.Filters{AreaType: string(areaType), AreaCode: areaCode},
				Structure:     covidapi.StructureDaily,
				ModifiedSince: watermark,
			})
			if err != nil {
				return nil, time.Time{}, err
			}
			data, err := dailyRowsToModels(rows)
			return data, lm, err
		},
		Write: func(ctx context.Context, data []models.AreaData, meta models.Metadata) error {
			return r.db.ReplaceAreaData(ctx, areaCode, data, meta)
		},
		Count: func(data []models.AreaData) int { return len(data) },
	})
}

// summarySyncer rebuilds the 4-week area summary rollup. Staleness is
// calendar-date keyed: one rebuild per UTC day.
func (r *Registry) summarySyncer() Syncer {
	return newSyncer(r, Dataset[[]models.AreaSummary]{
		ID:        models.AreaSummaryMetadataID,
		Staleness: DailyStaleness{},
		Offline:   OfflineSkip,
		Fetch:     r.fetchSummarySnapshots,
		Write: func(ctx context.Context, summaries []models.AreaSummary, meta models.Metadata) error {
			return r.db.ReplaceAreaSummaries(ctx, summaries, meta)
		},
		Count: func(summaries []models.AreaSummary) int { return len(summaries) },
	})
}

// fetchSummarySnapshots fetches four weekly snapshots of LTLA cumulative
// cases at date, date-7, date-14 and date-21, where date is today minus
// the reporting-lag offset, and merges them into summary rows. A
// snapshot set with mismatched area counts aborts the whole sync.
func (r *Registry) fetchSummarySnapshots(ctx context.Context, _ time.Time) ([]models.AreaSummary, time.Time, error) {
	baseDate := r.clock.Now().UTC().AddDate(0, 0, -r.cfg.SummaryLagDays)

	var (
		weeks        [stats.SummaryWeeks][]stats.AreaWeek
		lastModified time.Time
	)
	for i := 0; i < stats.SummaryWeeks; i++ {
		snapDate := baseDate.AddDate(0, 0, -7*i)
		rows, lm, err := covidapi.FetchAll[covidapi.SummaryRow](ctx, r.client, covidapi.Request{
			Filters:   covidapi.Filters{AreaType: string(models.AreaTypeLTLA), Date: snapDate},
			Structure: covidapi.StructureSummary,
		})
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("fetch summary snapshot %s: %w", snapDate.Format("2006-01-02"), err)
		}
		if i == 0 {
			lastModified = lm
		}

		week := make([]stats.AreaWeek, 0, len(rows))
		for _, row := range rows {
			aw := stats.AreaWeek{
				AreaCode: row.AreaCode,
				AreaName: row.AreaName,
				AreaType: models.AreaType(row.AreaType),
			}
			if row.CumulativeCases != nil {
				aw.CumulativeCases = *row.CumulativeCases
			}
			if row.InfectionRate != nil {
				aw.InfectionRate = *row.InfectionRate
			}
			week = append(week, aw)
		}
		weeks[i] = week
	}

	summaries, err := stats.MergeWeeklySnapshots(weeks)
	if err != nil {
		return nil, time.Time{}, err
	}
	return summaries, lastModified, nil
}

// healthcareSyncer keeps one NHS area's hospital series current.
func (r *Registry) healthcareSyncer(areaCode string, areaType models.AreaType) Syncer {
	return newSyncer(r, Dataset[[]models.Healthcare]{
		ID:        models.HealthcareMetadataID(areaCode),
		Staleness: IntervalStaleness{Interval: r.cfg.RefreshInterval},
		Offline:   OfflineSkip,
		Fetch: func(ctx context.Context, watermark time.Time) ([]models.Healthcare, time.Time, error) {
			rows, lm, err := covidapi.FetchAll[covidapi.HealthcareRow](ctx, r.client, covidapi.Request{
				Filters:       covidapi.Filters{AreaType: string(areaType), AreaCode: areaCode},
				Structure:     covidapi.StructureHealthcare,
				ModifiedSince: watermark,
			})
			if err != nil {
				return nil, time.Time{}, err
			}
			data, err := healthcareRowsToModels(rows)
			return data, lm, err
		},
		Write: func(ctx context.Context, data []models.Healthcare, meta models.Metadata) error {
			return r.db.ReplaceHealthcare(ctx, areaCode, data, meta)
		},
		Count: func(data []models.Healthcare) int { return len(data) },
	})
}

// alertLevelSyncer keeps one local authority's alert tier current.
func (r *Registry) alertLevelSyncer(areaCode string, areaType models.AreaType) Syncer {
	return newSyncer(r, Dataset[[]models.AlertLevel]{
		ID:        models.AlertLevelMetadataID(areaCode),
		Staleness: IntervalStaleness{Interval: r.cfg.RefreshInterval},
		Offline:   OfflineSkip,
		Fetch: func(ctx context.Context, watermark time.Time) ([]models.AlertLevel, time.Time, error) {
			rows, lm, err := covidapi.FetchAll[covidapi.AlertLevelRow](ctx, r.client, covidapi.Request{
				Filters:       covidapi.Filters{AreaType: string(areaType), AreaCode: areaCode},
				Structure:     covidapi.StructureAlertLevel,
				ModifiedSince: watermark,
			})
			if err != nil {
				return nil, time.Time{}, err
			}
			data, err := alertLevelRowsToModels(rows)
			return data, lm, err
		},
		Write: func(ctx context.Context, data []models.AlertLevel, meta models.Metadata) error {
			return r.db.ReplaceAlertLevels(ctx, areaCode, data, meta)
		},
		Count: func(data []models.AlertLevel) int { return len(data) },
	})
}

// soaSyncer keeps one MSOA's weekly rolling series current.
func (r *Registry) soaSyncer(areaCode string) Syncer {
	return newSyncer(r, Dataset[[]models.SoaData]{
		ID:        models.SoaMetadataID(areaCode),
		Staleness: IntervalStaleness{Interval: r.cfg.RefreshInterval},
		Offline:   OfflineSkip,
		Fetch: func(ctx context.Context, watermark time.Time) ([]models.SoaData, time.Time, error) {
			rows, lm, err := covidapi.FetchAll[covidapi.SoaRow](ctx, r.client, covidapi.Request{
				Filters:       covidapi.Filters{AreaType: string(models.AreaTypeMSOA), AreaCode: areaCode},
				Structure:     covidapi.StructureSoa,
				ModifiedSince: watermark,
			})
			if err != nil {
				return nil, time.Time{}, err
			}
			data, err := soaRowsToModels(rows)
			return data, lm, err
		},
		Write: func(ctx context.Context, data []models.SoaData, meta models.Metadata) error {
			return r.db.ReplaceSoaData(ctx, areaCode, data, meta)
		},
		Count: func(data []models.SoaData) int { return len(data) },
	})
}

// lookupSyncer fetches an area's containing-area chain once. Lookups are
// immutable geography: NeverStale re-fetches only when the metadata row
// is gone (i.e. after the cleaner reclaimed it).
func (r *Registry) lookupSyncer(areaCode string, areaType models.AreaType) Syncer {
	return newSyncer(r, Dataset[models.AreaLookup]{
		ID:        models.LookupMetadataID(areaCode),
		Staleness: NeverStale{},
		Offline:   OfflineSkip,
		Fetch: func(ctx context.Context, _ time.Time) (models.AreaLookup, time.Time, error) {
			rows, lm, err := covidapi.FetchAll[covidapi.LookupRow](ctx, r.client, covidapi.Request{
				Filters:   covidapi.Filters{AreaType: string(areaType), AreaCode: areaCode},
				Structure: covidapi.StructureLookup,
			})
			if err != nil {
				return models.AreaLookup{}, time.Time{}, err
			}
			return lookupRowToModel(rows[0]), lm, nil
		},
		Write: func(ctx context.Context, l models.AreaLookup, meta models.Metadata) error {
			return r.db.UpsertAreaLookup(ctx, l, meta)
		},
		Count: func(models.AreaLookup) int { return 1 },
	})
}
