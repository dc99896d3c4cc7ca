// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ajwhitfield/covidcache/internal/models"
)

// DeleteCounts records rows deleted per table by a cleaner pass.
type DeleteCounts map[string]int64

// Total sums the per-table counts.
func (c DeleteCounts) Total() int64 {
	var n int64
	for _, v := range c {
		n += v
	}
	return n
}

// PruneUnreachable deletes every cache row outside the reachable set.
// All deletes run in one transaction so readers never observe an area
// half-removed.
//
// The areas table is deliberately not pruned: it is the synced area list
// the picker searches, justified by its own metadata row rather than by
// reachability.
func (db *DB) PruneUnreachable(ctx context.Context, reachable *models.ReachableSet) (DeleteCounts, error) {
	counts := make(DeleteCounts)
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		prunes := []struct {
			table  string
			column string
			keep   map[string]struct{}
		}{
			{"area_data", "area_code", reachable.AreaCodes},
			{"area_lookups", "lsoa_code", reachable.LookupCodes},
			{"healthcare", "area_code", reachable.HealthcareCodes},
			{"alert_levels", "area_code", reachable.AlertLevelCodes},
			{"soa_data", "area_code", reachable.SoaCodes},
			{"area_associations", "area_code", reachable.AreaCodes},
			{"metadata", "id", reachable.MetadataIDs},
		}
		for _, p := range prunes {
			// NOT IN over an empty set must delete everything; the
			// IN (NULL) convention would match no rows instead.
			query := fmt.Sprintf(`DELETE FROM %s`, p.table)
			var args []any
			if len(p.keep) > 0 {
				clause, clauseArgs := buildInClause(p.keep)
				query = fmt.Sprintf(`DELETE FROM %s WHERE %s NOT %s`, p.table, p.column, clause)
				args = clauseArgs
			}
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("prune %s: %w", p.table, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				counts[p.table] = n
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// ExpireDatasets deletes every dataset whose metadata last_sync_time is
// older than the cutoff, regardless of reachability, then deletes the
// metadata rows themselves. One transaction.
func (db *DB) ExpireDatasets(ctx context.Context, cutoff time.Time) (DeleteCounts, error) {
	counts := make(DeleteCounts)
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM metadata WHERE last_sync_time < ?`, cutoff)
		if err != nil {
			return fmt.Errorf("select expired metadata: %w", err)
		}
		var expired []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan expired metadata id: %w", err)
			}
			expired = append(expired, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate expired metadata: %w", err)
		}
		if len(expired) == 0 {
			return nil
		}

		kindTables := map[models.MetadataKind]string{
			models.MetadataKindAreaData:   "area_data",
			models.MetadataKindHealthcare: "healthcare",
			models.MetadataKindAlertLevel: "alert_levels",
			models.MetadataKindSoa:        "soa_data",
		}

		for _, id := range expired {
			kind, code := models.ParseMetadataID(id)
			if table, ok := kindTables[kind]; ok && code != "" {
				res, err := tx.ExecContext(ctx,
					fmt.Sprintf(`DELETE FROM %s WHERE area_code = ?`, table), code)
				if err != nil {
					return fmt.Errorf("expire %s rows for %s: %w", table, code, err)
				}
				if n, err := res.RowsAffected(); err == nil {
					counts[table] += n
				}
			}
			if kind == models.MetadataKindLookup && code != "" {
				// Lookup metadata embeds the requested area code, while the
				// lookup row is keyed by LSOA; the chain columns bridge the
				// two.
				res, err := tx.ExecContext(ctx, `DELETE FROM area_lookups
					WHERE lsoa_code = ? OR msoa_code = ? OR ltla_code = ? OR utla_code = ?`,
					code, code, code, code)
				if err != nil {
					return fmt.Errorf("expire area_lookups rows for %s: %w", code, err)
				}
				if n, err := res.RowsAffected(); err == nil {
					counts["area_lookups"] += n
				}
			}
			res, err := tx.ExecContext(ctx, `DELETE FROM metadata WHERE id = ?`, id)
			if err != nil {
				return fmt.Errorf("expire metadata %s: %w", id, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				counts["metadata"] += n
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
