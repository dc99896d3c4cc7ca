// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ajwhitfield/covidcache/internal/models"
)

// ReplaceAreaData replaces an area's entire daily series and upserts its
// metadata row in one transaction. Delete-then-insert (not merge) so that
// upstream corrections to historical rows never leave stale leftovers.
// Refuses an empty row set.
func (db *DB) ReplaceAreaData(ctx context.Context, areaCode string, rows []models.AreaData, meta models.Metadata) error {
	if len(rows) == 0 {
		return ErrEmptyReplace
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM area_data WHERE area_code = ?`, areaCode); err != nil {
			return fmt.Errorf("clear area data %s: %w", areaCode, err)
		}
		for _, r := range rows {
			if _, err := tx.ExecContext(ctx, `INSERT INTO area_data (
				area_code, area_name, area_type, date,
				new_cases, cumulative_cases, infection_rate,
				new_deaths_published, cumulative_deaths_published, death_rate_published,
				new_deaths_death_date, cumulative_deaths_death_date, death_rate_death_date,
				new_ons_deaths, cumulative_ons_deaths, ons_death_rate
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				r.AreaCode, r.AreaName, string(r.AreaType), r.Date,
				r.NewCases, r.CumulativeCases, r.InfectionRate,
				r.NewDeathsByPublishedDate, r.CumulativeDeathsByPublishedDate, r.DeathRateByPublishedDate,
				r.NewDeathsByDeathDate, r.CumulativeDeathsByDeathDate, r.DeathRateByDeathDate,
				r.NewOnsDeathsByRegistrationDate, r.CumulativeOnsDeathsByRegistrationDate, r.OnsDeathRateByRegistrationDate,
			); err != nil {
				return fmt.Errorf("insert area data %s %s: %w", r.AreaCode, r.Date.Format("2006-01-02"), err)
			}
		}
		return upsertMetadataTx(ctx, tx, meta)
	})
}

// GetAreaData returns an area's daily series ordered by date ascending.
func (db *DB) GetAreaData(ctx context.Context, areaCode string) ([]models.AreaData, error) {
	ctx = ensureContext(ctx)
	rows, err := db.conn.QueryContext(ctx, `SELECT
		area_code, area_name, area_type, date,
		new_cases, cumulative_cases, infection_rate,
		new_deaths_published, cumulative_deaths_published, death_rate_published,
		new_deaths_death_date, cumulative_deaths_death_date, death_rate_death_date,
		new_ons_deaths, cumulative_ons_deaths, ons_death_rate
	FROM area_data WHERE area_code = ? ORDER BY date`, areaCode)
	if err != nil {
		return nil, fmt.Errorf("get area data %s: %w", areaCode, err)
	}
	defer rows.Close()

	var out []models.AreaData
	for rows.Next() {
		var r models.AreaData
		if err := rows.Scan(
			&r.AreaCode, &r.AreaName, &r.AreaType, &r.Date,
			&r.NewCases, &r.CumulativeCases, &r.InfectionRate,
			&r.NewDeathsByPublishedDate, &r.CumulativeDeathsByPublishedDate, &r.DeathRateByPublishedDate,
			&r.NewDeathsByDeathDate, &r.CumulativeDeathsByDeathDate, &r.DeathRateByDeathDate,
			&r.NewOnsDeathsByRegistrationDate, &r.CumulativeOnsDeathsByRegistrationDate, &r.OnsDeathRateByRegistrationDate,
		); err != nil {
			return nil, fmt.Errorf("scan area data: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
