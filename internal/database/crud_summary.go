// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ajwhitfield/covidcache/internal/models"
)

// ReplaceAreaSummaries truncates and rewrites the whole summary table
// plus its metadata row in one transaction. The summary is a derived
// cache, not a source of truth, so full replacement is always safe —
// except for an empty set, which is refused.
func (db *DB) ReplaceAreaSummaries(ctx context.Context, summaries []models.AreaSummary, meta models.Metadata) error {
	if len(summaries) == 0 {
		return ErrEmptyReplace
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM area_summaries`); err != nil {
			return fmt.Errorf("clear area summaries: %w", err)
		}
		for _, s := range summaries {
			if _, err := tx.ExecContext(ctx, `INSERT INTO area_summaries (
				area_code, area_name, area_type,
				cumulative_cases_week1, cumulative_cases_week2, cumulative_cases_week3, cumulative_cases_week4,
				cumulative_case_rate_week1, cumulative_case_rate_week2, cumulative_case_rate_week3, cumulative_case_rate_week4,
				new_cases_week1, new_cases_week2, new_cases_week3, new_cases_week4,
				new_case_rate_week1, new_case_rate_week2, new_case_rate_week3, new_case_rate_week4
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				s.AreaCode, s.AreaName, string(s.AreaType),
				s.CumulativeCasesWeek1, s.CumulativeCasesWeek2, s.CumulativeCasesWeek3, s.CumulativeCasesWeek4,
				s.CumulativeCaseRateWeek1, s.CumulativeCaseRateWeek2, s.CumulativeCaseRateWeek3, s.CumulativeCaseRateWeek4,
				s.NewCasesWeek1, s.NewCasesWeek2, s.NewCasesWeek3, s.NewCasesWeek4,
				s.NewCaseRateWeek1, s.NewCaseRateWeek2, s.NewCaseRateWeek3, s.NewCaseRateWeek4,
			); err != nil {
				return fmt.Errorf("insert area summary %s: %w", s.AreaCode, err)
			}
		}
		return upsertMetadataTx(ctx, tx, meta)
	})
}

// ListAreaSummaries returns summaries ordered by most new cases in the
// latest week, the order the dashboard rankings use.
func (db *DB) ListAreaSummaries(ctx context.Context, limit int) ([]models.AreaSummary, error) {
	ctx = ensureContext(ctx)

	query := `SELECT
		area_code, area_name, area_type,
		cumulative_cases_week1, cumulative_cases_week2, cumulative_cases_week3, cumulative_cases_week4,
		cumulative_case_rate_week1, cumulative_case_rate_week2, cumulative_case_rate_week3, cumulative_case_rate_week4,
		new_cases_week1, new_cases_week2, new_cases_week3, new_cases_week4,
		new_case_rate_week1, new_case_rate_week2, new_case_rate_week3, new_case_rate_week4
	FROM area_summaries ORDER BY new_cases_week1 DESC, area_code`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list area summaries: %w", err)
	}
	defer rows.Close()

	var out []models.AreaSummary
	for rows.Next() {
		var s models.AreaSummary
		if err := rows.Scan(
			&s.AreaCode, &s.AreaName, &s.AreaType,
			&s.CumulativeCasesWeek1, &s.CumulativeCasesWeek2, &s.CumulativeCasesWeek3, &s.CumulativeCasesWeek4,
			&s.CumulativeCaseRateWeek1, &s.CumulativeCaseRateWeek2, &s.CumulativeCaseRateWeek3, &s.CumulativeCaseRateWeek4,
			&s.NewCasesWeek1, &s.NewCasesWeek2, &s.NewCasesWeek3, &s.NewCasesWeek4,
			&s.NewCaseRateWeek1, &s.NewCaseRateWeek2, &s.NewCaseRateWeek3, &s.NewCaseRateWeek4,
		); err != nil {
			return nil, fmt.Errorf("scan area summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetAreaSummary returns one area's summary row, or ErrNotFound.
func (db *DB) GetAreaSummary(ctx context.Context, areaCode string) (*models.AreaSummary, error) {
	ctx = ensureContext(ctx)
	row := db.conn.QueryRowContext(ctx, `SELECT
		area_code, area_name, area_type,
		cumulative_cases_week1, cumulative_cases_week2, cumulative_cases_week3, cumulative_cases_week4,
		cumulative_case_rate_week1, cumulative_case_rate_week2, cumulative_case_rate_week3, cumulative_case_rate_week4,
		new_cases_week1, new_cases_week2, new_cases_week3, new_cases_week4,
		new_case_rate_week1, new_case_rate_week2, new_case_rate_week3, new_case_rate_week4
	FROM area_summaries WHERE area_code = ?`, areaCode)

	var s models.AreaSummary
	if err := row.Scan(
		&s.AreaCode, &s.AreaName, &s.AreaType,
		&s.CumulativeCasesWeek1, &s.CumulativeCasesWeek2, &s.CumulativeCasesWeek3, &s.CumulativeCasesWeek4,
		&s.CumulativeCaseRateWeek1, &s.CumulativeCaseRateWeek2, &s.CumulativeCaseRateWeek3, &s.CumulativeCaseRateWeek4,
		&s.NewCasesWeek1, &s.NewCasesWeek2, &s.NewCasesWeek3, &s.NewCasesWeek4,
		&s.NewCaseRateWeek1, &s.NewCaseRateWeek2, &s.NewCaseRateWeek3, &s.NewCaseRateWeek4,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("area summary %s: %w", areaCode, ErrNotFound)
		}
		return nil, fmt.Errorf("get area summary %s: %w", areaCode, err)
	}
	return &s, nil
}
