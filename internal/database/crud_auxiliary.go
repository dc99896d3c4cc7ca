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

// ReplaceHealthcare replaces an NHS area's hospital series and upserts
// its metadata row in one transaction.
func (db *DB) ReplaceHealthcare(ctx context.Context, areaCode string, rows []models.Healthcare, meta models.Metadata) error {
	if len(rows) == 0 {
		return ErrEmptyReplace
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM healthcare WHERE area_code = ?`, areaCode); err != nil {
			return fmt.Errorf("clear healthcare %s: %w", areaCode, err)
		}
		for _, r := range rows {
			if _, err := tx.ExecContext(ctx, `INSERT INTO healthcare (
				area_code, area_name, area_type, date,
				new_admissions, cumulative_admissions, hospital_cases, covid_occupied_mv_beds,
				transmission_rate_min, transmission_rate_max, transmission_growth_rate_min, transmission_growth_rate_max
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				r.AreaCode, r.AreaName, string(r.AreaType), r.Date,
				r.NewAdmissions, r.CumulativeAdmissions, r.HospitalCases, r.CovidOccupiedMVBeds,
				r.TransmissionRateMin, r.TransmissionRateMax, r.TransmissionGrowthRateMin, r.TransmissionGrowthRateMax,
			); err != nil {
				return fmt.Errorf("insert healthcare %s: %w", r.AreaCode, err)
			}
		}
		return upsertMetadataTx(ctx, tx, meta)
	})
}

// GetHealthcare returns an area's hospital series ordered by date.
func (db *DB) GetHealthcare(ctx context.Context, areaCode string) ([]models.Healthcare, error) {
	ctx = ensureContext(ctx)
	rows, err := db.conn.QueryContext(ctx, `SELECT
		area_code, area_name, area_type, date,
		new_admissions, cumulative_admissions, hospital_cases, covid_occupied_mv_beds,
		transmission_rate_min, transmission_rate_max, transmission_growth_rate_min, transmission_growth_rate_max
	FROM healthcare WHERE area_code = ? ORDER BY date`, areaCode)
	if err != nil {
		return nil, fmt.Errorf("get healthcare %s: %w", areaCode, err)
	}
	defer rows.Close()

	var out []models.Healthcare
	for rows.Next() {
		var r models.Healthcare
		if err := rows.Scan(
			&r.AreaCode, &r.AreaName, &r.AreaType, &r.Date,
			&r.NewAdmissions, &r.CumulativeAdmissions, &r.HospitalCases, &r.CovidOccupiedMVBeds,
			&r.TransmissionRateMin, &r.TransmissionRateMax, &r.TransmissionGrowthRateMin, &r.TransmissionGrowthRateMax,
		); err != nil {
			return nil, fmt.Errorf("scan healthcare: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceAlertLevels replaces an area's alert-level rows and upserts its
// metadata row in one transaction.
func (db *DB) ReplaceAlertLevels(ctx context.Context, areaCode string, rows []models.AlertLevel, meta models.Metadata) error {
	if len(rows) == 0 {
		return ErrEmptyReplace
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM alert_levels WHERE area_code = ?`, areaCode); err != nil {
			return fmt.Errorf("clear alert levels %s: %w", areaCode, err)
		}
		for _, r := range rows {
			if _, err := tx.ExecContext(ctx, `INSERT INTO alert_levels (
				area_code, area_name, date, alert_level, alert_level_name, alert_level_url
			) VALUES (?, ?, ?, ?, ?, ?)`,
				r.AreaCode, r.AreaName, r.Date, r.AlertLevel, r.AlertLevelName, r.AlertLevelURL,
			); err != nil {
				return fmt.Errorf("insert alert level %s: %w", r.AreaCode, err)
			}
		}
		return upsertMetadataTx(ctx, tx, meta)
	})
}

// GetLatestAlertLevel returns the newest alert-level row for an area, or
// nil when none is cached.
func (db *DB) GetLatestAlertLevel(ctx context.Context, areaCode string) (*models.AlertLevel, error) {
	ctx = ensureContext(ctx)
	row := db.conn.QueryRowContext(ctx, `SELECT
		area_code, area_name, date, alert_level, alert_level_name, alert_level_url
	FROM alert_levels WHERE area_code = ? ORDER BY date DESC LIMIT 1`, areaCode)

	var r models.AlertLevel
	if err := row.Scan(&r.AreaCode, &r.AreaName, &r.Date, &r.AlertLevel, &r.AlertLevelName, &r.AlertLevelURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert level %s: %w", areaCode, err)
	}
	return &r, nil
}

// ReplaceSoaData replaces an MSOA's weekly rolling rows and upserts its
// metadata row in one transaction.
func (db *DB) ReplaceSoaData(ctx context.Context, areaCode string, rows []models.SoaData, meta models.Metadata) error {
	if len(rows) == 0 {
		return ErrEmptyReplace
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM soa_data WHERE area_code = ?`, areaCode); err != nil {
			return fmt.Errorf("clear soa data %s: %w", areaCode, err)
		}
		for _, r := range rows {
			if _, err := tx.ExecContext(ctx, `INSERT INTO soa_data (
				area_code, area_name, date, rolling_sum, rolling_rate, change, direction, change_percentage
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				r.AreaCode, r.AreaName, r.Date,
				r.RollingSum, r.RollingRate, r.Change, r.Direction, r.ChangePercentage,
			); err != nil {
				return fmt.Errorf("insert soa data %s: %w", r.AreaCode, err)
			}
		}
		return upsertMetadataTx(ctx, tx, meta)
	})
}

// GetSoaData returns an MSOA's weekly rolling rows ordered by date.
func (db *DB) GetSoaData(ctx context.Context, areaCode string) ([]models.SoaData, error) {
	ctx = ensureContext(ctx)
	rows, err := db.conn.QueryContext(ctx, `SELECT
		area_code, area_name, date, rolling_sum, rolling_rate, change, direction, change_percentage
	FROM soa_data WHERE area_code = ? ORDER BY date`, areaCode)
	if err != nil {
		return nil, fmt.Errorf("get soa data %s: %w", areaCode, err)
	}
	defer rows.Close()

	var out []models.SoaData
	for rows.Next() {
		var r models.SoaData
		if err := rows.Scan(
			&r.AreaCode, &r.AreaName, &r.Date,
			&r.RollingSum, &r.RollingRate, &r.Change, &r.Direction, &r.ChangePercentage,
		); err != nil {
			return nil, fmt.Errorf("scan soa data: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
