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

// UpsertAreas writes the area list and its metadata row in one
// transaction. The area list is upserted rather than replaced because
// bootstrap seed areas must survive a partial upstream list.
func (db *DB) UpsertAreas(ctx context.Context, areas []models.Area, meta models.Metadata) error {
	if len(areas) == 0 {
		return ErrEmptyReplace
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, a := range areas {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO areas (area_code, area_name, area_type) VALUES (?, ?, ?)`,
				a.AreaCode, a.AreaName, string(a.AreaType)); err != nil {
				return fmt.Errorf("upsert area %s: %w", a.AreaCode, err)
			}
		}
		return upsertMetadataTx(ctx, tx, meta)
	})
}

// GetArea returns one area by code, or ErrNotFound.
func (db *DB) GetArea(ctx context.Context, areaCode string) (*models.Area, error) {
	ctx = ensureContext(ctx)
	row := db.conn.QueryRowContext(ctx,
		`SELECT area_code, area_name, area_type FROM areas WHERE area_code = ?`, areaCode)

	var a models.Area
	if err := row.Scan(&a.AreaCode, &a.AreaName, &a.AreaType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("area %s: %w", areaCode, ErrNotFound)
		}
		return nil, fmt.Errorf("get area %s: %w", areaCode, err)
	}
	return &a, nil
}

// ListAreas returns all areas, optionally filtered by type, ordered by name.
func (db *DB) ListAreas(ctx context.Context, areaType models.AreaType) ([]models.Area, error) {
	ctx = ensureContext(ctx)

	query := `SELECT area_code, area_name, area_type FROM areas`
	args := []any{}
	if areaType != "" {
		query += ` WHERE area_type = ?`
		args = append(args, string(areaType))
	}
	query += ` ORDER BY area_name`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	defer rows.Close()

	var out []models.Area
	for rows.Next() {
		var a models.Area
		if err := rows.Scan(&a.AreaCode, &a.AreaName, &a.AreaType); err != nil {
			return nil, fmt.Errorf("scan area: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SaveArea pins an area.
func (db *DB) SaveArea(ctx context.Context, sa models.SavedArea) error {
	ctx = ensureContext(ctx)
	if _, err := db.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO saved_areas (area_code, area_name, area_type, saved_at) VALUES (?, ?, ?, ?)`,
		sa.AreaCode, sa.AreaName, string(sa.AreaType), sa.SavedAt); err != nil {
		return fmt.Errorf("save area %s: %w", sa.AreaCode, err)
	}
	return nil
}

// DeleteSavedArea unpins an area. Deleting a non-saved area is a no-op.
func (db *DB) DeleteSavedArea(ctx context.Context, areaCode string) error {
	ctx = ensureContext(ctx)
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM saved_areas WHERE area_code = ?`, areaCode); err != nil {
		return fmt.Errorf("delete saved area %s: %w", areaCode, err)
	}
	return nil
}

// ListSavedAreas returns the pinned areas ordered by save time.
func (db *DB) ListSavedAreas(ctx context.Context) ([]models.SavedArea, error) {
	ctx = ensureContext(ctx)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT area_code, area_name, area_type, saved_at FROM saved_areas ORDER BY saved_at`)
	if err != nil {
		return nil, fmt.Errorf("list saved areas: %w", err)
	}
	defer rows.Close()

	var out []models.SavedArea
	for rows.Next() {
		var sa models.SavedArea
		if err := rows.Scan(&sa.AreaCode, &sa.AreaName, &sa.AreaType, &sa.SavedAt); err != nil {
			return nil, fmt.Errorf("scan saved area: %w", err)
		}
		out = append(out, sa)
	}
	return out, rows.Err()
}
