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
	"time"

	"github.com/ajwhitfield/covidcache/internal/models"
)

// GetMetadata returns the watermark row for a dataset, or ErrNotFound.
func (db *DB) GetMetadata(ctx context.Context, id string) (*models.Metadata, error) {
	ctx = ensureContext(ctx)
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, last_updated_at, last_sync_time FROM metadata WHERE id = ?`, id)

	var (
		m           models.Metadata
		lastUpdated sql.NullTime
	)
	if err := row.Scan(&m.ID, &lastUpdated, &m.LastSyncTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("metadata %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get metadata %s: %w", id, err)
	}
	if lastUpdated.Valid {
		m.LastUpdatedAt = lastUpdated.Time
	}
	return &m, nil
}

// UpsertMetadata writes a dataset's watermark row.
func (db *DB) UpsertMetadata(ctx context.Context, m models.Metadata) error {
	ctx = ensureContext(ctx)
	if _, err := db.conn.ExecContext(ctx, upsertMetadataSQL,
		m.ID, nullTime(m.LastUpdatedAt), m.LastSyncTime); err != nil {
		return fmt.Errorf("upsert metadata %s: %w", m.ID, err)
	}
	return nil
}

// TouchMetadataSyncTime bumps last_sync_time only, preserving the
// last_updated_at watermark. Used after a 304 response: the cache is
// current, the staleness gate should reset, but the conditional-fetch
// watermark must not move.
func (db *DB) TouchMetadataSyncTime(ctx context.Context, id string, syncTime time.Time) error {
	ctx = ensureContext(ctx)
	res, err := db.conn.ExecContext(ctx,
		`UPDATE metadata SET last_sync_time = ? WHERE id = ?`, syncTime, id)
	if err != nil {
		return fmt.Errorf("touch metadata %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("touch metadata %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListMetadataIDs returns every metadata ID in the cache.
func (db *DB) ListMetadataIDs(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := db.conn.QueryContext(ctx, `SELECT id FROM metadata`)
	if err != nil {
		return nil, fmt.Errorf("list metadata ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan metadata id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const upsertMetadataSQL = `INSERT OR REPLACE INTO metadata (id, last_updated_at, last_sync_time) VALUES (?, ?, ?)`

// upsertMetadataTx writes a metadata row inside an existing transaction.
func upsertMetadataTx(ctx context.Context, tx *sql.Tx, m models.Metadata) error {
	if _, err := tx.ExecContext(ctx, upsertMetadataSQL,
		m.ID, nullTime(m.LastUpdatedAt), m.LastSyncTime); err != nil {
		return fmt.Errorf("upsert metadata %s: %w", m.ID, err)
	}
	return nil
}
