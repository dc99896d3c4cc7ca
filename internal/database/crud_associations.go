// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package database

import (
	"context"
	"fmt"

	"github.com/ajwhitfield/covidcache/internal/models"
)

// InsertAssociation records a dependency edge. Duplicate edges are
// absorbed by the composite primary key; edges are never updated in
// place, the cleaner recomputes reachability from scratch.
func (db *DB) InsertAssociation(ctx context.Context, a models.AreaAssociation) error {
	ctx = ensureContext(ctx)
	if _, err := db.conn.ExecContext(ctx, `INSERT OR IGNORE INTO area_associations (
		area_code, associated_area_code, association_type
	) VALUES (?, ?, ?)`,
		a.AreaCode, a.AssociatedAreaCode, string(a.AssociationType)); err != nil {
		return fmt.Errorf("insert association %s->%s: %w", a.AreaCode, a.AssociatedAreaCode, err)
	}
	return nil
}

// ListAssociations returns the dependency edges originating from the
// given area codes. An empty code set returns no rows.
func (db *DB) ListAssociations(ctx context.Context, areaCodes map[string]struct{}) ([]models.AreaAssociation, error) {
	ctx = ensureContext(ctx)
	clause, args := buildInClause(areaCodes)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT area_code, associated_area_code, association_type
		 FROM area_associations WHERE area_code `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("list associations: %w", err)
	}
	defer rows.Close()

	var out []models.AreaAssociation
	for rows.Next() {
		var a models.AreaAssociation
		if err := rows.Scan(&a.AreaCode, &a.AssociatedAreaCode, &a.AssociationType); err != nil {
			return nil, fmt.Errorf("scan association: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
