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

// UpsertAreaLookup writes a lookup chain and its metadata row in one
// transaction. Lookups are cached indefinitely until reclaimed, so this
// is an upsert rather than a replace. A chain carrying NHS codes also
// contributes its trust-to-region mapping, the side-table behind
// healthcare fallback for bare trust codes.
func (db *DB) UpsertAreaLookup(ctx context.Context, l models.AreaLookup, meta models.Metadata) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO area_lookups (
			lsoa_code, lsoa_name, msoa_code, msoa_name,
			ltla_code, ltla_name, utla_code, utla_name,
			region_code, region_name, nhs_trust_code, nhs_trust_name,
			nhs_region_code, nhs_region_name, nation_code, nation_name
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.LsoaCode, l.LsoaName, l.MsoaCode, l.MsoaName,
			l.LtlaCode, l.LtlaName, l.UtlaCode, l.UtlaName,
			l.RegionCode, l.RegionName, l.NhsTrustCode, l.NhsTrustName,
			l.NhsRegionCode, l.NhsRegionName, l.NationCode, l.NationName,
		); err != nil {
			return fmt.Errorf("upsert area lookup %s: %w", l.LsoaCode, err)
		}
		if hl, ok := healthcareLookupFrom(l); ok {
			if err := upsertHealthcareLookupTx(ctx, tx, hl); err != nil {
				return err
			}
		}
		return upsertMetadataTx(ctx, tx, meta)
	})
}

// healthcareLookupFrom extracts the trust-to-region mapping of a lookup
// chain, when the chain carries both NHS codes.
func healthcareLookupFrom(l models.AreaLookup) (models.HealthcareLookup, bool) {
	if l.NhsTrustCode == nil || *l.NhsTrustCode == "" ||
		l.NhsRegionCode == nil || *l.NhsRegionCode == "" {
		return models.HealthcareLookup{}, false
	}
	hl := models.HealthcareLookup{
		NhsTrustCode:  *l.NhsTrustCode,
		NhsRegionCode: *l.NhsRegionCode,
	}
	if l.NhsTrustName != nil {
		hl.NhsTrustName = *l.NhsTrustName
	}
	if l.NhsRegionName != nil {
		hl.NhsRegionName = *l.NhsRegionName
	}
	return hl, true
}

// GetAreaLookup returns the lookup chain for an LSOA, or ErrNotFound.
func (db *DB) GetAreaLookup(ctx context.Context, lsoaCode string) (*models.AreaLookup, error) {
	ctx = ensureContext(ctx)
	row := db.conn.QueryRowContext(ctx, `SELECT
		lsoa_code, lsoa_name, msoa_code, msoa_name,
		ltla_code, ltla_name, utla_code, utla_name,
		region_code, region_name, nhs_trust_code, nhs_trust_name,
		nhs_region_code, nhs_region_name, nation_code, nation_name
	FROM area_lookups WHERE lsoa_code = ?`, lsoaCode)

	l, err := scanAreaLookup(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("area lookup %s: %w", lsoaCode, ErrNotFound)
		}
		return nil, fmt.Errorf("get area lookup %s: %w", lsoaCode, err)
	}
	return l, nil
}

// FindLookupByAreaCode returns the first lookup chain containing the
// given area code at any level, or ErrNotFound. Saved areas are stored
// by their own code (MSOA, LTLA, ...), not by LSOA, so reachability and
// fallback resolution search the chain columns.
func (db *DB) FindLookupByAreaCode(ctx context.Context, areaCode string) (*models.AreaLookup, error) {
	ctx = ensureContext(ctx)
	row := db.conn.QueryRowContext(ctx, `SELECT
		lsoa_code, lsoa_name, msoa_code, msoa_name,
		ltla_code, ltla_name, utla_code, utla_name,
		region_code, region_name, nhs_trust_code, nhs_trust_name,
		nhs_region_code, nhs_region_name, nation_code, nation_name
	FROM area_lookups
	WHERE lsoa_code = ? OR msoa_code = ? OR ltla_code = ? OR utla_code = ?
	LIMIT 1`, areaCode, areaCode, areaCode, areaCode)

	l, err := scanAreaLookup(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lookup containing %s: %w", areaCode, ErrNotFound)
		}
		return nil, fmt.Errorf("find lookup for %s: %w", areaCode, err)
	}
	return l, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

// execer abstracts sql.DB and sql.Tx for shared write helpers.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func scanAreaLookup(s scanner) (*models.AreaLookup, error) {
	var l models.AreaLookup
	if err := s.Scan(
		&l.LsoaCode, &l.LsoaName, &l.MsoaCode, &l.MsoaName,
		&l.LtlaCode, &l.LtlaName, &l.UtlaCode, &l.UtlaName,
		&l.RegionCode, &l.RegionName, &l.NhsTrustCode, &l.NhsTrustName,
		&l.NhsRegionCode, &l.NhsRegionName, &l.NationCode, &l.NationName,
	); err != nil {
		return nil, err
	}
	return &l, nil
}

// UpsertHealthcareLookup writes a trust-to-region mapping.
func (db *DB) UpsertHealthcareLookup(ctx context.Context, l models.HealthcareLookup) error {
	ctx = ensureContext(ctx)
	return upsertHealthcareLookupTx(ctx, db.conn, l)
}

func upsertHealthcareLookupTx(ctx context.Context, e execer, l models.HealthcareLookup) error {
	if _, err := e.ExecContext(ctx, `INSERT OR REPLACE INTO healthcare_lookups (
		nhs_trust_code, nhs_trust_name, nhs_region_code, nhs_region_name
	) VALUES (?, ?, ?, ?)`,
		l.NhsTrustCode, l.NhsTrustName, l.NhsRegionCode, l.NhsRegionName); err != nil {
		return fmt.Errorf("upsert healthcare lookup %s: %w", l.NhsTrustCode, err)
	}
	return nil
}

// ListHealthcareLookups returns every trust-to-region mapping.
func (db *DB) ListHealthcareLookups(ctx context.Context) ([]models.HealthcareLookup, error) {
	ctx = ensureContext(ctx)
	rows, err := db.conn.QueryContext(ctx, `SELECT
		nhs_trust_code, nhs_trust_name, nhs_region_code, nhs_region_name
	FROM healthcare_lookups`)
	if err != nil {
		return nil, fmt.Errorf("list healthcare lookups: %w", err)
	}
	defer rows.Close()

	var out []models.HealthcareLookup
	for rows.Next() {
		var l models.HealthcareLookup
		if err := rows.Scan(&l.NhsTrustCode, &l.NhsTrustName, &l.NhsRegionCode, &l.NhsRegionName); err != nil {
			return nil, fmt.Errorf("scan healthcare lookup: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
