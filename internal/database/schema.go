// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package database

import (
	"context"
	"fmt"
)

// schemaStatements creates the cache tables. Statements are idempotent
// and run in order at startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS areas (
		area_code VARCHAR PRIMARY KEY,
		area_name VARCHAR NOT NULL,
		area_type VARCHAR NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS area_data (
		area_code VARCHAR NOT NULL,
		area_name VARCHAR NOT NULL,
		area_type VARCHAR NOT NULL,
		date DATE NOT NULL,
		new_cases INTEGER,
		cumulative_cases INTEGER,
		infection_rate DOUBLE,
		new_deaths_published INTEGER,
		cumulative_deaths_published INTEGER,
		death_rate_published DOUBLE,
		new_deaths_death_date INTEGER,
		cumulative_deaths_death_date INTEGER,
		death_rate_death_date DOUBLE,
		new_ons_deaths INTEGER,
		cumulative_ons_deaths INTEGER,
		ons_death_rate DOUBLE,
		PRIMARY KEY (area_code, date)
	)`,

	`CREATE TABLE IF NOT EXISTS area_summaries (
		area_code VARCHAR PRIMARY KEY,
		area_name VARCHAR NOT NULL,
		area_type VARCHAR NOT NULL,
		cumulative_cases_week1 INTEGER NOT NULL,
		cumulative_cases_week2 INTEGER NOT NULL,
		cumulative_cases_week3 INTEGER NOT NULL,
		cumulative_cases_week4 INTEGER NOT NULL,
		cumulative_case_rate_week1 DOUBLE NOT NULL,
		cumulative_case_rate_week2 DOUBLE NOT NULL,
		cumulative_case_rate_week3 DOUBLE NOT NULL,
		cumulative_case_rate_week4 DOUBLE NOT NULL,
		new_cases_week1 INTEGER NOT NULL,
		new_cases_week2 INTEGER NOT NULL,
		new_cases_week3 INTEGER NOT NULL,
		new_cases_week4 INTEGER NOT NULL,
		new_case_rate_week1 DOUBLE NOT NULL,
		new_case_rate_week2 DOUBLE NOT NULL,
		new_case_rate_week3 DOUBLE NOT NULL,
		new_case_rate_week4 DOUBLE NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS metadata (
		id VARCHAR PRIMARY KEY,
		last_updated_at TIMESTAMP,
		last_sync_time TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS area_associations (
		area_code VARCHAR NOT NULL,
		associated_area_code VARCHAR NOT NULL,
		association_type VARCHAR NOT NULL,
		PRIMARY KEY (area_code, associated_area_code, association_type)
	)`,

	`CREATE TABLE IF NOT EXISTS saved_areas (
		area_code VARCHAR PRIMARY KEY,
		area_name VARCHAR NOT NULL,
		area_type VARCHAR NOT NULL,
		saved_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS healthcare (
		area_code VARCHAR NOT NULL,
		area_name VARCHAR NOT NULL,
		area_type VARCHAR NOT NULL,
		date DATE NOT NULL,
		new_admissions INTEGER,
		cumulative_admissions INTEGER,
		hospital_cases INTEGER,
		covid_occupied_mv_beds INTEGER,
		transmission_rate_min DOUBLE,
		transmission_rate_max DOUBLE,
		transmission_growth_rate_min DOUBLE,
		transmission_growth_rate_max DOUBLE,
		PRIMARY KEY (area_code, date)
	)`,

	`CREATE TABLE IF NOT EXISTS alert_levels (
		area_code VARCHAR NOT NULL,
		area_name VARCHAR NOT NULL,
		date DATE NOT NULL,
		alert_level INTEGER NOT NULL,
		alert_level_name VARCHAR NOT NULL,
		alert_level_url VARCHAR NOT NULL,
		PRIMARY KEY (area_code, date)
	)`,

	`CREATE TABLE IF NOT EXISTS soa_data (
		area_code VARCHAR NOT NULL,
		area_name VARCHAR NOT NULL,
		date DATE NOT NULL,
		rolling_sum INTEGER,
		rolling_rate DOUBLE,
		change INTEGER,
		direction VARCHAR,
		change_percentage DOUBLE,
		PRIMARY KEY (area_code, date)
	)`,

	`CREATE TABLE IF NOT EXISTS area_lookups (
		lsoa_code VARCHAR PRIMARY KEY,
		lsoa_name VARCHAR NOT NULL,
		msoa_code VARCHAR NOT NULL,
		msoa_name VARCHAR NOT NULL,
		ltla_code VARCHAR NOT NULL,
		ltla_name VARCHAR NOT NULL,
		utla_code VARCHAR NOT NULL,
		utla_name VARCHAR NOT NULL,
		region_code VARCHAR,
		region_name VARCHAR,
		nhs_trust_code VARCHAR,
		nhs_trust_name VARCHAR,
		nhs_region_code VARCHAR,
		nhs_region_name VARCHAR,
		nation_code VARCHAR NOT NULL,
		nation_name VARCHAR NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS healthcare_lookups (
		nhs_trust_code VARCHAR PRIMARY KEY,
		nhs_trust_name VARCHAR NOT NULL,
		nhs_region_code VARCHAR NOT NULL,
		nhs_region_name VARCHAR NOT NULL
	)`,
}

// createSchema ensures all cache tables exist.
func (db *DB) createSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
