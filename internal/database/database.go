// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

// Package database is the DuckDB-backed local cache. The schema is created
// in Go at startup; every multi-row write runs inside a transaction so
// readers never observe a half-replaced dataset.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb database/sql driver

	"github.com/ajwhitfield/covidcache/internal/config"
	"github.com/ajwhitfield/covidcache/internal/logging"
)

// ErrEmptyReplace is returned when a full-replace write is attempted with
// zero rows. A replace wipes the existing dataset first, so an empty row
// set would silently destroy cached data.
var ErrEmptyReplace = errors.New("refusing full-replace write with zero rows")

// ErrNotFound is returned by point reads when no row matches.
var ErrNotFound = errors.New("not found")

// DB is the local cache handle. Safe for concurrent use.
type DB struct {
	conn *sql.DB
}

// New opens (creating if needed) the DuckDB cache at cfg.Path and ensures
// the schema exists.
func New(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	dsn := cfg.Path
	params := make([]string, 0, 2)
	if cfg.MaxMemory != "" {
		params = append(params, "max_memory="+cfg.MaxMemory)
	}
	if cfg.Threads > 0 {
		params = append(params, fmt.Sprintf("threads=%d", cfg.Threads))
	}
	if len(params) > 0 {
		dsn += "?" + strings.Join(params, "&")
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb at %s: %w", cfg.Path, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.createSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	logging.Info().Str("path", cfg.Path).Msg("Database opened")
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// ensureContext substitutes context.Background for a nil context so CRUD
// helpers never pass nil downward.
func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// withTx runs fn inside a transaction, rolling back on error.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	ctx = ensureContext(ctx)
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logging.Error().Err(rbErr).Msg("Transaction rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// buildInClause renders an IN (?, ?, ...) clause plus its args for a set
// of string keys. Returns ("IN (NULL)", nil) for an empty set, which
// matches no rows.
func buildInClause(keys map[string]struct{}) (string, []any) {
	if len(keys) == 0 {
		return "IN (NULL)", nil
	}
	placeholders := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for k := range keys {
		placeholders = append(placeholders, "?")
		args = append(args, k)
	}
	return "IN (" + strings.Join(placeholders, ", ") + ")", args
}

// nullTime converts a possibly-zero time to a NULLable driver value.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
