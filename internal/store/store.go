// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

// Package store is the persistence layer for incidents, events, and
// approvals. It wraps an embedded DuckDB file database reached through
// database/sql, and exposes the small set of transactional operations the
// ingest aggregator and query layer need.
//
// DuckDB was chosen for its single-binary embedded deployment and
// OLAP-friendly SQL surface, which the metrics and evidence aggregation
// queries lean on.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/redline-soc/redline/internal/config"
	"github.com/redline-soc/redline/internal/logging"
)

// DB wraps the DuckDB connection pool and provides the pipeline's data
// access methods. All exported methods are safe for concurrent use.
type DB struct {
	conn *sql.DB
}

// New opens (creating if necessary) the DuckDB file at cfg.Path, applies the
// schema, and returns a ready-to-use DB.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "2GB"
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s", cfg.Path, threads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// DuckDB's single-file storage engine serializes writers; capping the
	// pool to one open connection avoids "IO Error: Cannot acquire lock"
	// failures under concurrent ingest batches.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}

	if err := db.initialize(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return db, nil
}

func (db *DB) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.createSequences(ctx); err != nil {
		return err
	}
	if err := db.createTables(ctx); err != nil {
		return err
	}
	if err := db.createIndexes(ctx); err != nil {
		return err
	}
	return nil
}

// Conn exposes the underlying *sql.DB for callers that need to issue ad hoc
// statements.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Checkpoint forces DuckDB to flush its write-ahead log to the main
// database file. Called on graceful shutdown and by the periodic
// checkpoint service.
func (db *DB) Checkpoint(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, "CHECKPOINT")
	return err
}

// Close checkpoints and closes the database connection.
func (db *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("checkpoint before close failed")
	}
	return db.conn.Close()
}

// BeginTx starts a transaction for one ingest batch.
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.conn.BeginTx(ctx, nil)
}
