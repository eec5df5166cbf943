// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redline-soc/redline/internal/metrics"
)

// InsertEvent inserts one immutable event row within tx and returns its
// assigned id.
func InsertEvent(ctx context.Context, tx *sql.Tx, e *Event) (int64, error) {
	row := tx.QueryRowContext(ctx, `
		INSERT INTO events (source, event_type, raw, normalized, redacted, residency_tag, cluster_key, incident_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		e.Source, e.EventType, e.Raw, e.Normalized, e.Redacted, e.ResidencyTag, e.ClusterKey, e.IncidentID, e.CreatedAt)

	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return id, nil
}

// RecentEventsByCluster returns up to limit events on clusterKey ordered by
// descending id (most recent first), within tx. The promotion heuristic
// uses this to inspect the last 8 events on a cluster.
func RecentEventsByCluster(ctx context.Context, tx *sql.Tx, clusterKey string, limit int) ([]Event, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, source, event_type, raw, normalized, redacted, residency_tag, cluster_key, incident_id, created_at
		FROM events WHERE cluster_key = ? ORDER BY id DESC LIMIT ?`, clusterKey, limit)
	if err != nil {
		return nil, fmt.Errorf("recent events by cluster: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// EventsForIncident returns up to limit events for incidentID ordered by
// descending id, for the evidence and detail query endpoints.
func (db *DB) EventsForIncident(ctx context.Context, incidentID int64, limit int) ([]Event, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, source, event_type, raw, normalized, redacted, residency_tag, cluster_key, incident_id, created_at
		FROM events WHERE incident_id = ? ORDER BY id DESC LIMIT ?`, incidentID, limit)
	if err != nil {
		return nil, fmt.Errorf("events for incident: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// GetEvent fetches a single event by id.
func (db *DB) GetEvent(ctx context.Context, id int64) (*Event, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, source, event_type, raw, normalized, redacted, residency_tag, cluster_key, incident_id, created_at
		FROM events WHERE id = ?`, id)

	e := &Event{}
	err := row.Scan(&e.ID, &e.Source, &e.EventType, &e.Raw, &e.Normalized, &e.Redacted, &e.ResidencyTag, &e.ClusterKey, &e.IncidentID, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// RecentEvents returns the most recent limit events across all clusters,
// newest first.
func (db *DB) RecentEvents(ctx context.Context, limit int) ([]Event, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, source, event_type, raw, normalized, redacted, residency_tag, cluster_key, incident_id, created_at
		FROM events ORDER BY id DESC LIMIT ?`, limit)
	metrics.RecordDBQuery("select", "events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// CountEvents returns the total number of events.
func (db *DB) CountEvents(ctx context.Context) (int64, error) {
	start := time.Now()
	var n int64
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	metrics.RecordDBQuery("count", "events", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// SuppressedEvents returns sum(max(0, count_per_cluster - 1)) across all
// incidents: the number of events absorbed into a pre-existing cluster
// rather than starting a new one.
func (db *DB) SuppressedEvents(ctx context.Context) (int64, error) {
	start := time.Now()
	var n sql.NullInt64
	err := db.conn.QueryRowContext(ctx, `
		SELECT SUM(GREATEST(count - 1, 0)) FROM incidents`).Scan(&n)
	metrics.RecordDBQuery("aggregate", "incidents", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("suppressed events: %w", err)
	}
	if !n.Valid {
		return 0, nil
	}
	return n.Int64, nil
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Source, &e.EventType, &e.Raw, &e.Normalized, &e.Redacted, &e.ResidencyTag, &e.ClusterKey, &e.IncidentID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
