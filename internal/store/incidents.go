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

// GetOrCreateIncident resolves the incident for clusterKey within tx,
// inserting a new row when none exists, so every event the caller inserts
// afterwards has a resolved incident_id.
//
// At most one incident can exist per cluster_key, even under concurrent
// batches: the unique index on cluster_key rejects the losing insert, and
// on that conflict we re-select the winning row and continue.
func GetOrCreateIncident(ctx context.Context, tx *sql.Tx, clusterKey, title string, benign bool) (*Incident, bool, error) {
	if inc, err := getIncidentByClusterKeyTx(ctx, tx, clusterKey); err == nil {
		return inc, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	status := StatusOpen
	if benign {
		status = StatusNoise
	}

	inc, err := insertIncident(ctx, tx, clusterKey, title, status)
	if err == nil {
		return inc, true, nil
	}
	if !isConflict(err) {
		return nil, false, fmt.Errorf("insert incident: %w", err)
	}

	// Lost the race to a concurrent batch: re-select the winning row.
	inc, selErr := getIncidentByClusterKeyTx(ctx, tx, clusterKey)
	if selErr != nil {
		return nil, false, fmt.Errorf("insert incident: %w (re-select after conflict also failed: %v)", err, selErr)
	}
	return inc, false, nil
}

func insertIncident(ctx context.Context, tx *sql.Tx, clusterKey, title, status string) (*Incident, error) {
	now := time.Now().UTC()
	row := tx.QueryRowContext(ctx, `
		INSERT INTO incidents (cluster_key, title, summary, count, status, last_seen)
		VALUES (?, ?, '', 0, ?, ?)
		RETURNING id, cluster_key, title, summary, count, status, last_seen`,
		clusterKey, title, status, now)

	inc := &Incident{}
	if err := scanIncident(row, inc); err != nil {
		return nil, err
	}
	return inc, nil
}

func getIncidentByClusterKeyTx(ctx context.Context, tx *sql.Tx, clusterKey string) (*Incident, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, cluster_key, title, summary, count, status, last_seen
		FROM incidents WHERE cluster_key = ?`, clusterKey)
	inc := &Incident{}
	if err := scanIncident(row, inc); err != nil {
		return nil, err
	}
	return inc, nil
}

// AttachEvent increments the incident's count, overwrites its summary, and
// bumps last_seen - the per-event rollup update that runs inside the same
// transaction as the event insert.
func AttachEvent(ctx context.Context, tx *sql.Tx, incidentID int64, summary string, now time.Time) (int64, error) {
	row := tx.QueryRowContext(ctx, `
		UPDATE incidents SET count = count + 1, summary = ?, last_seen = ?
		WHERE id = ?
		RETURNING count`, summary, now, incidentID)

	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("attach event rollup: %w", err)
	}
	return count, nil
}

// Promote transitions an incident from noise to open and overwrites its
// summary with the promotion message. Returns false without error if the
// incident is not currently noise (no-op, not a failure).
func Promote(ctx context.Context, tx *sql.Tx, incidentID int64, summary string) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE incidents SET status = ?, summary = ?
		WHERE id = ? AND status = ?`, StatusOpen, summary, incidentID, StatusNoise)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanIncident(row *sql.Row, inc *Incident) error {
	err := row.Scan(&inc.ID, &inc.ClusterKey, &inc.Title, &inc.Summary, &inc.Count, &inc.Status, &inc.LastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// GetIncident fetches a single incident by id outside of any transaction,
// for read-only query endpoints.
func (db *DB) GetIncident(ctx context.Context, id int64) (*Incident, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, cluster_key, title, summary, count, status, last_seen
		FROM incidents WHERE id = ?`, id)
	inc := &Incident{}
	if err := scanIncident(row, inc); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return inc, nil
}

// GetIncidentByClusterKey fetches a single incident by its cluster key.
func (db *DB) GetIncidentByClusterKey(ctx context.Context, clusterKey string) (*Incident, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, cluster_key, title, summary, count, status, last_seen
		FROM incidents WHERE cluster_key = ?`, clusterKey)
	inc := &Incident{}
	if err := scanIncident(row, inc); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get incident by cluster key: %w", err)
	}
	return inc, nil
}

// ListIncidents returns all incidents ordered by last_seen descending.
func (db *DB) ListIncidents(ctx context.Context) ([]Incident, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, cluster_key, title, summary, count, status, last_seen
		FROM incidents ORDER BY last_seen DESC`)
	metrics.RecordDBQuery("select", "incidents", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	var out []Incident
	for rows.Next() {
		var inc Incident
		if err := rows.Scan(&inc.ID, &inc.ClusterKey, &inc.Title, &inc.Summary, &inc.Count, &inc.Status, &inc.LastSeen); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}

// CountIncidents returns the total number of incidents and the number whose
// status is not "noise" (the active-incident count used by /metrics).
func (db *DB) CountIncidents(ctx context.Context) (total, active int64, err error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status <> ?)
		FROM incidents`, StatusNoise)
	err = row.Scan(&total, &active)
	metrics.RecordDBQuery("count", "incidents", time.Since(start), err)
	if err != nil {
		return 0, 0, fmt.Errorf("count incidents: %w", err)
	}
	return total, active, nil
}
