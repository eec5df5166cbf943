// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

package store

import (
	"context"
	"fmt"
	"time"
)

// InsertApproval appends an analyst decision against incidentID and returns
// the new approval id. Approvals are append-only: there is no update or
// delete path.
func (db *DB) InsertApproval(ctx context.Context, incidentID int64, actionName, approvedBy, notes string) (int64, error) {
	if approvedBy == "" {
		approvedBy = "human@operator"
	}

	row := db.conn.QueryRowContext(ctx, `
		INSERT INTO approvals (incident_id, action_name, approved_by, approved_at, notes)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		incidentID, actionName, approvedBy, time.Now().UTC(), notes)

	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("insert approval: %w", err)
	}
	return id, nil
}

// ApprovalsForIncident lists every approval recorded against incidentID.
func (db *DB) ApprovalsForIncident(ctx context.Context, incidentID int64) ([]Approval, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, incident_id, action_name, approved_by, approved_at, notes
		FROM approvals WHERE incident_id = ? ORDER BY id ASC`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("approvals for incident: %w", err)
	}
	defer rows.Close()

	var out []Approval
	for rows.Next() {
		var a Approval
		if err := rows.Scan(&a.ID, &a.IncidentID, &a.ActionName, &a.ApprovedBy, &a.ApprovedAt, &a.Notes); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
