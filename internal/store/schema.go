// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

package store

import "context"

func (db *DB) createSequences(ctx context.Context) error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_incidents START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_events START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_approvals START 1`,
	}
	for _, stmt := range stmts {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) createTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS incidents (
			id          BIGINT PRIMARY KEY DEFAULT nextval('seq_incidents'),
			cluster_key VARCHAR NOT NULL UNIQUE,
			title       VARCHAR NOT NULL,
			summary     VARCHAR NOT NULL DEFAULT '',
			count       BIGINT NOT NULL DEFAULT 0,
			status      VARCHAR NOT NULL,
			last_seen   TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id            BIGINT PRIMARY KEY DEFAULT nextval('seq_events'),
			source        VARCHAR NOT NULL,
			event_type    VARCHAR NOT NULL,
			raw           VARCHAR NOT NULL DEFAULT '',
			normalized    VARCHAR NOT NULL DEFAULT '',
			redacted      VARCHAR NOT NULL DEFAULT '',
			residency_tag VARCHAR NOT NULL,
			cluster_key   VARCHAR NOT NULL,
			incident_id   BIGINT NOT NULL REFERENCES incidents(id),
			created_at    TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS approvals (
			id           BIGINT PRIMARY KEY DEFAULT nextval('seq_approvals'),
			incident_id  BIGINT NOT NULL REFERENCES incidents(id),
			action_name  VARCHAR NOT NULL,
			approved_by  VARCHAR NOT NULL DEFAULT 'human@operator',
			approved_at  TIMESTAMP NOT NULL,
			notes        VARCHAR NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) createIndexes(ctx context.Context) error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_incidents_cluster_key ON incidents(cluster_key)`,
		`CREATE INDEX IF NOT EXISTS idx_events_cluster_key ON events(cluster_key)`,
		`CREATE INDEX IF NOT EXISTS idx_events_incident_id ON events(incident_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_source ON events(source)`,
		`CREATE INDEX IF NOT EXISTS idx_events_event_type ON events(event_type)`,
	}
	for _, stmt := range stmts {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
