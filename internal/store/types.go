// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

package store

import "time"

// Incident status values. Open is terminal from the core's perspective;
// nothing in this package auto-closes an incident.
const (
	StatusOpen   = "open"
	StatusNoise  = "noise"
	StatusClosed = "closed"
)

// Incident is the deduplication target: one row per cluster_key.
type Incident struct {
	ID         int64
	ClusterKey string
	Title      string
	Summary    string
	Count      int64
	Status     string
	LastSeen   time.Time
}

// Event is the raw observation record, immutable once inserted.
type Event struct {
	ID           int64
	Source       string
	EventType    string
	Raw          string
	Normalized   string
	Redacted     string
	ResidencyTag string
	ClusterKey   string
	IncidentID   int64
	CreatedAt    time.Time
}

// Approval is an append-only analyst decision log entry.
type Approval struct {
	ID         int64
	IncidentID int64
	ActionName string
	ApprovedBy string
	ApprovedAt time.Time
	Notes      string
}
