// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

package api

import (
	"github.com/redline-soc/redline/internal/cluster"
	"github.com/redline-soc/redline/internal/redact"
	"github.com/redline-soc/redline/internal/store"
)

// LogEventRequest is the wire schema for one event in an ingest batch.
// Source and EventType fall back to defaults when empty; applyDefaults
// fills them in before validation.
type LogEventRequest struct {
	Message   string `json:"message" validate:"required"`
	Source    string `json:"source"`
	EventType string `json:"event_type"`
	User      string `json:"user"`
	IP        string `json:"ip"`
	Email     string `json:"email"`
	Region    string `json:"region"`
	Action    string `json:"action"`
	Status    string `json:"status"`
	Timestamp string `json:"ts"`
}

func (e *LogEventRequest) applyDefaults() {
	if e.Source == "" {
		e.Source = "app"
	}
	if e.EventType == "" {
		e.EventType = "auth_failure"
	}
}

// IngestRequest is the POST /ingest/logs request body. An empty batch is
// accepted and reported back as ingested: 0 rather than rejected.
type IngestRequest struct {
	Events []LogEventRequest `json:"events" validate:"dive"`
}

// ErrorResponse is the minimum shape every non-2xx response carries.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// IncidentSummary is the list-view projection of an incident.
type IncidentSummary struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Count   int64  `json:"count"`
	Status  string `json:"status"`
}

func incidentSummary(inc *store.Incident) IncidentSummary {
	return IncidentSummary{
		ID:      inc.ID,
		Title:   inc.Title,
		Summary: inc.Summary,
		Count:   inc.Count,
		Status:  inc.Status,
	}
}

// IncidentDetailResponse is the GET /incidents/{id} response: the incident
// plus the most recent event's redacted text.
type IncidentDetailResponse struct {
	IncidentSummary
	ClusterKey     string `json:"cluster_key"`
	LastSeen       string `json:"last_seen"`
	SampleRedacted string `json:"sample_redacted"`
}

// IncidentByEventResponse is the GET /incidents/by-event/{event_id} response.
type IncidentByEventResponse struct {
	IncidentID int64  `json:"incident_id"`
	ClusterKey string `json:"cluster_key"`
	Status     string `json:"status"`
}

// IncidentByClusterResponse is the GET /incidents/by-cluster/{ck} response.
type IncidentByClusterResponse struct {
	IncidentID int64  `json:"incident_id"`
	ClusterKey string `json:"cluster_key"`
	Status     string `json:"status"`
	Count      int64  `json:"count"`
}

// EvidenceResponse is the GET /incidents/{id}/evidence response.
type EvidenceResponse struct {
	Incident       IncidentSummary     `json:"incident"`
	Events         []EvidenceEvent     `json:"events"`
	WhyClustered   cluster.Explanation `json:"why_clustered"`
	RedactionKinds map[string]int      `json:"redaction_kinds"`
	Approvals      []ApprovalResponse  `json:"approvals"`
}

// EvidenceEvent is one row in an evidence view's event list.
type EvidenceEvent struct {
	ID        int64  `json:"id"`
	EventType string `json:"event_type"`
	Redacted  string `json:"redacted"`
	CreatedAt string `json:"created_at"`
}

// ApprovalResponse is the wire shape of a recorded analyst decision.
type ApprovalResponse struct {
	ID         int64  `json:"id"`
	ActionName string `json:"action_name"`
	ApprovedBy string `json:"approved_by"`
	ApprovedAt string `json:"approved_at"`
	Notes      string `json:"notes"`
}

func approvalResponse(a store.Approval) ApprovalResponse {
	return ApprovalResponse{
		ID:         a.ID,
		ActionName: a.ActionName,
		ApprovedBy: a.ApprovedBy,
		ApprovedAt: a.ApprovedAt.Format(timeLayout),
		Notes:      a.Notes,
	}
}

// SuggestActionsResponse is the POST /incidents/{id}/suggest_actions response.
type SuggestActionsResponse struct {
	IncidentID int64    `json:"incident_id"`
	Actions    []string `json:"actions"`
}

// ApproveActionRequest is the POST /incidents/{id}/approve_action request body.
type ApproveActionRequest struct {
	ActionName string `json:"action_name" validate:"required"`
	Notes      string `json:"notes"`
}

// ApproveActionResponse is the POST /incidents/{id}/approve_action response.
type ApproveActionResponse struct {
	OK         bool  `json:"ok"`
	ApprovalID int64 `json:"approval_id"`
}

// RecentEventResponse is one row of GET /events/recent.
type RecentEventResponse struct {
	ID             int64  `json:"id"`
	IncidentID     int64  `json:"incident_id"`
	EventType      string `json:"event_type"`
	IncidentStatus string `json:"incident_status"`
	Redacted       string `json:"redacted"`
}

// EventEvidenceResponse is the GET /evidence/{event_id} response.
type EventEvidenceResponse struct {
	EventID      int64  `json:"event_id"`
	ResidencyTag string `json:"residency_tag"`
	Redacted     string `json:"redacted"`
	IncidentID   int64  `json:"incident_id"`
	ClusterKey   string `json:"cluster_key"`
}

// MetricsResponse is the GET /metrics aggregate response.
type MetricsResponse struct {
	Events                int64   `json:"events"`
	Incidents             int64   `json:"incidents"`
	IncidentsActive       int64   `json:"incidents_active"`
	SuppressedEvents      int64   `json:"suppressed_events"`
	SuppressionRate       float64 `json:"suppression_rate"`
	SuppressionRateActive float64 `json:"suppression_rate_active"`
	DupRate               float64 `json:"dup_rate"`
}

// HealthResponse is the GET /health response.
type HealthResponse struct {
	OK bool `json:"ok"`
}

func sumRedactionKinds(samples []string) map[string]int {
	totals := map[string]int{}
	for _, s := range samples {
		for kind, n := range redact.CountMatches(s) {
			totals[string(kind)] += n
		}
	}
	return totals
}

const timeLayout = "2006-01-02T15:04:05Z07:00"
