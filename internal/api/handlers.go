// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

// Package api is the HTTP transport layer: request decoding, response
// encoding, and routing for the ingest and query surfaces. It holds no
// business logic of its own; every handler delegates to the ingest
// aggregator or the store's read projections.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/redline-soc/redline/internal/cluster"
	"github.com/redline-soc/redline/internal/ingest"
	"github.com/redline-soc/redline/internal/logging"
	"github.com/redline-soc/redline/internal/normalize"
	"github.com/redline-soc/redline/internal/store"
	"github.com/redline-soc/redline/internal/suggest"
	"github.com/redline-soc/redline/internal/validation"
)

const (
	defaultRecentEventsLimit = 50
	maxRecentEventsLimit     = 500
	evidenceEventLimit       = 50
)

// Handler binds the aggregator and the store to HTTP handler methods.
type Handler struct {
	db            *store.DB
	agg           *ingest.Aggregator
	bucketSeconds int
}

// NewHandler builds a Handler over db and agg. bucketSeconds is the
// configured cluster time-bucket width, used to recompute the clustering
// explanation for the evidence endpoint.
func NewHandler(db *store.DB, agg *ingest.Aggregator, bucketSeconds int) *Handler {
	return &Handler{db: db, agg: agg, bucketSeconds: bucketSeconds}
}

// IngestLogs handles POST /ingest/logs.
func (h *Handler) IngestLogs(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "malformed request body")
		return
	}

	for i := range req.Events {
		req.Events[i].applyDefaults()
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		writeError(w, http.StatusUnprocessableEntity, verr.Error())
		return
	}

	events := make([]ingest.LogEvent, 0, len(req.Events))
	for _, e := range req.Events {
		events = append(events, ingest.LogEvent{
			Source:    e.Source,
			EventType: e.EventType,
			Message:   e.Message,
			User:      e.User,
			IP:        e.IP,
			Email:     e.Email,
			Region:    e.Region,
			Action:    e.Action,
			Status:    e.Status,
			Timestamp: e.Timestamp,
		})
	}

	result, err := h.agg.Ingest(r.Context(), events)
	if err != nil {
		logging.CtxErr(r.Context(), err).Int("batch_size", len(events)).Msg("ingest batch failed")
		writeError(w, http.StatusInternalServerError, "ingest batch failed")
		return
	}

	logging.CtxInfo(r.Context()).
		Int("events", int(result.Events)).
		Int64("incidents", result.Incidents).
		Float64("suppression_rate", result.SuppressionRate).
		Msg("ingest batch committed")

	writeJSON(w, http.StatusOK, result)
}

// ListIncidents handles GET /incidents.
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	incidents, err := h.db.ListIncidents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list incidents failed")
		return
	}

	out := make([]IncidentSummary, 0, len(incidents))
	for i := range incidents {
		out = append(out, incidentSummary(&incidents[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetIncident handles GET /incidents/{id}.
func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	inc, err := h.db.GetIncident(r.Context(), id)
	if !ok404(w, err, "incident not found") {
		return
	}

	sample := ""
	events, err := h.db.EventsForIncident(r.Context(), id, 1)
	if err == nil && len(events) > 0 {
		sample = events[0].Redacted
	}

	writeJSON(w, http.StatusOK, IncidentDetailResponse{
		IncidentSummary: incidentSummary(inc),
		ClusterKey:      inc.ClusterKey,
		LastSeen:        inc.LastSeen.Format(timeLayout),
		SampleRedacted:  sample,
	})
}

// IncidentEvidence handles GET /incidents/{id}/evidence and its alias
// GET /evidence/incident/{id}.
func (h *Handler) IncidentEvidence(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	inc, err := h.db.GetIncident(r.Context(), id)
	if !ok404(w, err, "incident not found") {
		return
	}

	events, err := h.db.EventsForIncident(r.Context(), id, evidenceEventLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "fetch incident events failed")
		return
	}

	evEvents := make([]EvidenceEvent, 0, len(events))
	samples := make([]string, 0, len(events))
	for _, e := range events {
		evEvents = append(evEvents, EvidenceEvent{
			ID:        e.ID,
			EventType: e.EventType,
			Redacted:  e.Redacted,
			CreatedAt: e.CreatedAt.Format(timeLayout),
		})
		samples = append(samples, e.Redacted)
	}

	var explanation cluster.Explanation
	if len(events) > 0 {
		latest := events[0]
		features := cluster.ExtractFeatures(normalize.Event{
			EventType: latest.EventType,
		}, latest.Normalized, h.bucketSeconds, latest.CreatedAt)
		explanation = cluster.Explain(features)
	}

	approvals, err := h.db.ApprovalsForIncident(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "fetch approvals failed")
		return
	}
	approvalOut := make([]ApprovalResponse, 0, len(approvals))
	for _, a := range approvals {
		approvalOut = append(approvalOut, approvalResponse(a))
	}

	writeJSON(w, http.StatusOK, EvidenceResponse{
		Incident:       incidentSummary(inc),
		Events:         evEvents,
		WhyClustered:   explanation,
		RedactionKinds: sumRedactionKinds(samples),
		Approvals:      approvalOut,
	})
}

// IncidentByEvent handles GET /incidents/by-event/{event_id}.
func (h *Handler) IncidentByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := parseID(w, r, "event_id")
	if !ok {
		return
	}

	ev, err := h.db.GetEvent(r.Context(), eventID)
	if !ok404(w, err, "event not found") {
		return
	}

	inc, err := h.db.GetIncident(r.Context(), ev.IncidentID)
	if !ok404(w, err, "incident not found") {
		return
	}

	writeJSON(w, http.StatusOK, IncidentByEventResponse{
		IncidentID: inc.ID,
		ClusterKey: inc.ClusterKey,
		Status:     inc.Status,
	})
}

// IncidentByCluster handles GET /incidents/by-cluster/{ck}.
func (h *Handler) IncidentByCluster(w http.ResponseWriter, r *http.Request) {
	ck := chi.URLParam(r, "ck")

	inc, err := h.db.GetIncidentByClusterKey(r.Context(), ck)
	if !ok404(w, err, "incident not found") {
		return
	}

	writeJSON(w, http.StatusOK, IncidentByClusterResponse{
		IncidentID: inc.ID,
		ClusterKey: inc.ClusterKey,
		Status:     inc.Status,
		Count:      inc.Count,
	})
}

// SuggestActions handles POST /incidents/{id}/suggest_actions.
func (h *Handler) SuggestActions(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	inc, err := h.db.GetIncident(r.Context(), id)
	if !ok404(w, err, "incident not found") {
		return
	}

	events, err := h.db.EventsForIncident(r.Context(), id, 1)
	eventType := inc.Title
	if err == nil && len(events) > 0 {
		eventType = events[0].EventType
	}

	writeJSON(w, http.StatusOK, SuggestActionsResponse{
		IncidentID: inc.ID,
		Actions:    suggest.Actions(eventType),
	})
}

// ApproveAction handles POST /incidents/{id}/approve_action.
func (h *Handler) ApproveAction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.db.GetIncident(r.Context(), id); !ok404(w, err, "incident not found") {
		return
	}

	var req ApproveActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "malformed request body")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		writeError(w, http.StatusUnprocessableEntity, verr.Error())
		return
	}

	approvalID, err := h.db.InsertApproval(r.Context(), id, req.ActionName, "", req.Notes)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "record approval failed")
		return
	}

	writeJSON(w, http.StatusOK, ApproveActionResponse{OK: true, ApprovalID: approvalID})
}

// RecentEvents handles GET /events/recent?limit=N.
func (h *Handler) RecentEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentEventsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxRecentEventsLimit {
		limit = maxRecentEventsLimit
	}

	events, err := h.db.RecentEvents(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "fetch recent events failed")
		return
	}

	out := make([]RecentEventResponse, 0, len(events))
	for _, e := range events {
		status := ""
		if inc, err := h.db.GetIncident(r.Context(), e.IncidentID); err == nil {
			status = inc.Status
		}
		out = append(out, RecentEventResponse{
			ID:             e.ID,
			IncidentID:     e.IncidentID,
			EventType:      e.EventType,
			IncidentStatus: status,
			Redacted:       e.Redacted,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// EventEvidence handles GET /evidence/{event_id} and its alias
// GET /events/{id}/evidence.
func (h *Handler) EventEvidence(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDAny(w, r, "event_id", "id")
	if !ok {
		return
	}

	ev, err := h.db.GetEvent(r.Context(), id)
	if !ok404(w, err, "event not found") {
		return
	}

	writeJSON(w, http.StatusOK, EventEvidenceResponse{
		EventID:      ev.ID,
		ResidencyTag: ev.ResidencyTag,
		Redacted:     ev.Redacted,
		IncidentID:   ev.IncidentID,
		ClusterKey:   ev.ClusterKey,
	})
}

// Metrics handles GET /metrics: the JSON aggregate summary, distinct from
// the Prometheus scrape endpoint mounted separately at /internal/prometheus.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events, err := h.db.CountEvents(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "count events failed")
		return
	}
	totalIncidents, activeIncidents, err := h.db.CountIncidents(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "count incidents failed")
		return
	}
	suppressedEvents, err := h.db.SuppressedEvents(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "count suppressed events failed")
		return
	}

	var suppressionRate, suppressionRateActive, dupRate float64
	if events > 0 {
		suppressionRate = 1 - float64(totalIncidents)/float64(events)
		suppressionRateActive = 1 - float64(activeIncidents)/float64(events)
		dupRate = float64(suppressedEvents) / float64(events)
	}

	writeJSON(w, http.StatusOK, MetricsResponse{
		Events:                events,
		Incidents:             totalIncidents,
		IncidentsActive:       activeIncidents,
		SuppressedEvents:      suppressedEvents,
		SuppressionRate:       suppressionRate,
		SuppressionRateActive: suppressionRateActive,
		DupRate:               dupRate,
	})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{OK: true})
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	return parseIDAny(w, r, param)
}

func parseIDAny(w http.ResponseWriter, r *http.Request, params ...string) (int64, bool) {
	for _, p := range params {
		if raw := chi.URLParam(r, p); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "invalid id: "+raw)
				return 0, false
			}
			return id, true
		}
	}
	writeError(w, http.StatusUnprocessableEntity, "missing id parameter")
	return 0, false
}

func ok404(w http.ResponseWriter, err error, notFoundMsg string) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFoundMsg)
		return false
	}
	writeError(w, http.StatusInternalServerError, "storage error")
	return false
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}
