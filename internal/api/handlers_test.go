// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redline-soc/redline/internal/config"
	"github.com/redline-soc/redline/internal/ingest"
	"github.com/redline-soc/redline/internal/store"
)

func newTestRouter(t *testing.T) (http.Handler, *store.DB) {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Path:      filepath.Join(t.TempDir(), "redline.db"),
			MaxMemory: "512MB",
			Threads:   1,
		},
		Security: config.SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitDisabled: true,
		},
		Pipeline: config.PipelineConfig{
			DefaultResidencyTag:  "SA",
			BenignTypes:          []string{"auth_success"},
			CriticalTypes:        []string{"auth_failure", "mfa_bypass", "api_key_use", "privilege_escalation"},
			ClusterBucketSeconds: 900,
		},
	}

	db, err := store.New(&cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	agg := ingest.New(db, &cfg.Pipeline)
	return NewRouter(db, agg, cfg), db
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func ingestOne(t *testing.T, router http.Handler, event map[string]interface{}) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/ingest/logs", map[string]interface{}{
		"events": []map[string]interface{}{event},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	decodeBody(t, rec, &body)
	assert.True(t, body.OK)
}

func TestIngestLogs_HappyPath(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/ingest/logs", map[string]interface{}{
		"events": []map[string]interface{}{
			{"message": "login for user a@x.com from 1.2.3.4", "event_type": "auth_success", "ts": "2025-08-22T10:00:00Z"},
			{"message": "denied for user bob from 1.2.3.4", "ts": "2025-08-22T10:00:05Z"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body ingest.Result
	decodeBody(t, rec, &body)
	assert.Equal(t, 2, body.Ingested)
	assert.Equal(t, int64(2), body.Events)
	assert.Equal(t, int64(2), body.Incidents)
}

func TestIngestLogs_MalformedBodyIs422(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/ingest/logs", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body ErrorResponse
	decodeBody(t, rec, &body)
	assert.NotEmpty(t, body.Detail)
}

func TestIngestLogs_MissingMessageIs422(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/ingest/logs", map[string]interface{}{
		"events": []map[string]interface{}{{"event_type": "auth_failure"}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestIngestLogs_EmptyBatchIsNoop(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/ingest/logs", map[string]interface{}{
		"events": []map[string]interface{}{},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body ingest.Result
	decodeBody(t, rec, &body)
	assert.Zero(t, body.Ingested)
	assert.Zero(t, body.Events)
}

func TestListIncidents_AndDetail(t *testing.T) {
	router, _ := newTestRouter(t)
	ingestOne(t, router, map[string]interface{}{
		"message": "login denied for user bob from 1.2.3.4", "user": "bob", "ip": "1.2.3.4",
		"ts": "2025-08-25T10:00:00Z",
	})

	rec := doJSON(t, router, http.MethodGet, "/incidents", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []IncidentSummary
	decodeBody(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, store.StatusOpen, list[0].Status)
	assert.Equal(t, int64(1), list[0].Count)
	assert.Equal(t, "auth_failure cluster for bob", list[0].Title)

	rec = doJSON(t, router, http.MethodGet, "/incidents/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail IncidentDetailResponse
	decodeBody(t, rec, &detail)
	assert.Equal(t, list[0].ID, detail.ID)
	assert.NotEmpty(t, detail.ClusterKey)
	assert.Contains(t, detail.SampleRedacted, "[REDACTED:IP]")
}

func TestGetIncident_NotFoundIs404(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/incidents/999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetIncident_NonNumericIDIs422(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/incidents/abc", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestIncidentEvidence_CarriesTokensWindowAndSentinelCounts(t *testing.T) {
	router, _ := newTestRouter(t)
	ingestOne(t, router, map[string]interface{}{
		"message": "login denied for user bob from 1.2.3.4", "event_type": "auth_failure",
		"ts": "2025-08-25T10:00:00Z",
	})

	for _, path := range []string{"/incidents/1/evidence", "/evidence/incident/1"} {
		rec := doJSON(t, router, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var body EvidenceResponse
		decodeBody(t, rec, &body)
		require.Len(t, body.Events, 1)
		assert.Equal(t, "auth_failure", body.WhyClustered.Tokens.EventType)
		assert.Equal(t, "bob", body.WhyClustered.Tokens.User)
		// The explanation is recomputed from the stored normalized text,
		// where the dotted quad is already a sentinel.
		assert.Equal(t, "[redacted:ip", body.WhyClustered.Tokens.IP)
		assert.Equal(t, 900, body.WhyClustered.Window.BucketSeconds)
		assert.NotEmpty(t, body.WhyClustered.Window.WindowStart)
		assert.NotEmpty(t, body.WhyClustered.Window.WindowEnd)
		// Counts come from re-scanning the redacted text, so they reflect
		// sentinel occurrences: the dotted quad is already gone.
		assert.Zero(t, body.RedactionKinds["IP"])
		assert.Empty(t, body.Approvals)
	}
}

func TestIncidentByEventAndByCluster(t *testing.T) {
	router, db := newTestRouter(t)
	ingestOne(t, router, map[string]interface{}{
		"message": "denied", "user": "bob", "ip": "1.2.3.4", "ts": "2025-08-25T10:00:00Z",
	})

	rec := doJSON(t, router, http.MethodGet, "/incidents/by-event/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var byEvent IncidentByEventResponse
	decodeBody(t, rec, &byEvent)
	assert.Equal(t, int64(1), byEvent.IncidentID)
	require.Len(t, byEvent.ClusterKey, 16)

	rec = doJSON(t, router, http.MethodGet, "/incidents/by-cluster/"+byEvent.ClusterKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var byCluster IncidentByClusterResponse
	decodeBody(t, rec, &byCluster)
	assert.Equal(t, byEvent.IncidentID, byCluster.IncidentID)
	assert.Equal(t, int64(1), byCluster.Count)

	inc, err := db.GetIncident(context.Background(), byCluster.IncidentID)
	require.NoError(t, err)
	assert.Equal(t, byCluster.ClusterKey, inc.ClusterKey)

	rec = doJSON(t, router, http.MethodGet, "/incidents/by-cluster/deadbeefdeadbeef", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/incidents/by-event/999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSuggestActions_AuthPlaybook(t *testing.T) {
	router, _ := newTestRouter(t)
	ingestOne(t, router, map[string]interface{}{"message": "denied", "event_type": "auth_failure"})

	rec := doJSON(t, router, http.MethodPost, "/incidents/1/suggest_actions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body SuggestActionsResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, int64(1), body.IncidentID)
	assert.Contains(t, body.Actions, "force_password_reset")
}

func TestApproveAction_RecordsAndLists(t *testing.T) {
	router, db := newTestRouter(t)
	ingestOne(t, router, map[string]interface{}{"message": "denied"})

	rec := doJSON(t, router, http.MethodPost, "/incidents/1/approve_action", map[string]interface{}{
		"action_name": "revoke_active_sessions",
		"notes":       "confirmed with account owner",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body ApproveActionResponse
	decodeBody(t, rec, &body)
	assert.True(t, body.OK)
	assert.NotZero(t, body.ApprovalID)

	approvals, err := db.ApprovalsForIncident(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, approvals, 1)
	assert.Equal(t, "human@operator", approvals[0].ApprovedBy)
}

func TestApproveAction_MissingActionNameIs422(t *testing.T) {
	router, _ := newTestRouter(t)
	ingestOne(t, router, map[string]interface{}{"message": "denied"})

	rec := doJSON(t, router, http.MethodPost, "/incidents/1/approve_action", map[string]interface{}{
		"notes": "no action named",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestApproveAction_UnknownIncidentIs404(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/incidents/42/approve_action", map[string]interface{}{
		"action_name": "block_source_ip",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecentEvents_JoinsIncidentStatusAndClampsLimit(t *testing.T) {
	router, _ := newTestRouter(t)
	ingestOne(t, router, map[string]interface{}{
		"message": "ok", "event_type": "auth_success", "ts": "2025-08-25T10:00:00Z",
	})
	ingestOne(t, router, map[string]interface{}{
		"message": "denied", "event_type": "auth_failure", "ts": "2025-08-25T10:00:00Z",
	})

	rec := doJSON(t, router, http.MethodGet, "/events/recent?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []RecentEventResponse
	decodeBody(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "auth_failure", list[0].EventType)
	assert.Equal(t, store.StatusOpen, list[0].IncidentStatus)

	// Out-of-range limits clamp rather than error.
	rec = doJSON(t, router, http.MethodGet, "/events/recent?limit=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &list)
	assert.Len(t, list, 1)

	rec = doJSON(t, router, http.MethodGet, "/events/recent?limit=100000", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &list)
	assert.Len(t, list, 2)
}

func TestEventEvidence_BothAliases(t *testing.T) {
	router, _ := newTestRouter(t)
	ingestOne(t, router, map[string]interface{}{
		"message": "login for a@x.com", "region": "dubai",
	})

	for _, path := range []string{"/evidence/1", "/events/1/evidence"} {
		rec := doJSON(t, router, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var body EventEvidenceResponse
		decodeBody(t, rec, &body)
		assert.Equal(t, int64(1), body.EventID)
		assert.Equal(t, "AE", body.ResidencyTag)
		assert.Contains(t, body.Redacted, "[REDACTED:EMAIL]")
		assert.Equal(t, int64(1), body.IncidentID)
	}

	rec := doJSON(t, router, http.MethodGet, "/evidence/999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_ZeroAndPopulated(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body MetricsResponse
	decodeBody(t, rec, &body)
	assert.Zero(t, body.Events)
	assert.Zero(t, body.SuppressionRate)
	assert.Zero(t, body.DupRate)

	// 3 identical events collapse into one incident: 2 suppressed.
	for i := 0; i < 3; i++ {
		ingestOne(t, router, map[string]interface{}{
			"message": "denied", "user": "bob", "ip": "1.2.3.4", "ts": "2025-08-25T10:00:00Z",
		})
	}

	rec = doJSON(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &body)
	assert.Equal(t, int64(3), body.Events)
	assert.Equal(t, int64(1), body.Incidents)
	assert.Equal(t, int64(1), body.IncidentsActive)
	assert.Equal(t, int64(2), body.SuppressedEvents)
	assert.InDelta(t, 2.0/3.0, body.SuppressionRate, 0.0001)
	assert.InDelta(t, 2.0/3.0, body.DupRate, 0.0001)
}
