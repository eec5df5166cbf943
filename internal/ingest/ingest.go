// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

// Package ingest is the transactional aggregator: the core of the pipeline.
// For every event in a batch it redacts, tags, normalizes, derives a cluster
// key, resolves the owning incident, appends the event, updates the rollup,
// and runs the noise-to-open promotion heuristic, all inside one
// transaction per batch.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/redline-soc/redline/internal/cluster"
	"github.com/redline-soc/redline/internal/config"
	"github.com/redline-soc/redline/internal/logging"
	"github.com/redline-soc/redline/internal/metrics"
	"github.com/redline-soc/redline/internal/normalize"
	"github.com/redline-soc/redline/internal/redact"
	"github.com/redline-soc/redline/internal/residency"
	"github.com/redline-soc/redline/internal/store"
	"github.com/redline-soc/redline/internal/summarize"
)

// promotionWindow is how many of the most recent events on a cluster the
// promotion heuristic inspects.
const promotionWindow = 8

// promotionMinFailures is the minimum auth_failure count required before a
// trailing auth_success can promote a noise incident to open.
const promotionMinFailures = 5

// LogEvent is the decoded form of one ingest request event. Defaults
// (source, event_type) are applied by the HTTP layer before the event
// reaches the aggregator; Ingest itself performs no schema validation.
type LogEvent struct {
	Source    string
	EventType string
	Message   string
	User      string
	IP        string
	Email     string
	Region    string
	Action    string
	Status    string
	Timestamp string
}

// Result is the per-batch ingest response: counts reflect the full
// persisted state after this batch committed, not just this batch's share.
type Result struct {
	Ingested        int     `json:"ingested"`
	Events          int64   `json:"events"`
	Incidents       int64   `json:"incidents"`
	SuppressionRate float64 `json:"suppression_rate"`
}

// Aggregator wires the redaction, normalization, residency, and clustering
// stages to the persistence layer under the pipeline's configured policy.
type Aggregator struct {
	db  *store.DB
	cfg *config.PipelineConfig
}

// New builds an Aggregator against db, governed by cfg.
func New(db *store.DB, cfg *config.PipelineConfig) *Aggregator {
	return &Aggregator{db: db, cfg: cfg}
}

// Ingest processes events as one transaction and returns the aggregate
// response. An empty batch is a no-op that still reports current totals.
func (a *Aggregator) Ingest(ctx context.Context, events []LogEvent) (Result, error) {
	if len(events) == 0 {
		return a.currentTotals(ctx, 0)
	}

	start := time.Now()

	tx, err := a.db.BeginTx(ctx)
	if err != nil {
		metrics.RecordIngestError("transaction")
		return Result{}, fmt.Errorf("begin ingest transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := start.UTC()
	for i, e := range events {
		if err := a.processEvent(ctx, tx, e, now); err != nil {
			metrics.RecordIngestError("processing")
			return Result{}, fmt.Errorf("event %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordIngestError("commit")
		return Result{}, fmt.Errorf("commit ingest batch: %w", err)
	}

	metrics.RecordIngestBatch(time.Since(start), len(events))

	return a.currentTotals(ctx, len(events))
}

func (a *Aggregator) processEvent(ctx context.Context, tx *sql.Tx, e LogEvent, now time.Time) error {
	red := redact.Redact(e.Message)
	if red.Total > 0 {
		byKind := make(map[string]int, len(red.ByKind))
		for kind, n := range red.ByKind {
			byKind[string(kind)] = n
		}
		metrics.RecordRedactions(byKind)
	}

	tag := residency.Tag(e.Region, a.cfg.DefaultResidencyTag)

	normEvent := normalize.Event{
		Message:   red.Text,
		Action:    e.Action,
		Status:    e.Status,
		EventType: e.EventType,
		User:      e.User,
		IP:        e.IP,
		Region:    e.Region,
		Source:    e.Source,
		Timestamp: e.Timestamp,
	}
	norm := normalize.Normalize(normEvent)

	features := cluster.ExtractFeatures(normEvent, norm, a.cfg.ClusterBucketSeconds, now)
	ck := cluster.Key(features)

	eventType := strings.ToLower(strings.TrimSpace(e.EventType))
	benign := isBenign(eventType, a.cfg.BenignTypes, a.cfg.CriticalTypes)

	inc, _, err := store.GetOrCreateIncident(ctx, tx, ck, incidentTitle(eventType, e.User), benign)
	if err != nil {
		return fmt.Errorf("get or create incident: %w", err)
	}

	raw := e.Message
	if !a.cfg.StoreRaw {
		raw = ""
	}

	if _, err := store.InsertEvent(ctx, tx, &store.Event{
		Source:       e.Source,
		EventType:    eventType,
		Raw:          raw,
		Normalized:   norm,
		Redacted:     red.Text,
		ResidencyTag: tag,
		ClusterKey:   ck,
		IncidentID:   inc.ID,
		CreatedAt:    now,
	}); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	summary := summarize.Summarize(red.Text, int(inc.Count+1))
	if _, err := store.AttachEvent(ctx, tx, inc.ID, summary, now); err != nil {
		return fmt.Errorf("attach event rollup: %w", err)
	}

	if inc.Status == store.StatusNoise {
		if err := tryPromote(ctx, tx, inc.ID, ck); err != nil {
			// Promotion is a heuristic, not a correctness requirement: a
			// failure here never aborts the batch.
			logging.Warn().Err(err).Str("cluster_key", ck).Msg("promotion heuristic failed")
		}
	}

	return nil
}

// tryPromote inspects the most recent events on clusterKey and promotes the
// owning incident from noise to open when the fail-then-success burst
// predicate holds.
func tryPromote(ctx context.Context, tx *sql.Tx, incidentID int64, clusterKey string) error {
	recent, err := store.RecentEventsByCluster(ctx, tx, clusterKey, promotionWindow)
	if err != nil {
		return fmt.Errorf("fetch recent cluster events: %w", err)
	}

	failures := 0
	for _, ev := range recent {
		if strings.EqualFold(ev.EventType, "auth_failure") {
			failures++
		}
	}

	hasRecentSuccess := false
	for i := 0; i < len(recent) && i < 2; i++ {
		if strings.EqualFold(recent[i].EventType, "auth_success") {
			hasRecentSuccess = true
			break
		}
	}

	if failures < promotionMinFailures || !hasRecentSuccess {
		return nil
	}

	summary := fmt.Sprintf("Promotion: %d failures then success (possible credential stuffing → takeover)", failures)
	promoted, err := store.Promote(ctx, tx, incidentID, summary)
	if err != nil {
		return fmt.Errorf("promote incident: %w", err)
	}
	if promoted {
		metrics.RecordPromotion()
	}
	return nil
}

func (a *Aggregator) currentTotals(ctx context.Context, ingested int) (Result, error) {
	totalEvents, err := a.db.CountEvents(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("count events: %w", err)
	}
	totalIncidents, _, err := a.db.CountIncidents(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("count incidents: %w", err)
	}

	var suppression float64
	if totalEvents > 0 {
		suppression = 1 - float64(totalIncidents)/float64(totalEvents)
	}

	return Result{
		Ingested:        ingested,
		Events:          totalEvents,
		Incidents:       totalIncidents,
		SuppressionRate: suppression,
	}, nil
}

// isBenign reports whether eventType is classified as benign noise: present
// in benignTypes and absent from criticalTypes, which always wins.
func isBenign(eventType string, benignTypes, criticalTypes []string) bool {
	if containsFold(criticalTypes, eventType) {
		return false
	}
	return containsFold(benignTypes, eventType)
}

func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(strings.TrimSpace(s), v) {
			return true
		}
	}
	return false
}

// incidentTitle derives the short human label shown in list views.
func incidentTitle(eventType, user string) string {
	if eventType == "" {
		eventType = "event"
	}
	user = strings.ToLower(strings.TrimSpace(user))
	if user == "" {
		user = "unknown"
	}
	return fmt.Sprintf("%s cluster for %s", eventType, user)
}
