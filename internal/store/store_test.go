// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/redline-soc/redline/internal/config"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Path:      filepath.Join(t.TempDir(), "redline.db"),
		MaxMemory: "512MB",
		Threads:   1,
	}
	db, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestGetOrCreateIncident_CreatesOnFirstEvent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)

	inc, created, err := GetOrCreateIncident(ctx, tx, "abc123", "auth_failure cluster for bob", false)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, StatusOpen, inc.Status)
	require.NoError(t, tx.Commit())
}

func TestGetOrCreateIncident_BenignStartsAsNoise(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	inc, created, err := GetOrCreateIncident(ctx, tx, "ck-benign", "auth_success cluster for bob", true)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, StatusNoise, inc.Status)
	require.NoError(t, tx.Commit())
}

func TestGetOrCreateIncident_SecondEventReusesIncident(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tx1, err := db.BeginTx(ctx)
	require.NoError(t, err)
	first, created, err := GetOrCreateIncident(ctx, tx1, "reused", "t", false)
	require.NoError(t, err)
	require.True(t, created)
	require.NoError(t, tx1.Commit())

	tx2, err := db.BeginTx(ctx)
	require.NoError(t, err)
	second, created, err := GetOrCreateIncident(ctx, tx2, "reused", "t", false)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)
	require.NoError(t, tx2.Commit())
}

func TestAttachEvent_IncrementsCountAndSummary(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	inc, _, err := GetOrCreateIncident(ctx, tx, "ck1", "t", false)
	require.NoError(t, err)

	count, err := AttachEvent(ctx, tx, inc.ID, "summary one", time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	count, err = AttachEvent(ctx, tx, inc.ID, "summary two", time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
	require.NoError(t, tx.Commit())
}

func TestPromote_OnlyFromNoise(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	inc, _, err := GetOrCreateIncident(ctx, tx, "ck-promote", "t", true)
	require.NoError(t, err)

	promoted, err := Promote(ctx, tx, inc.ID, "Promotion: 5 failures then success (possible credential stuffing -> takeover)")
	require.NoError(t, err)
	require.True(t, promoted)

	promotedAgain, err := Promote(ctx, tx, inc.ID, "noop")
	require.NoError(t, err)
	require.False(t, promotedAgain)
	require.NoError(t, tx.Commit())
}

func TestInsertEvent_AndFetch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	inc, _, err := GetOrCreateIncident(ctx, tx, "ck-evt", "t", false)
	require.NoError(t, err)

	id, err := InsertEvent(ctx, tx, &Event{
		Source: "app", EventType: "auth_failure", Redacted: "login failed",
		Normalized: "login failed", ResidencyTag: "SA", ClusterKey: inc.ClusterKey,
		IncidentID: inc.ID, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	got, err := db.GetEvent(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "auth_failure", got.EventType)
	require.Equal(t, inc.ID, got.IncidentID)
}

func TestListIncidents_OrderedByLastSeenDesc(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, ck := range []string{"a", "b"} {
		tx, err := db.BeginTx(ctx)
		require.NoError(t, err)
		_, _, err = GetOrCreateIncident(ctx, tx, ck, ck, false)
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
	}

	list, err := db.ListIncidents(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestCountIncidents_ActiveExcludesNoise(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	_, _, err = GetOrCreateIncident(ctx, tx, "open1", "t", false)
	require.NoError(t, err)
	_, _, err = GetOrCreateIncident(ctx, tx, "noise1", "t", true)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	total, active, err := db.CountIncidents(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, int64(1), active)
}

func TestSuppressedEvents_SumsCountMinusOne(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	inc, _, err := GetOrCreateIncident(ctx, tx, "ck-sup", "t", false)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		_, err := AttachEvent(ctx, tx, inc.ID, "s", time.Now())
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit())

	n, err := db.SuppressedEvents(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)
}

func TestInsertApproval_AndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	inc, _, err := GetOrCreateIncident(ctx, tx, "ck-appr", "t", false)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	id, err := db.InsertApproval(ctx, inc.ID, "revoke_active_sessions", "", "looks legit")
	require.NoError(t, err)
	require.NotZero(t, id)

	list, err := db.ApprovalsForIncident(ctx, inc.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "human@operator", list[0].ApprovedBy)
}
