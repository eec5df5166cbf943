// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

package cluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redline-soc/redline/internal/normalize"
)

func TestKey_Deterministic(t *testing.T) {
	f := Features{EventType: "auth_failure", User: "bob", IP: "1.2.3.4", BucketIdx: 42}
	assert.Equal(t, Key(f), Key(f))
}

func TestKey_DifferentInputsDifferentKeys(t *testing.T) {
	a := Features{EventType: "auth_failure", User: "bob", IP: "1.2.3.4", BucketIdx: 42}
	b := Features{EventType: "auth_failure", User: "bob", IP: "1.2.3.4", BucketIdx: 43}
	assert.NotEqual(t, Key(a), Key(b))
}

func TestKey_Is16HexChars(t *testing.T) {
	f := Features{EventType: "x", User: "y", IP: "z", BucketIdx: 1}
	k := Key(f)
	require.Len(t, k, 16)
	for _, c := range k {
		assert.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'))
	}
}

func TestExtractFeatures_ExplicitFieldsWin(t *testing.T) {
	now := time.Date(2025, 8, 22, 10, 0, 0, 0, time.UTC)
	e := normalize.Event{EventType: "Auth_Failure", User: "Bob", IP: "1.2.3.4", Timestamp: "2025-08-22T10:00:00Z"}
	f := ExtractFeatures(e, "", 900, now)
	assert.Equal(t, "auth_failure", f.EventType)
	assert.Equal(t, "bob", f.User)
	assert.Equal(t, "1.2.3.4", f.IP)
}

func TestExtractFeatures_FallsBackToNormalizedText(t *testing.T) {
	now := time.Date(2025, 8, 22, 10, 0, 0, 0, time.UTC)
	e := normalize.Event{EventType: "auth_failure"}
	normalized := "login attempt user alice from 10.0.0.1 denied"
	f := ExtractFeatures(e, normalized, 900, now)
	assert.Equal(t, "alice", f.User)
	assert.Equal(t, "10.0.0.1", f.IP)
}

func TestExtractFeatures_SentinelTokensAreStable(t *testing.T) {
	now := time.Date(2025, 8, 22, 10, 0, 0, 0, time.UTC)
	e := normalize.Event{EventType: "auth_success"}
	normalized := "successful login for user [redacted:email] from [redacted:ip]"
	f := ExtractFeatures(e, normalized, 900, now)
	assert.Equal(t, "[redacted:email", f.User)
	assert.Equal(t, "[redacted:ip", f.IP)
}

func TestExtractFeatures_MissingTimestampUsesWallClock(t *testing.T) {
	now := time.Date(2025, 8, 22, 10, 0, 0, 0, time.UTC)
	f := ExtractFeatures(normalize.Event{EventType: "x"}, "", 900, now)
	assert.Equal(t, now.Unix()/900, f.BucketIdx)
}

func TestExtractFeatures_TimeBucketSplitsClusters(t *testing.T) {
	now := time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC)
	e1 := normalize.Event{EventType: "auth_failure", User: "bob", IP: "1.2.3.4", Timestamp: "2025-08-25T10:00:00Z"}
	e2 := normalize.Event{EventType: "auth_failure", User: "bob", IP: "1.2.3.4", Timestamp: "2025-08-25T10:20:00Z"}

	f1 := ExtractFeatures(e1, "", 900, now)
	f2 := ExtractFeatures(e2, "", 900, now)

	assert.NotEqual(t, Key(f1), Key(f2))
}

func TestExplain_WindowBounds(t *testing.T) {
	f := Features{EventType: "x", User: "y", IP: "z", BucketSecs: 900, BucketIdx: 2000000}
	exp := Explain(f)
	assert.Equal(t, 900, exp.Window.BucketSeconds)
	assert.Equal(t, int64(2000000), exp.Window.BucketIndex)

	start, err := time.Parse(time.RFC3339, exp.Window.WindowStart)
	require.NoError(t, err)
	end, err := time.Parse(time.RFC3339, exp.Window.WindowEnd)
	require.NoError(t, err)
	assert.Equal(t, 899*time.Second, end.Sub(start))
}

func TestExplain_TokensCarryFeatureTuple(t *testing.T) {
	f := Features{EventType: "auth_failure", User: "bob", IP: "1.2.3.4", BucketSecs: 900, BucketIdx: 42}
	exp := Explain(f)
	assert.Equal(t, "auth_failure", exp.Tokens.EventType)
	assert.Equal(t, "bob", exp.Tokens.User)
	assert.Equal(t, "1.2.3.4", exp.Tokens.IP)
	assert.Equal(t, int64(42), exp.Tokens.TimeBucket)
}
