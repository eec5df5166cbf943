// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedact_Empty(t *testing.T) {
	result := Redact("")
	assert.Equal(t, "", result.Text)
	assert.Equal(t, 0, result.Total)
}

func TestRedact_Email(t *testing.T) {
	result := Redact("contact john.doe@example.com now")
	assert.Contains(t, result.Text, "[REDACTED:EMAIL]")
	assert.NotContains(t, result.Text, "example.com")
	assert.Equal(t, 1, result.ByKind[KindEmail])
}

func TestRedact_IPBeforePhone(t *testing.T) {
	result := Redact("login from 192.168.1.22")
	assert.Contains(t, result.Text, "[REDACTED:IP]")
	assert.NotContains(t, result.Text, "192.168.1.22")
	assert.Zero(t, result.ByKind[KindPhone])
}

func TestRedact_Phone(t *testing.T) {
	result := Redact("called +1 (416) 555-1212")
	assert.Contains(t, result.Text, "[REDACTED:PHONE]")
	assert.NotContains(t, result.Text, "416")
}

func TestRedact_Card(t *testing.T) {
	result := Redact("card 4111 1111 1111 1111 declined")
	assert.Contains(t, result.Text, "[REDACTED:CARD]")
	assert.NotContains(t, result.Text, "4111")
}

func TestRedact_MultiplePatterns(t *testing.T) {
	result := Redact("User john.doe@example.com from 192.168.1.1 called +1 (416) 555-1212")
	assert.NotContains(t, result.Text, "example.com")
	assert.NotContains(t, result.Text, "192.168.1.1")
	assert.NotContains(t, result.Text, "416")
	assert.GreaterOrEqual(t, result.Total, 3)
}

func TestRedact_Idempotent(t *testing.T) {
	first := Redact("john@example.com from 10.0.0.1")
	second := Redact(first.Text)
	assert.Equal(t, first.Text, second.Text)
}

func TestCountMatches_OnRedactedText(t *testing.T) {
	result := Redact("john@example.com")
	require.Contains(t, result.Text, "[REDACTED:EMAIL]")
	counts := CountMatches(result.Text)
	assert.Zero(t, counts[KindEmail])
}
