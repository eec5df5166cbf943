// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_ConcatenatesInFixedOrder(t *testing.T) {
	got := Normalize(Event{Message: "Login OK", Action: "LOGIN", Status: "OK", EventType: "Auth_Success"})
	assert.Equal(t, "login ok login ok auth_success", got)
}

func TestNormalize_SkipsEmptyFields(t *testing.T) {
	got := Normalize(Event{Message: "hello  world"})
	assert.Equal(t, "hello world", got)
}

func TestNormalize_CollapsesWhitespace(t *testing.T) {
	got := Normalize(Event{Message: "a   b\t\tc\n\nd"})
	assert.Equal(t, "a b c d", got)
}

func TestNormalize_FallsBackToWholeEvent(t *testing.T) {
	got := Normalize(Event{User: "alice", IP: "1.2.3.4"})
	assert.Contains(t, got, "alice")
}

func TestNormalize_Idempotent(t *testing.T) {
	e := Event{Message: "User Alice From 10.0.0.1"}
	first := Normalize(e)
	second := Normalize(Event{Message: first})
	assert.Equal(t, first, second)
}
