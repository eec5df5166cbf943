// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

package store

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a query by id or cluster_key matches no row.
var ErrNotFound = errors.New("not found")

// isConflict reports whether err looks like a DuckDB unique-constraint
// violation on insert. The driver surfaces these as generic errors with a
// "constraint" or "unique" substring rather than a typed error, so this is
// a best-effort string match.
func isConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "constraint") || strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
