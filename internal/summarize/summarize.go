// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

// Package summarize produces the human-readable rollup string stored on an
// incident each time a new event is attached.
package summarize

import "fmt"

const snippetLimit = 120

// Summarize renders "Repeated event clustered (<count> hits). Example:
// <snippet>" where snippet is sample truncated to 120 characters with an
// ellipsis appended only when truncation occurred.
func Summarize(sample string, count int) string {
	return fmt.Sprintf("Repeated event clustered (%d hits). Example: %s", count, snippet(sample))
}

func snippet(sample string) string {
	runes := []rune(sample)
	if len(runes) <= snippetLimit {
		return sample
	}
	return string(runes[:snippetLimit]) + "..."
}
