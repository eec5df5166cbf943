// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

// Package normalize collapses a fixed subset of event fields into a single
// lowercase string used as the clustering substrate and as evidence text.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

// Event is the minimal field set the normalizer and clusterer read from a
// decoded log event. It carries a subset of the wire fields of
// api.LogEventRequest.
type Event struct {
	Message   string
	Action    string
	Status    string
	EventType string
	User      string
	IP        string
	Region    string
	Source    string
	Timestamp string
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize concatenates, in fixed order, the non-empty values of message,
// action, status, and event_type, lowercases the result, and collapses
// whitespace runs to single spaces. If all four fields are empty, it
// stringifies the event instead. Callers must pass the already-redacted
// message so clustering never sees raw PII.
func Normalize(e Event) string {
	parts := make([]string, 0, 4)
	for _, v := range []string{e.Message, e.Action, e.Status, e.EventType} {
		if v != "" {
			parts = append(parts, v)
		}
	}

	var joined string
	if len(parts) == 0 {
		joined = fmt.Sprintf("%+v", e)
	} else {
		joined = strings.Join(parts, " ")
	}

	joined = strings.ToLower(joined)
	joined = whitespaceRun.ReplaceAllString(joined, " ")
	return strings.TrimSpace(joined)
}
