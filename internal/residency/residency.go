// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

// Package residency maps a free-form region/country hint on an event to a
// two-letter jurisdiction tag.
package residency

import "strings"

var saAliases = map[string]struct{}{
	"sa":           {},
	"saudi":        {},
	"saudi arabia": {},
	"ksa":          {},
}

var aeAliases = map[string]struct{}{
	"ae":                   {},
	"uae":                  {},
	"united arab emirates": {},
	"dubai":                {},
	"abudhabi":             {},
	"abu dhabi":            {},
}

// Tag returns "SA" or "AE" when hint matches a known alias (case-insensitive,
// trimmed), otherwise it returns defaultTag verbatim.
func Tag(hint, defaultTag string) string {
	key := strings.ToLower(strings.TrimSpace(hint))

	if _, ok := saAliases[key]; ok {
		return "SA"
	}
	if _, ok := aeAliases[key]; ok {
		return "AE"
	}
	return defaultTag
}
