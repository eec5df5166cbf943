// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

// Package redact strips PII substrings from event text before anything else
// in the ingest pipeline touches it.
//
// Patterns are compiled once at package init and applied in a fixed order:
// email, then IP, then phone, then card. The order matters - IP must run
// before phone so a dotted-quad isn't mistaken for a parenthesized area
// code, and card must run last so it doesn't eat digits that email or
// phone redaction would otherwise have replaced with sentinels.
package redact

import "regexp"

// Kind identifies which PII pattern produced a redaction.
type Kind string

const (
	KindEmail Kind = "EMAIL"
	KindIP    Kind = "IP"
	KindPhone Kind = "PHONE"
	KindCard  Kind = "CARD"
)

type pattern struct {
	kind        Kind
	re          *regexp.Regexp
	replacement string
}

// order is significant: see package doc.
var patterns = []pattern{
	{
		kind:        KindEmail,
		re:          regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
		replacement: "[REDACTED:EMAIL]",
	},
	{
		kind:        KindIP,
		re:          regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`),
		replacement: "[REDACTED:IP]",
	},
	{
		kind:        KindPhone,
		re:          regexp.MustCompile(`(?:\+\d{1,3}[\s-]?)?(?:\(\d{2,4}\)[\s-]?)?\b\d{3}[\s-]\d{4}\b`),
		replacement: "[REDACTED:PHONE]",
	},
	{
		kind:        KindCard,
		re:          regexp.MustCompile(`\b(?:\d[ -]?){12,15}\d\b`),
		replacement: "[REDACTED:CARD]",
	},
}

// Result is the outcome of a redaction pass: the substituted text, the total
// number of substitutions, and a per-kind breakdown for evidence aggregation.
type Result struct {
	Text   string
	Total  int
	ByKind map[Kind]int
}

// Redact replaces every PII substring in text with a stable sentinel and
// reports how many replacements of each kind were made. Empty input maps to
// an empty result; redaction never returns an error.
func Redact(text string) Result {
	if text == "" {
		return Result{Text: "", Total: 0, ByKind: map[Kind]int{}}
	}

	byKind := make(map[Kind]int, len(patterns))
	out := text
	for _, p := range patterns {
		matches := p.re.FindAllStringIndex(out, -1)
		if len(matches) == 0 {
			continue
		}
		byKind[p.kind] += len(matches)
		out = p.re.ReplaceAllString(out, p.replacement)
	}

	total := 0
	for _, n := range byKind {
		total += n
	}

	return Result{Text: out, Total: total, ByKind: byKind}
}

// CountMatches re-scans text against the active patterns without performing
// any substitution. The evidence view uses this to verify that a stored
// redacted string no longer carries PII - run against already-redacted text
// it counts sentinel occurrences, not original PII (see evidence docs).
func CountMatches(text string) map[Kind]int {
	counts := make(map[Kind]int, len(patterns))
	for _, p := range patterns {
		if n := len(p.re.FindAllStringIndex(text, -1)); n > 0 {
			counts[p.kind] = n
		}
	}
	return counts
}
