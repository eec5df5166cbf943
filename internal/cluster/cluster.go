// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

// Package cluster derives a stable cluster key from a time-bucketed,
// hashed feature tuple so that semantically similar events collapse onto
// the same incident. ClusterKey and Explain are pure functions: no
// persistence, no mutable state, safe to call concurrently.
package cluster

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/redline-soc/redline/internal/normalize"
)

// The fallback extractors run against normalized text that has already been
// through redaction, so their token classes deliberately admit sentinel
// fragments like "[redacted:email" - a stable token is all clustering needs.
var (
	userFromText = regexp.MustCompile(`(?i)\buser\s+([^\s\]]+)`)
	ipInText     = regexp.MustCompile(`\b(\d{1,3}(?:\.\d{1,3}){3})\b`)
	ipAfterFrom  = regexp.MustCompile(`(?i)\bfrom\s+([^\s\]]+)`)
)

// Features is the feature tuple the cluster key is derived from.
type Features struct {
	EventType  string
	User       string
	IP         string
	BucketSecs int
	BucketIdx  int64
}

// Window describes the time bucket a set of features fell into.
type Window struct {
	BucketSeconds int    `json:"bucket_seconds"`
	BucketIndex   int64  `json:"bucket_index"`
	WindowStart   string `json:"window_start_iso"`
	WindowEnd     string `json:"window_end_iso"`
}

// Tokens is the wire shape of the extracted feature tuple in an evidence
// response.
type Tokens struct {
	EventType  string `json:"event_type"`
	User       string `json:"user"`
	IP         string `json:"ip"`
	TimeBucket int64  `json:"time_bucket"`
}

// Explanation is the pure, persistence-free justification for a cluster
// assignment: the extracted feature tokens plus the bucket window they
// landed in.
type Explanation struct {
	Tokens Tokens `json:"tokens"`
	Window Window `json:"window"`
}

// ExtractFeatures derives the (event_type, user, ip, time_bucket) tuple from
// an event and its already-normalized text. now is the ingest wall clock,
// used only when the event carries no parseable timestamp.
func ExtractFeatures(e normalize.Event, normalized string, bucketSeconds int, now time.Time) Features {
	eventType := strings.ToLower(strings.TrimSpace(e.EventType))

	user := strings.ToLower(strings.TrimSpace(e.User))
	if user == "" {
		if m := userFromText.FindStringSubmatch(normalized); m != nil {
			user = strings.ToLower(m[1])
		}
	}

	ip := strings.ToLower(strings.TrimSpace(e.IP))
	if ip == "" {
		if m := ipInText.FindStringSubmatch(normalized); m != nil {
			ip = m[1]
		} else if m := ipAfterFrom.FindStringSubmatch(normalized); m != nil {
			ip = strings.ToLower(m[1])
		}
	}

	if bucketSeconds <= 0 {
		bucketSeconds = 900
	}

	epoch := resolveEpoch(e.Timestamp, now)
	bucketIdx := epoch / int64(bucketSeconds)

	return Features{
		EventType:  eventType,
		User:       user,
		IP:         ip,
		BucketSecs: bucketSeconds,
		BucketIdx:  bucketIdx,
	}
}

// resolveEpoch parses an ISO-8601 timestamp (accepting a trailing Z as UTC),
// falling back to ingest wall time when ts is empty or unparseable.
func resolveEpoch(ts string, now time.Time) int64 {
	if ts == "" {
		return now.Unix()
	}
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t.Unix()
	}
	return now.Unix()
}

// Key hashes the feature tuple with blake2b and returns the first 16 hex
// characters (64 bits) as the cluster key. Deterministic: identical
// features always yield the identical key, across processes.
func Key(f Features) string {
	joined := strings.Join([]string{
		f.EventType,
		f.User,
		f.IP,
		strconv.FormatInt(f.BucketIdx, 10),
	}, "|")

	sum := blake2b.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])[:16]
}

// Explain builds the pure explanation object for a feature tuple: the
// extracted tokens and the bucket window they fall into. The window end is
// inclusive: the last second belonging to the bucket.
func Explain(f Features) Explanation {
	start := time.Unix(f.BucketIdx*int64(f.BucketSecs), 0).UTC()
	end := start.Add(time.Duration(f.BucketSecs-1) * time.Second)

	return Explanation{
		Tokens: Tokens{
			EventType:  f.EventType,
			User:       f.User,
			IP:         f.IP,
			TimeBucket: f.BucketIdx,
		},
		Window: Window{
			BucketSeconds: f.BucketSecs,
			BucketIndex:   f.BucketIdx,
			WindowStart:   start.Format(time.RFC3339),
			WindowEnd:     end.Format(time.RFC3339),
		},
	}
}

// String renders the feature tuple in the same pipe-delimited form that Key
// hashes, primarily useful for debug logging.
func (f Features) String() string {
	return fmt.Sprintf("%s|%s|%s|%d", f.EventType, f.User, f.IP, f.BucketIdx)
}
