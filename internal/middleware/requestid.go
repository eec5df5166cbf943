// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/redline-soc/redline/internal/logging"
)

// requestIDHeader is the header collectors and the analyst UI use to carry
// a request id end to end.
const requestIDHeader = "X-Request-ID"

// RequestID tags every request with an id and makes it available to the
// request-scoped logger, so one ingest batch's redaction, clustering, and
// promotion log lines can be correlated after the fact. An id supplied by
// the caller is preserved (a forwarding collector retrying a batch keeps
// its original id); otherwise a fresh UUID is minted.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)

		ctx := logging.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
