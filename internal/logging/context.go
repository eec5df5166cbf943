// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ctxKey is unexported so no other package can collide with the request-id
// slot; the only writer is the RequestID middleware.
type ctxKey int

const requestIDKey ctxKey = iota

// WithRequestID stores the request id on ctx. Called once per request by
// the RequestID middleware; everything downstream reads it through Ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom returns the request id stored on ctx, or "" outside a
// request (startup, the checkpoint service, tests).
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Ctx returns the process logger enriched with the request id when one is
// present. Handlers log through this so every line emitted while serving a
// request carries the id the client saw in X-Request-ID:
//
//	logging.Ctx(r.Context()).Info().Int("events", n).Msg("ingest batch committed")
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := Logger()
	if id := RequestIDFrom(ctx); id != "" {
		logger = logger.With().Str("request_id", id).Logger()
	}
	return &logger
}

// CtxInfo starts an info event on the request-scoped logger.
func CtxInfo(ctx context.Context) *zerolog.Event {
	return Ctx(ctx).Info()
}

// CtxWarn starts a warn event on the request-scoped logger.
func CtxWarn(ctx context.Context) *zerolog.Event {
	return Ctx(ctx).Warn()
}

// CtxErr starts an error event on the request-scoped logger with err
// attached.
func CtxErr(ctx context.Context, err error) *zerolog.Event {
	return Ctx(ctx).Err(err)
}
