// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

package supervisor

import (
	"context"
	"time"

	"github.com/redline-soc/redline/internal/logging"
)

// Checkpointer is the subset of *store.DB the checkpoint service needs.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// CheckpointService periodically flushes DuckDB's WAL to the database file
// on a fixed interval, so a crash between checkpoints loses at most one
// interval's worth of writes.
type CheckpointService struct {
	db       Checkpointer
	interval time.Duration
}

// NewCheckpointService builds a checkpoint service that calls db.Checkpoint
// every interval.
func NewCheckpointService(db Checkpointer, interval time.Duration) *CheckpointService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CheckpointService{db: db, interval: interval}
}

// Serve implements suture.Service.
func (c *CheckpointService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.db.Checkpoint(ctx); err != nil {
				logging.Warn().Err(err).Msg("periodic checkpoint failed")
			}
		}
	}
}

// String implements fmt.Stringer; suture uses this to name the service in
// its event log.
func (c *CheckpointService) String() string {
	return "checkpoint"
}
