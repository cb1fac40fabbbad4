package svc

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"snipbin/metrics"
	"snipbin/svc/util"
)

var (
	sweeperOnce    sync.Once
	sweeperRunning atomic.Bool
)

// StartSweeper launches the background expiration pass on a fixed cadence
// of half the retention window. Only one sweeper runs per process.
func StartSweeper(ctx context.Context, store PasteStore, retention time.Duration) error {
	if retention <= 0 {
		return errors.New("retention must be positive")
	}
	if sweeperRunning.Load() {
		return errors.New("sweeper already running")
	}
	sweeperOnce.Do(func() {
		sweeperRunning.Store(true)
		go runSweeper(ctx, store, retention)
	})
	return nil
}

func runSweeper(ctx context.Context, store PasteStore, retention time.Duration) {
	defer sweeperRunning.Store(false)
	sweepID := util.NewRequestID()
	ctx = util.SetRequestID(ctx, sweepID)
	interval := retention / 2
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	util.Info().
		Str("request_id", sweepID).
		Dur("interval", interval).
		Dur("retention", retention).
		Msg("expiration sweeper started")
	for {
		select {
		case <-ctx.Done():
			util.Info().
				Str("request_id", sweepID).
				Msg("expiration sweeper shutting down")
			return
		case <-ticker.C:
			SweepOnce(ctx, store, retention)
		}
	}
}

// SweepOnce runs a single deletion pass: everything created strictly
// before now-retention goes. Errors are logged and swallowed so a failed
// pass never takes the ticker down with it.
func SweepOnce(ctx context.Context, store PasteStore, retention time.Duration) int64 {
	threshold := time.Now().UTC().Add(-retention)
	deleted, err := store.DeleteOlderThan(ctx, threshold)
	metrics.SweepCycles.Inc()
	if err != nil {
		util.Error().
			Err(err).
			Str("request_id", util.GetRequestID(ctx)).
			Msg("sweep pass failed")
		return 0
	}
	metrics.SweepDeleted.Add(float64(deleted))
	if deleted > 0 {
		util.Info().
			Int64("deleted", deleted).
			Str("request_id", util.GetRequestID(ctx)).
			Msg("sweep pass completed")
	}
	return deleted
}
