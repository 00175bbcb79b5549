package agent

import (
	"context"
	"time"

	"github.com/mindloop/cortex/feed"
	"github.com/mindloop/cortex/recall"
)

// Maintain runs the maintenance loop until ctx is cancelled: every
// poll interval it checks whether more than UpdateEvery has elapsed
// since the last daily update and, if so, performs exactly one memory
// table update. Cancellation is observed once per poll interval, never
// mid-operation.
func (a *Agent) Maintain(ctx context.Context) error {
	a.mu.Lock()
	a.lastUpdate = a.clock.Now()
	a.mu.Unlock()
	a.log.Infof("[AGENT] maintenance loop started (poll %s, update every %s)",
		a.cfg.PollInterval, a.cfg.UpdateEvery)

	ticker := time.NewTicker(a.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Infof("[AGENT] maintenance loop stopped: %v", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

// tick runs one check. It reports whether a daily update was
// performed, and advances lastUpdate to the check time when one was.
func (a *Agent) tick(ctx context.Context) bool {
	now := a.clock.Now()
	a.mu.Lock()
	if now.Sub(a.lastUpdate) <= a.cfg.UpdateEvery {
		a.mu.Unlock()
		return false
	}
	a.lastUpdate = now
	a.mu.Unlock()

	a.log.Infof("[AGENT] performing daily memory update...")
	stamp := now.Format(time.RFC3339)
	a.table.Update(KeyLastUpdate, stamp)

	a.publish(feed.LevelInfo, "maintain", "daily memory update at "+stamp)
	a.record(ctx, recall.KindMaintain, "daily memory update at "+stamp, true)
	return true
}
