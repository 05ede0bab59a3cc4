package app

import (
	"context"
	"time"
)

// Fetcher raises a collection fetch. *effects.Orchestrator satisfies it.
type Fetcher interface {
	Fetch()
}

// StartPoller launches a background goroutine that asks f for a fresh post
// list at a fixed cadence until ctx is done. A non-positive interval disables
// polling. It returns immediately.
func StartPoller(ctx context.Context, f Fetcher, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				f.Fetch()
			}
		}
	}()
}
