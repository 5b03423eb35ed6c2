package utils

import (
	"context"
	"time"
)

// StartMemorySweeper launches a background goroutine that periodically drops
// expired entries from the in-memory fallbacks used when Redis is absent.
// It stops when ctx is cancelled.
func StartMemorySweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := sweepExpired(now); n > 0 {
					Sugar.Debugw("memory sweeper removed expired entries", "count", n)
				}
			}
		}
	}()
}

// sweepExpired removes every entry that expired before now and returns how many were dropped.
func sweepExpired(now time.Time) int {
	removed := 0

	blacklistMu.Lock()
	for k, e := range blacklist {
		if now.After(e.expiresAt) {
			delete(blacklist, k)
			removed++
		}
	}
	blacklistMu.Unlock()

	stateStoreMu.Lock()
	for k, e := range stateStore {
		if now.After(e.expiresAt) {
			delete(stateStore, k)
			removed++
		}
	}
	stateStoreMu.Unlock()

	signupMemMu.Lock()
	for k, c := range signupMem {
		if now.After(c.expiresAt) {
			delete(signupMem, k)
			removed++
		}
	}
	signupMemMu.Unlock()

	return removed
}
