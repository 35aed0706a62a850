package app

import (
	"context"
	"log"
	"time"

	"github.com/five82/qaboard/internal/state"
)

// maxBackoff caps the refresh delay while the API keeps failing.
const maxBackoff = 30 * time.Second

// refreshTarget is the slice of the cache the refresher drives.
type refreshTarget interface {
	Invalidate()
	Snapshot() state.Snapshot
}

// StartRefresher invalidates the cache every interval until ctx is done. A
// non-positive interval disables it. Consecutive fetch failures stretch the
// wait exponentially up to maxBackoff. It returns immediately.
func StartRefresher(ctx context.Context, cache refreshTarget, interval time.Duration) {
	if interval <= 0 || cache == nil {
		return
	}
	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		loggedFailures := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			snap := cache.Snapshot()
			if snap.ConsecutiveFailures > loggedFailures && snap.LastError != nil {
				log.Printf("question refresh failed (%d in a row): %v", snap.ConsecutiveFailures, snap.LastError)
			}
			loggedFailures = snap.ConsecutiveFailures

			cache.Invalidate()
			timer.Reset(calculateBackoff(snap.ConsecutiveFailures, interval))
		}
	}()
}

// calculateBackoff doubles base once per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
