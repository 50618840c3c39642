package sheet

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache wraps a Source with a TTL. Concurrent queries share at most one
// in-flight refresh, and while a refresh runs readers get the previous
// snapshot: stale but internally consistent, never half-updated.
type Cache struct {
	src Source
	ttl time.Duration

	group singleflight.Group

	mu      sync.RWMutex
	snap    *Snapshot
	fetched time.Time
}

// NewCache wraps src. A ttl of zero disables caching: every Fetch goes to
// the source, still deduplicated across concurrent callers.
func NewCache(src Source, ttl time.Duration) *Cache {
	return &Cache{src: src, ttl: ttl}
}

// Fetch returns the cached snapshot while fresh. On expiry the first caller
// refreshes; callers arriving during the refresh are served the stale
// snapshot immediately when one exists, otherwise they join the flight.
func (c *Cache) Fetch(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	snap, fetched := c.snap, c.fetched
	c.mu.RUnlock()

	if snap != nil && c.ttl > 0 && time.Since(fetched) < c.ttl {
		return snap, nil
	}

	if snap != nil && c.ttl > 0 {
		// Stale-while-revalidate: kick the refresh and serve what we have.
		ch := c.group.DoChan("fetch", func() (any, error) {
			return c.refresh(context.WithoutCancel(ctx))
		})
		select {
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			return res.Val.(*Snapshot), nil
		default:
			// The stale snapshot goes out now; a refresh failure would
			// otherwise vanish with the dropped channel, so drain it.
			go func() {
				if res := <-ch; res.Err != nil {
					zap.L().Warn("sheet: background refresh failed, serving stale snapshot",
						zap.Error(res.Err),
						zap.String("stale_snapshot", snap.ID),
					)
				}
			}()
			return snap, nil
		}
	}

	v, err, _ := c.group.Do("fetch", func() (any, error) {
		return c.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Invalidate drops the cached snapshot so the next Fetch re-reads the
// source. Called after a write-back so links are visible immediately.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}

func (c *Cache) refresh(ctx context.Context) (*Snapshot, error) {
	snap, err := c.src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.snap = snap
	c.fetched = time.Now()
	c.mu.Unlock()
	return snap, nil
}
