package work

import (
	"context"
	"sync"
	"time"
)

// ThrottleOptions bounds a ThrottledMap run.
type ThrottleOptions struct {
	// MaxConcurrency is the number of operations allowed in flight.
	MaxConcurrency int
	// Delay is waited after a completion before its slot launches the next key.
	Delay time.Duration
}

var (
	// DefaultThrottle is used for interactive quote fetches.
	DefaultThrottle = ThrottleOptions{MaxConcurrency: 5, Delay: 100 * time.Millisecond}
	// BackfillThrottle keeps background backfill well under upstream rate limits.
	BackfillThrottle = ThrottleOptions{MaxConcurrency: 1, Delay: 2 * time.Second}
)

// ThrottledMap runs fn for every key with at most opts.MaxConcurrency calls in
// flight. The first MaxConcurrency keys launch immediately; every later launch
// waits for a completion and then opts.Delay. Keys for which fn reports no
// value are left out of the result. Once ctx is done no further keys launch;
// calls already running are waited for.
func ThrottledMap[K comparable, V any](ctx context.Context, keys []K, opts ThrottleOptions, fn func(context.Context, K) (V, bool)) map[K]V {
	limit := opts.MaxConcurrency
	if limit < 1 {
		limit = 1
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[K]V, len(keys))
		done    = make(chan struct{}, len(keys))
	)

launch:
	for i, key := range keys {
		if ctx.Err() != nil {
			break
		}
		if i >= limit {
			select {
			case <-done:
			case <-ctx.Done():
				break launch
			}
			if !Sleep(ctx, opts.Delay) {
				break
			}
		}

		wg.Add(1)
		go func(key K) {
			defer wg.Done()
			defer func() { done <- struct{}{} }()

			v, ok := fn(ctx, key)
			if !ok {
				return
			}
			mu.Lock()
			results[key] = v
			mu.Unlock()
		}(key)
	}

	wg.Wait()
	return results
}

// Sleep waits for d or until ctx is done, reporting whether the full delay
// elapsed.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
