package timing

import (
	"context"
	"sync"
	"time"
)

// pacer spaces requests at least delay apart.
type pacer struct {
	mu    sync.Mutex
	delay time.Duration
	last  time.Time
}

// Wait blocks until the next request may start or ctx is done.
func (p *pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.last.IsZero() {
		if wait := p.delay - time.Since(p.last); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	p.last = time.Now()
	return nil
}
