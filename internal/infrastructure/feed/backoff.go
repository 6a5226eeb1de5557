package feed

import (
	"context"
	"time"
)

// Backoff 指数退避：floor 起步，每次翻倍，不超过 ceiling
type Backoff struct {
	Min time.Duration
	Max time.Duration
	cur time.Duration
}

func NewBackoff(min, max time.Duration) *Backoff {
	if min <= 0 {
		min = time.Second
	}
	if max < min {
		max = min
	}
	return &Backoff{Min: min, Max: max, cur: min}
}

// Next returns the current delay and advances it.
func (b *Backoff) Next() time.Duration {
	d := b.cur
	b.cur = minDur(b.cur*2, b.Max)
	return d
}

func (b *Backoff) Reset() { b.cur = b.Min }

// sleep waits d or until ctx is done; false means ctx ended.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
