package gateway

import (
	"context"
	"sync"
	"time"
)

// SlidingWindow throttles outbound provider calls to max admissions per
// trailing window. Admit blocks the caller until a slot frees up; the
// capacity check and the timestamp recording happen under one lock so
// two concurrent callers can never claim the same slot.
type SlidingWindow struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	stamps []time.Time
	now    func() time.Time
}

func NewSlidingWindow(max int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{window: window, max: max, now: time.Now}
}

// Admit suspends the caller until fewer than max admissions remain in the
// trailing window, then records the admission and returns. Returns the
// context error if the caller gives up first.
func (l *SlidingWindow) Admit(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)
		if len(l.stamps) < l.max {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}
		wait := l.window - now.Sub(l.stamps[0])
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// InWindow returns the number of admissions currently inside the window.
func (l *SlidingWindow) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.stamps)
}

func (l *SlidingWindow) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}
