package source

import (
	"sync"
	"time"
)

const (
	DefaultRateCeiling = 100
	DefaultRateWindow  = time.Hour
)

// Window is a sliding-window rate limiter owned by exactly one adapter. It
// records a timestamp for every attempted call that passes the check and
// rejects a call when the trailing window already holds the ceiling.
type Window struct {
	mu      sync.Mutex
	ceiling int
	span    time.Duration
	stamps  []time.Time

	// now is swappable for tests.
	now func() time.Time
}

func NewWindow(ceiling int, span time.Duration) *Window {
	if ceiling <= 0 {
		ceiling = DefaultRateCeiling
	}
	if span <= 0 {
		span = DefaultRateWindow
	}
	return &Window{
		ceiling: ceiling,
		span:    span,
		now:     time.Now,
	}
}

// Allow reports whether another call may be attempted right now. A granted
// call is recorded; a rejected one is not, so it does not extend the window.
func (w *Window) Allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.prune(now)

	if len(w.stamps) >= w.ceiling {
		return false
	}

	w.stamps = append(w.stamps, now)
	return true
}

// Occupancy returns the number of recorded calls still inside the window and
// the configured ceiling.
func (w *Window) Occupancy() (used, ceiling int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(w.now())
	return len(w.stamps), w.ceiling
}

func (w *Window) prune(now time.Time) {
	cutoff := now.Add(-w.span)
	idx := 0
	for idx < len(w.stamps) && !w.stamps[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[idx:]...)
	}
}
