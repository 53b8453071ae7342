// Package dedup suppresses repeated announcements of the same issue key
// within a sliding time window.
package dedup

import (
	"sync"
	"time"
)

// Window tracks the last announcement time per issue key. Entries older
// than maxAge are swept lazily on every check; there is no background
// goroutine and nothing is persisted, the window resets on restart.
type Window struct {
	mu       sync.Mutex
	maxAge   time.Duration
	lastSeen map[string]time.Time
	now      func() time.Time
}

// NewWindow creates a window that suppresses repeat mentions for maxAge.
func NewWindow(maxAge time.Duration) *Window {
	return &Window{
		maxAge:   maxAge,
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

// NewWindowWithClock creates a window with an injected clock for tests.
func NewWindowWithClock(maxAge time.Duration, now func() time.Time) *Window {
	w := NewWindow(maxAge)
	w.now = now
	return w
}

// ShouldAnnounce reports whether key may be announced now. The first
// mention of a key starts the clock and returns true; mentions within the
// window return false without refreshing the timestamp, so a key becomes
// announceable again exactly one window after its first announcement.
func (w *Window) ShouldAnnounce(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()

	// Lazy expiry: a key that just aged out is immediately eligible again.
	for k, seen := range w.lastSeen {
		if now.Sub(seen) > w.maxAge {
			delete(w.lastSeen, k)
		}
	}

	if _, tracked := w.lastSeen[key]; tracked {
		return false
	}

	w.lastSeen[key] = now
	return true
}

// Len returns the number of currently tracked keys, including entries that
// have aged out but not yet been swept.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.lastSeen)
}
