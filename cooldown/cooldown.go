// Package cooldown keeps the minimum spacing between accepted submissions of
// a single user.
package cooldown

import (
	"sync"
	"time"
)

type Option func(*Tracker)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// Tracker maps user ids to the time of their last accepted submission. A
// missing entry means the user has no active cooldown. Entries are never
// removed.
type Tracker struct {
	window time.Duration
	now    func() time.Time
	mu     sync.Mutex
	last   map[string]time.Time
}

// New returns a tracker for window. A window of zero or less disables it.
func New(window time.Duration, opts ...Option) *Tracker {
	if window < 0 {
		window = 0
	}
	t := &Tracker{
		window: window,
		now:    time.Now,
		last:   map[string]time.Time{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) Enabled() bool {
	return t.window > 0
}

func (t *Tracker) Window() time.Duration {
	return t.window
}

// Remaining is how long user still has to wait, zero when there is no
// active cooldown.
func (t *Tracker) Remaining(user string) time.Duration {
	if !t.Enabled() {
		return 0
	}

	now := t.now()
	t.mu.Lock()
	last, ok := t.last[user]
	t.mu.Unlock()
	if !ok {
		return 0
	}

	remaining := t.window - now.Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Mark starts a new cooldown window for user.
func (t *Tracker) Mark(user string) {
	if !t.Enabled() {
		return
	}

	now := t.now()
	t.mu.Lock()
	t.last[user] = now
	t.mu.Unlock()
}
