package clock

import (
	"sync"
	"time"
)

// Frozen is a manually advanced Clock used by tests and the card CLI dry run.
type Frozen struct {
	mu  sync.Mutex
	now time.Time
}

func NewFrozen(now time.Time) *Frozen {
	return &Frozen{now: now.Truncate(time.Second)}
}

func (f *Frozen) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Frozen) Location() *time.Location {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now.Location()
}

func (f *Frozen) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
