package store

import (
	"sync"
	"time"
)

// CooldownTracker remembers when each applicant last submitted an
// application. Entries are never deleted; they simply fall outside the
// window.
type CooldownTracker struct {
	mu     sync.Mutex
	window time.Duration
	last   map[int64]time.Time
	now    func() time.Time
}

func NewCooldownTracker(window time.Duration) *CooldownTracker {
	return &CooldownTracker{
		window: window,
		last:   make(map[int64]time.Time),
		now:    time.Now,
	}
}

// Record overwrites the applicant's last-submission timestamp with now.
func (c *CooldownTracker) Record(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.last[userID] = c.now()
}

// InCooldown reports whether the applicant submitted within the window.
// An applicant with no entry is never in cooldown.
func (c *CooldownTracker) InCooldown(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now().Sub(c.last[userID]) < c.window
}

// Remaining returns how long until the applicant may submit again, floored
// at zero.
func (c *CooldownTracker) Remaining(userID int64) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	remaining := c.window - c.now().Sub(c.last[userID])
	if remaining < 0 {
		return 0
	}

	return remaining
}
