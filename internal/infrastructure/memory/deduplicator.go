package memory

import (
	"context"
	"sync"
	"time"
)

// minSweepSize is the claim count below which expired claims are left in place.
const minSweepSize = 1024

// Deduplicator remembers claimed event ids for a TTL.
type Deduplicator struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	claims  map[string]time.Time
	sweepAt int
}

func NewDeduplicator(ttl time.Duration) *Deduplicator {
	return &Deduplicator{ttl: ttl, now: time.Now, claims: make(map[string]time.Time), sweepAt: minSweepSize}
}

// WithClock replaces the time source.
func (d *Deduplicator) WithClock(now func() time.Time) *Deduplicator {
	d.now = now
	return d
}

// Claim returns true the first time an id is seen within the TTL.
func (d *Deduplicator) Claim(ctx context.Context, eventID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if exp, ok := d.claims[eventID]; ok && now.Before(exp) {
		return false, nil
	}
	d.claims[eventID] = now.Add(d.ttl)
	if len(d.claims) >= d.sweepAt {
		d.sweep(now)
	}
	return true, nil
}

// sweep drops expired claims and sets the next threshold to twice what survived, so the cost is
// amortised over the claims added in between.
func (d *Deduplicator) sweep(now time.Time) {
	for id, exp := range d.claims {
		if !now.Before(exp) {
			delete(d.claims, id)
		}
	}
	d.sweepAt = max(2*len(d.claims), minSweepSize)
}

func (d *Deduplicator) Release(_ context.Context, eventID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.claims, eventID)
	return nil
}

// Len reports the number of claims held, expired ones included until the next sweep.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.claims)
}
