package channel

import (
	"sync"
	"time"
)

// Dedup guards against at-least-once delivery from source platforms using a
// TTL cache of seen event ids. Entries expire after the TTL; a background
// sweep reclaims them.
type Dedup struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	stop chan struct{}
	once sync.Once
}

func NewDedup(ttl time.Duration) *Dedup {
	d := &Dedup{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		stop: make(chan struct{}),
	}
	go d.sweepLoop()
	return d
}

// Seen reports whether this event id was observed within the TTL. A fresh
// id is recorded and reported as unseen.
func (d *Dedup) Seen(eventID string) bool {
	if eventID == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if at, ok := d.seen[eventID]; ok {
		if time.Since(at) < d.ttl {
			return true
		}
		// expired entry, treat as new
	}
	d.seen[eventID] = time.Now()
	return false
}

// Close stops the background sweep.
func (d *Dedup) Close() {
	d.once.Do(func() { close(d.stop) })
}

func (d *Dedup) sweepLoop() {
	ticker := time.NewTicker(d.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.mu.Lock()
			cutoff := time.Now().Add(-d.ttl)
			for id, at := range d.seen {
				if at.Before(cutoff) {
					delete(d.seen, id)
				}
			}
			d.mu.Unlock()
		}
	}
}
