package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/ifthen/internal/domain"
)

const pruneEvery = 256

type debounceKey struct {
	viewerID   string
	scenarioID uuid.UUID
}

// Debouncer is the in-process counterpart of the Redis SET NX debouncer.
type Debouncer struct {
	mu       sync.Mutex
	until    map[debounceKey]time.Time
	interval time.Duration
	clock    clockwork.Clock
	inserts  int
}

var _ domain.VoteDebouncer = (*Debouncer)(nil)

func NewDebouncer(interval time.Duration, clock clockwork.Clock) *Debouncer {
	if interval <= 0 {
		interval = domain.DefaultVoteDebounce
	}
	return &Debouncer{
		until:    make(map[debounceKey]time.Time),
		interval: interval,
		clock:    clock,
	}
}

func (d *Debouncer) IsDebounced(_ context.Context, viewerID string, scenarioID uuid.UUID) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	key := debounceKey{viewerID: viewerID, scenarioID: scenarioID}
	if until, ok := d.until[key]; ok && now.Before(until) {
		return true, nil
	}

	d.until[key] = now.Add(d.interval)
	d.inserts++
	if d.inserts%pruneEvery == 0 {
		d.prune(now)
	}
	return false, nil
}

func (d *Debouncer) prune(now time.Time) {
	for k, until := range d.until {
		if !now.Before(until) {
			delete(d.until, k)
		}
	}
}
