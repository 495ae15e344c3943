package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/ifthen/internal/domain"
	"github.com/pscheid92/ifthen/internal/voting"
)

type viewerEntry struct {
	ledger    *voting.Ledger
	expiresAt time.Time
}

// ViewerVoteStore keeps one voting.Ledger per viewer. A viewer's ledger is
// forgotten ttl after its last write.
type ViewerVoteStore struct {
	mu      sync.Mutex
	viewers map[string]*viewerEntry
	ttl     time.Duration
	clock   clockwork.Clock
}

var _ domain.ViewerVoteStore = (*ViewerVoteStore)(nil)

func NewViewerVoteStore(ttl time.Duration, clock clockwork.Clock) *ViewerVoteStore {
	return &ViewerVoteStore{
		viewers: make(map[string]*viewerEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

// live returns the viewer's entry, dropping it if expired. Caller holds mu.
func (s *ViewerVoteStore) live(viewerID string) (*viewerEntry, bool) {
	e, ok := s.viewers[viewerID]
	if !ok {
		return nil, false
	}
	if s.clock.Now().After(e.expiresAt) {
		delete(s.viewers, viewerID)
		return nil, false
	}
	return e, true
}

func (s *ViewerVoteStore) GetVoteState(_ context.Context, viewerID string, scenarioID uuid.UUID) (domain.VoteState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(viewerID)
	if !ok {
		return domain.NoVote, nil
	}
	return e.ledger.State(scenarioID), nil
}

func (s *ViewerVoteStore) SetVoteState(_ context.Context, viewerID string, scenarioID uuid.UUID, state domain.VoteState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store(viewerID, scenarioID, state)
	return nil
}

// TransitionVoteState runs fn under the store lock, so concurrent presses by
// one viewer are applied one after another.
func (s *ViewerVoteStore) TransitionVoteState(_ context.Context, viewerID string, scenarioID uuid.UUID, fn domain.VoteTransition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := domain.NoVote
	if e, ok := s.live(viewerID); ok {
		current = e.ledger.State(scenarioID)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	s.store(viewerID, scenarioID, next)
	return nil
}

// store writes one state and refreshes the viewer's TTL. Caller holds mu.
func (s *ViewerVoteStore) store(viewerID string, scenarioID uuid.UUID, state domain.VoteState) {
	e, ok := s.live(viewerID)
	if !ok {
		if state == domain.NoVote {
			return
		}
		e = &viewerEntry{ledger: voting.NewLedger()}
		s.viewers[viewerID] = e
	}

	e.ledger.Set(scenarioID, state)
	e.expiresAt = s.clock.Now().Add(s.ttl)

	if e.ledger.Len() == 0 {
		delete(s.viewers, viewerID)
	}
}

func (s *ViewerVoteStore) GetVoteStates(_ context.Context, viewerID string) (map[uuid.UUID]domain.VoteState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(viewerID)
	if !ok {
		return map[uuid.UUID]domain.VoteState{}, nil
	}
	return e.ledger.States(), nil
}

// EvictExpired removes every expired viewer and returns how many were removed.
func (s *ViewerVoteStore) EvictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	n := 0
	for id, e := range s.viewers {
		if now.After(e.expiresAt) {
			delete(s.viewers, id)
			n++
		}
	}
	return n
}

// StartEvictionTimer runs EvictExpired every interval until the returned stop
// function is called.
func (s *ViewerVoteStore) StartEvictionTimer(interval time.Duration) func() {
	ticker := s.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.Chan():
				s.EvictExpired()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
