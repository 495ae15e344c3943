package voting

import (
	"log/slog"
	"maps"

	"github.com/google/uuid"
	"github.com/pscheid92/ifthen/internal/domain"
)

// Transition names the kind of state change a vote caused.
type Transition string

const (
	TransitionFirstVote Transition = "first_vote"
	TransitionSwitch    Transition = "switch"
	TransitionToggleOff Transition = "toggle_off"
)

// Outcome is the result of applying one vote.
type Outcome struct {
	Counts     domain.VoteCounts
	State      domain.VoteState
	Delta      domain.VoteDelta
	Transition Transition
	// Clamped is set when a decrement would have taken a counter below zero.
	Clamped bool
}

// Apply computes the effect of pressing dir while in state.
//
// Pressing the active direction again removes the vote, pressing the other
// direction moves the vote, and the first press adds one. Returned counts are
// never negative: a decrement below zero is clamped and logged.
func Apply(counts domain.VoteCounts, state domain.VoteState, dir domain.VoteDirection) (Outcome, error) {
	if !dir.Valid() {
		return Outcome{}, domain.ErrInvalidVoteDirection
	}

	var out Outcome
	switch state {
	case domain.StateFor(dir):
		out.Delta = deltaFor(dir, -1)
		out.State = domain.NoVote
		out.Transition = TransitionToggleOff
	case domain.StateFor(dir.Opposite()):
		out.Delta = addDelta(deltaFor(dir.Opposite(), -1), deltaFor(dir, 1))
		out.State = domain.StateFor(dir)
		out.Transition = TransitionSwitch
	default:
		out.Delta = deltaFor(dir, 1)
		out.State = domain.StateFor(dir)
		out.Transition = TransitionFirstVote
	}

	out.Counts, out.Delta, out.Clamped = applyDelta(counts, out.Delta)
	return out, nil
}

func deltaFor(dir domain.VoteDirection, n int) domain.VoteDelta {
	if dir == domain.VoteUp {
		return domain.VoteDelta{Up: n}
	}
	return domain.VoteDelta{Down: n}
}

func addDelta(a, b domain.VoteDelta) domain.VoteDelta {
	return domain.VoteDelta{Up: a.Up + b.Up, Down: a.Down + b.Down}
}

// applyDelta returns the new counts and the delta that was effectively applied.
func applyDelta(c domain.VoteCounts, d domain.VoteDelta) (domain.VoteCounts, domain.VoteDelta, bool) {
	clamped := false
	up := c.Upvotes + d.Up
	if up < 0 {
		slog.Warn("Upvote counter underflow, clamping to zero", "upvotes", c.Upvotes, "delta", d.Up)
		d.Up = -c.Upvotes
		up = 0
		clamped = true
	}
	down := c.Downvotes + d.Down
	if down < 0 {
		slog.Warn("Downvote counter underflow, clamping to zero", "downvotes", c.Downvotes, "delta", d.Down)
		d.Down = -c.Downvotes
		down = 0
		clamped = true
	}
	return domain.VoteCounts{Upvotes: up, Downvotes: down}, d, clamped
}

// Ledger tracks one viewer's vote state per scenario. It is not safe for
// concurrent use.
type Ledger struct {
	states map[uuid.UUID]domain.VoteState
}

func NewLedger() *Ledger {
	return &Ledger{states: make(map[uuid.UUID]domain.VoteState)}
}

// State returns the viewer's state for a scenario (NoVote when absent).
func (l *Ledger) State(scenarioID uuid.UUID) domain.VoteState {
	return l.states[scenarioID]
}

// Set records a state. NoVote removes the entry.
func (l *Ledger) Set(scenarioID uuid.UUID, state domain.VoteState) {
	if state == domain.NoVote {
		delete(l.states, scenarioID)
		return
	}
	l.states[scenarioID] = state
}

// States returns a copy of all non-NoVote states.
func (l *Ledger) States() map[uuid.UUID]domain.VoteState {
	return maps.Clone(l.states)
}

func (l *Ledger) Len() int {
	return len(l.states)
}

// Apply votes on the scenario, updating both its counters and the ledger.
// On error neither is modified.
//
// Apply is the in-memory entry point for callers that own both the scenario
// and the ledger. The service persists counters and viewer state separately,
// so it runs the package-level Apply inside a store transition instead.
func (l *Ledger) Apply(s *domain.Scenario, dir domain.VoteDirection) (Outcome, error) {
	out, err := Apply(s.Counts(), l.State(s.ID), dir)
	if err != nil {
		return Outcome{}, err
	}
	s.SetCounts(out.Counts)
	l.Set(s.ID, out.State)
	return out, nil
}
