package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VoteDirection is the button a viewer pressed.
type VoteDirection int

const (
	VoteUp VoteDirection = iota + 1
	VoteDown
)

// ParseVoteDirection accepts "up" or "down" (case-insensitive).
func ParseVoteDirection(s string) (VoteDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return VoteUp, nil
	case "down":
		return VoteDown, nil
	default:
		return 0, ErrInvalidVoteDirection
	}
}

func (d VoteDirection) Valid() bool {
	return d == VoteUp || d == VoteDown
}

// Opposite returns the other direction. Invalid directions map to themselves.
func (d VoteDirection) Opposite() VoteDirection {
	switch d {
	case VoteUp:
		return VoteDown
	case VoteDown:
		return VoteUp
	default:
		return d
	}
}

func (d VoteDirection) String() string {
	switch d {
	case VoteUp:
		return "up"
	case VoteDown:
		return "down"
	default:
		return "invalid"
	}
}

// VoteState is a viewer's current vote on one scenario.
type VoteState int

const (
	NoVote VoteState = iota
	VotedUp
	VotedDown
)

// StateFor returns the state a viewer is in after voting in direction d.
func StateFor(d VoteDirection) VoteState {
	switch d {
	case VoteUp:
		return VotedUp
	case VoteDown:
		return VotedDown
	default:
		return NoVote
	}
}

func (s VoteState) String() string {
	switch s {
	case VotedUp:
		return "up"
	case VotedDown:
		return "down"
	default:
		return "none"
	}
}

// ParseVoteState is the inverse of VoteState.String.
func ParseVoteState(s string) (VoteState, error) {
	switch s {
	case "", "none":
		return NoVote, nil
	case "up":
		return VotedUp, nil
	case "down":
		return VotedDown, nil
	default:
		return NoVote, ErrInvalidVoteState
	}
}

type VoteCounts struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// VoteDelta is a relative change to a scenario's counters.
type VoteDelta struct {
	Up   int
	Down int
}

func (d VoteDelta) IsZero() bool {
	return d.Up == 0 && d.Down == 0
}

// VoteTransition maps a viewer's current state to the next one. It must not
// have side effects beyond its captured result: stores may call it more than
// once when a concurrent write wins.
type VoteTransition func(current VoteState) (VoteState, error)

// ViewerVoteStore holds the ephemeral per-viewer vote states.
// Storing NoVote removes the entry.
type ViewerVoteStore interface {
	GetVoteState(ctx context.Context, viewerID string, scenarioID uuid.UUID) (VoteState, error)
	SetVoteState(ctx context.Context, viewerID string, scenarioID uuid.UUID, state VoteState) error
	GetVoteStates(ctx context.Context, viewerID string) (map[uuid.UUID]VoteState, error)

	// TransitionVoteState atomically replaces the state with fn(current).
	// No other write to the same viewer and scenario interleaves between the
	// read and the write. If fn fails nothing is stored.
	TransitionVoteState(ctx context.Context, viewerID string, scenarioID uuid.UUID, fn VoteTransition) error
}

// VoteDebouncer rejects repeated clicks by one viewer on one scenario.
type VoteDebouncer interface {
	// IsDebounced returns true if the viewer must wait, false if the vote may
	// proceed (and starts a new debounce window).
	IsDebounced(ctx context.Context, viewerID string, scenarioID uuid.UUID) (bool, error)
}

// DefaultVoteDebounce is the window used when none is configured.
const DefaultVoteDebounce = 300 * time.Millisecond
