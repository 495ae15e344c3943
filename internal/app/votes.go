package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pscheid92/ifthen/internal/domain"
	"github.com/pscheid92/ifthen/internal/voting"
)

// VoteResult is what a viewer sees after voting.
type VoteResult struct {
	Counts  domain.VoteCounts
	State   domain.VoteState
	Buttons voting.ButtonsView
}

// CastVote applies one button press by a viewer.
//
// Debouncer failures let the vote through. The persisted counters are
// returned, which may include concurrent votes by other viewers.
func (s *Service) CastVote(ctx context.Context, viewerID string, scenarioID uuid.UUID, dir domain.VoteDirection) (*VoteResult, error) {
	start := s.clock.Now()
	defer func() {
		s.voteMetrics.ProcessingDuration.Observe(s.clock.Since(start).Seconds())
	}()

	if !dir.Valid() {
		s.voteMetrics.VotesProcessed.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidVoteDirection
	}

	debounced, err := s.debouncer.IsDebounced(ctx, viewerID, scenarioID)
	if err != nil {
		slog.WarnContext(ctx, "Debounce check failed, allowing vote", "scenario_id", scenarioID, "error", err)
	} else if debounced {
		s.voteMetrics.VotesProcessed.WithLabelValues("debounced").Inc()
		return nil, domain.ErrVoteDebounced
	}

	scenario, err := s.scenarios.GetByID(ctx, scenarioID)
	if err != nil {
		s.voteMetrics.VotesProcessed.WithLabelValues("error").Inc()
		return nil, err
	}

	var (
		prev domain.VoteState
		out  voting.Outcome
	)
	err = s.votes.TransitionVoteState(ctx, viewerID, scenarioID, func(current domain.VoteState) (domain.VoteState, error) {
		o, err := voting.Apply(scenario.Counts(), current, dir)
		if err != nil {
			return current, err
		}
		prev, out = current, o
		return o.State, nil
	})
	if err != nil {
		s.voteMetrics.VotesProcessed.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to transition vote state: %w", err)
	}
	if out.Clamped {
		s.voteMetrics.UnderflowClamps.Inc()
	}

	counts := out.Counts
	if !out.Delta.IsZero() {
		counts, err = s.scenarios.AdjustVotes(ctx, scenarioID, out.Delta)
		if err != nil {
			s.restoreVoteState(ctx, viewerID, scenarioID, out.State, prev)
			s.voteMetrics.VotesProcessed.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("failed to adjust votes: %w", err)
		}
	}

	s.voteMetrics.VotesProcessed.WithLabelValues("applied").Inc()
	s.voteMetrics.Transitions.WithLabelValues(dir.String(), string(out.Transition)).Inc()
	slog.DebugContext(ctx, "Vote applied",
		"scenario_id", scenarioID,
		"direction", dir.String(),
		"transition", out.Transition,
		"upvotes", counts.Upvotes,
		"downvotes", counts.Downvotes)

	return &VoteResult{Counts: counts, State: out.State, Buttons: voting.Buttons(out.State)}, nil
}

// restoreVoteState undoes a transition whose counter update failed, unless a
// later vote by the same viewer already replaced it.
func (s *Service) restoreVoteState(ctx context.Context, viewerID string, scenarioID uuid.UUID, applied, prev domain.VoteState) {
	err := s.votes.TransitionVoteState(ctx, viewerID, scenarioID, func(current domain.VoteState) (domain.VoteState, error) {
		if current != applied {
			return current, nil
		}
		return prev, nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to roll back vote state", "scenario_id", scenarioID, "error", err)
	}
}

// ViewerVotes returns the viewer's vote states keyed by scenario. Store
// failures render every button inactive.
func (s *Service) ViewerVotes(ctx context.Context, viewerID string) map[uuid.UUID]domain.VoteState {
	states, err := s.votes.GetVoteStates(ctx, viewerID)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load viewer votes", "error", err)
		return map[uuid.UUID]domain.VoteState{}
	}
	return states
}
