package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/ifthen/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultViewerVoteTTL matches the default session lifetime.
const DefaultViewerVoteTTL = 7 * 24 * time.Hour

// maxTransitionAttempts bounds the compare-and-set retries of one transition.
const maxTransitionAttempts = 8

// casVoteStateScript writes field ARGV[1] only if it still holds ARGV[2]
// ("" for absent). An empty ARGV[3] deletes the field. Returns 1 on success,
// 0 if the field changed since it was read.
// ARGV: [1]=field, [2]=expected, [3]=next, [4]=ttl_ms
var casVoteStateScript = goredis.NewScript(`
local current = redis.call('HGET', KEYS[1], ARGV[1]) or ''
if current ~= ARGV[2] then
  return 0
end
if ARGV[3] == '' then
  redis.call('HDEL', KEYS[1], ARGV[1])
else
  redis.call('HSET', KEYS[1], ARGV[1], ARGV[3])
  redis.call('PEXPIRE', KEYS[1], ARGV[4])
end
return 1
`)

// ViewerVoteStore keeps each viewer's vote states in one hash,
// viewer_votes:<viewerID>, field <scenarioID> = "up" | "down". Every write
// refreshes the hash TTL.
type ViewerVoteStore struct {
	rdb goredis.Cmdable
	ttl time.Duration
}

var _ domain.ViewerVoteStore = (*ViewerVoteStore)(nil)

func NewViewerVoteStore(rdb goredis.Cmdable, ttl time.Duration) *ViewerVoteStore {
	if ttl <= 0 {
		ttl = DefaultViewerVoteTTL
	}
	return &ViewerVoteStore{rdb: rdb, ttl: ttl}
}

func viewerVotesKey(viewerID string) string {
	return "viewer_votes:" + viewerID
}

func (s *ViewerVoteStore) GetVoteState(ctx context.Context, viewerID string, scenarioID uuid.UUID) (domain.VoteState, error) {
	raw, err := s.rdb.HGet(ctx, viewerVotesKey(viewerID), scenarioID.String()).Result()
	if errors.Is(err, goredis.Nil) {
		return domain.NoVote, nil
	}
	if err != nil {
		return domain.NoVote, fmt.Errorf("failed to read vote state: %w", err)
	}

	state, err := domain.ParseVoteState(raw)
	if err != nil {
		slog.WarnContext(ctx, "Discarding malformed vote state", "viewer_id", viewerID, "scenario_id", scenarioID, "value", raw)
		return domain.NoVote, nil
	}
	return state, nil
}

func (s *ViewerVoteStore) SetVoteState(ctx context.Context, viewerID string, scenarioID uuid.UUID, state domain.VoteState) error {
	key := viewerVotesKey(viewerID)

	if state == domain.NoVote {
		if err := s.rdb.HDel(ctx, key, scenarioID.String()).Err(); err != nil {
			return fmt.Errorf("failed to clear vote state: %w", err)
		}
		return nil
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, key, scenarioID.String(), state.String())
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store vote state: %w", err)
	}
	return nil
}

// TransitionVoteState reads the field, computes fn and writes the result with
// casVoteStateScript, retrying when another request wrote in between. A
// malformed stored value is treated as NoVote.
func (s *ViewerVoteStore) TransitionVoteState(ctx context.Context, viewerID string, scenarioID uuid.UUID, fn domain.VoteTransition) error {
	key := viewerVotesKey(viewerID)
	field := scenarioID.String()
	ttlMs := strconv.FormatInt(s.ttl.Milliseconds(), 10)

	for range maxTransitionAttempts {
		raw, err := s.rdb.HGet(ctx, key, field).Result()
		if errors.Is(err, goredis.Nil) {
			raw = ""
		} else if err != nil {
			return fmt.Errorf("failed to read vote state: %w", err)
		}

		current, err := domain.ParseVoteState(raw)
		if err != nil {
			current = domain.NoVote
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		nextRaw := ""
		if next != domain.NoVote {
			nextRaw = next.String()
		}

		ok, err := casVoteStateScript.Run(ctx, s.rdb, []string{key}, field, raw, nextRaw, ttlMs).Int()
		if err != nil {
			return fmt.Errorf("failed to store vote state: %w", err)
		}
		if ok == 1 {
			return nil
		}
		slog.DebugContext(ctx, "Vote state changed concurrently, retrying", "viewer_id", viewerID, "scenario_id", scenarioID)
	}
	return domain.ErrVoteStateContended
}

func (s *ViewerVoteStore) GetVoteStates(ctx context.Context, viewerID string) (map[uuid.UUID]domain.VoteState, error) {
	raw, err := s.rdb.HGetAll(ctx, viewerVotesKey(viewerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read vote states: %w", err)
	}

	states := make(map[uuid.UUID]domain.VoteState, len(raw))
	for field, value := range raw {
		id, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		state, err := domain.ParseVoteState(value)
		if err != nil || state == domain.NoVote {
			continue
		}
		states[id] = state
	}
	return states, nil
}
