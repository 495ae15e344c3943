package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/ifthen/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewerVoteStore_RoundTrip(t *testing.T) {
	client := setupTestClient(t)
	store := NewViewerVoteStore(client, time.Hour)
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()

	state, err := store.GetVoteState(ctx, "viewer", a)
	require.NoError(t, err)
	assert.Equal(t, domain.NoVote, state)

	require.NoError(t, store.SetVoteState(ctx, "viewer", a, domain.VotedUp))
	require.NoError(t, store.SetVoteState(ctx, "viewer", b, domain.VotedDown))

	state, err = store.GetVoteState(ctx, "viewer", a)
	require.NoError(t, err)
	assert.Equal(t, domain.VotedUp, state)

	states, err := store.GetVoteStates(ctx, "viewer")
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]domain.VoteState{a: domain.VotedUp, b: domain.VotedDown}, states)

	ttl, err := client.TTL(ctx, viewerVotesKey("viewer")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestViewerVoteStore_NoVoteRemovesEntry(t *testing.T) {
	client := setupTestClient(t)
	store := NewViewerVoteStore(client, time.Hour)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.SetVoteState(ctx, "viewer", id, domain.VotedUp))
	require.NoError(t, store.SetVoteState(ctx, "viewer", id, domain.NoVote))

	exists, err := client.HExists(ctx, viewerVotesKey("viewer"), id.String()).Result()
	require.NoError(t, err)
	assert.False(t, exists)

	states, err := store.GetVoteStates(ctx, "viewer")
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestViewerVoteStore_ViewersAreIsolated(t *testing.T) {
	client := setupTestClient(t)
	store := NewViewerVoteStore(client, time.Hour)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.SetVoteState(ctx, "alice", id, domain.VotedUp))

	state, err := store.GetVoteState(ctx, "bob", id)
	require.NoError(t, err)
	assert.Equal(t, domain.NoVote, state)
}

func TestViewerVoteStore_SkipsMalformedEntries(t *testing.T) {
	client := setupTestClient(t)
	store := NewViewerVoteStore(client, time.Hour)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, client.HSet(ctx, viewerVotesKey("viewer"), id.String(), "sideways", "not-a-uuid", "up").Err())

	state, err := store.GetVoteState(ctx, "viewer", id)
	require.NoError(t, err)
	assert.Equal(t, domain.NoVote, state)

	states, err := store.GetVoteStates(ctx, "viewer")
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestViewerVoteStore_TransitionReplacesMalformedEntry(t *testing.T) {
	client := setupTestClient(t)
	store := NewViewerVoteStore(client, time.Hour)
	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, client.HSet(ctx, viewerVotesKey("viewer"), id.String(), "sideways").Err())

	err := store.TransitionVoteState(ctx, "viewer", id, func(current domain.VoteState) (domain.VoteState, error) {
		assert.Equal(t, domain.NoVote, current)
		return domain.VotedUp, nil
	})
	require.NoError(t, err)

	state, err := store.GetVoteState(ctx, "viewer", id)
	require.NoError(t, err)
	assert.Equal(t, domain.VotedUp, state)
}

func TestViewerVoteStore_TransitionToNoVoteDeletesField(t *testing.T) {
	client := setupTestClient(t)
	store := NewViewerVoteStore(client, time.Hour)
	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, store.SetVoteState(ctx, "viewer", id, domain.VotedDown))

	err := store.TransitionVoteState(ctx, "viewer", id, func(domain.VoteState) (domain.VoteState, error) {
		return domain.NoVote, nil
	})
	require.NoError(t, err)

	exists, err := client.HExists(ctx, viewerVotesKey("viewer"), id.String()).Result()
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestViewerVoteStore_ConcurrentTransitionsSerialize(t *testing.T) {
	client := setupTestClient(t)
	store := NewViewerVoteStore(client, time.Hour)
	ctx := context.Background()
	id := uuid.New()

	// Few enough writers that none exhausts its retries.
	const presses = 5
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied []domain.VoteState
	)
	for range presses {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var next domain.VoteState
			err := store.TransitionVoteState(ctx, "viewer", id, func(current domain.VoteState) (domain.VoteState, error) {
				next = domain.VotedUp
				if current == domain.VotedUp {
					next = domain.NoVote
				}
				return next, nil
			})
			if assert.NoError(t, err) {
				mu.Lock()
				applied = append(applied, next)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	ups := 0
	for _, s := range applied {
		if s == domain.VotedUp {
			ups++
		} else {
			ups--
		}
	}

	state, err := store.GetVoteState(ctx, "viewer", id)
	require.NoError(t, err)
	assert.Equal(t, domain.VotedUp, state)
	assert.Equal(t, 1, ups, "every committed toggle saw the previous one")
}
