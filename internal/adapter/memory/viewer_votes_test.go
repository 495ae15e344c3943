package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/ifthen/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewerVoteStore_SetAndGet(t *testing.T) {
	store := NewViewerVoteStore(time.Hour, clockwork.NewFakeClock())
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	require.NoError(t, store.SetVoteState(ctx, "viewer", a, domain.VotedUp))
	require.NoError(t, store.SetVoteState(ctx, "viewer", b, domain.VotedDown))

	state, err := store.GetVoteState(ctx, "viewer", a)
	require.NoError(t, err)
	assert.Equal(t, domain.VotedUp, state)

	states, err := store.GetVoteStates(ctx, "viewer")
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]domain.VoteState{a: domain.VotedUp, b: domain.VotedDown}, states)
}

func TestViewerVoteStore_UnknownViewer(t *testing.T) {
	store := NewViewerVoteStore(time.Hour, clockwork.NewFakeClock())

	state, err := store.GetVoteState(context.Background(), "nobody", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, domain.NoVote, state)

	states, err := store.GetVoteStates(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, states)
	assert.Empty(t, states)
}

func TestViewerVoteStore_NoVoteRemovesViewer(t *testing.T) {
	store := NewViewerVoteStore(time.Hour, clockwork.NewFakeClock())
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.SetVoteState(ctx, "viewer", id, domain.VotedUp))
	require.NoError(t, store.SetVoteState(ctx, "viewer", id, domain.NoVote))

	assert.Empty(t, store.viewers)
}

func TestViewerVoteStore_Transition(t *testing.T) {
	store := NewViewerVoteStore(time.Hour, clockwork.NewFakeClock())
	ctx := context.Background()
	id := uuid.New()

	var seen domain.VoteState = -1
	err := store.TransitionVoteState(ctx, "viewer", id, func(current domain.VoteState) (domain.VoteState, error) {
		seen = current
		return domain.VotedDown, nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.NoVote, seen)

	state, err := store.GetVoteState(ctx, "viewer", id)
	require.NoError(t, err)
	assert.Equal(t, domain.VotedDown, state)
}

func TestViewerVoteStore_TransitionErrorStoresNothing(t *testing.T) {
	store := NewViewerVoteStore(time.Hour, clockwork.NewFakeClock())
	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, store.SetVoteState(ctx, "viewer", id, domain.VotedUp))

	boom := errors.New("boom")
	err := store.TransitionVoteState(ctx, "viewer", id, func(domain.VoteState) (domain.VoteState, error) {
		return domain.NoVote, boom
	})
	assert.ErrorIs(t, err, boom)

	state, err := store.GetVoteState(ctx, "viewer", id)
	require.NoError(t, err)
	assert.Equal(t, domain.VotedUp, state)
}

func TestViewerVoteStore_ConcurrentTransitionsSerialize(t *testing.T) {
	store := NewViewerVoteStore(time.Hour, clockwork.NewFakeClock())
	ctx := context.Background()
	id := uuid.New()

	const presses = 51
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ups int
	)
	toggle := func(current domain.VoteState) (domain.VoteState, error) {
		mu.Lock()
		defer mu.Unlock()
		if current == domain.VotedUp {
			ups--
			return domain.NoVote, nil
		}
		ups++
		return domain.VotedUp, nil
	}

	for range presses {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.TransitionVoteState(ctx, "viewer", id, toggle))
		}()
	}
	wg.Wait()

	state, err := store.GetVoteState(ctx, "viewer", id)
	require.NoError(t, err)
	assert.Equal(t, domain.VotedUp, state)
	assert.Equal(t, 1, ups)
}

func TestViewerVoteStore_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewViewerVoteStore(time.Hour, clock)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.SetVoteState(ctx, "viewer", id, domain.VotedUp))
	clock.Advance(30 * time.Minute)

	// A write refreshes the whole viewer entry.
	require.NoError(t, store.SetVoteState(ctx, "viewer", uuid.New(), domain.VotedDown))
	clock.Advance(45 * time.Minute)

	state, err := store.GetVoteState(ctx, "viewer", id)
	require.NoError(t, err)
	assert.Equal(t, domain.VotedUp, state)

	clock.Advance(time.Hour)
	state, err = store.GetVoteState(ctx, "viewer", id)
	require.NoError(t, err)
	assert.Equal(t, domain.NoVote, state)
}

func TestViewerVoteStore_EvictExpired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewViewerVoteStore(time.Minute, clock)
	ctx := context.Background()

	require.NoError(t, store.SetVoteState(ctx, "a", uuid.New(), domain.VotedUp))
	require.NoError(t, store.SetVoteState(ctx, "b", uuid.New(), domain.VotedUp))
	clock.Advance(2 * time.Minute)
	require.NoError(t, store.SetVoteState(ctx, "c", uuid.New(), domain.VotedUp))

	assert.Equal(t, 2, store.EvictExpired())
	assert.Len(t, store.viewers, 1)
}

func TestViewerVoteStore_EvictionTimer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewViewerVoteStore(time.Minute, clock)
	require.NoError(t, store.SetVoteState(context.Background(), "a", uuid.New(), domain.VotedUp))

	stop := store.StartEvictionTimer(time.Minute)
	defer stop()

	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	clock.Advance(2 * time.Minute)

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.viewers) == 0
	}, time.Second, 10*time.Millisecond)
}
