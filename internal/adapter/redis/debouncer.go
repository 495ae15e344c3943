package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/ifthen/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// Debouncer implements domain.VoteDebouncer with SET NX PX, so the window is
// shared by every instance.
type Debouncer struct {
	rdb      goredis.Cmdable
	interval time.Duration
}

var _ domain.VoteDebouncer = (*Debouncer)(nil)

func NewDebouncer(rdb goredis.Cmdable, interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = domain.DefaultVoteDebounce
	}
	return &Debouncer{rdb: rdb, interval: interval}
}

func debounceKey(viewerID string, scenarioID uuid.UUID) string {
	return fmt.Sprintf("vote_debounce:%s:%s", viewerID, scenarioID)
}

func (d *Debouncer) IsDebounced(ctx context.Context, viewerID string, scenarioID uuid.UUID) (bool, error) {
	err := d.rdb.SetArgs(ctx, debounceKey(viewerID, scenarioID), "1", goredis.SetArgs{
		TTL:  d.interval,
		Mode: "NX",
	}).Err()

	if errors.Is(err, goredis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("debounce check failed: %w", err)
	}
	return false, nil
}
