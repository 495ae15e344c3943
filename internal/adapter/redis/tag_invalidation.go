package redis

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
)

const tagInvalidationChannel = "tag_invalidation"

// TagInvalidationSubscriber drops the local tag cache whenever any instance
// publishes a tag change.
type TagInvalidationSubscriber struct {
	rdb   *goredis.Client
	cache *TagCache
}

func NewTagInvalidationSubscriber(rdb *goredis.Client, cache *TagCache) *TagInvalidationSubscriber {
	return &TagInvalidationSubscriber{rdb: rdb, cache: cache}
}

// Start subscribes and processes messages until ctx is cancelled. It blocks
// until the subscription is confirmed.
func (s *TagInvalidationSubscriber) Start(ctx context.Context) error {
	pubsub := s.rdb.Subscribe(ctx, tagInvalidationChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", tagInvalidationChannel, err)
	}

	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				s.handleInvalidation(msg.Payload)
			}
		}
	}()

	slog.Info("Tag invalidation subscriber started", "channel", tagInvalidationChannel)
	return nil
}

func (s *TagInvalidationSubscriber) handleInvalidation(payload string) {
	if payload == "" {
		return
	}
	slog.Debug("Tag cache invalidated", "source", payload)
	s.cache.invalidateLocal()
}

// PublishTagInvalidation announces a tag change to every subscribed instance.
func PublishTagInvalidation(ctx context.Context, rdb goredis.Cmdable) error {
	if err := rdb.Publish(ctx, tagInvalidationChannel, "tags").Err(); err != nil {
		return fmt.Errorf("failed to publish tag invalidation: %w", err)
	}
	return nil
}
