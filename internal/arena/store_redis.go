package arena

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultEventChannel = "arena:events"

// RedisEventSink publishes events as JSON on a Redis pub/sub channel so other
// processes (leaderboards, spectators) can follow the arena. Nothing is
// stored: subscribers that are not listening miss the event.
type RedisEventSink struct {
	rdb     *redis.Client
	channel string
}

func NewRedisEventSink(rdb *redis.Client, channel string) *RedisEventSink {
	if channel == "" {
		channel = DefaultEventChannel
	}
	return &RedisEventSink{rdb: rdb, channel: channel}
}

func (s *RedisEventSink) Channel() string {
	return s.channel
}

func (s *RedisEventSink) Publish(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}
	if err := s.rdb.Publish(ctx, s.channel, b).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", s.channel, err)
	}
	return nil
}
