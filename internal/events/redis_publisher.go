package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opencourse/proctor-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisPublisher publishes attempt events on Redis PubSub, both on a
// per-course channel (consumed by the staff monitor stream) and on the
// global channel.
type RedisPublisher struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisPublisher creates a RedisPublisher.
func NewRedisPublisher(rdb *redis.Client, log zerolog.Logger) *RedisPublisher {
	return &RedisPublisher{
		rdb: rdb,
		log: log.With().Str("component", "event_publisher").Logger(),
	}
}

// Publish serializes the event and fans it out to the course and global
// channels.
func (p *RedisPublisher) Publish(ctx context.Context, event AttemptEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, config.CacheKey.CourseAttemptChannel(event.CourseID), raw).Err(); err != nil {
		return fmt.Errorf("publish course channel: %w", err)
	}
	if err := p.rdb.Publish(ctx, config.CacheKey.AttemptEventChannel(), raw).Err(); err != nil {
		return fmt.Errorf("publish global channel: %w", err)
	}

	p.log.Debug().
		Str("event", event.Name).
		Str("attempt_id", event.AttemptID.String()).
		Str("course_id", event.CourseID).
		Msg("Event published")

	return nil
}
