// internal/notifications/redis.go
// Publishes match events on a Redis channel for external consumers
// (push delivery workers, analytics).

package notifications

import (
	"context"
	"encoding/json"
	"log"

	"github.com/go-redis/redis/v8"
)

// DefaultChannel is the Redis pub/sub channel match events go out on.
const DefaultChannel = "match_events"

type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshal event %s: %v", event.Type, err)
		return
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		// Delivery is best-effort; the mutating operation already committed.
		log.Printf("publish event %s to redis: %v", event.Type, err)
	}
}
