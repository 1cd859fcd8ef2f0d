package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Freeeeeet/room_booking/internal/model"
)

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Redis publishes every booking event as JSON on one pub/sub channel
type Redis struct {
	client  publisher
	channel string
}

func NewRedis(client publisher, channel string) *Redis {
	return &Redis{client: client, channel: channel}
}

// NewRedisClient connects to redisURL and checks the connection
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return client, nil
}

type redisEvent struct {
	model.BookingEvent
	OwnerEmail string `json:"owner_email,omitempty"`
}

func (r *Redis) Notify(ctx context.Context, event model.BookingEvent) error {
	payload := redisEvent{BookingEvent: event}
	if event.Owner != nil {
		payload.OwnerEmail = event.Owner.Email
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal booking event: %w", err)
	}

	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("publish booking event: %w", err)
	}
	return nil
}
