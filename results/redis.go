// Package results publishes summaries of finished games for outside consumers
// (leaderboards, dashboards). Nothing in the game reads them back.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Summary struct {
	Room     string         `json:"room"`
	Solo     bool           `json:"solo"`
	Winner   string         `json:"winner"`
	Points   int            `json:"points"`
	Scores   map[string]int `json:"scores"`
	Finished time.Time      `json:"finished"`
}

type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, s Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish result for room %s: %w", s.Room, err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
