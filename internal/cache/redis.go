// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list (queue) name for game action logs.
const DefaultQueueName = "uno_actions"

// GameActionRecord holds the minimal info needed by the historian microservice.
type GameActionRecord struct {
	GameID        uuid.UUID              `json:"game_id"`
	ChatID        string                 `json:"chat_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorUserID   uuid.UUID              `json:"actor_user_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// Historian pushes game action records onto a Redis list for the historian service.
type Historian struct {
	Rdb   *redis.Client
	Queue string
}

// ConnectRedis opens a client to addr/db and verifies it with a ping.
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// NewHistorian wraps a connected client. An empty queue name selects DefaultQueueName.
func NewHistorian(rdb *redis.Client, queue string) *Historian {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Historian{Rdb: rdb, Queue: queue}
}

// PublishGameAction serializes the given record to JSON, then pushes it to the Redis queue.
func (h *Historian) PublishGameAction(ctx context.Context, record GameActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal GameActionRecord: %w", err)
	}
	if err := h.Rdb.RPush(ctx, h.Queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", h.Queue, err)
	}
	return nil
}

// PopGameAction blocks up to timeout for the next record. It returns (nil, nil) when the
// queue stayed empty.
func (h *Historian) PopGameAction(ctx context.Context, timeout time.Duration) (*GameActionRecord, error) {
	res, err := h.Rdb.BLPop(ctx, timeout, h.Queue).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("BLPop %s: %w", h.Queue, err)
	}
	if len(res) < 2 {
		return nil, nil
	}
	var record GameActionRecord
	if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
		return nil, fmt.Errorf("invalid action record: %w", err)
	}
	return &record, nil
}
