package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"datacopilot/internal/model"
)

// TurnCache keeps the recent-turns listing in redis. A short-lived dirty
// marker set on every new turn keeps stale listings from being re-cached
// while the async persist worker catches up.
type TurnCache struct {
	client         *redisv9.Client
	historyTTL     time.Duration
	dirtyMarkerTTL time.Duration
}

func NewTurnCache(client *redisv9.Client, historyTTL, dirtyMarkerTTL time.Duration) *TurnCache {
	if historyTTL <= 0 {
		historyTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &TurnCache{
		client:         client,
		historyTTL:     historyTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *TurnCache) GetRecent(ctx context.Context) ([]model.ChatTurn, bool, error) {
	raw, err := c.client.Get(ctx, c.historyKey()).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get turns failed: %w", err)
	}

	var turns []model.ChatTurn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached turns failed: %w", err)
	}
	return turns, true, nil
}

func (c *TurnCache) SetRecent(ctx context.Context, turns []model.ChatTurn) error {
	payload, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshal turn cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.historyKey(), payload, c.historyTTL).Err(); err != nil {
		return fmt.Errorf("redis set turns failed: %w", err)
	}
	return nil
}

func (c *TurnCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.historyKey()).Err(); err != nil {
		return fmt.Errorf("redis delete turns failed: %w", err)
	}
	return nil
}

func (c *TurnCache) MarkDirty(ctx context.Context) error {
	if err := c.client.Set(ctx, c.dirtyKey(), "1", c.dirtyMarkerTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *TurnCache) IsDirty(ctx context.Context) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyKey()).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *TurnCache) historyKey() string {
	return "chat:turns:recent"
}

func (c *TurnCache) dirtyKey() string {
	return "chat:turns:dirty"
}
