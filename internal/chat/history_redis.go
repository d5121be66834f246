package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/xelth-com/wooassist/internal/ai"
)

// RedisHistory stores each session as a capped Redis list
type RedisHistory struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisHistory(rdb *goredis.Client, ttl time.Duration) *RedisHistory {
	return &RedisHistory{rdb: rdb, prefix: "history:", ttl: ttl}
}

func (h *RedisHistory) Append(ctx context.Context, key string, msgs ...ai.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	values := make([]any, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode history message: %w", err)
		}
		values = append(values, data)
	}

	k := h.prefix + key
	pipe := h.rdb.TxPipeline()
	pipe.RPush(ctx, k, values...)
	pipe.LTrim(ctx, k, -MaxHistory, -1)
	if h.ttl > 0 {
		pipe.Expire(ctx, k, h.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis append history: %w", err)
	}
	return nil
}

func (h *RedisHistory) Recent(ctx context.Context, key string) ([]ai.Message, error) {
	raw, err := h.rdb.LRange(ctx, h.prefix+key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read history: %w", err)
	}
	out := make([]ai.Message, 0, len(raw))
	for _, item := range raw {
		var m ai.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (h *RedisHistory) Clear(ctx context.Context, key string) error {
	if err := h.rdb.Del(ctx, h.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis clear history: %w", err)
	}
	return nil
}
