package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// AnswerCache keeps generated answers keyed by question so a repeated
// question within the TTL skips embedding, search, and generation.
type AnswerCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewAnswerCache(client *redisv9.Client, ttl time.Duration) *AnswerCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AnswerCache{client: client, ttl: ttl}
}

func (c *AnswerCache) Get(ctx context.Context, question string, topK int) (string, bool, error) {
	answer, err := c.client.Get(ctx, c.key(question, topK)).Result()
	if err == redisv9.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get answer failed: %w", err)
	}
	return answer, true, nil
}

func (c *AnswerCache) Set(ctx context.Context, question string, topK int, answer string) error {
	if err := c.client.Set(ctx, c.key(question, topK), answer, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set answer failed: %w", err)
	}
	return nil
}

func (c *AnswerCache) key(question string, topK int) string {
	sum := sha256.Sum256([]byte(question))
	return fmt.Sprintf("advisor:answer:%d:%s", topK, hex.EncodeToString(sum[:]))
}
