package prompts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"voting-game/internal/game"
)

const redisKeyPrefix = "prompts:"

// RedisCorpus caches prompts in one redis set per category. When the set
// holds fewer than requested, the remainder comes from inner and is added to
// the set for later rooms.
type RedisCorpus struct {
	client *redis.Client
	inner  game.QuestionSource
	ttl    time.Duration
}

func NewRedisCorpus(client *redis.Client, inner game.QuestionSource, ttl time.Duration) *RedisCorpus {
	return &RedisCorpus{client: client, inner: inner, ttl: ttl}
}

func (r *RedisCorpus) Draw(ctx context.Context, count int, category string) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	key := redisKey(category)
	cached, err := r.client.SRandMemberN(ctx, key, int64(count)).Result()
	if err != nil {
		return nil, fmt.Errorf("read prompt cache: %w", err)
	}
	if len(cached) >= count || r.inner == nil {
		return cached, nil
	}

	fresh, err := r.inner.Draw(ctx, count-len(cached), category)
	if err != nil {
		if len(cached) > 0 {
			log.Warn().Err(err).Str("module", "prompts.redis").Str("category", category).
				Msg("inner source failed, serving cached prompts only")
			return cached, nil
		}
		return nil, err
	}
	fresh = dedupe(fresh, 0)
	if len(fresh) > 0 {
		members := make([]any, len(fresh))
		for i, prompt := range fresh {
			members[i] = prompt
		}
		pipe := r.client.TxPipeline()
		pipe.SAdd(ctx, key, members...)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			log.Warn().Err(err).Str("module", "prompts.redis").Str("category", category).Msg("cache prompts failed")
		}
	}
	return append(cached, fresh...), nil
}

func redisKey(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = "general"
	}
	return redisKeyPrefix + category
}
