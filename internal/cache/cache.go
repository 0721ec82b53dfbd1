// Package cache 匹配结果缓存：redis后端，TTL过期，支持降级为永不命中
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/TomerCohen95/tailorjob-sub001/internal/config"
	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
)

// ResultCache 匹配结果缓存接口。
// 未命中返回(nil, nil)；过期条目视同未命中
type ResultCache interface {
	Get(ctx context.Context, documentID, postingID string) (*model.MatchResult, error)
	Put(ctx context.Context, result *model.MatchResult) error
	Invalidate(ctx context.Context, documentID, postingID string) error
	Close() error
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache 创建redis缓存。连接失败时返回错误，调用方可降级到NewNoopCache
func NewRedisCache(cfg config.CacheConfig) (ResultCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("连接缓存Redis失败: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	return &redisCache{client: rdb, ttl: ttl}, nil
}

func cacheKey(documentID, postingID string) string {
	return fmt.Sprintf("match:%s:%s", documentID, postingID)
}

// Get 读取缓存。redis未命中或条目内嵌的过期时间已过均返回(nil, nil)
func (c *redisCache) Get(ctx context.Context, documentID, postingID string) (*model.MatchResult, error) {
	raw, err := c.client.Get(ctx, cacheKey(documentID, postingID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, model.NewInfraError("cache", "Get", "读取缓存失败", err)
	}

	var result model.MatchResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		// 坏条目按未命中处理，由写入覆盖
		log.Printf("缓存条目损坏，按未命中处理: %v", err)
		return nil, nil
	}

	if result.IsExpired(time.Now()) {
		return nil, nil
	}

	return &result, nil
}

// Put 写入缓存。整值一次SET写入，不存在半写状态
func (c *redisCache) Put(ctx context.Context, result *model.MatchResult) error {
	if result.ExpiresAt.IsZero() {
		result.ExpiresAt = time.Now().Add(c.ttl)
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("序列化匹配结果失败: %w", err)
	}

	key := cacheKey(result.DocumentID, result.PostingID)
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return model.NewInfraError("cache", "Put", "写入缓存失败", err)
	}
	return nil
}

// Invalidate 删除缓存条目，不存在时也视为成功
func (c *redisCache) Invalidate(ctx context.Context, documentID, postingID string) error {
	if err := c.client.Del(ctx, cacheKey(documentID, postingID)).Err(); err != nil {
		return model.NewInfraError("cache", "Invalidate", "删除缓存失败", err)
	}
	return nil
}

// Close 关闭redis连接
func (c *redisCache) Close() error {
	return c.client.Close()
}
