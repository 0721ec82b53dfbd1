package cache

import (
	"context"
	"log"

	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
)

// noopCache 降级缓存：永不命中、写入丢弃。
// 缓存不可达时分析流程继续工作，只是没有缓存加速
type noopCache struct{}

// NewNoopCache 创建降级缓存
func NewNoopCache() ResultCache {
	log.Println("结果缓存运行在降级模式，所有读取均为未命中")
	return &noopCache{}
}

func (n *noopCache) Get(ctx context.Context, documentID, postingID string) (*model.MatchResult, error) {
	return nil, nil
}

func (n *noopCache) Put(ctx context.Context, result *model.MatchResult) error {
	return nil
}

func (n *noopCache) Invalidate(ctx context.Context, documentID, postingID string) error {
	return nil
}

func (n *noopCache) Close() error {
	return nil
}
