package llm

import (
	"context"
	"sync"
	"time"
)

// RateLimiter 客户端速率限制：请求之间维持最小间隔
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewRateLimiter 创建速率限制器。perMinute<=0时不限制
func NewRateLimiter(perMinute int) *RateLimiter {
	var interval time.Duration
	if perMinute > 0 {
		interval = time.Minute / time.Duration(perMinute)
	}
	return &RateLimiter{interval: interval}
}

// Wait 阻塞到允许发起下一次请求，或ctx被取消
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r.interval <= 0 {
		return ctx.Err()
	}

	r.mu.Lock()
	now := time.Now()
	next := r.last.Add(r.interval)
	if next.Before(now) {
		next = now
	}
	r.last = next
	r.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
