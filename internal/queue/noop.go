package queue

import (
	"context"
	"fmt"
	"log"
	"time"
)

// noopClient 降级队列客户端：broker不可达时进程仍可启动。
// 入队告警后丢弃，出队模拟阻塞等待后返回空
type noopClient struct {
	wait time.Duration
}

// NewNoopClient 创建降级队列客户端
func NewNoopClient(wait time.Duration) Client {
	if wait <= 0 {
		wait = 5 * time.Second
	}
	log.Println("队列运行在降级模式，解析任务不会被投递")
	return &noopClient{wait: wait}
}

func (n *noopClient) Enqueue(ctx context.Context, job *ParseJob) error {
	log.Printf("队列降级模式，丢弃任务: document_id=%s", job.DocumentID)
	return nil
}

func (n *noopClient) DequeueBlocking(ctx context.Context) (*ParseJob, error) {
	timer := time.NewTimer(n.wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil
	}
}

func (n *noopClient) GetJob(ctx context.Context, jobID string) (*ParseJob, error) {
	return nil, fmt.Errorf("任务不存在: %s", jobID)
}

func (n *noopClient) UpdateJobStatus(ctx context.Context, jobID, status, errorMsg string) error {
	return nil
}

func (n *noopClient) Close() {}
