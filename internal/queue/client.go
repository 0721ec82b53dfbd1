// Package queue 解析任务队列的broker适配层
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/TomerCohen95/tailorjob-sub001/internal/config"
)

// Client 队列客户端接口
type Client interface {
	Enqueue(ctx context.Context, job *ParseJob) error
	// DequeueBlocking 阻塞出队，最多等待配置的时长；队列空时返回(nil, nil)
	DequeueBlocking(ctx context.Context) (*ParseJob, error)
	GetJob(ctx context.Context, jobID string) (*ParseJob, error)
	UpdateJobStatus(ctx context.Context, jobID, status, errorMsg string) error
	Close()
}

// ParseJob 解析任务
type ParseJob struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	OwnerID    string    `json:"owner_id"`
	Status     string    `json:"status"` // pending, processing, completed, failed
	EnqueuedAt time.Time `json:"enqueued_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Error      string    `json:"error,omitempty"`
}

type redisClient struct {
	client    *redis.Client
	queueName string
	wait      time.Duration
	jobTTL    time.Duration
}

// NewRedisQueue 创建redis队列客户端，启动时验证连通性
func NewRedisQueue(qcfg config.QueueConfig, wcfg config.WorkerConfig) (Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     qcfg.Addr,
		Password: qcfg.Password,
		DB:       qcfg.DB,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("连接队列Redis失败: %w", err)
	}

	wait := wcfg.DequeueWait
	if wait <= 0 {
		wait = 5 * time.Second
	}
	jobTTL := qcfg.JobTTL
	if jobTTL <= 0 {
		jobTTL = 24 * time.Hour
	}

	return &redisClient{
		client:    rdb,
		queueName: wcfg.QueueName,
		wait:      wait,
		jobTTL:    jobTTL,
	}, nil
}

// Enqueue 入队：先保存任务状态，再把任务ID推入队列
func (c *redisClient) Enqueue(ctx context.Context, job *ParseJob) error {
	if job.Status == "" {
		job.Status = "pending"
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}
	job.UpdatedAt = time.Now()

	if err := c.saveJob(ctx, job); err != nil {
		return err
	}

	if err := c.client.LPush(ctx, c.queueName, job.ID).Err(); err != nil {
		return fmt.Errorf("任务入队失败: %w", err)
	}
	return nil
}

// DequeueBlocking 阻塞出队。等待超时返回(nil, nil)，由调用方继续轮询
func (c *redisClient) DequeueBlocking(ctx context.Context) (*ParseJob, error) {
	result, err := c.client.BRPop(ctx, c.wait, c.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // 队列空
		}
		return nil, fmt.Errorf("任务出队失败: %w", err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("意外的redis返回格式")
	}

	return c.GetJob(ctx, result[1])
}

// GetJob 读取任务详情
func (c *redisClient) GetJob(ctx context.Context, jobID string) (*ParseJob, error) {
	raw, err := c.client.Get(ctx, jobKey(jobID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("任务不存在: %s", jobID)
		}
		return nil, fmt.Errorf("读取任务失败: %w", err)
	}

	var job ParseJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("解析任务JSON失败: %w", err)
	}
	return &job, nil
}

// UpdateJobStatus 更新任务状态
func (c *redisClient) UpdateJobStatus(ctx context.Context, jobID, status, errorMsg string) error {
	job, err := c.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.Status = status
	job.UpdatedAt = time.Now()
	if errorMsg != "" {
		job.Error = errorMsg
	}
	return c.saveJob(ctx, job)
}

func (c *redisClient) saveJob(ctx context.Context, job *ParseJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("序列化任务失败: %w", err)
	}
	if err := c.client.Set(ctx, jobKey(job.ID), raw, c.jobTTL).Err(); err != nil {
		return fmt.Errorf("保存任务失败: %w", err)
	}
	return nil
}

func jobKey(jobID string) string {
	return fmt.Sprintf("job:%s", jobID)
}

// Close 关闭redis连接
func (c *redisClient) Close() {
	c.client.Close()
}
