// Package storage 原始文档字节的对象存储层
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/TomerCohen95/tailorjob-sub001/internal/config"
)

// StorageInterface 存储接口
type StorageInterface interface {
	EnsureBucket(ctx context.Context) error
	UploadDocument(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string) error
	DownloadDocument(ctx context.Context, objectPath string) (io.ReadCloser, error)
	DeleteDocument(ctx context.Context, objectPath string) error
	StatDocument(ctx context.Context, objectPath string) (*ObjectInfo, error)
}

// ObjectInfo 对象信息
type ObjectInfo struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
}

// MinIOStorage MinIO存储实现
type MinIOStorage struct {
	client *minio.Client
	bucket string
}

// NewMinIOStorage 创建MinIO存储
func NewMinIOStorage(cfg config.StorageConfig) (*MinIOStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	return &MinIOStorage{
		client: client,
		bucket: cfg.BucketName,
	}, nil
}

// EnsureBucket 确保存储桶存在
func (m *MinIOStorage) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}

	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("创建存储桶失败: %w", err)
		}
	}

	return nil
}

// UploadDocument 上传文档字节
func (m *MinIOStorage) UploadDocument(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectPath, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("上传文档失败: %w", err)
	}
	return nil
}

// DownloadDocument 下载文档字节
func (m *MinIOStorage) DownloadDocument(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	object, err := m.client.GetObject(ctx, m.bucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("下载文档失败: %w", err)
	}
	return object, nil
}

// DeleteDocument 删除文档对象
func (m *MinIOStorage) DeleteDocument(ctx context.Context, objectPath string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, objectPath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除文档失败: %w", err)
	}
	return nil
}

// StatDocument 获取对象信息
func (m *MinIOStorage) StatDocument(ctx context.Context, objectPath string) (*ObjectInfo, error) {
	stat, err := m.client.StatObject(ctx, m.bucket, objectPath, minio.StatObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取文档信息失败: %w", err)
	}

	return &ObjectInfo{
		Path:         stat.Key,
		Size:         stat.Size,
		LastModified: stat.LastModified,
		ContentType:  stat.ContentType,
		ETag:         stat.ETag,
	}, nil
}
