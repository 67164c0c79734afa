package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/config"
)

// ObjectStorage 对象存储
type ObjectStorage interface {
	// PutObject 上传对象, 返回可访问的URL
	PutObject(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
}

// MinioStorage 基于 minio-go 的 S3 兼容存储
type MinioStorage struct {
	client *minio.Client
	cfg    *config.StorageConfig
}

// NewMinioStorage 创建存储客户端; 未配置时返回 nil
func NewMinioStorage(cfg *config.StorageConfig) (*MinioStorage, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("创建对象存储客户端失败: %w", err)
	}

	return &MinioStorage{client: client, cfg: cfg}, nil
}

// PutObject 上传对象
func (m *MinioStorage) PutObject(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	fullPath := getFullPath(m.cfg.BasePath, objectName)
	_, err := m.client.PutObject(ctx, m.cfg.Bucket, fullPath, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return ObjectURL(m.cfg, fullPath), nil
}

// ObjectURL 拼接对象访问地址
func ObjectURL(cfg *config.StorageConfig, fullPath string) string {
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, cfg.Endpoint, cfg.Bucket, fullPath)
}

func getFullPath(basePath, objectName string) string {
	basePath = strings.Trim(basePath, "/")
	if basePath == "" {
		return objectName
	}
	return path.Join(basePath, objectName)
}
