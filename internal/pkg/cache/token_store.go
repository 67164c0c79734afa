package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/config"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/logger"
)

// TokenStore 已注销令牌存储, 按 jti 记录直到令牌自然过期
type TokenStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// NewTokenStore 按配置创建令牌存储; 未配置或连接失败时退回进程内存储
func NewTokenStore(cfg *config.RedisConfig) TokenStore {
	if cfg.URL == "" {
		return NewMemoryTokenStore()
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		logger.Warn("Redis地址解析失败, 使用内存令牌存储", zap.Error(err))
		return NewMemoryTokenStore()
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis连接失败, 使用内存令牌存储", zap.String("addr", opts.Addr), zap.Error(err))
		_ = client.Close()
		return NewMemoryTokenStore()
	}

	logger.Info("Redis连接成功", zap.String("addr", opts.Addr))
	return NewRedisTokenStore(client, cfg.KeyPrefix)
}

// RedisTokenStore Redis 实现
type RedisTokenStore struct {
	client *redis.Client
	prefix string
}

// NewRedisTokenStore 创建 Redis 令牌存储
func NewRedisTokenStore(client *redis.Client, prefix string) *RedisTokenStore {
	return &RedisTokenStore{client: client, prefix: prefix}
}

func (r *RedisTokenStore) key(tokenID string) string {
	return r.prefix + "revoked:" + tokenID
}

// Revoke 记录注销
func (r *RedisTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.key(tokenID), 1, ttl).Err()
}

// IsRevoked 是否已注销
func (r *RedisTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := r.client.Get(ctx, r.key(tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MemoryTokenStore 进程内实现
type MemoryTokenStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryTokenStore 创建内存令牌存储
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke 记录注销, 同时清理已过期的记录
func (m *MemoryTokenStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, exp := range m.entries {
		if !exp.After(now) {
			delete(m.entries, id)
		}
	}
	m.entries[tokenID] = now.Add(ttl)
	return nil
}

// IsRevoked 是否已注销
func (m *MemoryTokenStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.entries[tokenID]
	if !ok {
		return false, nil
	}
	if !exp.After(m.now()) {
		delete(m.entries, tokenID)
		return false, nil
	}
	return true, nil
}
