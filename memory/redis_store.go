package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStoreConfig 配置 Redis 快照存储。
type RedisStoreConfig struct {
	// Addr Redis 地址。
	Addr string `yaml:"addr" json:"addr"`
	// Password 密码。
	Password string `yaml:"password" json:"password"`
	// DB 数据库编号。
	DB int `yaml:"db" json:"db"`
	// Key 快照键名。
	Key string `yaml:"key" json:"key"`
}

// DefaultRedisStoreConfig 返回默认配置。
func DefaultRedisStoreConfig() RedisStoreConfig {
	return RedisStoreConfig{
		Addr: "localhost:6379",
		Key:  "swarmflow:memory",
	}
}

// RedisStore 将全部条目序列化为单键 JSON 快照存入 Redis。
// 与 FileStore 同一契约：整体读、整体写。
type RedisStore struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisStore 创建 Redis 存储并验证连接。
func NewRedisStore(config RedisStoreConfig, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Key == "" {
		config.Key = DefaultRedisStoreConfig().Key
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client: client,
		key:    config.Key,
		logger: logger.With(zap.String("component", "memory_redis_store")),
	}, nil
}

// NewRedisStoreWithClient 用已有客户端创建存储（测试用）。
func NewRedisStoreWithClient(client *redis.Client, key string, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if key == "" {
		key = DefaultRedisStoreConfig().Key
	}
	return &RedisStore{
		client: client,
		key:    key,
		logger: logger.With(zap.String("component", "memory_redis_store")),
	}
}

// Load 读取快照。键缺失返回空集；快照损坏记日志后返回空集。
func (s *RedisStore) Load(ctx context.Context) ([]*Entry, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load memory snapshot: %w", err)
	}

	var entries []*Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("memory snapshot malformed, starting empty", zap.Error(err))
		return nil, nil
	}
	return entries, nil
}

// Save 整体重写快照。
func (s *RedisStore) Save(ctx context.Context, entries []*Entry) error {
	if entries == nil {
		entries = []*Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal memory entries: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save memory snapshot: %w", err)
	}
	return nil
}

// Close 关闭底层客户端。
func (s *RedisStore) Close() error {
	return s.client.Close()
}
