package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"stockapi/pkg/core"
	"stockapi/pkg/logger"
)

// SpotKey 全市场A股快照在 Redis 中的键
const SpotKey = "stockapi:spot:a"

// RedisSpotStore 把行情快照以 JSON 存在 Redis 中，多个服务实例共享一份
type RedisSpotStore struct {
	client *redis.Client
	key    string
	log    *logrus.Entry
}

// RedisOptions Redis 连接参数
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisSpotStore 连接 Redis 并检查可用性
func NewRedisSpotStore(ctx context.Context, opts RedisOptions) (*RedisSpotStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisSpotStoreWithClient(client), nil
}

// NewRedisSpotStoreWithClient 使用已有的客户端
func NewRedisSpotStoreWithClient(client *redis.Client) *RedisSpotStore {
	return &RedisSpotStore{
		client: client,
		key:    SpotKey,
		log:    logger.WithComponent("RedisSpotStore"),
	}
}

// Load 读取快照，Redis 不可用时按未命中处理
func (s *RedisSpotStore) Load(ctx context.Context) ([]core.SpotRow, bool) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.WithError(err).Warn("读取行情快照失败")
		}
		return nil, false
	}
	var rows []core.SpotRow
	if err := json.Unmarshal(data, &rows); err != nil {
		s.log.WithError(NewStorageError(ErrDeserializeFailed, s.key, err)).Warn("行情快照格式错误")
		return nil, false
	}
	return rows, true
}

// Save 写入快照并设置过期时间
func (s *RedisSpotStore) Save(ctx context.Context, rows []core.SpotRow, ttl time.Duration) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return NewStorageError(ErrSerializeFailed, s.key, err)
	}
	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return NewStorageError(ErrStorageIO, s.key, err)
	}
	s.log.WithField("rows", len(rows)).Debug("行情快照已写入")
	return nil
}

func (s *RedisSpotStore) Close() error {
	return s.client.Close()
}

// Ping 健康检查
func (s *RedisSpotStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
