package infra

import (
	"context"
	"fmt"
	"time"

	"backend/internal/config"
	"backend/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InitRedis 初始化 Redis 连接
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接测试失败: %w", err)
	}

	logger.Info("Redis 连接成功",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Int("db", cfg.DB),
	)

	return rdb, nil
}

// TriggerClaims 基于 Redis SETNX 的触发声明存储
// 调度/条件检查在触发工作流前先声明占位，避免 last_execution 尚未更新时
// 同一窗口内重复触发同一工作流
type TriggerClaims struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTriggerClaims 创建触发声明存储
func NewTriggerClaims(rdb *redis.Client, ttl time.Duration) *TriggerClaims {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &TriggerClaims{rdb: rdb, ttl: ttl}
}

// Claim 声明一次触发，返回 true 表示声明成功（此前无占位）
func (c *TriggerClaims) Claim(ctx context.Context, workflowID string) (bool, error) {
	key := "automation:trigger_claim:" + workflowID
	ok, err := c.rdb.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("触发声明失败: %w", err)
	}
	return ok, nil
}

// Release 释放触发声明（执行入队失败时回滚占位）
func (c *TriggerClaims) Release(ctx context.Context, workflowID string) error {
	key := "automation:trigger_claim:" + workflowID
	return c.rdb.Del(ctx, key).Err()
}
