package core

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistributedSemaphore 分布式信号量，基于 Redis 实现
type DistributedSemaphore struct {
	redis      redis.UniversalClient
	key        string
	maxPermits int
	timeout    time.Duration
}

// NewDistributedSemaphore 创建分布式信号量
func NewDistributedSemaphore(redis redis.UniversalClient, key string, maxPermits int, timeout time.Duration) *DistributedSemaphore {
	return &DistributedSemaphore{
		redis:      redis,
		key:        key,
		maxPermits: maxPermits,
		timeout:    timeout,
	}
}

var acquireScript = redis.NewScript(`
local key = KEYS[1]
local max_permits = tonumber(ARGV[1])
local timeout = tonumber(ARGV[2])

local current = tonumber(redis.call('GET', key) or '0')

if current < max_permits then
	redis.call('INCR', key)
	redis.call('EXPIRE', key, timeout)
	return 1
else
	return 0
end
`)

// 避免减到负数
var releaseScript = redis.NewScript(`
local key = KEYS[1]
local current = tonumber(redis.call('GET', key) or '0')

if current > 0 then
	redis.call('DECR', key)
	return 1
else
	return 0
end
`)

// TryAcquire 尝试获取信号量许可，redis 不可用时视为获取失败
func (s *DistributedSemaphore) TryAcquire() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	result, err := acquireScript.Run(ctx, s.redis, []string{s.key}, s.maxPermits, int(s.timeout.Seconds())).Int()
	if err != nil {
		return false
	}
	return result == 1
}

// Release 释放信号量许可
func (s *DistributedSemaphore) Release() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	releaseScript.Run(ctx, s.redis, []string{s.key})
}

// GetCurrent 获取当前已使用的许可数
func (s *DistributedSemaphore) GetCurrent() int {
	result, err := s.redis.Get(context.Background(), s.key).Int()
	if err != nil {
		return 0
	}
	return result
}

// VisionSemaphoreKey 视觉模型逐页识别的全局并发
func VisionSemaphoreKey(prefix string) string {
	return prefix + ":semaphore:vision"
}
