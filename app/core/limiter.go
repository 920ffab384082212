package core

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Limiter interface {
	Allow() bool
}

type LimitConfig struct {
	Limit int
	Every time.Duration
}

type LimitOption func(l *LimitConfig)

func WithLimit(limit int) LimitOption {
	return func(l *LimitConfig) {
		l.Limit = limit
	}
}

func WithRange(r time.Duration) LimitOption {
	return func(l *LimitConfig) {
		l.Every = r
	}
}

type limiterRegistry struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// UseLimiter 默认每分钟 limit 次，同一个 key 共享一个令牌桶
func (s *Core) UseLimiter(key string, opts ...LimitOption) Limiter {
	cfg := &LimitConfig{
		Limit: s.cfg.Limit.GeneratePerMinute,
		Every: time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 60
	}

	s.limiters.mu.Lock()
	defer s.limiters.mu.Unlock()
	l, exist := s.limiters.limiters[key]
	if !exist {
		l = rate.NewLimiter(rate.Every(cfg.Every/time.Duration(cfg.Limit)), cfg.Limit)
		s.limiters.limiters[key] = l
	}
	return l
}

// TryLock 基于 redis SETNX 的互斥锁，ctx 结束后自动释放
func (s *Core) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if s.redis == nil {
		return s.localLocks.TryLock(ctx, key)
	}
	key = s.cfg.Redis.Prefix() + ":lock:" + key
	ok, err := s.redis.SetNX(ctx, key, 1, ttl).Result()
	if err != nil || !ok {
		return false, err
	}
	go func() {
		<-ctx.Done()
		s.redis.Del(context.Background(), key)
	}()
	return true, nil
}

// SingleLock 单进程部署时使用的本地锁
type SingleLock struct {
	mu    sync.Mutex
	locks map[string]bool
}

func (s *SingleLock) TryLock(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks == nil {
		s.locks = make(map[string]bool)
	}
	if s.locks[key] {
		return false, nil
	}
	s.locks[key] = true
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.locks, key)
	}()
	return true, nil
}
