/*
 * @Description: 内存缓存服务实现（用于 Redis 不可用时的降级方案）
 * @Author: 安知鱼
 * @Date: 2025-10-05 00:00:00
 * @LastEditTime: 2026-10-16 16:40:12
 * @LastEditors: 安知鱼
 */
package utility

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// cacheItem 缓存项结构，members 非 nil 时表示集合
type cacheItem struct {
	value      string
	members    map[string]struct{}
	expiration time.Time
	hasExpiry  bool
}

// isExpired 检查是否过期
func (item *cacheItem) isExpired(now time.Time) bool {
	return item.hasExpiry && now.After(item.expiration)
}

// memoryCacheService 是基于内存的缓存服务实现
type memoryCacheService struct {
	mu     sync.Mutex
	data   map[string]*cacheItem
	now    func() time.Time
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

// NewMemoryCacheService 创建内存缓存服务实例
func NewMemoryCacheService() CacheService {
	return newMemoryCacheService(time.Now)
}

func newMemoryCacheService(now func() time.Time) *memoryCacheService {
	svc := &memoryCacheService{
		data:   make(map[string]*cacheItem),
		now:    now,
		ticker: time.NewTicker(1 * time.Minute),
		done:   make(chan struct{}),
	}

	go svc.cleanupExpired()

	return svc
}

// cleanupExpired 定期清理过期的缓存项
func (s *memoryCacheService) cleanupExpired() {
	for {
		select {
		case <-s.ticker.C:
			s.mu.Lock()
			now := s.now()
			for key, item := range s.data {
				if item.isExpired(now) {
					delete(s.data, key)
				}
			}
			s.mu.Unlock()
		case <-s.done:
			return
		}
	}
}

// Stop 停止清理任务
func (s *memoryCacheService) Stop() {
	s.once.Do(func() {
		s.ticker.Stop()
		close(s.done)
	})
}

// load 返回未过期的缓存项，调用方需持有锁
func (s *memoryCacheService) load(key string) (*cacheItem, bool) {
	item, ok := s.data[key]
	if !ok {
		return nil, false
	}
	if item.isExpired(s.now()) {
		delete(s.data, key)
		return nil, false
	}
	return item, true
}

func (s *memoryCacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	item := &cacheItem{hasExpiry: expiration > 0}
	switch v := value.(type) {
	case string:
		item.value = v
	case []byte:
		item.value = string(v)
	default:
		item.value = fmt.Sprintf("%v", v)
	}
	if expiration > 0 {
		item.expiration = s.now().Add(expiration)
	}

	s.mu.Lock()
	s.data[key] = item
	s.mu.Unlock()
	return nil
}

func (s *memoryCacheService) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.load(key)
	if !ok || item.members != nil {
		return "", nil
	}
	return item.value, nil
}

func (s *memoryCacheService) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *memoryCacheService) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.load(key)
	return ok, nil
}

func (s *memoryCacheService) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.load(key)
	if !ok || item.members == nil {
		item = &cacheItem{members: make(map[string]struct{})}
		s.data[key] = item
	}

	var added int64
	for _, m := range members {
		if _, exists := item.members[m]; !exists {
			item.members[m] = struct{}{}
			added++
		}
	}
	return added, nil
}

func (s *memoryCacheService) SMembers(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.load(key)
	if !ok || item.members == nil {
		return []string{}, nil
	}
	out := make([]string, 0, len(item.members))
	for m := range item.members {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func (s *memoryCacheService) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.load(key)
	if !ok || item.members == nil {
		return 0, nil
	}
	var removed int64
	for _, m := range members {
		if _, exists := item.members[m]; exists {
			delete(item.members, m)
			removed++
		}
	}
	// 与 Redis 一致，空集合等同于不存在
	if len(item.members) == 0 {
		delete(s.data, key)
	}
	return removed, nil
}
