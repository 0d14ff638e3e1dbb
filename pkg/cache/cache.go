package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL 상수 정의
const (
	TTLDraft   = 24 * time.Hour   // 편집 중인 초안
	TTLLock    = 30 * time.Minute // 편집 잠금
	TTLPage    = 5 * time.Minute  // 저장된 페이지
	TTLDefault = 5 * time.Minute
)

// 캐시 키 접두사
const (
	PrefixDraft = "draft:"
	PrefixLock  = "editlock:"
	PrefixPage  = "page:"
)

// ErrMiss is returned by lookups when the key is absent
var ErrMiss = errors.New("cache miss")

// ErrUnavailable is returned by lookups when redis is not configured
var ErrUnavailable = errors.New("redis not available")

// Service Redis 캐시 서비스 인터페이스
type Service interface {
	// 기본 캐시 연산
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	// 편집 초안 캐시 (page + member)
	GetDraft(ctx context.Context, pageID, memberID string) ([]byte, error)
	SetDraft(ctx context.Context, pageID, memberID string, doc []byte, ttl time.Duration) error
	DeleteDraft(ctx context.Context, pageID, memberID string) error

	// 편집 잠금: 여러 인스턴스에서 한 페이지의 편집자는 한 명
	AcquireLock(ctx context.Context, pageID, memberID string, ttl time.Duration) (bool, error)
	LockOwner(ctx context.Context, pageID string) (string, error)
	ReleaseLock(ctx context.Context, pageID, memberID string) error

	// 페이지 캐시
	GetPage(ctx context.Context, pageID string) ([]byte, error)
	SetPage(ctx context.Context, pageID string, data interface{}) error
	InvalidatePage(ctx context.Context, pageID string) error
	InvalidateAllPages(ctx context.Context) error

	// 유틸리티
	IsAvailable() bool
	Ping(ctx context.Context) error
}

// redisCache Redis 기반 캐시 구현
type redisCache struct {
	client *redis.Client
}

// NewService 새로운 캐시 서비스 생성
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

// IsAvailable Redis 연결 가능 여부
func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

// Ping Redis 연결 테스트
func (c *redisCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return c.client.Ping(ctx).Err()
}

// Get 캐시에서 값 조회
func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.getBytes(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Set 캐시에 값 저장
func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil // Redis 없으면 무시
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete 캐시 삭제
func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Exists 캐시 존재 여부 확인
func (c *redisCache) Exists(ctx context.Context, key string) (bool, error) {
	if c.client == nil {
		return false, nil
	}
	n, err := c.client.Exists(ctx, key).Result()
	return n > 0, err
}

func (c *redisCache) getBytes(ctx context.Context, key string) ([]byte, error) {
	if c.client == nil {
		return nil, ErrUnavailable
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return data, err
}

// ========================================
// 편집 초안 캐시
// ========================================

func draftKey(pageID, memberID string) string {
	return PrefixDraft + pageID + ":" + memberID
}

func (c *redisCache) GetDraft(ctx context.Context, pageID, memberID string) ([]byte, error) {
	return c.getBytes(ctx, draftKey(pageID, memberID))
}

// SetDraft stores the raw document; it is already JSON
func (c *redisCache) SetDraft(ctx context.Context, pageID, memberID string, doc []byte, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = TTLDraft
	}
	return c.client.Set(ctx, draftKey(pageID, memberID), doc, ttl).Err()
}

func (c *redisCache) DeleteDraft(ctx context.Context, pageID, memberID string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, draftKey(pageID, memberID)).Err()
}

// ========================================
// 편집 잠금
// ========================================

func lockKey(pageID string) string {
	return PrefixLock + pageID
}

// AcquireLock takes or refreshes the edit lock. It reports false when another
// member holds it. Without redis every acquisition succeeds.
func (c *redisCache) AcquireLock(ctx context.Context, pageID, memberID string, ttl time.Duration) (bool, error) {
	if c.client == nil {
		return true, nil
	}
	if ttl <= 0 {
		ttl = TTLLock
	}
	ok, err := c.client.SetNX(ctx, lockKey(pageID), memberID, ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	owner, err := c.client.Get(ctx, lockKey(pageID)).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return c.client.SetNX(ctx, lockKey(pageID), memberID, ttl).Result()
	}
	if err != nil {
		return false, err
	}
	if owner != memberID {
		return false, nil
	}
	return true, c.client.Expire(ctx, lockKey(pageID), ttl).Err()
}

func (c *redisCache) LockOwner(ctx context.Context, pageID string) (string, error) {
	data, err := c.getBytes(ctx, lockKey(pageID))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReleaseLock drops the lock if memberID holds it
func (c *redisCache) ReleaseLock(ctx context.Context, pageID, memberID string) error {
	if c.client == nil {
		return nil
	}
	owner, err := c.client.Get(ctx, lockKey(pageID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	if owner != memberID {
		return nil
	}
	return c.client.Del(ctx, lockKey(pageID)).Err()
}

// ========================================
// 페이지 캐시
// ========================================

func pageKey(pageID string) string {
	return PrefixPage + pageID
}

func (c *redisCache) GetPage(ctx context.Context, pageID string) ([]byte, error) {
	return c.getBytes(ctx, pageKey(pageID))
}

func (c *redisCache) SetPage(ctx context.Context, pageID string, data interface{}) error {
	return c.Set(ctx, pageKey(pageID), data, TTLPage)
}

func (c *redisCache) InvalidatePage(ctx context.Context, pageID string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, pageKey(pageID)).Err()
}

func (c *redisCache) InvalidateAllPages(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.deleteByPattern(ctx, PrefixPage+"*")
}

func (c *redisCache) deleteByPattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
