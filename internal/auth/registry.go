package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// Registry はサーバー側で有効なセッションIDを管理します。
// クッキーを削除するだけではトークンを失効できないため、ログアウト時はここから取り除きます。
type Registry interface {
	// Issue は userID に紐づく新しいセッションIDを ttl の間有効にします。
	Issue(ctx context.Context, userID int64, ttl time.Duration) (string, error)
	// Active は sid が有効かつ userID に紐づいているかを返します。
	Active(ctx context.Context, sid string, userID int64) (bool, error)
	// Revoke は sid を失効させます。存在しない sid でもエラーにはなりません。
	Revoke(ctx context.Context, sid string) error
}

// RedisRegistry はセッションIDを Redis に保存します。
type RedisRegistry struct {
	rdb *redis.Client
}

// NewRedisRegistry は RedisRegistry を作成します。
func NewRedisRegistry(rdb *redis.Client) *RedisRegistry {
	return &RedisRegistry{rdb: rdb}
}

// NewRedisRegistryFromURL は redis:// 形式のURLから RedisRegistry を作成し、疎通を確認します。
func NewRedisRegistryFromURL(ctx context.Context, rawURL string) (*RedisRegistry, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}
	return NewRedisRegistry(rdb), nil
}

func (r *RedisRegistry) Issue(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive")
	}
	sid := uuid.NewString()
	if err := r.rdb.Set(ctx, sessionKey(sid), userID, ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return sid, nil
}

func (r *RedisRegistry) Active(ctx context.Context, sid string, userID int64) (bool, error) {
	if sid == "" {
		return false, nil
	}
	stored, err := r.rdb.Get(ctx, sessionKey(sid)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load session: %w", err)
	}
	return stored == userID, nil
}

func (r *RedisRegistry) Revoke(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	return r.rdb.Del(ctx, sessionKey(sid)).Err()
}

// Close は Redis クライアントを閉じます。
func (r *RedisRegistry) Close() error {
	return r.rdb.Close()
}

func sessionKey(sid string) string {
	return sessionKeyPrefix + sid
}

type memoryEntry struct {
	userID    int64
	expiresAt time.Time
}

// MemoryRegistry はプロセス内でセッションIDを管理します。REDIS_URL 未設定時の開発用です。
type MemoryRegistry struct {
	lock     sync.Mutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

// NewMemoryRegistry は MemoryRegistry を作成します。
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (r *MemoryRegistry) Issue(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive")
	}
	r.lock.Lock()
	defer r.lock.Unlock()

	now := r.now()
	// 期限切れのエントリはここでまとめて掃除する
	for sid, entry := range r.sessions {
		if now.After(entry.expiresAt) {
			delete(r.sessions, sid)
		}
	}

	sid := uuid.NewString()
	r.sessions[sid] = memoryEntry{userID: userID, expiresAt: now.Add(ttl)}
	return sid, nil
}

func (r *MemoryRegistry) Active(ctx context.Context, sid string, userID int64) (bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	entry, ok := r.sessions[sid]
	if !ok {
		return false, nil
	}
	if r.now().After(entry.expiresAt) {
		delete(r.sessions, sid)
		return false, nil
	}
	return entry.userID == userID, nil
}

func (r *MemoryRegistry) Revoke(ctx context.Context, sid string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.sessions, sid)
	return nil
}
