package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisKVClient struct {
	lastSetKey string
	lastSetVal interface{}
	lastSetTTL time.Duration
	lastExists []string
	lastDel    []string

	setErr    error
	existsErr error
	delErr    error
	existsN   int64
}

func (m *mockRedisKVClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.lastSetKey = key
	m.lastSetVal = value
	m.lastSetTTL = expiration
	cmd := redis.NewStatusCmd(ctx)
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRedisKVClient) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	m.lastExists = keys
	cmd := redis.NewIntCmd(ctx)
	if m.existsErr != nil {
		cmd.SetErr(m.existsErr)
		return cmd
	}
	cmd.SetVal(m.existsN)
	return cmd
}

func (m *mockRedisKVClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.lastDel = keys
	cmd := redis.NewIntCmd(ctx)
	if m.delErr != nil {
		cmd.SetErr(m.delErr)
		return cmd
	}
	cmd.SetVal(1)
	return cmd
}

func TestMemorySessionStore_Basics(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	ok, err := store.Exists(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("expected missing session false,nil; got %v,%v", ok, err)
	}

	if err := store.Store(ctx, "sid-1", "sub-1", 50*time.Millisecond); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	ok, err = store.Exists(ctx, "sid-1")
	if err != nil || !ok {
		t.Fatalf("expected session exists, got %v,%v", ok, err)
	}

	time.Sleep(70 * time.Millisecond)
	ok, err = store.Exists(ctx, "sid-1")
	if err != nil || ok {
		t.Fatalf("expected session expired, got %v,%v", ok, err)
	}
}

func TestMemorySessionStore_StoreSweepsAbandoned(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore().(*memorySessionStore)

	for _, id := range []string{"abandoned-1", "abandoned-2", "abandoned-3"} {
		if err := store.Store(ctx, id, "sub", 20*time.Millisecond); err != nil {
			t.Fatalf("store %s: %v", id, err)
		}
	}
	time.Sleep(40 * time.Millisecond)

	if err := store.Store(ctx, "fresh", "sub", time.Hour); err != nil {
		t.Fatalf("store fresh: %v", err)
	}
	store.mu.Lock()
	n := len(store.items)
	_, fresh := store.items["fresh"]
	store.mu.Unlock()
	if n != 1 || !fresh {
		t.Fatalf("expected only the fresh session left, got %d entries", n)
	}
}

func TestMemorySessionStore_RevokeAndEmptyID(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	if err := store.Store(ctx, "", "sub-1", time.Minute); err != nil {
		t.Fatalf("empty id store should be no-op, got %v", err)
	}
	if err := store.Store(ctx, "sid-2", "sub-1", time.Minute); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := store.Revoke(ctx, "sid-2"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	ok, err := store.Exists(ctx, "sid-2")
	if err != nil || ok {
		t.Fatalf("expected revoked session absent, got %v,%v", ok, err)
	}
	if err := store.Revoke(ctx, "sid-2"); err != nil {
		t.Fatalf("second revoke should be no-op, got %v", err)
	}
}

func TestRedisSessionStore_Basics(t *testing.T) {
	ctx := context.Background()
	mock := &mockRedisKVClient{existsN: 1}
	store := &redisSessionStore{
		client: mock,
		prefix: "session:",
	}

	if err := store.Store(ctx, " s1 ", "sub-1", 0); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if mock.lastSetKey != "session:s1" {
		t.Fatalf("unexpected key, got %q", mock.lastSetKey)
	}
	if mock.lastSetVal != "sub-1" {
		t.Fatalf("expected subject as value, got %v", mock.lastSetVal)
	}
	if mock.lastSetTTL <= 0 {
		t.Fatalf("expected positive TTL fallback, got %v", mock.lastSetTTL)
	}

	ok, err := store.Exists(ctx, " s1 ")
	if err != nil || !ok {
		t.Fatalf("expected exists true,nil; got %v,%v", ok, err)
	}
	if len(mock.lastExists) != 1 || mock.lastExists[0] != "session:s1" {
		t.Fatalf("unexpected exists key: %+v", mock.lastExists)
	}

	if err := store.Revoke(ctx, " s1 "); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if len(mock.lastDel) != 1 || mock.lastDel[0] != "session:s1" {
		t.Fatalf("unexpected del key: %+v", mock.lastDel)
	}
}

func TestRedisSessionStore_ErrorPathsAndEmptyID(t *testing.T) {
	ctx := context.Background()
	mock := &mockRedisKVClient{
		setErr:    errors.New("set failed"),
		existsErr: errors.New("exists failed"),
		delErr:    errors.New("del failed"),
	}
	store := &redisSessionStore{
		client: mock,
		prefix: "session:",
	}

	if err := store.Store(ctx, "", "sub-1", time.Minute); err != nil {
		t.Fatalf("empty id store should be no-op, got %v", err)
	}
	ok, err := store.Exists(ctx, "")
	if err != nil || ok {
		t.Fatalf("empty id exists should be false,nil; got %v,%v", ok, err)
	}
	if err := store.Revoke(ctx, ""); err != nil {
		t.Fatalf("empty id revoke should be no-op, got %v", err)
	}

	if err := store.Store(ctx, "s2", "sub-1", time.Minute); err == nil {
		t.Fatalf("expected store error")
	}
	if _, err := store.Exists(ctx, "s2"); err == nil {
		t.Fatalf("expected exists error")
	}
	if err := store.Revoke(ctx, "s2"); err == nil {
		t.Fatalf("expected revoke error")
	}
}

func TestNewRedisSessionStore_NilClient(t *testing.T) {
	if store := NewRedisSessionStore(nil); store != nil {
		t.Fatalf("expected nil store for nil client")
	}
}
