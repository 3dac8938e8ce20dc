package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type stubCmdable struct {
	setKey string
	setVal any
	setTTL time.Duration
	getKey string
	delKey []string
}

func (s *stubCmdable) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (s *stubCmdable) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	s.setKey, s.setVal, s.setTTL = key, value, ttl
	return redis.NewStatusResult("OK", nil)
}

func (s *stubCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	s.getKey = key
	return redis.NewStringResult("", redis.Nil)
}

func (s *stubCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	s.delKey = keys
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestCacheKeyNamespacing(t *testing.T) {
	c := &Client{}
	got := c.CacheKey("billing", "records", "cus_123")
	want := "ent:cache:billing:records:cus_123"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestCacheKeySkipsEmptyParts(t *testing.T) {
	c := &Client{}
	got := c.CacheKey("billing", "", "cus_123")
	if got != "ent:cache:billing:cus_123" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestGetMissReturnsNil(t *testing.T) {
	stub := &stubCmdable{}
	c := &Client{store: stub}

	_, err := c.Get(context.Background(), "ent:cache:missing")
	if err != Nil {
		t.Fatalf("expected Nil sentinel, got %v", err)
	}
	if stub.getKey != "ent:cache:missing" {
		t.Fatalf("unexpected key passed through: %q", stub.getKey)
	}
}

func TestSetPassesTTL(t *testing.T) {
	stub := &stubCmdable{}
	c := &Client{store: stub}

	if err := c.Set(context.Background(), "k", "v", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.setTTL != time.Minute {
		t.Fatalf("expected 1m ttl, got %s", stub.setTTL)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	c := &Client{}
	if err := c.Set(context.Background(), "k", "v", 0); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if _, err := c.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
}
