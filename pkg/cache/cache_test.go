package cache

import (
	"context"
	"testing"
	"time"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok, err := store.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got != "v" {
		t.Fatalf("expected v, got %q", got)
	}
}

func TestMemoryStoreExpiryMeansAbsent(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now = now.Add(time.Minute)
	_, ok, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected entry at exact expiry to be absent")
	}
}

func TestMemoryStoreZeroTTLNeverExpires(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now = now.Add(24 * time.Hour)
	_, ok, _ := store.Get(ctx, "k")
	if !ok {
		t.Fatal("expected zero-ttl entry to survive")
	}
}

func TestMemoryStoreLastWriterWins(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_ = store.Set(ctx, "k", "first", time.Minute)
	_ = store.Set(ctx, "k", "second", time.Minute)

	got, _, _ := store.Get(ctx, "k")
	if got != "second" {
		t.Fatalf("expected second write to win, got %q", got)
	}
}

func TestCacheJSONRoundTrip(t *testing.T) {
	c := New(NewMemoryStore())
	ctx := context.Background()

	in := payload{Name: "pro", Count: 3}
	if err := c.Set(ctx, "k", in, time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out payload
	ok, err := c.Get(ctx, "k", &out)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if out != in {
		t.Fatalf("expected %+v, got %+v", in, out)
	}
}

func TestCacheGetMiss(t *testing.T) {
	c := New(NewMemoryStore())

	var out payload
	ok, err := c.Get(context.Background(), "missing", &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected miss")
	}
}

func TestCacheGetCorruptValue(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set(context.Background(), "k", "{not json", time.Minute)
	c := New(store)

	var out payload
	if _, err := c.Get(context.Background(), "k", &out); err == nil {
		t.Fatal("expected decode error for corrupt value")
	}
}
