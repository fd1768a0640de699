package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func getRedisCache(t *testing.T) *RedisCache {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb, err := Connect(context.Background(), addr, "")
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return NewRedisCache(rdb, "test:"+uuid.NewString()[:8]+":", time.Minute)
}

type cachedItem struct {
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c := getRedisCache(t)
	ctx := context.Background()

	var got cachedItem
	found, err := c.Get(ctx, "item-1", &got)
	if err != nil || found {
		t.Fatalf("expected miss, got found=%v err=%v", found, err)
	}

	if err := c.Set(ctx, "item-1", cachedItem{Name: "Brake pads", Stock: 4}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	found, err = c.Get(ctx, "item-1", &got)
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if got.Name != "Brake pads" || got.Stock != 4 {
		t.Errorf("unexpected cached value: %+v", got)
	}

	if err := c.Delete(ctx, "item-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	found, _ = c.Get(ctx, "item-1", &got)
	if found {
		t.Error("expected miss after delete")
	}
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	ctx := context.Background()
	if err := c.Set(ctx, "k", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var v int
	if found, _ := c.Get(ctx, "k", &v); found {
		t.Error("noop cache must never hit")
	}
}
