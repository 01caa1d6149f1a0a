package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, *CacheHelper) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewCacheHelper(client, "proposal:")
}

type cachedRecord struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestCacheHelperRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, helper := newTestCache(t)

	want := cachedRecord{ID: 7, Name: "PLAN-2026-HK1"}
	if err := helper.Set(ctx, "7", want, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var got cachedRecord
	if err := helper.Get(ctx, "7", &got); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	if err := helper.Delete(ctx, "7"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := helper.Get(ctx, "7", &got); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("expected miss after delete, got %v", err)
	}
}

func TestCacheHelperMiss(t *testing.T) {
	ctx := context.Background()
	_, helper := newTestCache(t)

	var got cachedRecord
	if err := helper.Get(ctx, "missing", &got); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("expected ErrCacheNotFound, got %v", err)
	}
}

func TestCacheHelperNilClientDegradesGracefully(t *testing.T) {
	ctx := context.Background()
	helper := NewCacheHelper(nil, "proposal:")

	if err := helper.Set(ctx, "1", cachedRecord{ID: 1}, time.Minute); err != nil {
		t.Errorf("set on nil client must be a no-op, got %v", err)
	}
	var got cachedRecord
	if err := helper.Get(ctx, "1", &got); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("expected ErrCacheNotAvailable, got %v", err)
	}
	if err := helper.InvalidatePattern(ctx, "*"); err != nil {
		t.Errorf("invalidate on nil client must be a no-op, got %v", err)
	}
}

func TestCacheOrExecute(t *testing.T) {
	ctx := context.Background()
	_, helper := newTestCache(t)

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return cachedRecord{ID: 3, Name: "fetched"}, nil
	}

	var first cachedRecord
	if err := helper.CacheOrExecute(ctx, "3", &first, time.Minute, fetch); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	var second cachedRecord
	if err := helper.CacheOrExecute(ctx, "3", &second, time.Minute, fetch); err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected one fetch, got %d", calls)
	}
	if second != first {
		t.Errorf("cached value diverged: %+v vs %+v", first, second)
	}
}

func TestInvalidatePattern(t *testing.T) {
	ctx := context.Background()
	mr, helper := newTestCache(t)

	for _, key := range []string{"list:1", "list:2", "detail:9"} {
		if err := helper.Set(ctx, key, cachedRecord{ID: 1}, time.Minute); err != nil {
			t.Fatalf("set failed: %v", err)
		}
	}

	if err := helper.InvalidatePattern(ctx, "list:*"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}

	if mr.Exists("proposal:list:1") || mr.Exists("proposal:list:2") {
		t.Error("list keys must be gone")
	}
	if !mr.Exists("proposal:detail:9") {
		t.Error("unrelated key must survive")
	}
}

func TestCacheManagerHealthCheck(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cm := NewCacheManager(client)
	if err := cm.HealthCheck(ctx); err != nil {
		t.Errorf("expected healthy cache, got %v", err)
	}

	degraded := NewCacheManager(nil)
	if err := degraded.HealthCheck(ctx); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("expected ErrCacheNotAvailable, got %v", err)
	}
}
