package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryRevocationStore(t *testing.T) {
	store := NewMemoryRevocationStore(time.Minute)
	defer store.Close()
	ctx := context.Background()

	if revoked, _ := store.IsRevoked(ctx, "token-abc"); revoked {
		t.Fatal("unknown jti should not be revoked")
	}
	_ = store.Revoke(ctx, "token-abc", time.Now().Add(time.Hour))
	if revoked, _ := store.IsRevoked(ctx, "token-abc"); !revoked {
		t.Fatal("expected jti to be revoked")
	}
}

func TestMemoryRevocationStore_Cleanup(t *testing.T) {
	store := NewMemoryRevocationStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	_ = store.Revoke(ctx, "expired", time.Now().Add(-time.Minute))
	_ = store.Revoke(ctx, "live", time.Now().Add(time.Hour))
	store.cleanup(time.Now())

	if store.Count() != 1 {
		t.Fatalf("expected 1 entry after cleanup, got %d", store.Count())
	}
	if revoked, _ := store.IsRevoked(ctx, "live"); !revoked {
		t.Error("live entry should survive cleanup")
	}
}

func TestMemoryRevocationStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryRevocationStore(time.Minute)
	defer store.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Revoke(ctx, string(rune('a'+i%26)), time.Now().Add(time.Hour))
		}(i)
		go func(i int) {
			defer wg.Done()
			_, _ = store.IsRevoked(ctx, string(rune('a'+i%26)))
		}(i)
	}
	wg.Wait()
}

func TestMemoryRevocationStore_CloseTwice(t *testing.T) {
	store := NewMemoryRevocationStore(time.Minute)
	store.Close()
	store.Close()
}

func TestRedisRevocationStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := NewRedisRevocationStore(rdb)
	ctx := context.Background()

	if err := store.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	revoked, err := store.IsRevoked(ctx, "jti-1")
	if err != nil || !revoked {
		t.Fatalf("expected revoked, got %v, %v", revoked, err)
	}
	if revoked, _ := store.IsRevoked(ctx, "jti-2"); revoked {
		t.Error("jti-2 was never revoked")
	}

	mr.FastForward(2 * time.Hour)
	if revoked, _ := store.IsRevoked(ctx, "jti-1"); revoked {
		t.Error("entry should expire with the token")
	}
}

func TestRedisRevocationStore_AlreadyExpired(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := NewRedisRevocationStore(rdb)
	if err := store.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Errorf("expired token should not be stored, keys=%v", mr.Keys())
	}
}

func TestRedisRevocationStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	if _, err := NewRedisRevocationStore(rdb).IsRevoked(context.Background(), "x"); err == nil {
		t.Fatal("expected error when redis is down")
	}
}
