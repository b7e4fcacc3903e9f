package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestLocker(t *testing.T, wait time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return New(rdb, 10*time.Second, wait, zerolog.Nop()), mr
}

func TestDo_RunsAndReleases(t *testing.T) {
	l, mr := newTestLocker(t, time.Second)

	ran := false
	err := l.Do(context.Background(), "clinic:test", func(ctx context.Context) error {
		ran = true
		if !mr.Exists("clinic:test") {
			t.Error("expected lock key to exist while running")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !ran {
		t.Fatal("fn did not run")
	}
	if mr.Exists("clinic:test") {
		t.Error("expected lock key to be released")
	}
}

func TestDo_PropagatesError(t *testing.T) {
	l, mr := newTestLocker(t, time.Second)
	want := errors.New("migration failed")

	err := l.Do(context.Background(), "clinic:test", func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
	if mr.Exists("clinic:test") {
		t.Error("lock must be released after failure")
	}
}

func TestDo_BusyWhenHeld(t *testing.T) {
	l, mr := newTestLocker(t, 0)
	if err := mr.Set("clinic:test", "someone-else"); err != nil {
		t.Fatal(err)
	}

	err := l.Do(context.Background(), "clinic:test", func(context.Context) error {
		t.Fatal("fn must not run while the lock is held")
		return nil
	})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestDo_Serialises(t *testing.T) {
	l, _ := newTestLocker(t, 5*time.Second)

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Do(context.Background(), "clinic:test", func(context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				if n > atomic.LoadInt32(&maxInside) {
					atomic.StoreInt32(&maxInside, n)
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Errorf("expected at most one holder, saw %d", maxInside)
	}
}
