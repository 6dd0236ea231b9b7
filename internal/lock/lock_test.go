package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newLocker(t *testing.T) (Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Locker{Client: client, Retry: 5 * time.Millisecond}, mr
}

func TestWithLockRunsAndReleases(t *testing.T) {
	locker, mr := newLocker(t)
	key := CartKey(uuid.New())

	ran := false
	err := locker.WithLock(context.Background(), key, time.Minute, func(context.Context) error {
		ran = true
		if !mr.Exists(key) {
			t.Fatal("expected lock key to be held during callback")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("with lock: %v", err)
	}
	if !ran {
		t.Fatal("callback did not run")
	}
	if mr.Exists(key) {
		t.Fatal("expected lock key to be released")
	}
}

func TestWithLockReleasesOnCallbackError(t *testing.T) {
	locker, mr := newLocker(t)
	key := CartKey(uuid.New())

	boom := errors.New("boom")
	err := locker.WithLock(context.Background(), key, time.Minute, func(context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if mr.Exists(key) {
		t.Fatal("expected lock key to be released after error")
	}
}

func TestWithLockWaitsForHolder(t *testing.T) {
	locker, mr := newLocker(t)
	key := CartKey(uuid.New())

	mr.Set(key, "someone-else")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := locker.WithLock(ctx, key, time.Minute, func(context.Context) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
