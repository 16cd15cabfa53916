package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nirvana_backend/internal/intake/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func sampleSession() *domain.Session {
	dept := domain.DepartmentWater
	uid := uuid.New()
	return &domain.Session{
		SenderID: "919876543210",
		Stage:    domain.StageMediaUpload,
		UserID:   &uid,
		Draft: domain.Draft{
			Description:   "pipe leaking",
			Department:    &dept,
			SeverityScore: 0.7,
			Location:      &domain.Coordinates{Latitude: 12.9716, Longitude: 77.5946},
		},
		UpdatedAt: time.Now(),
	}
}

func TestMemoryStore_LoadReturnsFreshSession(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	s, err := store.Load(context.Background(), "123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Stage != domain.StageInit || s.SenderID != "123" {
		t.Fatalf("expected fresh init session, got %+v", s)
	}
}

func TestMemoryStore_SaveIsolatesCopies(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	s := sampleSession()
	if err := store.Save(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.Draft.Location.Latitude = 0
	loaded, _ := store.Load(context.Background(), s.SenderID)
	if loaded.Draft.Location.Latitude != 12.9716 {
		t.Fatalf("expected stored copy to be unaffected by caller mutation")
	}
}

func TestMemoryStore_ExpiresIdleSessions(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	s := sampleSession()
	s.UpdatedAt = now.Add(-2 * time.Minute)
	_ = store.Save(context.Background(), s)

	loaded, _ := store.Load(context.Background(), s.SenderID)
	if loaded.Stage != domain.StageInit {
		t.Fatalf("expected expired session to load as init, got %s", loaded.Stage)
	}
	if removed := store.Sweep(); removed != 1 {
		t.Fatalf("expected 1 swept session, got %d", removed)
	}
}

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()
	var inside atomic.Int32
	var maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := km.Lock(context.Background(), "sender")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			n := inside.Add(1)
			if n > maxInside.Load() {
				maxInside.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	if maxInside.Load() != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxInside.Load())
	}
	if km.Len() != 0 {
		t.Fatalf("expected entries to be released, got %d", km.Len())
	}
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	km := NewKeyedMutex()
	unlockA, _ := km.Lock(context.Background(), "a")
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	unlockB, err := km.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("expected independent key to lock, got %v", err)
	}
	unlockB()
}

func TestKeyedMutex_RespectsContext(t *testing.T) {
	km := NewKeyedMutex()
	unlock, _ := km.Lock(context.Background(), "a")
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := km.Lock(ctx, "a"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisStore_RoundTripAndTTL(t *testing.T) {
	mr, rdb := newRedis(t)
	store := NewRedisStore(rdb, time.Hour)
	ctx := context.Background()

	s := sampleSession()
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := store.Load(ctx, s.SenderID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Stage != domain.StageMediaUpload || *loaded.Draft.Department != domain.DepartmentWater {
		t.Fatalf("unexpected session %+v", loaded)
	}
	if *loaded.UserID != *s.UserID {
		t.Fatalf("user id not preserved")
	}

	mr.FastForward(2 * time.Hour)
	loaded, err = store.Load(ctx, s.SenderID)
	if err != nil {
		t.Fatalf("load after expiry: %v", err)
	}
	if loaded.Stage != domain.StageInit {
		t.Fatalf("expected expired session to reset, got %s", loaded.Stage)
	}
}

func TestRedisStore_CorruptStageResets(t *testing.T) {
	mr, rdb := newRedis(t)
	store := NewRedisStore(rdb, time.Hour)
	_ = mr.Set(sessionKeyPrefix+"42", `{"sender_id":"42","stage":"bogus","draft":{"description":"x"}}`)

	loaded, err := store.Load(context.Background(), "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Stage != domain.StageInit || loaded.Draft.Description != "" {
		t.Fatalf("expected reset session, got %+v", loaded)
	}
}

func TestRedisLocker_ExclusiveAndReleases(t *testing.T) {
	_, rdb := newRedis(t)
	locker := NewRedisLocker(rdb, time.Minute)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "sender")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 120*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(waitCtx, "sender"); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected lock timeout, got %v", err)
	}

	unlock()
	unlock()

	unlock2, err := locker.Lock(ctx, "sender")
	if err != nil {
		t.Fatalf("expected lock after release, got %v", err)
	}
	unlock2()
}

func TestRedisLocker_ReleaseDoesNotStealForeignLock(t *testing.T) {
	mr, rdb := newRedis(t)
	locker := NewRedisLocker(rdb, time.Second)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "sender")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	// Simulate expiry and takeover by another worker.
	mr.FastForward(2 * time.Second)
	_ = mr.Set(lockKeyPrefix+"sender", "other-worker")

	unlock()
	got, _ := mr.Get(lockKeyPrefix + "sender")
	if got != "other-worker" {
		t.Fatalf("expected foreign lock to survive, got %q", got)
	}
}

func TestRedisLocker_RenewsWhileHeld(t *testing.T) {
	mr, rdb := newRedis(t)
	locker := NewRedisLocker(rdb, 2*time.Minute)
	locker.renewEvery = 20 * time.Millisecond
	ctx := context.Background()
	key := lockKeyPrefix + "sender"

	unlock, err := locker.Lock(ctx, "sender")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	// A slow image event outlives the initial ttl.
	mr.FastForward(100 * time.Second)
	deadline := time.Now().Add(2 * time.Second)
	for mr.TTL(key) <= 100*time.Second {
		if time.Now().After(deadline) {
			t.Fatalf("lock was not renewed, ttl %v", mr.TTL(key))
		}
		time.Sleep(5 * time.Millisecond)
	}
	mr.FastForward(75 * time.Second)

	waitCtx, cancel := context.WithTimeout(ctx, 120*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(waitCtx, "sender"); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected lock to stay held, got %v", err)
	}

	unlock()
	if mr.Exists(key) {
		t.Fatal("expected lock released")
	}
}

func TestRedisLocker_StopsRenewingForeignLock(t *testing.T) {
	mr, rdb := newRedis(t)
	locker := NewRedisLocker(rdb, time.Second)
	locker.renewEvery = 10 * time.Millisecond
	key := lockKeyPrefix + "sender"

	unlock, err := locker.Lock(context.Background(), "sender")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer unlock()

	_ = mr.Set(key, "other-worker")
	mr.SetTTL(key, 500*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	if ttl := mr.TTL(key); ttl != 500*time.Millisecond {
		t.Fatalf("expected foreign lock ttl untouched, got %v", ttl)
	}
}
