package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nirvana_backend/internal/intake/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "intake:session:"
	lockKeyPrefix    = "intake:lock:"

	renewTimeout = 5 * time.Second
)

// ErrLockTimeout is returned when the lock could not be acquired before ctx ended.
var ErrLockTimeout = errors.New("session lock not acquired")

// RedisStore keeps sessions as JSON documents with a sliding TTL.
type RedisStore struct {
	rdb redis.UniversalClient
	ttl time.Duration
	now func() time.Time
}

// NewRedisStore creates a store on top of an existing client.
func NewRedisStore(rdb redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, now: time.Now}
}

func (r *RedisStore) Load(ctx context.Context, senderID string) (*domain.Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKeyPrefix+senderID).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewSession(senderID, r.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !s.Stage.Valid() {
		s.Stage = domain.StageInit
		s.Draft = domain.Draft{}
	}
	s.SenderID = senderID
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *domain.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.rdb.Set(ctx, sessionKeyPrefix+s.SenderID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, senderID string) error {
	return r.rdb.Del(ctx, sessionKeyPrefix+senderID).Err()
}

// releaseScript deletes the lock only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the lock only while it still holds our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker is a single-instance Redis lock (SET NX PX with a random token)
// used when several workers consume events for the same senders. A held lock
// is renewed every ttl/3 until it is released, so ttl only bounds how long a
// crashed holder can block a sender, not how long a handler may run.
type RedisLocker struct {
	rdb        redis.UniversalClient
	ttl        time.Duration
	retry      time.Duration
	renewEvery time.Duration
}

// NewRedisLocker creates a locker.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, retry: 50 * time.Millisecond, renewEvery: ttl / 3}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	lockKey := lockKeyPrefix + key

	for {
		ok, err := l.rdb.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
			}
			return nil, fmt.Errorf("acquire session lock: %w", err)
		}
		if ok {
			stop := make(chan struct{})
			done := make(chan struct{})
			go l.keepAlive(lockKey, token, stop, done)
			return l.unlockFunc(lockKey, token, stop, done), nil
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
		case <-timer.C:
		}
	}
}

// keepAlive renews the lock until stop is closed or the lock is found to
// belong to someone else.
func (l *RedisLocker) keepAlive(lockKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.renewEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), min(l.renewEvery, renewTimeout))
			n, err := renewScript.Run(ctx, l.rdb, []string{lockKey}, token, l.ttl.Milliseconds()).Int()
			cancel()
			if err == nil && n == 0 {
				return
			}
		}
	}
}

func (l *RedisLocker) unlockFunc(lockKey, token string, stop chan<- struct{}, done <-chan struct{}) func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true
		close(stop)
		<-done

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.rdb, []string{lockKey}, token).Err()
	}
}
