package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clearlens/resolve/internal/infrastructure/monitoring/logging"
	"github.com/clearlens/resolve/pkg/errors"
)

// KeyLock is a per-key distributed mutex.  It serializes pseudonym creation
// for one (business_id, field_kind) key across processes when the backing
// mapping store cannot arbitrate concurrent inserts itself.  Locks are
// owner-checked: only the holder that set the value can release it.
type KeyLock struct {
	client *Client
	name   string
	value  string
	ttl    time.Duration
	retry  time.Duration
	tries  int
	logger logging.Logger
}

// LockOption adjusts a KeyLock.
type LockOption func(*KeyLock)

// WithTTL sets how long the lock survives a crashed holder.
func WithTTL(ttl time.Duration) LockOption {
	return func(l *KeyLock) { l.ttl = ttl }
}

// WithRetry sets the acquisition retry delay and attempt count.
func WithRetry(delay time.Duration, tries int) LockOption {
	return func(l *KeyLock) { l.retry, l.tries = delay, tries }
}

// NewKeyLock creates a lock for one logical key.  The lock value is unique
// per instance, so two locks for the same name never release each other.
func (c *Client) NewKeyLock(name string, opts ...LockOption) *KeyLock {
	l := &KeyLock{
		client: c,
		name:   name,
		value:  uuid.NewString(),
		ttl:    30 * time.Second,
		retry:  100 * time.Millisecond,
		tries:  30,
		logger: c.logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

func (l *KeyLock) key() string {
	return l.client.Key("lock", l.name)
}

// Lock blocks until the lock is acquired, the retry budget runs out, or ctx
// is cancelled.
func (l *KeyLock) Lock(ctx context.Context) error {
	for i := 0; i < l.tries; i++ {
		ok, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retry):
		}
	}
	return errors.New(errors.CodeLockNotAcquired, "failed to acquire lock: "+l.name)
}

// TryLock attempts a single acquisition.
func (l *KeyLock) TryLock(ctx context.Context) (bool, error) {
	ok, err := l.client.Underlying().SetNX(ctx, l.key(), l.value, l.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.CodeCacheError, "failed to set lock")
	}
	return ok, nil
}

// Unlock releases the lock if this instance still holds it.
func (l *KeyLock) Unlock(ctx context.Context) error {
	res, err := unlockScript.Run(ctx, l.client.Underlying(), []string{l.key()}, l.value).Result()
	if err != nil {
		return errors.Wrap(err, errors.CodeCacheError, "failed to release lock")
	}
	if n, _ := res.(int64); n == 0 {
		return errors.New(errors.CodeLockNotAcquired, "lock not held by this owner: "+l.name)
	}
	return nil
}
