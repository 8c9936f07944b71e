package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearlens/resolve/internal/infrastructure/monitoring/logging"
	"github.com/clearlens/resolve/pkg/errors"
)

func newMockClient(t *testing.T) (*Client, redismock.ClientMock) {
	t.Helper()
	rdb, mock := redismock.NewClientMock()
	return NewClientFromRedis(rdb, "resolve", logging.NewNopLogger()), mock
}

func TestKeyPrefixing(t *testing.T) {
	client, _ := newMockClient(t)
	assert.Equal(t, "resolve:lock:abc", client.Key("lock", "abc"))

	bare := NewClientFromRedis(nil, "", logging.NewNopLogger())
	assert.Equal(t, "lock:abc", bare.Key("lock", "abc"))
}

func TestKeyLockAcquireAndRelease(t *testing.T) {
	client, mock := newMockClient(t)
	lock := client.NewKeyLock("pseudo:abc", WithTTL(time.Second))

	mock.ExpectSetNX("resolve:lock:pseudo:abc", lock.value, time.Second).SetVal(true)
	require.NoError(t, lock.Lock(context.Background()))

	mock.ExpectEvalSha(unlockScript.Hash(), []string{"resolve:lock:pseudo:abc"}, lock.value).SetVal(int64(1))
	require.NoError(t, lock.Unlock(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyLockContention(t *testing.T) {
	client, mock := newMockClient(t)
	lock := client.NewKeyLock("pseudo:abc", WithTTL(time.Second), WithRetry(time.Millisecond, 2))

	mock.ExpectSetNX("resolve:lock:pseudo:abc", lock.value, time.Second).SetVal(false)
	mock.ExpectSetNX("resolve:lock:pseudo:abc", lock.value, time.Second).SetVal(false)

	err := lock.Lock(context.Background())
	assert.True(t, errors.IsCode(err, errors.CodeLockNotAcquired))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyLockUnlockNotHeld(t *testing.T) {
	client, mock := newMockClient(t)
	lock := client.NewKeyLock("pseudo:abc")

	// Another owner's value survived; the script refuses the delete.
	mock.ExpectEvalSha(unlockScript.Hash(), []string{"resolve:lock:pseudo:abc"}, lock.value).SetVal(int64(0))

	err := lock.Unlock(context.Background())
	assert.True(t, errors.IsCode(err, errors.CodeLockNotAcquired))
}

func TestKeyLockValuesAreUnique(t *testing.T) {
	client, _ := newMockClient(t)
	a := client.NewKeyLock("same")
	b := client.NewKeyLock("same")
	assert.NotEqual(t, a.value, b.value)
}
