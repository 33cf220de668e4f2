package submissions

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		store, _ := newRedisStore(t)
		return store
	})
}

func TestRedisStoreIndexesByType(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	id, err := store.Append(ctx, testBooking(1))
	require.NoError(t, err)

	assert.True(t, mr.Exists(recordKey(id)))
	members, err := mr.ZMembers(indexKey(TypeBooking))
	require.NoError(t, err)
	assert.Equal(t, []string{id}, members)
	members, err = mr.ZMembers(indexKey(""))
	require.NoError(t, err)
	assert.Equal(t, []string{id}, members)
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	_, err := store.Append(context.Background(), testMessage(1))
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, store.Ping(context.Background()), ErrUnavailable)
}

func TestRedisStoreAppendRollsBackUnindexedRecord(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	// A string at the index key makes ZADD fail with WRONGTYPE.
	require.NoError(t, mr.Set(indexKey(TypeMessage), "corrupt"))

	in := testMessage(1)
	in.ID = "message_rollback"
	_, err := store.Append(ctx, in)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, mr.Exists(recordKey("message_rollback")))

	_, err = store.Get(ctx, "message_rollback")
	assert.ErrorIs(t, err, ErrNotFound)
	members, err := mr.ZMembers(indexKey(""))
	if err == nil {
		assert.NotContains(t, members, "message_rollback")
	}
}
