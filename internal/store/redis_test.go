package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PerpIndexer/internal/entity"
	"PerpIndexer/internal/testutil"
)

func TestCachedStoreReadThrough(t *testing.T) {
	testutil.RequireIntegration(t)
	ctx := context.Background()

	rdb, err := ConnectRedis(ctx, testutil.TestRedisAddr())
	if err != nil {
		t.Skipf("test redis not available: %v", err)
	}
	defer rdb.Close()
	defer rdb.Del(ctx, cacheKey(entity.KindMarket, "0xm1"))

	primary := NewMemoryStore()
	cached := NewCachedStore(primary, rdb, time.Minute)

	_, err = cached.Load(ctx, entity.KindMarket, "0xm1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, cached.Save(ctx, entity.KindMarket, "0xm1", []byte(`{"symbol":"ETH"}`)))

	// Cache now holds the value; remove from primary to prove the read
	// is served from Redis.
	require.NoError(t, primary.Remove(ctx, entity.KindMarket, "0xm1"))

	data, err := cached.Load(ctx, entity.KindMarket, "0xm1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"symbol":"ETH"}`, string(data))
}

func TestCachedStoreRemoveInvalidates(t *testing.T) {
	testutil.RequireIntegration(t)
	ctx := context.Background()

	rdb, err := ConnectRedis(ctx, testutil.TestRedisAddr())
	if err != nil {
		t.Skipf("test redis not available: %v", err)
	}
	defer rdb.Close()

	primary := NewMemoryStore()
	cached := NewCachedStore(primary, rdb, time.Minute)

	require.NoError(t, cached.Save(ctx, entity.KindMarket, "0xm2", []byte(`{"symbol":"BTC"}`)))
	require.NoError(t, cached.Remove(ctx, entity.KindMarket, "0xm2"))

	_, err = cached.Load(ctx, entity.KindMarket, "0xm2")
	assert.ErrorIs(t, err, ErrNotFound)
}
