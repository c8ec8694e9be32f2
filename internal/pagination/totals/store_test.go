package totals

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edgecomet/pagination/internal/common/config"
	"github.com/edgecomet/pagination/internal/common/redis"
	"github.com/edgecomet/pagination/internal/pagination/signal"
)

var _ signal.TotalsCache = (*Store)(nil)

type countingRecorder struct {
	ops map[string]int
}

func (r *countingRecorder) RecordCacheOp(op, result string) {
	r.ops[op+":"+result]++
}

func setupStore(t *testing.T, opts ...Option) (*Store, *miniredis.Miniredis, *countingRecorder) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := redis.NewClient(&config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	rec := &countingRecorder{ops: map[string]int{}}
	opts = append(opts, WithRecorder(rec))
	return NewStore(client, redis.NewKeyGenerator(""), zap.NewNop(), opts...), mr, rec
}

func TestStore_SetAndGet(t *testing.T) {
	store, mr, rec := setupStore(t)
	ctx := context.Background()

	_, ok := store.GetTotal(ctx, "15")
	assert.False(t, ok)

	store.SetTotal(ctx, "15", 20)

	value, err := mr.Get("pagination_total_15")
	require.NoError(t, err)
	assert.Equal(t, "20", value)
	assert.Equal(t, time.Hour, mr.TTL("pagination_total_15"))

	total, ok := store.GetTotal(ctx, "15")
	assert.True(t, ok)
	assert.Equal(t, 20, total)

	assert.Equal(t, 1, rec.ops["get:miss"])
	assert.Equal(t, 1, rec.ops["set:ok"])
	assert.Equal(t, 1, rec.ops["get:hit"])
}

func TestStore_Expires(t *testing.T) {
	store, mr, _ := setupStore(t, WithTTL(10*time.Minute))
	ctx := context.Background()

	store.SetTotal(ctx, "9", 4)
	assert.Equal(t, 10*time.Minute, mr.TTL("pagination_total_9"))

	mr.FastForward(11 * time.Minute)
	_, ok := store.GetTotal(ctx, "9")
	assert.False(t, ok)
}

func TestStore_LastWriterWins(t *testing.T) {
	store, _, _ := setupStore(t)
	ctx := context.Background()

	store.SetTotal(ctx, "3", 12)
	store.SetTotal(ctx, "3", 7)

	total, ok := store.GetTotal(ctx, "3")
	require.True(t, ok)
	assert.Equal(t, 7, total)
}

func TestStore_IgnoresInvalidInput(t *testing.T) {
	store, mr, rec := setupStore(t)
	ctx := context.Background()

	store.SetTotal(ctx, "", 5)
	store.SetTotal(ctx, "4", 0)
	assert.Empty(t, mr.Keys())
	assert.Empty(t, rec.ops)

	require.NoError(t, mr.Set("pagination_total_8", "lots"))
	_, ok := store.GetTotal(ctx, "8")
	assert.False(t, ok)
	assert.Equal(t, 1, rec.ops["get:miss"])
}

func TestStore_ServerDownIsAMiss(t *testing.T) {
	store, mr, rec := setupStore(t, WithTimeout(100*time.Millisecond))
	mr.Close()
	ctx := context.Background()

	store.SetTotal(ctx, "1", 3)
	_, ok := store.GetTotal(ctx, "1")

	assert.False(t, ok)
	assert.Equal(t, 1, rec.ops["set:error"])
	assert.Equal(t, 1, rec.ops["get:error"])
}

func TestStore_KeyPrefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := redis.NewClient(&config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	store := NewStore(client, redis.NewKeyGenerator("blog:"), nil)
	store.SetTotal(context.Background(), "5", 2)

	assert.True(t, mr.Exists("blog:pagination_total_5"))
}
