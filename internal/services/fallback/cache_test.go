package fallback

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-backend/internal/common/database"
	"assessment-backend/internal/common/logger"
	"assessment-backend/internal/common/storage"
)

func createTestCache(t *testing.T) (*Cache, *storage.MemoryStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mem := storage.NewMemoryStore()
	cache := New(database.NewRedisFromClient(client), mem, logger.NewTestLogger(t))
	return cache, mem, mr
}

func TestAbsorbAndPending(t *testing.T) {
	cache, _, _ := createTestCache(t)
	ctx := context.Background()

	assert.False(t, cache.Degraded(ctx))

	err := cache.Absorb(ctx, "assessment", "organizations/acme/company.json", "application/json", []byte(`{"a":1}`))
	require.NoError(t, err)

	pending, err := cache.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"organizations/acme/company.json"}, pending)
	assert.True(t, cache.Degraded(ctx))
}

func TestAbsorbLastWriteWinsPerKey(t *testing.T) {
	cache, mem, _ := createTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Absorb(ctx, "assessment", "k", "application/json", []byte(`{"v":1}`)))
	require.NoError(t, cache.Absorb(ctx, "assessment", "k", "application/json", []byte(`{"v":2}`)))

	report, err := cache.Reconcile(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Replayed, 1)

	body, err := mem.Get(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(body))
}

func TestReconcileReplaysAndClears(t *testing.T) {
	cache, mem, _ := createTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Absorb(ctx, "uploads", "a", "application/json", []byte(`{}`)))
	require.NoError(t, cache.Absorb(ctx, "assessment", "b", "application/json", []byte(`{}`)))

	report, err := cache.Reconcile(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Replayed, 2)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 2, mem.Len())

	// mirror is drained; a second reconcile is a no-op
	assert.False(t, cache.Degraded(ctx))
	report, err = cache.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Replayed)
}

func TestReconcileKeepsEntriesWhenRemoteStillDown(t *testing.T) {
	cache, mem, _ := createTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Absorb(ctx, "assessment", "k", "application/json", []byte(`{}`)))

	mem.FailPuts = true
	report, err := cache.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Replayed)
	assert.Equal(t, []string{"k"}, report.Failed)

	// entry survives for the next attempt
	mem.FailPuts = false
	report, err = cache.Reconcile(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Replayed, 1)
	assert.Equal(t, 1, mem.Len())
}

func TestReconcileDropsUndecodableEntries(t *testing.T) {
	cache, mem, mr := createTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("fallback:junk", "not json"))

	report, err := cache.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Replayed)
	assert.Equal(t, []string{"junk"}, report.Failed)
	assert.Equal(t, 0, mem.Len())

	pending, err := cache.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
