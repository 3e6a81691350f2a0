package plancache_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"onemcp/internal/onemcp/model"
	"onemcp/internal/onemcp/plancache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrLoadCallsLoaderOnceUnderConcurrency(t *testing.T) {
	cache := plancache.New(nil)
	var calls int32

	loader := func(ctx context.Context) (*model.Plan, error) {
		atomic.AddInt32(&calls, 1)
		return &model.Plan{Kind: model.WorkflowSequential}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := cache.GetOrLoad(context.Background(), "v1", "key", loader)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetOrLoadDoesNotCacheLoaderError(t *testing.T) {
	cache := plancache.New(nil)
	boom := errors.New("boom")

	_, _, err := cache.GetOrLoad(context.Background(), "v1", "key", func(ctx context.Context) (*model.Plan, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	_, ok := cache.Get("v1", "key")
	assert.False(t, ok, "a failed load must never populate the cache")
}

func TestInvalidateVersionDropsStaleEntries(t *testing.T) {
	cache := plancache.New(nil)
	cache.Put("v1", "key", model.Plan{Kind: model.WorkflowSequential})
	cache.Put("v2", "key", model.Plan{Kind: model.WorkflowSequential})

	cache.InvalidateVersion("v2")

	_, okV1 := cache.Get("v1", "key")
	_, okV2 := cache.Get("v2", "key")
	assert.False(t, okV1)
	assert.True(t, okV2)
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.json")
	store := plancache.NewFileStore(path)

	cache := plancache.New(store)
	cache.Put("v1", "key", model.Plan{Kind: model.WorkflowSequential})

	reloaded := plancache.New(plancache.NewFileStore(path))
	require.NoError(t, reloaded.Load())

	plan, ok := reloaded.Get("v1", "key")
	require.True(t, ok)
	assert.Equal(t, model.WorkflowSequential, plan.Kind)
}
