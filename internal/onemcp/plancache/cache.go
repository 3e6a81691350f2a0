// Package plancache implements the Plan Cache (SPEC_FULL.md §4.5): an
// in-memory, handbook-version-scoped lookup keyed by the normalizer's cache
// key, backed by an atomically-written JSON file.
package plancache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"onemcp/internal/onemcp/model"
)

// Loader builds a fresh plan for a cache miss. It is invoked at most once per
// key concurrently, via the cache's singleflight group.
type Loader func(ctx context.Context) (*model.Plan, error)

// Cache is the in-process plan lookup. It is safe for concurrent use;
// concurrent misses on the same key collapse into a single Loader call via
// golang.org/x/sync/singleflight, matching the teacher's widespread use of
// the package for single-flighting expensive, duplicate-prone work.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]model.PlanCacheEntry // keyed by "<handbookVersion>|<cacheKey>"
	group   singleflight.Group
	store   *FileStore // nil when persistence is disabled
}

func New(store *FileStore) *Cache {
	return &Cache{entries: make(map[string]model.PlanCacheEntry), store: store}
}

// Load restores entries from the backing FileStore, if one was configured.
// Entries from a handbook version other than the running one are kept (a
// later handbook reload may bring that version back) but Get only ever
// returns entries matching the requested version.
func (c *Cache) Load() error {
	if c.store == nil {
		return nil
	}
	doc, err := c.store.Read()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range doc.Entries {
		c.entries[compositeKey(e.HandbookVersion, e.CacheKey)] = e
	}
	return nil
}

// Get returns the cached plan for (handbookVersion, cacheKey), or ok=false on
// a miss. A hit bumps HitCount/LastUsedAt.
func (c *Cache) Get(handbookVersion, cacheKey string) (model.Plan, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := compositeKey(handbookVersion, cacheKey)
	entry, ok := c.entries[key]
	if !ok {
		return model.Plan{}, false
	}
	entry.HitCount++
	entry.LastUsedAt = time.Now()
	c.entries[key] = entry
	return entry.Plan, true
}

// GetOrLoad returns the cached plan, or calls load exactly once across
// concurrent callers sharing the same key and stores the result on success.
// A Loader error is never cached — the caller must treat it as a miss that
// bypasses storage, per SPEC_FULL.md §4.4's "never pollute the cache with
// unstable keys" invariant.
func (c *Cache) GetOrLoad(ctx context.Context, handbookVersion, cacheKey string, load Loader) (model.Plan, bool, error) {
	if plan, ok := c.Get(handbookVersion, cacheKey); ok {
		return plan, true, nil
	}

	key := compositeKey(handbookVersion, cacheKey)
	v, err, _ := c.group.Do(key, func() (any, error) {
		plan, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.Put(handbookVersion, cacheKey, *plan)
		return *plan, nil
	})
	if err != nil {
		return model.Plan{}, false, err
	}
	return v.(model.Plan), false, nil
}

// Put stores or replaces the cached plan for (handbookVersion, cacheKey) and
// persists the cache to disk if a FileStore is configured.
func (c *Cache) Put(handbookVersion, cacheKey string, plan model.Plan) {
	now := time.Now()
	c.mu.Lock()
	c.entries[compositeKey(handbookVersion, cacheKey)] = model.PlanCacheEntry{
		CacheKey:        cacheKey,
		HandbookVersion: handbookVersion,
		Plan:            plan,
		CreatedAt:       now,
		LastUsedAt:      now,
		HitCount:        0,
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	if c.store != nil {
		_ = c.store.Write(snapshot) // best-effort; an in-memory hit still serves this process
	}
}

// InvalidateVersion drops every entry not belonging to currentVersion, called
// after a handbook reload changes its content hash.
func (c *Cache) InvalidateVersion(currentVersion string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if e.HandbookVersion != currentVersion {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) snapshotLocked() model.CacheDocument {
	entries := make([]model.PlanCacheEntry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}
	now := time.Now()
	return model.CacheDocument{Version: 1, Entries: entries, LastSync: &now}
}

func compositeKey(handbookVersion, cacheKey string) string {
	return handbookVersion + "|" + cacheKey
}
