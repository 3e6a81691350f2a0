package handbook

import (
	"context"
	"sync/atomic"

	"onemcp/internal/onemcp/model"
)

// Snapshot holds the current, read-only handbook behind an atomic pointer so
// a reload can build a new handbook off to the side and then swap the
// reference in one step, per SPEC_FULL.md §5 "Handbook state is read-only
// after load; re-load is atomic."
type Snapshot struct {
	ptr atomic.Pointer[model.Handbook]
}

// NewSnapshot wraps an already-loaded handbook.
func NewSnapshot(hb *model.Handbook) *Snapshot {
	s := &Snapshot{}
	s.ptr.Store(hb)
	return s
}

// Current returns the handbook currently in effect.
func (s *Snapshot) Current() *model.Handbook {
	return s.ptr.Load()
}

// Reload loads the handbook at root again and swaps it in atomically. It
// returns the new handbook's version so callers can invalidate dependent
// caches when it differs from the previous version.
func (s *Snapshot) Reload(ctx context.Context, root string) (newVersion string, changed bool, err error) {
	hb, err := Load(ctx, root)
	if err != nil {
		return "", false, err
	}
	old := s.ptr.Swap(hb)
	changed = old == nil || old.Version() != hb.Version()
	return hb.Version(), changed, nil
}
