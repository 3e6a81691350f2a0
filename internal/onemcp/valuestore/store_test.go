package valuestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("step1", "total", 42))

	entry, ok := s.Get("total")
	require.True(t, ok)
	assert.Equal(t, 42, entry.Payload)
	assert.Equal(t, "int", entry.TypeTag)
}

func TestHasAllReportsMissing(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("step1", "a", 1))

	missing, ok := s.HasAll([]string{"a", "b", "c"})
	assert.False(t, ok)
	assert.ElementsMatch(t, []string{"b", "c"}, missing)
}

func TestReservePreventsDuplicateOwners(t *testing.T) {
	s := New()
	require.NoError(t, s.Reserve("step1", []string{"total"}))

	err := s.Reserve("step2", []string{"total"})
	assert.Error(t, err)

	// same step re-reserving its own output is fine
	assert.NoError(t, s.Reserve("step1", []string{"total"}))
}

func TestSetRejectsWriteFromNonOwner(t *testing.T) {
	s := New()
	require.NoError(t, s.Reserve("step1", []string{"total"}))

	err := s.Set("step2", "total", 1)
	assert.Error(t, err)

	assert.NoError(t, s.Set("step1", "total", 1))
}

func TestDiscardUncommitted(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("step1", "a", 1))
	require.NoError(t, s.Set("step1", "b", 2))

	s.DiscardUncommitted(map[string]bool{"a": true})

	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("b"))
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("step1", "a", 1))

	snap := s.Snapshot()
	snap["a"] = Entry{Name: "a", Payload: 999}

	entry, _ := s.Get("a")
	assert.Equal(t, 1, entry.Payload)
}
