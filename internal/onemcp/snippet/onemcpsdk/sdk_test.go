package onemcpsdk_test

import (
	"testing"

	"onemcp/internal/onemcp/snippet/bridge"
	"onemcp/internal/onemcp/snippet/onemcpsdk"
	"onemcp/internal/onemcp/valuestore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSDKGetReturnsPayloadNotEntry(t *testing.T) {
	store := valuestore.New()
	require.NoError(t, store.Reserve("step1", []string{"total"}))
	require.NoError(t, store.Set("step1", "total", 42))

	sdk := onemcpsdk.New(bridge.New(nil), store, "step2", 0)
	value, ok := sdk.Get("total")
	require.True(t, ok)
	assert.Equal(t, 42, value)
}

func TestSDKGetMissingReturnsFalse(t *testing.T) {
	store := valuestore.New()
	sdk := onemcpsdk.New(bridge.New(nil), store, "step1", 0)
	value, ok := sdk.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, value)
}
