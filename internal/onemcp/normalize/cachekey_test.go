package normalize_test

import (
	"testing"

	"onemcp/internal/onemcp/model"
	"onemcp/internal/onemcp/normalize"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeyIgnoresEntityAndFieldOrder(t *testing.T) {
	a := &model.PromptSchema{Action: model.ActionSummarize, Entities: []string{"Sale", "Customer"}, Fields: []string{"amount"}, GroupBy: []string{"state"}}
	b := &model.PromptSchema{Action: model.ActionSummarize, Entities: []string{"Customer", "Sale"}, Fields: []string{"amount"}, GroupBy: []string{"state"}}

	assert.Equal(t, normalize.CacheKey(a), normalize.CacheKey(b))
}

func TestCacheKeyIgnoresFiltersAndParams(t *testing.T) {
	a := &model.PromptSchema{
		Action: model.ActionSummarize, Entities: []string{"Sale"}, GroupBy: []string{"state"},
		Filters: []model.Filter{{Field: "date.year", Op: "==", Value: 2023}},
		Params:  map[string]any{"limit": 10},
	}
	b := &model.PromptSchema{
		Action: model.ActionSummarize, Entities: []string{"Sale"}, GroupBy: []string{"state"},
		Filters: []model.Filter{{Field: "date.year", Op: "==", Value: 2024}},
		Params:  map[string]any{"limit": 50},
	}

	assert.Equal(t, normalize.CacheKey(a), normalize.CacheKey(b))
}

func TestCacheKeyDiffersOnAction(t *testing.T) {
	a := &model.PromptSchema{Action: model.ActionSummarize, Entities: []string{"Sale"}}
	b := &model.PromptSchema{Action: model.ActionList, Entities: []string{"Sale"}}

	assert.NotEqual(t, normalize.CacheKey(a), normalize.CacheKey(b))
}
