package indexer_test

import (
	"context"
	"testing"

	"onemcp/internal/onemcp/graph/inmemory"
	"onemcp/internal/onemcp/indexer"
	"onemcp/internal/onemcp/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildHandbook() *model.Handbook {
	svc := &model.Service{
		Slug: "acme",
		Name: "Acme Sales",
		Descriptor: model.APIDescriptor{
			Slug: "acme",
			Name: "Acme Sales",
			Entities: []model.EntityBinding{
				{Entity: "Sale", Tags: []string{"sales"}},
			},
		},
		Operations: map[string]*model.Operation{
			"querySales": {
				ServiceSlug: "acme",
				OperationID: "querySales",
				Method:      "GET",
				Path:        "/sales",
				Summary:     "List all sales",
				Tags:        []string{"sales"},
				Category:    model.CategoryRetrieve,
				RequestBody: nil,
				ResponseBody: &model.SchemaNode{
					Type: "array",
					Items: &model.SchemaNode{
						Type: "object",
						Properties: map[string]*model.SchemaNode{
							"id": {Type: "string"},
						},
					},
				},
				Examples: []model.OperationExample{
					{Name: "basic", ResponseStatus: 200, ResponseBody: []any{map[string]any{"id": "1"}}},
				},
			},
		},
	}
	return model.NewHandbook("/handbook", model.AgentDescriptor{}, map[string]*model.Service{"acme": svc}, "", nil, "v1")
}

func TestIndexHandbookCreatesAllNodeKinds(t *testing.T) {
	store := inmemory.New()
	hb := buildHandbook()

	err := indexer.IndexHandbook(context.Background(), store, hb)
	require.NoError(t, err)

	svcNode, ok, err := store.GetNode(context.Background(), indexer.NodeKey(string(model.NodeAPIDocumentation), "acme", "acme"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.NodeAPIDocumentation, svcNode.NodeType)

	docNode, ok, err := store.GetNode(context.Background(), indexer.NodeKey(string(model.NodeAPIOperationDocumentation), "acme", "querySales"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, docNode.Entities, "Sale")
	assert.Contains(t, docNode.Operations, "querySales")

	_, ok, err = store.GetNode(context.Background(), indexer.NodeKey(string(model.NodeAPIOperationInput), "acme", "querySales"))
	require.NoError(t, err)
	assert.False(t, ok, "no request body was declared, no input node expected")

	outputNode, ok, err := store.GetNode(context.Background(), indexer.NodeKey(string(model.NodeAPIOperationOutput), "acme", "querySales"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.ContentFormatJSON, outputNode.ContentFormat)

	exampleNode, ok, err := store.GetNode(context.Background(), indexer.NodeKey(string(model.NodeAPIOperationExample), "acme", "querySales|basic"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"querySales"}, exampleNode.Operations)
}

func TestIndexHandbookIsIdempotent(t *testing.T) {
	store := inmemory.New()
	hb := buildHandbook()

	require.NoError(t, indexer.IndexHandbook(context.Background(), store, hb))
	require.NoError(t, indexer.IndexHandbook(context.Background(), store, hb))

	key := indexer.NodeKey(string(model.NodeAPIOperationDocumentation), "acme", "querySales")
	nodes, err := store.NodesByOperation(context.Background(), "acme", "querySales")
	require.NoError(t, err)

	count := 0
	for _, n := range nodes {
		if n.Key == key {
			count++
		}
	}
	assert.Equal(t, 1, count, "re-indexing must not duplicate nodes")
	assert.Len(t, store.Edges(key), 2, "doc node keeps exactly its entity+operation edges after re-index")
}
