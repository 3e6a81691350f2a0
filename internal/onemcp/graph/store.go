// Package graph defines the pluggable knowledge graph store and the query
// service built on top of it (SPEC_FULL.md §4.3). The spec's Non-goals
// explicitly exclude "implementing a general graph database"; Store is the
// narrow interface that lets the indexer and the query service share a
// contract while swapping the backend (Mongo when MONGODB_URI is set,
// in-memory for tests and otherwise).
package graph

import (
	"context"

	"onemcp/internal/onemcp/model"
)

// Store is the minimal persistence contract the indexer and the query
// service need: upsert a node with its outgoing edges (replacing any prior
// edges for that node), fetch nodes by key, and look up nodes that declare a
// given entity or operation.
type Store interface {
	// UpsertNode writes node and replaces all of its outgoing edges with
	// edges. The operation is idempotent on node.Key.
	UpsertNode(ctx context.Context, node *model.Node, edges []model.Edge) error

	// GetNode returns the node stored under key, or ok=false if absent.
	GetNode(ctx context.Context, key string) (node *model.Node, ok bool, err error)

	// NodesByEntity returns every node tagged with entityName, across all
	// node types, used by GraphQueryService to answer "what can I do with
	// entity X" queries.
	NodesByEntity(ctx context.Context, entityName string) ([]*model.Node, error)

	// NodesByOperation returns nodes referencing the given service+operation
	// pair (typically the API_OPERATION_DOCUMENTATION node plus its
	// INPUT/OUTPUT/EXAMPLE children).
	NodesByOperation(ctx context.Context, serviceSlug, operationID string) ([]*model.Node, error)

	// NodesByType returns every node of the given type for a service, used
	// to enumerate a service's operations or docs chunks.
	NodesByType(ctx context.Context, serviceSlug string, nodeType model.NodeType) ([]*model.Node, error)

	// DeleteService removes every node (and their edges) belonging to
	// serviceSlug, used when a service is dropped from the handbook between
	// reloads.
	DeleteService(ctx context.Context, serviceSlug string) error
}
