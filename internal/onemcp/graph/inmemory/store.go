// Package inmemory implements graph.Store without any external dependency,
// for unit tests and for deployments without MONGODB_URI; the knowledge graph
// is not persisted across restarts.
package inmemory

import (
	"context"
	"sync"

	"onemcp/internal/onemcp/model"
)

type Store struct {
	mu    sync.RWMutex
	nodes map[string]*model.Node
	edges map[string][]model.Edge // keyed by node key
}

func New() *Store {
	return &Store{
		nodes: make(map[string]*model.Node),
		edges: make(map[string][]model.Edge),
	}
}

func (s *Store) UpsertNode(ctx context.Context, node *model.Node, edges []model.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *node
	s.nodes[node.Key] = &cp
	s.edges[node.Key] = append([]model.Edge(nil), edges...)
	return nil
}

func (s *Store) GetNode(ctx context.Context, key string) (*model.Node, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[key]
	if !ok {
		return nil, false, nil
	}
	cp := *n
	return &cp, true, nil
}

func (s *Store) NodesByEntity(ctx context.Context, entityName string) ([]*model.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Node
	for _, n := range s.nodes {
		for _, e := range n.Entities {
			if e == entityName {
				cp := *n
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (s *Store) NodesByOperation(ctx context.Context, serviceSlug, operationID string) ([]*model.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Node
	for _, n := range s.nodes {
		if n.APISlug != serviceSlug {
			continue
		}
		for _, op := range n.Operations {
			if op == operationID {
				cp := *n
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (s *Store) NodesByType(ctx context.Context, serviceSlug string, nodeType model.NodeType) ([]*model.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Node
	for _, n := range s.nodes {
		if n.APISlug == serviceSlug && n.NodeType == nodeType {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) DeleteService(ctx context.Context, serviceSlug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, n := range s.nodes {
		if n.APISlug == serviceSlug {
			delete(s.nodes, key)
			delete(s.edges, key)
		}
	}
	return nil
}

// Edges returns a copy of the outgoing edges stored for key, mainly for tests
// asserting idempotent edge replacement.
func (s *Store) Edges(key string) []model.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Edge(nil), s.edges[key]...)
}
