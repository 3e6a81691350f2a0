// Package mongostore implements graph.Store on top of MongoDB, the knowledge
// store backend the teacher repo already depends on for persistent
// collections (SPEC_FULL.md §4.3).
package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"onemcp/internal/onemcp/model"
)

type nodeDocument struct {
	Key           string            `bson:"_id"`
	NodeType      string            `bson:"nodeType"`
	APISlug       string            `bson:"apiSlug"`
	Entities      []string          `bson:"entities"`
	Operations    []string          `bson:"operations"`
	ContentFormat string            `bson:"contentFormat"`
	Payload       string            `bson:"payload"`
	Metadata      map[string]string `bson:"metadata,omitempty"`
}

type edgeDocument struct {
	Kind string `bson:"kind"`
	From string `bson:"from"`
	To   string `bson:"to"`
}

// Store persists nodes in one collection and edges in another, keyed so a
// node's edges can be replaced atomically on re-index without touching
// unrelated nodes.
type Store struct {
	nodes *mongo.Collection
	edges *mongo.Collection
}

// New wires indexes for the lookups the query service and indexer need:
// entity membership, operation membership, and (service, type) scans.
func New(ctx context.Context, db *mongo.Database) (*Store, error) {
	s := &Store{
		nodes: db.Collection("graph_nodes"),
		edges: db.Collection("graph_edges"),
	}

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "entities", Value: 1}}},
		{Keys: bson.D{{Key: "apiSlug", Value: 1}, {Key: "operations", Value: 1}}},
		{Keys: bson.D{{Key: "apiSlug", Value: 1}, {Key: "nodeType", Value: 1}}},
	}
	if _, err := s.nodes.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("mongostore: create node indexes: %w", err)
	}
	if _, err := s.edges.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "from", Value: 1}},
	}); err != nil {
		return nil, fmt.Errorf("mongostore: create edge index: %w", err)
	}
	return s, nil
}

func (s *Store) UpsertNode(ctx context.Context, node *model.Node, edges []model.Edge) error {
	doc := toDocument(node)
	opts := options.Replace().SetUpsert(true)
	if _, err := s.nodes.ReplaceOne(ctx, bson.M{"_id": doc.Key}, doc, opts); err != nil {
		return fmt.Errorf("mongostore: upsert node %s: %w", node.Key, err)
	}

	if _, err := s.edges.DeleteMany(ctx, bson.M{"from": node.Key}); err != nil {
		return fmt.Errorf("mongostore: clear edges for %s: %w", node.Key, err)
	}
	if len(edges) == 0 {
		return nil
	}
	docs := make([]any, len(edges))
	for i, e := range edges {
		docs[i] = edgeDocument{Kind: string(e.Kind), From: e.From, To: e.To}
	}
	if _, err := s.edges.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("mongostore: insert edges for %s: %w", node.Key, err)
	}
	return nil
}

func (s *Store) GetNode(ctx context.Context, key string) (*model.Node, bool, error) {
	var doc nodeDocument
	err := s.nodes.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("mongostore: get node %s: %w", key, err)
	}
	return fromDocument(doc), true, nil
}

func (s *Store) NodesByEntity(ctx context.Context, entityName string) ([]*model.Node, error) {
	return s.find(ctx, bson.M{"entities": entityName})
}

func (s *Store) NodesByOperation(ctx context.Context, serviceSlug, operationID string) ([]*model.Node, error) {
	return s.find(ctx, bson.M{"apiSlug": serviceSlug, "operations": operationID})
}

func (s *Store) NodesByType(ctx context.Context, serviceSlug string, nodeType model.NodeType) ([]*model.Node, error) {
	return s.find(ctx, bson.M{"apiSlug": serviceSlug, "nodeType": string(nodeType)})
}

func (s *Store) DeleteService(ctx context.Context, serviceSlug string) error {
	cur, err := s.nodes.Find(ctx, bson.M{"apiSlug": serviceSlug}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return fmt.Errorf("mongostore: list nodes for service %s: %w", serviceSlug, err)
	}
	var keys []string
	for cur.Next(ctx) {
		var doc struct {
			Key string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return fmt.Errorf("mongostore: decode node key: %w", err)
		}
		keys = append(keys, doc.Key)
	}
	if _, err := s.nodes.DeleteMany(ctx, bson.M{"apiSlug": serviceSlug}); err != nil {
		return fmt.Errorf("mongostore: delete nodes for service %s: %w", serviceSlug, err)
	}
	if len(keys) > 0 {
		if _, err := s.edges.DeleteMany(ctx, bson.M{"from": bson.M{"$in": keys}}); err != nil {
			return fmt.Errorf("mongostore: delete edges for service %s: %w", serviceSlug, err)
		}
	}
	return nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]*model.Node, error) {
	cur, err := s.nodes.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongostore: find: %w", err)
	}
	defer cur.Close(ctx)

	var out []*model.Node
	for cur.Next(ctx) {
		var doc nodeDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongostore: decode node: %w", err)
		}
		out = append(out, fromDocument(doc))
	}
	return out, cur.Err()
}

func toDocument(n *model.Node) nodeDocument {
	return nodeDocument{
		Key:           n.Key,
		NodeType:      string(n.NodeType),
		APISlug:       n.APISlug,
		Entities:      n.Entities,
		Operations:    n.Operations,
		ContentFormat: string(n.ContentFormat),
		Payload:       n.Payload,
		Metadata:      n.Metadata,
	}
}

func fromDocument(doc nodeDocument) *model.Node {
	return &model.Node{
		Key:           doc.Key,
		NodeType:      model.NodeType(doc.NodeType),
		APISlug:       doc.APISlug,
		Entities:      doc.Entities,
		Operations:    doc.Operations,
		ContentFormat: model.ContentFormat(doc.ContentFormat),
		Payload:       doc.Payload,
		Metadata:      doc.Metadata,
	}
}
