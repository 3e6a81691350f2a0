package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"onemcp/internal/onemcp/graph"
	"onemcp/internal/onemcp/model"
)

// IndexHandbook walks a loaded handbook and upserts the graph nodes described
// in SPEC_FULL.md §4.2: one API_DOCUMENTATION node per service, one
// API_OPERATION_DOCUMENTATION node per operation (summary, description,
// parameters, tags, derived category), API_OPERATION_INPUT/OUTPUT nodes when
// request/response schemas exist, and one API_OPERATION_EXAMPLE node per
// named example. Upserts are idempotent on key; UpsertNode is responsible for
// replacing a node's prior outgoing edges. No DOCS_CHUNK nodes are written:
// the handbook's docs/ tree is not read here.
func IndexHandbook(ctx context.Context, store graph.Store, hb *model.Handbook) error {
	slugs := make([]string, 0, len(hb.Services))
	for slug := range hb.Services {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	for _, slug := range slugs {
		svc := hb.Services[slug]
		if err := indexService(ctx, store, svc); err != nil {
			return fmt.Errorf("indexer: service %q: %w", slug, err)
		}
	}
	return nil
}

func indexService(ctx context.Context, store graph.Store, svc *model.Service) error {
	entityNames := make([]string, 0, len(svc.Descriptor.Entities))
	for _, b := range svc.Descriptor.Entities {
		entityNames = append(entityNames, b.Entity)
	}
	sort.Strings(entityNames)

	svcNode, svcEdges, err := serviceNode(svc, entityNames)
	if err != nil {
		return err
	}
	if err := store.UpsertNode(ctx, svcNode, svcEdges); err != nil {
		return fmt.Errorf("upsert service node: %w", err)
	}

	opIDs := make([]string, 0, len(svc.Operations))
	for id := range svc.Operations {
		opIDs = append(opIDs, id)
	}
	sort.Strings(opIDs)

	for _, opID := range opIDs {
		op := svc.Operations[opID]
		entities := resolveEntities(svc.Descriptor.Entities, op.Tags)

		if err := upsertOperationDoc(ctx, store, op, entities); err != nil {
			return err
		}
		if op.RequestBody != nil {
			if err := upsertSchemaNode(ctx, store, model.NodeAPIOperationInput, op, op.RequestBody, entities); err != nil {
				return err
			}
		}
		if op.ResponseBody != nil {
			if err := upsertSchemaNode(ctx, store, model.NodeAPIOperationOutput, op, op.ResponseBody, entities); err != nil {
				return err
			}
		}
		for _, ex := range op.Examples {
			if err := upsertExample(ctx, store, op, ex, entities); err != nil {
				return err
			}
		}
	}
	return nil
}

func serviceNode(svc *model.Service, entityNames []string) (*model.Node, []model.Edge, error) {
	payload, err := json.Marshal(model.ServiceDocPayload{
		Slug:           svc.Slug,
		Name:           svc.Name,
		OperationCount: len(svc.Operations),
		Entities:       entityNames,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal service doc: %w", err)
	}
	key := NodeKey(string(model.NodeAPIDocumentation), svc.Slug, svc.Slug)
	node := &model.Node{
		Key:           key,
		NodeType:      model.NodeAPIDocumentation,
		APISlug:       svc.Slug,
		Entities:      entityNames,
		ContentFormat: model.ContentFormatJSON,
		Payload:       string(payload),
	}
	edges := buildEdges(key, entityNames)
	return node, edges, nil
}

func upsertOperationDoc(ctx context.Context, store graph.Store, op *model.Operation, entities []string) error {
	category := op.Category
	if category == "" {
		category = DeriveCategory(op.Method, op.Summary)
	}
	payload, err := json.Marshal(model.OperationDocPayload{
		ServiceSlug: op.ServiceSlug,
		OperationID: op.OperationID,
		Method:      op.Method,
		Path:        op.Path,
		Summary:     op.Summary,
		Description: op.Description,
		Tags:        op.Tags,
		Category:    category,
		Parameters:  op.Parameters,
	})
	if err != nil {
		return fmt.Errorf("marshal operation doc %s: %w", op.OperationID, err)
	}
	key := NodeKey(string(model.NodeAPIOperationDocumentation), op.ServiceSlug, op.OperationID)
	node := &model.Node{
		Key:           key,
		NodeType:      model.NodeAPIOperationDocumentation,
		APISlug:       op.ServiceSlug,
		Entities:      entities,
		Operations:    []string{op.OperationID},
		ContentFormat: model.ContentFormatJSON,
		Payload:       string(payload),
	}
	edges := buildEdges(key, entities, op.OperationID)
	if err := store.UpsertNode(ctx, node, edges); err != nil {
		return fmt.Errorf("upsert operation doc %s: %w", op.OperationID, err)
	}
	return nil
}

func upsertSchemaNode(ctx context.Context, store graph.Store, nodeType model.NodeType, op *model.Operation, schema *model.SchemaNode, entities []string) error {
	payload, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal %s schema for %s: %w", nodeType, op.OperationID, err)
	}
	key := NodeKey(string(nodeType), op.ServiceSlug, op.OperationID)
	node := &model.Node{
		Key:           key,
		NodeType:      nodeType,
		APISlug:       op.ServiceSlug,
		Entities:      entities,
		Operations:    []string{op.OperationID},
		ContentFormat: model.ContentFormatJSON,
		Payload:       string(payload),
	}
	edges := buildEdges(key, entities, op.OperationID)
	if err := store.UpsertNode(ctx, node, edges); err != nil {
		return fmt.Errorf("upsert %s node for %s: %w", nodeType, op.OperationID, err)
	}
	return nil
}

func upsertExample(ctx context.Context, store graph.Store, op *model.Operation, ex model.OperationExample, entities []string) error {
	payload, err := json.Marshal(model.ExampleDocPayload{
		OperationID:    op.OperationID,
		Name:           ex.Name,
		RequestBody:    ex.RequestBody,
		ResponseBody:   ex.ResponseBody,
		ResponseStatus: ex.ResponseStatus,
	})
	if err != nil {
		return fmt.Errorf("marshal example %s/%s: %w", op.OperationID, ex.Name, err)
	}
	key := NodeKey(string(model.NodeAPIOperationExample), op.ServiceSlug, op.OperationID+"|"+ex.Name)
	node := &model.Node{
		Key:           key,
		NodeType:      model.NodeAPIOperationExample,
		APISlug:       op.ServiceSlug,
		Entities:      entities,
		Operations:    []string{op.OperationID},
		ContentFormat: model.ContentFormatJSON,
		Payload:       string(payload),
	}
	edges := buildEdges(key, entities, op.OperationID)
	if err := store.UpsertNode(ctx, node, edges); err != nil {
		return fmt.Errorf("upsert example node %s/%s: %w", op.OperationID, ex.Name, err)
	}
	return nil
}

// resolveEntities returns the entity names whose handbook tag bindings
// intersect the operation's OpenAPI tags.
func resolveEntities(bindings []model.EntityBinding, opTags []string) []string {
	tagSet := make(map[string]bool, len(opTags))
	for _, t := range opTags {
		tagSet[t] = true
	}

	var matched []string
	for _, b := range bindings {
		for _, t := range b.Tags {
			if tagSet[t] {
				matched = append(matched, b.Entity)
				break
			}
		}
	}
	sort.Strings(matched)
	return matched
}

func buildEdges(fromKey string, entities []string, operationIDs ...string) []model.Edge {
	edges := make([]model.Edge, 0, len(entities)+len(operationIDs))
	for _, e := range entities {
		edges = append(edges, model.Edge{Kind: model.EdgeHasEntity, From: fromKey, To: e})
	}
	for _, op := range operationIDs {
		edges = append(edges, model.Edge{Kind: model.EdgeHasOperation, From: fromKey, To: op})
	}
	return edges
}
