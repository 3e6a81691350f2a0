package graph

import (
	"context"
	"encoding/json"
	"fmt"

	"onemcp/internal/onemcp/model"
)

// QueryService answers the Context Resolution stage's entity lookups
// (SPEC_FULL.md §4.3): given the entities a normalized prompt schema names,
// it returns each entity's known fields and the operations that touch it,
// filtered to the requested categories when the caller supplied any.
type QueryService struct {
	store Store
}

func NewQueryService(store Store) *QueryService {
	return &QueryService{store: store}
}

// Resolve answers one ContextItem per requested entity. A entity absent from
// the graph yields ContextResult{Found: false}, never an error — the
// planning stage decides how to react to a miss.
func (q *QueryService) Resolve(ctx context.Context, items []model.ContextItem) ([]model.ContextResult, error) {
	results := make([]model.ContextResult, 0, len(items))
	for _, item := range items {
		result, err := q.resolveOne(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("graph: resolve entity %q: %w", item.Entity, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (q *QueryService) resolveOne(ctx context.Context, item model.ContextItem) (model.ContextResult, error) {
	nodes, err := q.store.NodesByEntity(ctx, item.Entity)
	if err != nil {
		return model.ContextResult{}, err
	}
	if len(nodes) == 0 {
		return model.ContextResult{Entity: item.Entity, Found: false}, nil
	}

	categorySet := make(map[model.Category]bool, len(item.Categories))
	for _, c := range item.Categories {
		categorySet[c] = true
	}

	fieldSet := make(map[string]bool)
	var records []model.OperationRecord
	seen := make(map[string]bool)

	for _, n := range nodes {
		switch n.NodeType {
		case model.NodeAPIOperationDocumentation:
			var doc model.OperationDocPayload
			if err := json.Unmarshal([]byte(n.Payload), &doc); err != nil {
				return model.ContextResult{}, fmt.Errorf("decode operation doc %s: %w", n.Key, err)
			}
			if len(categorySet) > 0 && !categorySet[doc.Category] {
				continue
			}
			recKey := doc.ServiceSlug + "|" + doc.OperationID
			if seen[recKey] {
				continue
			}
			seen[recKey] = true

			record, err := q.buildRecord(ctx, doc)
			if err != nil {
				return model.ContextResult{}, err
			}
			records = append(records, record)

			for _, p := range doc.Parameters {
				fieldSet[p.Name] = true
			}
			collectSchemaFields(record.RequestBody, fieldSet)
			collectSchemaFields(record.ResponseBody, fieldSet)
		}
	}

	fields := make([]string, 0, len(fieldSet))
	for f := range fieldSet {
		fields = append(fields, f)
	}

	return model.ContextResult{
		Entity:     item.Entity,
		Found:      true,
		Fields:     fields,
		Operations: records,
	}, nil
}

// buildRecord flattens an operation's doc node plus its sibling
// input/output/example nodes into the single OperationRecord the planner
// consumes.
func (q *QueryService) buildRecord(ctx context.Context, doc model.OperationDocPayload) (model.OperationRecord, error) {
	record := model.OperationRecord{
		ServiceSlug: doc.ServiceSlug,
		OperationID: doc.OperationID,
		Summary:     doc.Summary,
		Description: doc.Description,
		Method:      doc.Method,
		Path:        doc.Path,
		Category:    doc.Category,
		Tags:        doc.Tags,
	}

	siblings, err := q.store.NodesByOperation(ctx, doc.ServiceSlug, doc.OperationID)
	if err != nil {
		return model.OperationRecord{}, err
	}
	for _, n := range siblings {
		switch n.NodeType {
		case model.NodeAPIOperationInput:
			var schema model.SchemaNode
			if err := json.Unmarshal([]byte(n.Payload), &schema); err != nil {
				return model.OperationRecord{}, fmt.Errorf("decode input schema %s: %w", n.Key, err)
			}
			record.RequestBody = &schema
		case model.NodeAPIOperationOutput:
			var schema model.SchemaNode
			if err := json.Unmarshal([]byte(n.Payload), &schema); err != nil {
				return model.OperationRecord{}, fmt.Errorf("decode output schema %s: %w", n.Key, err)
			}
			record.ResponseBody = &schema
		case model.NodeAPIOperationExample:
			var ex model.ExampleDocPayload
			if err := json.Unmarshal([]byte(n.Payload), &ex); err != nil {
				return model.OperationRecord{}, fmt.Errorf("decode example %s: %w", n.Key, err)
			}
			record.Examples = append(record.Examples, model.OperationExample{
				Name:           ex.Name,
				RequestBody:    ex.RequestBody,
				ResponseBody:   ex.ResponseBody,
				ResponseStatus: ex.ResponseStatus,
			})
		}
	}
	return record, nil
}

// collectSchemaFields gathers top-level and one-level-nested property names
// out of a schema so ContextResult.Fields gives the planner a field
// vocabulary without forcing it to walk raw JSON schema trees.
func collectSchemaFields(schema *model.SchemaNode, into map[string]bool) {
	if schema == nil {
		return
	}
	for name := range schema.Properties {
		into[name] = true
	}
	if schema.Items != nil {
		for name := range schema.Items.Properties {
			into[name] = true
		}
	}
}
