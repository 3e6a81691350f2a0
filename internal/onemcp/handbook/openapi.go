package handbook

import (
	"fmt"

	"onemcp/internal/onemcp/model"

	"github.com/getkin/kin-openapi/openapi3"
)

// extractOperations walks a resolved OpenAPI document's paths and builds one
// model.Operation per (method, path), keyed by operationId. operationId is
// required to be unique within a service (SPEC_FULL.md §3 invariant).
func extractOperations(serviceSlug string, doc *openapi3.T) (map[string]*model.Operation, error) {
	operations := make(map[string]*model.Operation)
	if doc.Paths == nil {
		return operations, nil
	}

	for path, item := range doc.Paths.Map() {
		for method, op := range item.Operations() {
			if op.OperationID == "" {
				return nil, fmt.Errorf("operation %s %s is missing operationId", method, path)
			}
			if _, dup := operations[op.OperationID]; dup {
				return nil, fmt.Errorf("duplicate operationId %q", op.OperationID)
			}

			operations[op.OperationID] = &model.Operation{
				ServiceSlug: serviceSlug,
				OperationID: op.OperationID,
				Method:      method,
				Path:        path,
				Summary:     op.Summary,
				Description: op.Description,
				Tags:        op.Tags,
				Parameters:  extractParameters(op.Parameters),
				RequestBody: extractRequestBody(op.RequestBody),
				ResponseBody: extractResponseBody(op.Responses),
				Examples:    extractExamples(op),
			}
		}
	}
	return operations, nil
}

func extractParameters(params openapi3.Parameters) []model.Parameter {
	out := make([]model.Parameter, 0, len(params))
	for _, pRef := range params {
		if pRef == nil || pRef.Value == nil {
			continue
		}
		p := pRef.Value
		out = append(out, model.Parameter{
			Name:        p.Name,
			In:          p.In,
			Required:    p.Required,
			Description: p.Description,
			Schema:      schemaToNode(p.Schema, 1),
		})
	}
	return out
}

func extractRequestBody(ref *openapi3.RequestBodyRef) *model.SchemaNode {
	if ref == nil || ref.Value == nil {
		return nil
	}
	for _, media := range ref.Value.Content {
		return schemaToNode(media.Schema, 1)
	}
	return nil
}

func extractResponseBody(responses *openapi3.Responses) *model.SchemaNode {
	if responses == nil {
		return nil
	}
	for _, code := range []string{"200", "201", "default"} {
		if respRef := responses.Value(code); respRef != nil && respRef.Value != nil {
			for _, media := range respRef.Value.Content {
				return schemaToNode(media.Schema, 1)
			}
		}
	}
	return nil
}

// schemaToNode serializes an OpenAPI schema into the flattened tree the
// knowledge graph stores, resolving $ref one level deep per SPEC_FULL.md §4.2.
func schemaToNode(ref *openapi3.SchemaRef, depth int) *model.SchemaNode {
	if ref == nil || ref.Value == nil || depth < 0 {
		return nil
	}
	s := ref.Value

	node := &model.SchemaNode{
		Type:        schemaTypeString(s),
		Format:      s.Format,
		Description: s.Description,
		Required:    s.Required,
	}
	for _, e := range s.Enum {
		node.Enum = append(node.Enum, e)
	}
	if s.Items != nil && depth > 0 {
		node.Items = schemaToNode(s.Items, depth-1)
	}
	if len(s.Properties) > 0 && depth > 0 {
		node.Properties = make(map[string]*model.SchemaNode, len(s.Properties))
		for name, propRef := range s.Properties {
			node.Properties[name] = schemaToNode(propRef, depth-1)
		}
	}
	return node
}

func schemaTypeString(s *openapi3.Schema) string {
	if s.Type == nil {
		return ""
	}
	if len(*s.Type) > 0 {
		return (*s.Type)[0]
	}
	return ""
}

func extractExamples(op *openapi3.Operation) []model.OperationExample {
	var examples []model.OperationExample
	if op.RequestBody != nil && op.RequestBody.Value != nil {
		for _, media := range op.RequestBody.Value.Content {
			for name, ex := range media.Examples {
				if ex == nil || ex.Value == nil {
					continue
				}
				examples = append(examples, model.OperationExample{
					Name:        name,
					RequestBody: ex.Value.Value,
				})
			}
		}
	}
	if op.Responses != nil {
		for code, respRef := range op.Responses.Map() {
			if respRef == nil || respRef.Value == nil {
				continue
			}
			status := statusCodeToInt(code)
			for _, media := range respRef.Value.Content {
				for name, ex := range media.Examples {
					if ex == nil || ex.Value == nil {
						continue
					}
					examples = append(examples, model.OperationExample{
						Name:           name,
						ResponseBody:   ex.Value.Value,
						ResponseStatus: status,
					})
				}
			}
		}
	}
	return examples
}

func statusCodeToInt(code string) int {
	n := 0
	for _, c := range code {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
