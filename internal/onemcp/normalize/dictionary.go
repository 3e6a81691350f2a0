// Package normalize implements the Prompt Schema Normalizer (SPEC_FULL.md
// §4.4): it maps a free-text prompt onto the handbook's canonical vocabulary
// and derives the plan cache key from that projection.
package normalize

import (
	"sort"

	"onemcp/internal/onemcp/model"
)

// Dictionary is the handbook-derived vocabulary a prompt must be projected
// onto. Actions is fixed by model.Action; Entities, Fields, Operators, and
// Aggregates are derived from the loaded handbook so the normalizer rejects
// any LLM output referencing a field or entity the handbook doesn't have.
type Dictionary struct {
	Actions    []model.Action
	Entities   []string
	Fields     []string
	Operators  []string
	Aggregates []string
}

var allActions = []model.Action{
	model.ActionSearch, model.ActionGet, model.ActionList, model.ActionSummarize,
	model.ActionRank, model.ActionCreate, model.ActionUpdate, model.ActionDelete, model.ActionTrigger,
}

var defaultOperators = []string{"==", "!=", ">", ">=", "<", "<=", "in", "contains"}

var defaultAggregates = []string{"sum", "count", "avg", "min", "max"}

// BuildDictionary walks the handbook's services/operations and their
// schema-derived fields, mirroring the teacher's ToolMetadataRegistry
// pattern of deriving a lookup structure from registered definitions.
func BuildDictionary(hb *model.Handbook) Dictionary {
	entitySet := make(map[string]bool)
	fieldSet := make(map[string]bool)

	for _, svc := range hb.Services {
		for _, b := range svc.Descriptor.Entities {
			entitySet[b.Entity] = true
		}
		for _, op := range svc.Operations {
			for _, p := range op.Parameters {
				fieldSet[p.Name] = true
			}
			collectSchemaFieldNames(op.RequestBody, fieldSet)
			collectSchemaFieldNames(op.ResponseBody, fieldSet)
		}
	}

	return Dictionary{
		Actions:    allActions,
		Entities:   sortedKeys(entitySet),
		Fields:     sortedKeys(fieldSet),
		Operators:  defaultOperators,
		Aggregates: defaultAggregates,
	}
}

func collectSchemaFieldNames(schema *model.SchemaNode, into map[string]bool) {
	if schema == nil {
		return
	}
	for name := range schema.Properties {
		into[name] = true
	}
	if schema.Items != nil {
		collectSchemaFieldNames(schema.Items, into)
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (d Dictionary) hasAction(a model.Action) bool {
	for _, x := range d.Actions {
		if x == a {
			return true
		}
	}
	return false
}

func (d Dictionary) hasEntity(e string) bool {
	for _, x := range d.Entities {
		if x == e {
			return true
		}
	}
	return false
}

func (d Dictionary) hasField(f string) bool {
	for _, x := range d.Fields {
		if x == f {
			return true
		}
	}
	return false
}
