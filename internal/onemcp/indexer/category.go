// Package indexer builds knowledge graph nodes and edges from a loaded
// handbook (SPEC_FULL.md §4.2) and upserts them into a graph.Store.
package indexer

import (
	"strings"

	"onemcp/internal/onemcp/model"
)

var computeKeywords = []string{"query", "aggregate", "compute", "calculate"}

// DeriveCategory classifies an operation for graph filtering: POST summaries
// mentioning a compute-ish verb become Compute; otherwise the HTTP method
// decides. This is the pure function named in SPEC_FULL.md §4.2.
func DeriveCategory(method, summary string) model.Category {
	method = strings.ToUpper(method)
	lowerSummary := strings.ToLower(summary)

	if method == "POST" {
		for _, kw := range computeKeywords {
			if strings.Contains(lowerSummary, kw) {
				return model.CategoryCompute
			}
		}
		return model.CategoryCreate
	}

	switch method {
	case "GET", "HEAD":
		return model.CategoryRetrieve
	case "PUT", "PATCH":
		return model.CategoryUpdate
	case "DELETE":
		return model.CategoryDelete
	default:
		return model.CategoryRetrieve
	}
}
