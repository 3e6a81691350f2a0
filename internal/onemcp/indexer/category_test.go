package indexer

import (
	"testing"

	"onemcp/internal/onemcp/model"

	"github.com/stretchr/testify/assert"
)

func TestDeriveCategory(t *testing.T) {
	cases := []struct {
		method, summary string
		want            model.Category
	}{
		{"GET", "List all sales", model.CategoryRetrieve},
		{"POST", "Create a new customer", model.CategoryCreate},
		{"POST", "Query and aggregate sales by state", model.CategoryCompute},
		{"POST", "Calculate total revenue", model.CategoryCompute},
		{"PUT", "Update a customer record", model.CategoryUpdate},
		{"PATCH", "Partially update an order", model.CategoryUpdate},
		{"DELETE", "Remove a customer", model.CategoryDelete},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, DeriveCategory(c.method, c.summary), "%s %s", c.method, c.summary)
	}
}
