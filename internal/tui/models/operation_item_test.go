package models

import (
	"testing"

	"github.com/brizzai/mcp-openapi-hub/internal/catalog"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
)

func newItem() OperationItem {
	return OperationItem{
		Operation: &catalog.Operation{
			ID:         "listPets",
			Path:       "/pets",
			Method:     "GET",
			Definition: &openapi3.Operation{OperationID: "listPets", Summary: "List pets"},
		},
	}
}

func TestOperationItem(t *testing.T) {
	item := newItem()
	assert.Equal(t, "GET /pets (listPets)", item.Title())
	assert.Equal(t, "List pets", item.Description())
	assert.Contains(t, item.FilterValue(), "listPets")

	updated := item.UpdatedDescription("All the pets")
	assert.Equal(t, "All the pets", updated.Description())
	assert.Empty(t, item.NewDescription, "items are values")

	assert.Empty(t, updated.UpdatedDescription("List pets").NewDescription)

	removed := updated.ToggleRemoved()
	assert.True(t, removed.IsRemoved)
	assert.Contains(t, removed.Description(), "[Removed]")
	assert.False(t, removed.ToggleRemoved().IsRemoved)
}
