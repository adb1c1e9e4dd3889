package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const otherComponentsYAML = `openapi: 3.0.3
info:
  title: Other
  version: 1.0.0
paths: {}
components:
  schemas:
    Pet:
      type: string
    Owner:
      type: object
`

func TestResolver_Resolve(t *testing.T) {
	source := &specList{}
	source.add(loadSpec(t, componentsYAML))
	source.add(loadSpec(t, otherComponentsYAML))
	r := NewResolver(source)

	tests := []struct {
		name     string
		ref      string
		found    bool
		wantType string
	}{
		{name: "Schema in first document", ref: "#/components/schemas/Pet", found: true, wantType: "object"},
		{name: "Schema only in second document", ref: "#/components/schemas/Owner", found: true, wantType: "object"},
		{name: "Parameter resolves to its schema", ref: "#/components/parameters/PageSize", found: true, wantType: "integer"},
		{name: "Unknown schema", ref: "#/components/schemas/Missing", found: false},
		{name: "Unknown parameter", ref: "#/components/parameters/Missing", found: false},
		{name: "Unsupported component", ref: "#/components/responses/Pet", found: false},
		{name: "External reference", ref: "pets.yaml#/components/schemas/Pet", found: false},
		{name: "Empty name", ref: "#/components/schemas/", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := r.Resolve(tt.ref)
			require.Equal(t, tt.found, ok)
			if tt.found {
				assert.True(t, s.Type.Is(tt.wantType))
			}
		})
	}
}

func TestResolver_FirstMatchWinsAndIsCached(t *testing.T) {
	source := &specList{}
	source.add(loadSpec(t, otherComponentsYAML))
	r := NewResolver(source)

	s, ok := r.Resolve("#/components/schemas/Pet")
	require.True(t, ok)
	assert.True(t, s.Type.Is("string"))

	// a later document declaring the same name does not replace the cached hit
	source.add(loadSpec(t, componentsYAML))
	s, ok = r.Resolve("#/components/schemas/Pet")
	require.True(t, ok)
	assert.True(t, s.Type.Is("string"))

	r.Purge()
	assert.Zero(t, r.resolved.len())
}

func TestResolver_ResolveParameter(t *testing.T) {
	source := &specList{}
	source.add(loadSpec(t, componentsYAML))
	r := NewResolver(source)

	p, ok := r.ResolveParameter("#/components/parameters/PageSize")
	require.True(t, ok)
	assert.Equal(t, "pageSize", p.Name)
	assert.Equal(t, "query", p.In)

	_, ok = r.ResolveParameter("#/components/schemas/Pet")
	assert.False(t, ok)
}
