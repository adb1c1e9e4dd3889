package schema

import (
	"sync"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/require"
)

// specList is a mutable SpecSource for tests
type specList struct {
	mu    sync.Mutex
	specs []*openapi3.T
}

func (s *specList) RootSpecs() []*openapi3.T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*openapi3.T(nil), s.specs...)
}

func (s *specList) add(spec *openapi3.T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.specs = append(s.specs, spec)
}

func loadSpec(t *testing.T, yaml string) *openapi3.T {
	t.Helper()
	doc, err := openapi3.NewLoader().LoadFromData([]byte(yaml))
	require.NoError(t, err)
	return doc
}

func newTestConverter(t *testing.T, yamls ...string) (*Converter, *specList) {
	t.Helper()
	source := &specList{}
	for _, y := range yamls {
		source.add(loadSpec(t, y))
	}
	return NewConverter(NewResolver(source)), source
}

func ref(r string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Ref: r}
}

func componentSchema(t *testing.T, doc *openapi3.T, name string) *openapi3.SchemaRef {
	t.Helper()
	s, ok := doc.Components.Schemas[name]
	require.True(t, ok, "component %s", name)
	return s
}

const componentsYAML = `openapi: 3.0.3
info:
  title: Components
  version: 1.0.0
paths: {}
components:
  parameters:
    PageSize:
      name: pageSize
      in: query
      schema:
        type: integer
        format: int32
  schemas:
    Pet:
      type: object
      required: [name]
      properties:
        id:
          type: integer
          format: int64
        name:
          type: string
        tags:
          type: array
          items:
            type: string
    Node:
      type: object
      properties:
        value:
          type: string
        next:
          $ref: '#/components/schemas/Node'
    A:
      type: object
      properties:
        b:
          $ref: '#/components/schemas/B'
    B:
      type: object
      properties:
        a:
          $ref: '#/components/schemas/A'
    Name:
      type: string
      minLength: 1
    Pair:
      type: object
      properties:
        left:
          $ref: '#/components/schemas/Name'
        right:
          $ref: '#/components/schemas/Name'
    PetAlias:
      $ref: '#/components/schemas/Pet'
`
