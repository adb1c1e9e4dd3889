package schema

import (
	"encoding/json"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(f float64) *float64 { return &f }
func uptr(u uint64) *uint64 { return &u }

func TestConverter_ConcreteSchemas(t *testing.T) {
	yes := true
	no := false

	tests := []struct {
		name   string
		schema *openapi3.SchemaRef
		want   map[string]any
	}{
		{
			name:   "Nil schema",
			schema: nil,
			want:   map[string]any{"type": "object", "description": "No schema available"},
		},
		{
			name:   "Empty ref",
			schema: &openapi3.SchemaRef{},
			want:   map[string]any{"type": "object", "description": "No schema available"},
		},
		{
			name: "String constraints",
			schema: openapi3.NewSchemaRef("", &openapi3.Schema{
				Type:        &openapi3.Types{"string"},
				Description: "A code",
				Format:      "uuid",
				Default:     "x",
				Enum:        []any{"a", "b"},
				MinLength:   2,
				MaxLength:   uptr(8),
				Pattern:     "^[a-z]+$",
			}),
			want: map[string]any{
				"type":        "string",
				"description": "A code",
				"format":      "uuid",
				"default":     "x",
				"enum":        []any{"a", "b"},
				"minLength":   uint64(2),
				"maxLength":   uint64(8),
				"pattern":     "^[a-z]+$",
			},
		},
		{
			name: "Numeric bounds",
			schema: openapi3.NewSchemaRef("", &openapi3.Schema{
				Type:         &openapi3.Types{"number"},
				Min:          fptr(0),
				Max:          fptr(10),
				ExclusiveMin: true,
				ExclusiveMax: true,
				MultipleOf:   fptr(0.5),
			}),
			want: map[string]any{
				"type":             "number",
				"minimum":          float64(0),
				"maximum":          float64(10),
				"exclusiveMinimum": true,
				"exclusiveMaximum": true,
				"multipleOf":       0.5,
			},
		},
		{
			name: "Array bounds with primitive items",
			schema: openapi3.NewSchemaRef("", &openapi3.Schema{
				Type:        &openapi3.Types{"array"},
				MinItems:    1,
				MaxItems:    uptr(3),
				UniqueItems: true,
				Items:       openapi3.NewSchemaRef("", &openapi3.Schema{Type: &openapi3.Types{"integer"}}),
			}),
			want: map[string]any{
				"type":        "array",
				"minItems":    uint64(1),
				"maxItems":    uint64(3),
				"uniqueItems": true,
				"items":       map[string]any{"type": "integer"},
			},
		},
		{
			name: "Object with required properties",
			schema: openapi3.NewSchemaRef("", &openapi3.Schema{
				Type:     &openapi3.Types{"object"},
				Required: []string{"name"},
				Properties: openapi3.Schemas{
					"name": openapi3.NewSchemaRef("", &openapi3.Schema{Type: &openapi3.Types{"string"}}),
					"age":  openapi3.NewSchemaRef("", &openapi3.Schema{Type: &openapi3.Types{"integer"}}),
				},
			}),
			want: map[string]any{
				"type":     "object",
				"required": []string{"name"},
				"properties": map[string]any{
					"name": map[string]any{"type": "string"},
					"age":  map[string]any{"type": "integer"},
				},
			},
		},
		{
			name: "Untyped schema with properties is an object",
			schema: openapi3.NewSchemaRef("", &openapi3.Schema{
				Properties: openapi3.Schemas{
					"flag": openapi3.NewSchemaRef("", &openapi3.Schema{Type: &openapi3.Types{"boolean"}}),
				},
			}),
			want: map[string]any{
				"properties": map[string]any{
					"flag": map[string]any{"type": "boolean"},
				},
			},
		},
		{
			name: "additionalProperties schema",
			schema: openapi3.NewSchemaRef("", &openapi3.Schema{
				Type: &openapi3.Types{"object"},
				AdditionalProperties: openapi3.AdditionalProperties{
					Schema: openapi3.NewSchemaRef("", &openapi3.Schema{Type: &openapi3.Types{"string"}}),
				},
			}),
			want: map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
		},
		{
			name: "additionalProperties true",
			schema: openapi3.NewSchemaRef("", &openapi3.Schema{
				Type:                 &openapi3.Types{"object"},
				AdditionalProperties: openapi3.AdditionalProperties{Has: &yes},
			}),
			want: map[string]any{"type": "object", "additionalProperties": true},
		},
		{
			name: "additionalProperties false",
			schema: openapi3.NewSchemaRef("", &openapi3.Schema{
				Type:                 &openapi3.Types{"object"},
				AdditionalProperties: openapi3.AdditionalProperties{Has: &no},
			}),
			want: map[string]any{"type": "object", "additionalProperties": false},
		},
		{
			name: "Composition keywords",
			schema: openapi3.NewSchemaRef("", &openapi3.Schema{
				OneOf: openapi3.SchemaRefs{
					openapi3.NewSchemaRef("", &openapi3.Schema{Type: &openapi3.Types{"string"}}),
					openapi3.NewSchemaRef("", &openapi3.Schema{Type: &openapi3.Types{"integer"}}),
				},
			}),
			want: map[string]any{
				"oneOf": []any{
					map[string]any{"type": "string"},
					map[string]any{"type": "integer"},
				},
			},
		},
		{
			name: "Multiple types",
			schema: openapi3.NewSchemaRef("", &openapi3.Schema{
				Type: &openapi3.Types{"string", "null"},
			}),
			want: map[string]any{"type": []string{"string", "null"}},
		},
	}

	c, _ := newTestConverter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Convert(tt.schema, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Convert() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConverter_ResolvedReference(t *testing.T) {
	c, _ := newTestConverter(t, componentsYAML)

	got := c.Convert(ref("#/components/schemas/Pet"), nil)
	assert.Equal(t, "#/components/schemas/Pet", got["$ref"])
	assert.Equal(t, "object", got["type"])
	assert.Equal(t, []string{"name"}, got["required"])

	props, ok := got["properties"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"type": "integer", "format": "int64"}, props["id"])
	assert.Equal(t, map[string]any{"type": "string"}, props["name"])
	assert.Equal(t, map[string]any{"type": "array", "items": map[string]any{"type": "string"}}, props["tags"])
}

func TestConverter_AliasComponent(t *testing.T) {
	c, _ := newTestConverter(t, componentsYAML)

	got := c.Convert(ref("#/components/schemas/PetAlias"), nil)
	assert.Equal(t, "#/components/schemas/PetAlias", got["$ref"])
	assert.Contains(t, got["properties"], "name")
}

func TestConverter_SelfReference(t *testing.T) {
	c, _ := newTestConverter(t, componentsYAML)

	got := c.Convert(ref("#/components/schemas/Node"), nil)
	props := got["properties"].(map[string]any)
	next := props["next"].(map[string]any)
	assert.Equal(t, "object", next["type"])
	assert.Equal(t, "Circular reference: #/components/schemas/Node", next["description"])
	assert.NotContains(t, next, "properties")
}

func TestConverter_MutualReference(t *testing.T) {
	c, _ := newTestConverter(t, componentsYAML)

	got := c.Convert(ref("#/components/schemas/A"), nil)
	b := got["properties"].(map[string]any)["b"].(map[string]any)
	assert.Equal(t, "#/components/schemas/B", b["$ref"])

	backToA := b["properties"].(map[string]any)["a"].(map[string]any)
	assert.Equal(t, "Circular reference: #/components/schemas/A", backToA["description"])

	// the result must be finite and serializable
	_, err := json.Marshal(got)
	assert.NoError(t, err)
}

func TestConverter_SiblingBranchesAreIndependent(t *testing.T) {
	c, _ := newTestConverter(t, componentsYAML)

	got := c.Convert(ref("#/components/schemas/Pair"), nil)
	props := got["properties"].(map[string]any)
	for _, side := range []string{"left", "right"} {
		m := props[side].(map[string]any)
		assert.Equal(t, "string", m["type"], side)
		assert.Equal(t, uint64(1), m["minLength"], side)
		assert.NotContains(t, m["description"], "Circular reference", side)
	}
}

func TestConverter_UnresolvedReferenceIsNotCached(t *testing.T) {
	c, source := newTestConverter(t)

	got := c.Convert(ref("#/components/schemas/Pet"), nil)
	assert.Equal(t, map[string]any{
		"$ref":        "#/components/schemas/Pet",
		"type":        "object",
		"description": "Referenced schema: #/components/schemas/Pet",
	}, got)

	_, converted, _ := c.CacheStats()
	assert.Zero(t, converted)

	// a later document satisfies the reference
	source.add(loadSpec(t, componentsYAML))
	got = c.Convert(ref("#/components/schemas/Pet"), nil)
	assert.Equal(t, "object", got["type"])
	assert.Contains(t, got, "properties")
}

func TestConverter_UnsupportedReferenceShape(t *testing.T) {
	c, _ := newTestConverter(t, componentsYAML)

	got := c.Convert(ref("other.yaml#/definitions/Pet"), nil)
	assert.Equal(t, "Referenced schema: other.yaml#/definitions/Pet", got["description"])
}

func TestConverter_CachedResultIsACopy(t *testing.T) {
	c, _ := newTestConverter(t, componentsYAML)

	first := c.Convert(ref("#/components/schemas/Pet"), nil)
	first["type"] = "mutated"
	first["properties"].(map[string]any)["id"] = "mutated"

	second := c.Convert(ref("#/components/schemas/Pet"), nil)
	assert.Equal(t, "object", second["type"])
	assert.Equal(t, map[string]any{"type": "integer", "format": "int64"}, second["properties"].(map[string]any)["id"])

	_, converted, _ := c.CacheStats()
	assert.Equal(t, 1, converted)
}

func TestConverter_DoesNotModifyInProgressSet(t *testing.T) {
	c, _ := newTestConverter(t, componentsYAML)

	inProgress := RefSet{"#/components/schemas/Other": {}}
	_ = c.Convert(ref("#/components/schemas/Node"), inProgress)
	assert.Equal(t, RefSet{"#/components/schemas/Other": {}}, inProgress)
}

func TestConverter_InProgressReferenceIsCircular(t *testing.T) {
	c, _ := newTestConverter(t, componentsYAML)

	got := c.Convert(ref("#/components/schemas/Pet"), RefSet{"#/components/schemas/Pet": {}})
	assert.Equal(t, "Circular reference: #/components/schemas/Pet", got["description"])
}

func TestConverter_PrimitiveItemsKeepType(t *testing.T) {
	c, _ := newTestConverter(t, componentsYAML)

	got := c.Convert(openapi3.NewSchemaRef("", &openapi3.Schema{
		Type:  &openapi3.Types{"array"},
		Items: ref("#/components/schemas/Name"),
	}), nil)

	items := got["items"].(map[string]any)
	assert.Equal(t, "string", items["type"])
	assert.Equal(t, "#/components/schemas/Name", items["$ref"])
}

func TestConverter_Purge(t *testing.T) {
	c, _ := newTestConverter(t, componentsYAML)

	_ = c.Convert(ref("#/components/schemas/Pet"), nil)
	resolved, converted, _ := c.CacheStats()
	assert.Equal(t, 1, resolved)
	assert.Equal(t, 1, converted)

	c.Purge()
	resolved, converted, responses := c.CacheStats()
	assert.Zero(t, resolved)
	assert.Zero(t, converted)
	assert.Zero(t, responses)
}

func TestConverter_DoesNotMutateInput(t *testing.T) {
	c, _ := newTestConverter(t, componentsYAML)
	doc := loadSpec(t, componentsYAML)
	pet := componentSchema(t, doc, "Pet")

	before, err := json.Marshal(pet.Value)
	require.NoError(t, err)

	got := c.Convert(pet, nil)
	got["properties"].(map[string]any)["id"].(map[string]any)["type"] = "string"

	after, err := json.Marshal(pet.Value)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}
