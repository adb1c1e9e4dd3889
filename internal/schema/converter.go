// Package schema converts OpenAPI schema graphs into plain JSON Schema maps
// suitable for tool input schemas.
package schema

import (
	"maps"

	"github.com/brizzai/mcp-openapi-hub/internal/logger"
	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"
)

// RefSet holds the references being expanded on the current branch
type RefSet map[string]struct{}

// Has reports whether ref is in the set
func (s RefSet) Has(ref string) bool {
	_, ok := s[ref]
	return ok
}

// Clone returns an independent copy, used when forking into sibling branches
func (s RefSet) Clone() RefSet {
	out := make(RefSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

var primitiveTypes = map[string]struct{}{
	openapi3.TypeString:  {},
	openapi3.TypeInteger: {},
	openapi3.TypeNumber:  {},
	openapi3.TypeBoolean: {},
}

// Converter turns schema nodes into JSON Schema maps, memoizing converted
// references and response schemas
type Converter struct {
	resolver  *Resolver
	converted *cache[map[string]any]
	responses *cache[map[string]any]
}

// NewConverter creates a Converter that resolves references with resolver
func NewConverter(resolver *Resolver) *Converter {
	return &Converter{
		resolver:  resolver,
		converted: newCache[map[string]any](),
		responses: newCache[map[string]any](),
	}
}

// Resolver returns the resolver used for references
func (c *Converter) Resolver() *Resolver {
	return c.resolver
}

// Convert returns the JSON Schema map for node. inProgress may be nil, it is
// never modified. The returned map is owned by the caller.
func (c *Converter) Convert(node *openapi3.SchemaRef, inProgress RefSet) map[string]any {
	if node == nil || (node.Ref == "" && node.Value == nil) {
		return map[string]any{
			"type":        openapi3.TypeObject,
			"description": "No schema available",
		}
	}
	if node.Ref != "" {
		return c.convertRef(node, inProgress)
	}
	return c.convertSchema(node.Value, inProgress)
}

func (c *Converter) convertRef(node *openapi3.SchemaRef, inProgress RefSet) map[string]any {
	ref := node.Ref
	if inProgress.Has(ref) {
		return map[string]any{
			"type":        openapi3.TypeObject,
			"description": "Circular reference: " + ref,
		}
	}

	if cached, ok := c.converted.get(ref); ok {
		return copyMap(cached)
	}

	branch := inProgress.Clone()
	branch[ref] = struct{}{}

	resolved, ok := c.resolver.Resolve(ref)
	if !ok {
		if node.Value != nil {
			// external or relative reference already bound by the loader,
			// converted in place and kept out of the cache since the ref string is not global
			logger.Debug("Converting loader-bound reference", zap.String("ref", ref))
			out := c.convertSchema(node.Value, branch)
			out["$ref"] = ref
			return out
		}
		logger.Warn("Unresolved schema reference", zap.String("ref", ref))
		return map[string]any{
			"$ref":        ref,
			"type":        openapi3.TypeObject,
			"description": "Referenced schema: " + ref,
		}
	}

	out := map[string]any{"$ref": ref}
	maps.Copy(out, c.convertSchema(resolved, branch))
	out["$ref"] = ref

	c.converted.set(ref, copyMap(out))
	return out
}

func (c *Converter) convertSchema(s *openapi3.Schema, inProgress RefSet) map[string]any {
	out := make(map[string]any)

	if types := s.Type.Slice(); len(types) == 1 {
		out["type"] = types[0]
	} else if len(types) > 1 {
		out["type"] = append([]string(nil), types...)
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if s.Format != "" {
		out["format"] = s.Format
	}
	if s.Default != nil {
		out["default"] = copyValue(s.Default)
	}
	if len(s.Required) > 0 {
		out["required"] = append([]string(nil), s.Required...)
	}
	if len(s.Enum) > 0 {
		out["enum"] = copyValue(s.Enum)
	}

	if s.Min != nil {
		out["minimum"] = *s.Min
	}
	if s.Max != nil {
		out["maximum"] = *s.Max
	}
	if s.ExclusiveMin {
		out["exclusiveMinimum"] = true
	}
	if s.ExclusiveMax {
		out["exclusiveMaximum"] = true
	}
	if s.MultipleOf != nil {
		out["multipleOf"] = *s.MultipleOf
	}

	if s.MinLength > 0 {
		out["minLength"] = s.MinLength
	}
	if s.MaxLength != nil {
		out["maxLength"] = *s.MaxLength
	}
	if s.Pattern != "" {
		out["pattern"] = s.Pattern
	}

	if s.MinItems > 0 {
		out["minItems"] = s.MinItems
	}
	if s.MaxItems != nil {
		out["maxItems"] = *s.MaxItems
	}
	if s.UniqueItems {
		out["uniqueItems"] = true
	}

	isObject := s.Type.Is(openapi3.TypeObject) || (s.Type == nil && len(s.Properties) > 0)
	if isObject && len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = c.Convert(prop, inProgress.Clone())
		}
		out["properties"] = props
	}
	if isObject {
		if s.MinProps > 0 {
			out["minProperties"] = s.MinProps
		}
		if s.MaxProps != nil {
			out["maxProperties"] = *s.MaxProps
		}
	}

	if s.Type.Includes(openapi3.TypeArray) && s.Items != nil {
		items := c.Convert(s.Items, inProgress.Clone())
		if _, ok := items["type"]; !ok {
			if t := primitiveItemType(s.Items); t != "" {
				items["type"] = t
			}
		}
		out["items"] = items
	}

	if ap := s.AdditionalProperties; ap.Schema != nil {
		out["additionalProperties"] = c.Convert(ap.Schema, inProgress.Clone())
	} else if ap.Has != nil {
		out["additionalProperties"] = *ap.Has
	}

	c.convertComposition(out, "allOf", s.AllOf, inProgress)
	c.convertComposition(out, "oneOf", s.OneOf, inProgress)
	c.convertComposition(out, "anyOf", s.AnyOf, inProgress)

	return out
}

func (c *Converter) convertComposition(out map[string]any, key string, refs openapi3.SchemaRefs, inProgress RefSet) {
	if len(refs) == 0 {
		return
	}
	converted := make([]any, 0, len(refs))
	for _, ref := range refs {
		converted = append(converted, c.Convert(ref, inProgress.Clone()))
	}
	out[key] = converted
}

// primitiveItemType returns the declared primitive type of an items schema, or ""
func primitiveItemType(items *openapi3.SchemaRef) string {
	if items.Value == nil {
		return ""
	}
	types := items.Value.Type.Slice()
	if len(types) != 1 {
		return ""
	}
	if _, ok := primitiveTypes[types[0]]; ok {
		return types[0]
	}
	return ""
}

// Purge drops every converted, resolved and response schema
func (c *Converter) Purge() {
	c.converted.purge()
	c.responses.purge()
	c.resolver.Purge()
	logger.Debug("Purged schema caches")
}

// InvalidateResponse drops the cached response schema of one operation
func (c *Converter) InvalidateResponse(operationID string) {
	c.responses.delete(operationID)
}

// CacheStats reports the number of entries held by each cache
func (c *Converter) CacheStats() (resolved, converted, responses int) {
	return c.resolver.resolved.len(), c.converted.len(), c.responses.len()
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
