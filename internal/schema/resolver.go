package schema

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const (
	SchemaRefPrefix    = "#/components/schemas/"
	ParameterRefPrefix = "#/components/parameters/"

	// bound on component-to-component aliases followed by one lookup
	maxAliasHops = 8
)

// SpecSource lists the root specs of every currently loaded document in search order
type SpecSource interface {
	RootSpecs() []*openapi3.T
}

// Resolver looks up local component references across all loaded documents.
// Only successful lookups are cached, a later document may still satisfy a miss.
type Resolver struct {
	source   SpecSource
	resolved *cache[*openapi3.Schema]
}

// NewResolver creates a Resolver over source
func NewResolver(source SpecSource) *Resolver {
	return &Resolver{
		source:   source,
		resolved: newCache[*openapi3.Schema](),
	}
}

// Resolve returns the schema behind a #/components/schemas/ or
// #/components/parameters/ reference. A parameter reference resolves to the
// parameter's schema.
func (r *Resolver) Resolve(ref string) (*openapi3.Schema, bool) {
	if s, ok := r.resolved.get(ref); ok {
		return s, true
	}

	var found *openapi3.Schema
	switch {
	case strings.HasPrefix(ref, SchemaRefPrefix):
		found = r.lookupSchema(ref, 0)
	case strings.HasPrefix(ref, ParameterRefPrefix):
		if p, ok := r.ResolveParameter(ref); ok && p.Schema != nil {
			found = r.schemaValue(p.Schema, 0)
		}
	}
	if found == nil {
		return nil, false
	}

	r.resolved.set(ref, found)
	return found, true
}

// ResolveParameter returns the parameter behind a #/components/parameters/ reference
func (r *Resolver) ResolveParameter(ref string) (*openapi3.Parameter, bool) {
	name, ok := strings.CutPrefix(ref, ParameterRefPrefix)
	if !ok || name == "" {
		return nil, false
	}
	for _, spec := range r.source.RootSpecs() {
		if spec.Components == nil {
			continue
		}
		if p, ok := spec.Components.Parameters[name]; ok && p != nil && p.Value != nil {
			return p.Value, true
		}
	}
	return nil, false
}

func (r *Resolver) lookupSchema(ref string, hops int) *openapi3.Schema {
	name, ok := strings.CutPrefix(ref, SchemaRefPrefix)
	if !ok || name == "" {
		return nil
	}
	for _, spec := range r.source.RootSpecs() {
		if spec.Components == nil {
			continue
		}
		if s, ok := spec.Components.Schemas[name]; ok && s != nil {
			if v := r.schemaValue(s, hops); v != nil {
				return v
			}
		}
	}
	return nil
}

// schemaValue returns the bound value of a component, following an unbound alias
func (r *Resolver) schemaValue(s *openapi3.SchemaRef, hops int) *openapi3.Schema {
	if s.Value != nil {
		return s.Value
	}
	if s.Ref == "" || hops >= maxAliasHops {
		return nil
	}
	return r.lookupSchema(s.Ref, hops+1)
}

// Purge drops every cached resolution
func (r *Resolver) Purge() {
	r.resolved.purge()
}
