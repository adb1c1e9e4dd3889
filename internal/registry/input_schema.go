package registry

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/brizzai/mcp-openapi-hub/internal/catalog"
	"github.com/brizzai/mcp-openapi-hub/internal/logger"
	"github.com/brizzai/mcp-openapi-hub/internal/schema"
	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"
)

// RequestBodyProperty is the input property carrying the request body
const RequestBodyProperty = "requestBody"

// ParameterRefName derives the tool property name of a parameter reference:
// the last path segment with a leading upper-case letter folded to lower case
func ParameterRefName(ref string) string {
	name := ref
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		name = ref[i+1:]
	}
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || !unicode.IsUpper(r) {
		return name
	}
	return string(unicode.ToLower(r)) + name[size:]
}

// BuildInputSchema returns the JSON Schema object describing the arguments of op
func (r *Registrar) BuildInputSchema(op *catalog.Operation) map[string]any {
	properties := make(map[string]any)
	var required []string

	for _, param := range op.Parameters() {
		if param == nil {
			continue
		}
		if param.Ref != "" {
			name, prop, isRequired := r.parameterRefProperty(param)
			properties[name] = prop
			if isRequired {
				required = append(required, name)
			}
			continue
		}
		if param.Value == nil {
			logger.Warn("Skipping parameter without definition", zap.String("operation", op.ID))
			continue
		}
		properties[param.Value.Name] = r.parameterProperty(param.Value)
		if param.Value.Required {
			required = append(required, param.Value.Name)
		}
	}

	if body := op.Definition.RequestBody; body != nil {
		properties[RequestBodyProperty] = r.requestBodyProperty(op.ID, body)
		if body.Value != nil && body.Value.Required {
			required = append(required, RequestBodyProperty)
		}
	}

	out := map[string]any{
		"type":       openapi3.TypeObject,
		"properties": properties,
	}
	if len(required) > 0 {
		out["required"] = dedupe(required)
	}
	return out
}

func (r *Registrar) parameterProperty(p *openapi3.Parameter) map[string]any {
	description := p.Description
	if description == "" {
		description = "Parameter: " + p.Name
	}
	prop := map[string]any{
		"type":        openapi3.TypeString,
		"description": description,
	}

	s := r.schemaValue(p.Schema)
	if s == nil {
		return prop
	}
	if types := s.Type.Slice(); len(types) > 0 {
		prop["type"] = types[0]
	}
	if s.Format != "" {
		prop["format"] = s.Format
	}
	if len(s.Enum) > 0 {
		prop["enum"] = append([]any(nil), s.Enum...)
	}
	if s.Type.Is(openapi3.TypeArray) && s.Items != nil {
		prop["items"] = r.converter.Convert(s.Items, nil)
	}
	return prop
}

func (r *Registrar) parameterRefProperty(param *openapi3.ParameterRef) (string, map[string]any, bool) {
	ref := param.Ref
	name := ParameterRefName(ref)

	resolved, ok := r.converter.Resolver().ResolveParameter(ref)
	if !ok && param.Value != nil {
		// bound by the loader from an external document
		resolved, ok = param.Value, true
	}
	if !ok {
		if strings.HasPrefix(ref, schema.ParameterRefPrefix) {
			logger.Warn("Unresolved parameter reference", zap.String("ref", ref))
			return name, map[string]any{
				"type":        openapi3.TypeString,
				"description": "Unresolved parameter reference: " + ref,
			}, false
		}
		logger.Warn("Unknown parameter reference", zap.String("ref", ref))
		return name, map[string]any{
			"type":        openapi3.TypeString,
			"description": "Unknown parameter reference: " + ref,
		}, false
	}

	prop := map[string]any{
		"type":        openapi3.TypeString,
		"description": "Parameter reference: " + ref,
	}
	if s := r.schemaValue(resolved.Schema); s != nil {
		if types := s.Type.Slice(); len(types) > 0 {
			prop["type"] = types[0]
		}
		if s.Format != "" {
			prop["format"] = s.Format
		}
		if len(s.Enum) > 0 {
			prop["enum"] = append([]any(nil), s.Enum...)
		}
	}
	return name, prop, resolved.Required
}

func (r *Registrar) requestBodyProperty(operationID string, body *openapi3.RequestBodyRef) (prop map[string]any) {
	stub := map[string]any{
		"type":        openapi3.TypeObject,
		"description": "Request body",
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Warn("Request body conversion failed",
				zap.String("operation", operationID),
				zap.Any("panic", rec),
			)
			prop = stub
		}
	}()

	if body.Value == nil {
		return stub
	}
	content := body.Value.Content
	for _, mime := range schema.MediaTypeOrder(content) {
		if mt := content[mime]; mt != nil && mt.Schema != nil {
			converted := r.converter.Convert(mt.Schema, nil)
			if _, ok := converted["description"]; !ok && body.Value.Description != "" {
				converted["description"] = body.Value.Description
			}
			return converted
		}
	}
	return stub
}

// schemaValue returns the concrete schema behind s, resolving an unbound reference
func (r *Registrar) schemaValue(s *openapi3.SchemaRef) *openapi3.Schema {
	if s == nil {
		return nil
	}
	if s.Value != nil {
		return s.Value
	}
	if s.Ref == "" {
		return nil
	}
	resolved, ok := r.converter.Resolver().Resolve(s.Ref)
	if !ok {
		return nil
	}
	return resolved
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
