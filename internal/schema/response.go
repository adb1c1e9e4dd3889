package schema

import (
	"slices"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

var (
	successStatuses = []string{"200", "201", "default"}
	preferredMedia  = []string{"application/json", "application/xml"}
)

// ResponseSchema returns the converted schema of the operation's success
// response, or nil when none is declared. The result is advisory only.
func (c *Converter) ResponseSchema(operationID string, op *openapi3.Operation) map[string]any {
	if cached, ok := c.responses.get(operationID); ok {
		return copyMap(cached)
	}
	if op == nil || op.Responses == nil {
		return nil
	}

	var response *openapi3.Response
	for _, status := range successStatuses {
		if ref := op.Responses.Value(status); ref != nil && ref.Value != nil {
			response = ref.Value
			break
		}
	}
	if response == nil {
		return nil
	}

	media := PreferredMediaType(response.Content)
	if media == nil || media.Schema == nil {
		return nil
	}

	converted := c.Convert(media.Schema, nil)
	c.responses.set(operationID, copyMap(converted))
	return converted
}

// PreferredMediaType picks application/json, then application/xml, then the
// first remaining media type in name order
func PreferredMediaType(content openapi3.Content) *openapi3.MediaType {
	for _, name := range MediaTypeOrder(content) {
		if mt := content[name]; mt != nil {
			return mt
		}
	}
	return nil
}

// MediaTypeOrder lists the media types of content in preference order
func MediaTypeOrder(content openapi3.Content) []string {
	if len(content) == 0 {
		return nil
	}
	order := make([]string, 0, len(content))
	for _, mime := range preferredMedia {
		if _, ok := content[mime]; ok {
			order = append(order, mime)
		}
	}
	rest := make([]string, 0, len(content))
	for name := range content {
		if !slices.Contains(preferredMedia, name) {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}
