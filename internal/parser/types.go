package parser

import (
	"context"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// Parser turns a document location (http(s) URL, file:// URL or filesystem path)
// into a parsed OpenAPI 3 graph. Swagger 2.0 documents are converted on the way.
type Parser interface {
	Parse(ctx context.Context, location string) (*openapi3.T, error)
}

// SwaggerParser is the kin-openapi backed Parser
type SwaggerParser struct {
	client *http.Client
}
