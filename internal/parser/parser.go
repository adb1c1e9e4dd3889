package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brizzai/mcp-openapi-hub/internal/logger"
	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned when a location yields no usable OpenAPI graph
var ErrEmptyDocument = errors.New("document is empty")

// NewSwaggerParser creates a new SwaggerParser instance
func NewSwaggerParser() *SwaggerParser {
	return &SwaggerParser{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Parse loads the document at location and returns its OpenAPI 3 representation
func (p *SwaggerParser) Parse(ctx context.Context, location string) (*openapi3.T, error) {
	data, base, err := p.fetch(ctx, location)
	if err != nil {
		return nil, err
	}

	doc, err := p.ParseData(ctx, data, base)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", location, err)
	}

	logger.Info("Parsed OpenAPI document",
		zap.String("location", location),
		zap.String("title", documentTitle(doc)),
		zap.Int("paths", doc.Paths.Len()),
	)
	return doc, nil
}

// fetch reads the raw bytes behind location, returning the URL external references resolve against
func (p *SwaggerParser) fetch(ctx context.Context, location string) ([]byte, *url.URL, error) {
	if location == "" {
		return nil, nil, fmt.Errorf("location is empty")
	}

	u, err := url.Parse(location)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		data, err := p.fetchURL(ctx, u)
		return data, u, err
	}

	path := location
	if err == nil && u.Scheme == "file" {
		path = u.Path
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read spec file: %w", err)
	}
	return data, &url.URL{Path: filepath.ToSlash(absPath)}, nil
}

func (p *SwaggerParser) fetchURL(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml, text/yaml, */*")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("failed to fetch %s: unexpected status %d", u.Redacted(), resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// ParseData detects the document version and parses it. base may be nil for in-memory data.
func (p *SwaggerParser) ParseData(ctx context.Context, data []byte, base *url.URL) (*openapi3.T, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON or YAML in OpenAPI spec: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrEmptyDocument
	}

	swaggerVersion, hasSwagger := raw["swagger"]
	openapiVersion, hasOpenAPI := raw["openapi"]
	if !hasSwagger && !hasOpenAPI {
		return nil, fmt.Errorf("document is missing 'swagger' or 'openapi' version field")
	}

	if hasSwagger {
		return p.convertOpenAPI2to3(raw, swaggerVersion)
	}

	if ver := fmt.Sprint(openapiVersion); ver != "3" && !strings.HasPrefix(ver, "3.") {
		return nil, fmt.Errorf("unsupported OpenAPI version: %v", openapiVersion)
	}

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	loader.Context = ctx

	var doc *openapi3.T
	var err error
	if base != nil {
		doc, err = loader.LoadFromDataWithPath(data, base)
	} else {
		doc, err = loader.LoadFromData(data)
	}
	if err != nil {
		logger.Error("Failed to parse OpenAPI 3 spec", zap.Error(err))
		return nil, fmt.Errorf("failed to parse OpenAPI spec: %w", err)
	}
	if doc == nil {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

// convertOpenAPI2to3 converts an OpenAPI 2.0 document to OpenAPI 3.0
func (p *SwaggerParser) convertOpenAPI2to3(raw map[string]any, swaggerVersion any) (*openapi3.T, error) {
	// an unquoted 2.0 in YAML decodes as a float and prints as "2"
	if ver := fmt.Sprint(swaggerVersion); ver != "2.0" && ver != "2" {
		return nil, fmt.Errorf("unsupported Swagger version: %v", swaggerVersion)
	}

	// unquoted 2.0 would re-encode as a number, openapi2.T wants a string
	raw["swagger"] = "2.0"

	// openapi2.T only decodes from JSON, YAML input is re-encoded first
	data, err := json.Marshal(normalizeKeys(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode OpenAPI 2.0 spec: %w", err)
	}

	var swagger2Doc openapi2.T
	if err := json.Unmarshal(data, &swagger2Doc); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI 2.0 spec: %w", err)
	}

	logger.Info("Detected OpenAPI 2.0 spec, converting to OpenAPI 3.0")
	convertedDoc, err := openapi2conv.ToV3(&swagger2Doc)
	if err != nil {
		logger.Error("Failed to convert OpenAPI 2.0 to 3.0", zap.Error(err))
		return nil, fmt.Errorf("failed to convert OpenAPI 2.0 to 3.0: %w", err)
	}

	// the converted graph carries bare $ref strings, bind them to their components
	if err := openapi3.NewLoader().ResolveRefsIn(convertedDoc, nil); err != nil {
		logger.Warn("Failed to resolve references in converted spec", zap.Error(err))
	}
	return convertedDoc, nil
}

// normalizeKeys rewrites YAML maps with non-string keys (status codes) so they encode as JSON
func normalizeKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeKeys(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeKeys(val)
		}
		return out
	default:
		return v
	}
}

func documentTitle(doc *openapi3.T) string {
	if doc.Info == nil {
		return ""
	}
	return doc.Info.Title
}
