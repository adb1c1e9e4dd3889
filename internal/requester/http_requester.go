package requester

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/brizzai/mcp-openapi-hub/internal/catalog"
	"github.com/brizzai/mcp-openapi-hub/internal/config"
	"github.com/brizzai/mcp-openapi-hub/internal/logger"
	"github.com/brizzai/mcp-openapi-hub/internal/metrics"
	"github.com/brizzai/mcp-openapi-hub/internal/registry"
	"github.com/brizzai/mcp-openapi-hub/internal/schema"
	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 30 * time.Second
	acceptHeader   = "application/json, application/xml;q=0.9, */*;q=0.8"
)

// HTTPRequester dispatches tool calls to the backend of the operation's document
type HTTPRequester struct {
	client   *http.Client
	endpoint config.EndpointConfig
	timeout  time.Duration
	catalog  *catalog.Catalog
	resolver *schema.Resolver
	authMgr  AuthManager
	metrics  *metrics.Collector
}

type HTTPRequesterParams struct {
	fx.In

	Config      *config.Config
	Catalog     *catalog.Catalog
	Resolver    *schema.Resolver
	AuthManager AuthManager
	Metrics     *metrics.Collector `optional:"true"`
	Client      *http.Client       `optional:"true"`
}

// NewHTTPRequester creates a new HTTPRequester
func NewHTTPRequester(params HTTPRequesterParams) *HTTPRequester {
	client := params.Client
	if client == nil {
		client = &http.Client{}
	}
	timeout := params.Config.EndpointConfig.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPRequester{
		client:   client,
		endpoint: params.Config.EndpointConfig,
		timeout:  timeout,
		catalog:  params.Catalog,
		resolver: params.Resolver,
		authMgr:  params.AuthManager,
		metrics:  params.Metrics,
	}
}

// SetTimeout sets the per-request timeout
func (r *HTTPRequester) SetTimeout(timeout time.Duration) {
	r.timeout = timeout
}

// Invoke performs the HTTP call of operationID. JSON responses are returned
// decoded, XML responses as nested maps, anything else as a string.
func (r *HTTPRequester) Invoke(ctx context.Context, operationID string, args map[string]any) (any, error) {
	op, ok := r.catalog.Get(operationID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOperationNotFound, operationID)
	}

	start := time.Now()
	result, err := r.invoke(ctx, op, args)
	r.metrics.RecordInvocation(operationID, time.Since(start), err)
	if err != nil {
		logger.Error("Failed to invoke operation", zap.String("operation", operationID), zap.Error(err))
		return nil, &InvocationError{OperationID: operationID, Err: err}
	}
	return result, nil
}

func (r *HTTPRequester) invoke(ctx context.Context, op *catalog.Operation, args map[string]any) (any, error) {
	base, err := BaseURL(op)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := r.buildRequest(ctx, base, op, args)
	if err != nil {
		return nil, err
	}

	logger.Debug("Invoking operation",
		zap.String("operation", op.ID),
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
	)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return classifyResponse(resp.Header.Get("Content-Type"), body), nil
}

// BaseURL returns the document's override URL, else the first server of the
// spec with its variables set to their defaults. A relative server URL is
// resolved against an http(s) document location. The trailing slash is trimmed.
func BaseURL(op *catalog.Operation) (string, error) {
	if op.OverrideBaseURL != "" {
		return strings.TrimRight(op.OverrideBaseURL, "/"), nil
	}
	spec := op.Spec
	if spec == nil || len(spec.Servers) == 0 || spec.Servers[0] == nil || spec.Servers[0].URL == "" {
		return "", fmt.Errorf("%w: no server URL or override URL for document %s", ErrConfiguration, op.Document)
	}

	server := spec.Servers[0]
	raw := server.URL
	for name, variable := range server.Variables {
		if variable != nil {
			raw = strings.ReplaceAll(raw, "{"+name+"}", variable.Default)
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: invalid server URL %q: %v", ErrConfiguration, raw, err)
	}
	if !u.IsAbs() {
		location, err := url.Parse(op.Location)
		if err != nil || (location.Scheme != "http" && location.Scheme != "https") {
			return "", fmt.Errorf("%w: relative server URL %q for document %s", ErrConfiguration, raw, op.Document)
		}
		u = location.ResolveReference(u)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

func (r *HTTPRequester) buildRequest(ctx context.Context, base string, op *catalog.Operation, args map[string]any) (*http.Request, error) {
	path := op.Path
	query := url.Values{}
	headers := make(http.Header)

	for _, ref := range op.Parameters() {
		param, name := r.parameter(ref)
		if param == nil {
			continue
		}
		value, ok := lookupArgument(args, param.Name, name)

		switch param.In {
		case openapi3.ParameterInPath:
			if !ok {
				return nil, fmt.Errorf("missing path parameter %s", param.Name)
			}
			path = strings.ReplaceAll(path, "{"+param.Name+"}", url.PathEscape(formatValue(value)))
		case openapi3.ParameterInQuery:
			if !ok {
				continue
			}
			if items, isList := value.([]any); isList {
				for _, item := range items {
					query.Add(param.Name, formatValue(item))
				}
				continue
			}
			query.Add(param.Name, formatValue(value))
		case openapi3.ParameterInHeader:
			if ok {
				headers.Set(param.Name, formatValue(value))
			}
		default:
			// cookie and unknown locations are not forwarded
		}
	}

	target := base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	payload, hasBody := args[registry.RequestBodyProperty]
	if hasBody && payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Accept", acceptHeader)
	for k, v := range r.endpoint.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := r.authMgr.ApplyAuth(req); err != nil {
		return nil, fmt.Errorf("failed to apply authentication: %w", err)
	}
	return req, nil
}

// parameter returns the definition behind ref and the tool property name a
// referenced parameter was published under
func (r *HTTPRequester) parameter(ref *openapi3.ParameterRef) (*openapi3.Parameter, string) {
	if ref == nil {
		return nil, ""
	}
	if ref.Ref == "" {
		return ref.Value, ""
	}
	name := registry.ParameterRefName(ref.Ref)
	if p, ok := r.resolver.ResolveParameter(ref.Ref); ok {
		return p, name
	}
	return ref.Value, name
}

func lookupArgument(args map[string]any, names ...string) (any, bool) {
	for _, name := range names {
		if name == "" {
			continue
		}
		if v, ok := args[name]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64, integers must not render in exponent form
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case map[string]any, []any:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	default:
		return fmt.Sprint(t)
	}
}
