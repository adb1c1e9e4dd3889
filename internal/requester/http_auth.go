package requester

import (
	"fmt"
	"net/http"

	"github.com/brizzai/mcp-openapi-hub/internal/config"
)

// HTTPAuthManager applies the endpoint-wide credentials to every backend request
type HTTPAuthManager struct {
	authType   config.AuthType
	authConfig map[string]string
}

// NewHTTPAuthManager creates an HTTPAuthManager, rejecting unknown auth types up front
func NewHTTPAuthManager(endpoint *config.EndpointConfig) (*HTTPAuthManager, error) {
	authType := endpoint.AuthType
	if authType == "" {
		authType = config.AuthTypeNone
	}
	switch authType {
	case config.AuthTypeNone, config.AuthTypeBasic, config.AuthTypeBearer, config.AuthTypeAPIKey, config.AuthTypeOAuth2:
	default:
		return nil, fmt.Errorf("%w: unsupported auth type: %s", ErrConfiguration, authType)
	}
	return &HTTPAuthManager{
		authType:   authType,
		authConfig: endpoint.AuthConfig,
	}, nil
}

// ApplyAuth adds authentication to the request
func (a *HTTPAuthManager) ApplyAuth(req *http.Request) error {
	switch a.authType {
	case config.AuthTypeNone:
		return nil
	case config.AuthTypeBasic:
		req.SetBasicAuth(a.authConfig["username"], a.authConfig["password"])
	case config.AuthTypeBearer, config.AuthTypeOAuth2:
		// oauth2 expects a token obtained out of band
		token := a.authConfig["token"]
		if token == "" {
			return fmt.Errorf("%w: %s auth requires a token", ErrConfiguration, a.authType)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	case config.AuthTypeAPIKey:
		key := a.authConfig["key"]
		if a.authConfig["in"] == "query" {
			name := a.authConfig["name"]
			if name == "" {
				name = "api_key"
			}
			q := req.URL.Query()
			q.Set(name, key)
			req.URL.RawQuery = q.Encode()
			return nil
		}
		header := a.authConfig["header"]
		if header == "" {
			header = "X-API-Key"
		}
		req.Header.Set(header, key)
	default:
		return fmt.Errorf("unsupported auth type: %s", a.authType)
	}
	return nil
}
