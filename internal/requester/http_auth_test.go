package requester

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brizzai/mcp-openapi-hub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPAuthManager_ApplyAuth(t *testing.T) {
	tests := []struct {
		name       string
		authType   config.AuthType
		authConfig map[string]string
		wantErr    bool
		checkAuth  func(t *testing.T, req *http.Request)
	}{
		{
			name:     "No Auth",
			authType: config.AuthTypeNone,
			checkAuth: func(t *testing.T, req *http.Request) {
				assert.Empty(t, req.Header.Get("Authorization"))
			},
		},
		{
			name:     "Empty type means none",
			authType: "",
			checkAuth: func(t *testing.T, req *http.Request) {
				assert.Empty(t, req.Header.Get("Authorization"))
			},
		},
		{
			name:     "Basic Auth",
			authType: config.AuthTypeBasic,
			authConfig: map[string]string{
				"username": "testuser",
				"password": "testpass",
			},
			checkAuth: func(t *testing.T, req *http.Request) {
				username, password, ok := req.BasicAuth()
				assert.True(t, ok)
				assert.Equal(t, "testuser", username)
				assert.Equal(t, "testpass", password)
			},
		},
		{
			name:       "Bearer Auth",
			authType:   config.AuthTypeBearer,
			authConfig: map[string]string{"token": "test-token"},
			checkAuth: func(t *testing.T, req *http.Request) {
				assert.Equal(t, "Bearer test-token", req.Header.Get("Authorization"))
			},
		},
		{
			name:     "Bearer Auth without token",
			authType: config.AuthTypeBearer,
			wantErr:  true,
		},
		{
			name:     "API Key Auth",
			authType: config.AuthTypeAPIKey,
			authConfig: map[string]string{
				"key":    "test-key",
				"header": "X-Custom-Key",
			},
			checkAuth: func(t *testing.T, req *http.Request) {
				assert.Equal(t, "test-key", req.Header.Get("X-Custom-Key"))
			},
		},
		{
			name:       "API Key Auth default header",
			authType:   config.AuthTypeAPIKey,
			authConfig: map[string]string{"key": "test-key"},
			checkAuth: func(t *testing.T, req *http.Request) {
				assert.Equal(t, "test-key", req.Header.Get("X-API-Key"))
			},
		},
		{
			name:     "API Key Auth in query",
			authType: config.AuthTypeAPIKey,
			authConfig: map[string]string{
				"key":  "test-key",
				"in":   "query",
				"name": "apiKey",
			},
			checkAuth: func(t *testing.T, req *http.Request) {
				assert.Equal(t, "test-key", req.URL.Query().Get("apiKey"))
				assert.Equal(t, "1", req.URL.Query().Get("page"))
			},
		},
		{
			name:       "OAuth2 Auth",
			authType:   config.AuthTypeOAuth2,
			authConfig: map[string]string{"token": "oauth-token"},
			checkAuth: func(t *testing.T, req *http.Request) {
				assert.Equal(t, "Bearer oauth-token", req.Header.Get("Authorization"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMgr, err := NewHTTPAuthManager(&config.EndpointConfig{
				AuthType:   tt.authType,
				AuthConfig: tt.authConfig,
			})
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "http://backend.test/items?page=1", nil)
			err = authMgr.ApplyAuth(req)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfiguration)
				return
			}
			require.NoError(t, err)
			tt.checkAuth(t, req)
		})
	}
}

func TestNewHTTPAuthManager_UnsupportedType(t *testing.T) {
	_, err := NewHTTPAuthManager(&config.EndpointConfig{AuthType: "kerberos"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "unsupported auth type: kerberos")
}
