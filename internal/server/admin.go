package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/brizzai/mcp-openapi-hub/internal/documents"
	"github.com/brizzai/mcp-openapi-hub/internal/logger"
	"github.com/brizzai/mcp-openapi-hub/internal/metrics"
	"github.com/brizzai/mcp-openapi-hub/internal/models"
	"github.com/brizzai/mcp-openapi-hub/internal/utils"
	"go.uber.org/zap"
)

const maxRequestBody = 10 << 20

// AddURIRequest adds a document by location
type AddURIRequest struct {
	Name        string `json:"name"`
	URI         string `json:"uri"`
	OverrideURL string `json:"overrideUrl,omitempty"`
}

// AddFileContentRequest adds a document from raw text
type AddFileContentRequest struct {
	Name        string `json:"name"`
	Filename    string `json:"filename,omitempty"`
	Content     string `json:"content"`
	OverrideURL string `json:"overrideUrl,omitempty"`
}

// MessageResponse is returned by mutating admin endpoints
type MessageResponse struct {
	Message string `json:"message"`
}

// AdminHandler serves the document management REST API
type AdminHandler struct {
	manager *documents.Manager
	metrics *metrics.Collector
}

// NewAdminHandler creates an AdminHandler over manager
func NewAdminHandler(manager *documents.Manager, m *metrics.Collector) *AdminHandler {
	return &AdminHandler{manager: manager, metrics: m}
}

// Routes returns the admin API mux
func (a *AdminHandler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/openapi/tools", a.listTools)
	mux.HandleFunc("GET /api/openapi/documents", a.listDocuments)
	mux.HandleFunc("GET /api/openapi/operations/{id}", a.getOperation)
	mux.HandleFunc("POST /api/openapi/add-uri", a.addURI)
	mux.HandleFunc("POST /api/openapi/add-file-content", a.addFileContent)
	mux.HandleFunc("DELETE /api/openapi/remove/{name}", a.remove)
	mux.Handle("GET /metrics", a.metrics.Handler())
	return mux
}

func (a *AdminHandler) listTools(w http.ResponseWriter, _ *http.Request) {
	utils.WriteJSON(w, a.manager.ListOperations())
}

func (a *AdminHandler) listDocuments(w http.ResponseWriter, _ *http.Request) {
	utils.WriteJSON(w, a.manager.ListDocuments())
}

func (a *AdminHandler) getOperation(w http.ResponseWriter, r *http.Request) {
	detail, err := a.manager.GetOperation(r.PathValue("id"))
	if err != nil {
		writeManagerError(w, err)
		return
	}
	utils.WriteJSON(w, detail)
}

func (a *AdminHandler) addURI(w http.ResponseWriter, r *http.Request) {
	var req AddURIRequest
	if !decodeBody(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	uri := strings.TrimSpace(req.URI)
	if name == "" {
		utils.WriteError(w, "invalid_request", "Name is required", http.StatusBadRequest)
		return
	}
	if uri == "" {
		utils.WriteError(w, "invalid_request", "URI is required", http.StatusBadRequest)
		return
	}

	err := a.manager.AddDocument(r.Context(), models.Document{
		Name:            name,
		Location:        uri,
		OverrideBaseURL: strings.TrimSpace(req.OverrideURL),
	})
	if err != nil {
		logger.Error("Failed to add document from URI", zap.String("document", name), zap.Error(err))
		writeManagerError(w, err)
		return
	}
	utils.WriteJSON(w, MessageResponse{Message: "OpenAPI spec added successfully from URI"})
}

func (a *AdminHandler) addFileContent(w http.ResponseWriter, r *http.Request) {
	var req AddFileContentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		utils.WriteError(w, "invalid_request", "Name is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		utils.WriteError(w, "invalid_request", "File content is required", http.StatusBadRequest)
		return
	}

	err := a.manager.AddDocumentContent(r.Context(), name, req.Filename, req.Content, strings.TrimSpace(req.OverrideURL))
	if err != nil {
		logger.Error("Failed to add document from file content", zap.String("document", name), zap.Error(err))
		writeManagerError(w, err)
		return
	}
	utils.WriteJSON(w, MessageResponse{Message: "OpenAPI spec uploaded successfully"})
}

func (a *AdminHandler) remove(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		utils.WriteError(w, "invalid_request", "Name is required", http.StatusBadRequest)
		return
	}
	if err := a.manager.RemoveDocument(r.Context(), name); err != nil {
		writeManagerError(w, err)
		return
	}
	utils.WriteJSON(w, MessageResponse{Message: "OpenAPI spec removed successfully"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		utils.WriteError(w, "invalid_request", "Invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeManagerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, documents.ErrDuplicateDocument):
		utils.WriteError(w, "conflict", err.Error(), http.StatusConflict)
	case errors.Is(err, documents.ErrNotFound), errors.Is(err, documents.ErrOperationNotFound):
		utils.WriteError(w, "not_found", err.Error(), http.StatusNotFound)
	case errors.Is(err, documents.ErrParse):
		utils.WriteError(w, "unprocessable_document", err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, documents.ErrInvalidDocument):
		utils.WriteError(w, "invalid_request", err.Error(), http.StatusBadRequest)
	default:
		utils.WriteError(w, "server_error", err.Error(), http.StatusInternalServerError)
	}
}
