// Package documents owns the lifecycle of loaded OpenAPI documents: parsing,
// operation extraction, tool registration and removal.
package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/brizzai/mcp-openapi-hub/internal/catalog"
	"github.com/brizzai/mcp-openapi-hub/internal/config"
	"github.com/brizzai/mcp-openapi-hub/internal/logger"
	"github.com/brizzai/mcp-openapi-hub/internal/metrics"
	"github.com/brizzai/mcp-openapi-hub/internal/models"
	"github.com/brizzai/mcp-openapi-hub/internal/parser"
	"github.com/brizzai/mcp-openapi-hub/internal/registry"
	"github.com/brizzai/mcp-openapi-hub/internal/schema"
	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var methodOrder = []string{
	http.MethodGet,
	http.MethodPut,
	http.MethodPost,
	http.MethodDelete,
	http.MethodOptions,
	http.MethodHead,
	http.MethodPatch,
	http.MethodTrace,
}

// OperationDetail is the full view of one registered operation
type OperationDetail struct {
	models.OperationInfo
	Method         string          `json:"method"`
	Path           string          `json:"path"`
	InputSchema    json.RawMessage `json:"inputSchema,omitempty"`
	ResponseSchema map[string]any  `json:"responseSchema,omitempty"`
}

// Manager adds and removes documents. Document additions and removals are
// serialized, readers only take the shared lock.
type Manager struct {
	mu        sync.RWMutex
	documents map[string]models.Document
	uploads   map[string]string

	parser      parser.Parser
	catalog     *catalog.Catalog
	registrar   *registry.Registrar
	converter   *schema.Converter
	storage     Storage
	metrics     *metrics.Collector
	parallelism int
}

// Option customizes a Manager
type Option func(*Manager)

// WithMetrics reports the loaded document count to c
func WithMetrics(c *metrics.Collector) Option {
	return func(m *Manager) {
		m.metrics = c
	}
}

// WithParallelism bounds the number of documents parsed concurrently by LoadAll
func WithParallelism(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.parallelism = n
		}
	}
}

// NewManager creates a Manager
func NewManager(
	p parser.Parser,
	c *catalog.Catalog,
	registrar *registry.Registrar,
	converter *schema.Converter,
	storage Storage,
	opts ...Option,
) *Manager {
	m := &Manager{
		documents:   make(map[string]models.Document),
		uploads:     make(map[string]string),
		parser:      p,
		catalog:     c,
		registrar:   registrar,
		converter:   converter,
		storage:     storage,
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddDocument parses the document at doc.Location and registers a tool for
// each of its operations
func (m *Manager) AddDocument(ctx context.Context, doc models.Document) error {
	return m.addDocument(ctx, doc, "")
}

// addDocument records uploadPath as owned by the document when it is not empty
func (m *Manager) addDocument(ctx context.Context, doc models.Document, uploadPath string) error {
	if err := m.checkNew(doc); err != nil {
		return err
	}

	spec, err := m.parser.Parse(ctx, doc.Location)
	if err != nil {
		return parseError(doc.Location, err)
	}
	return m.addParsed(doc, spec, uploadPath)
}

// AddDocumentContent stores content in the upload directory and adds it as a document
func (m *Manager) AddDocumentContent(ctx context.Context, name, filename, content, overrideURL string) error {
	if strings.TrimSpace(content) == "" {
		return invalidError("File content is empty")
	}
	doc := models.Document{Name: name, OverrideBaseURL: overrideURL}
	if err := m.checkNew(doc); err != nil {
		return err
	}

	path, err := m.storage.Save(filename, []byte(content))
	if err != nil {
		return err
	}
	logger.Debug("Stored uploaded document", zap.String("document", name), zap.String("path", path))

	doc.Location = path
	if err := m.addDocument(ctx, doc, path); err != nil {
		if rmErr := m.storage.Remove(path); rmErr != nil {
			logger.Warn("Failed to remove uploaded document", zap.String("path", path), zap.Error(rmErr))
		}
		return err
	}
	return nil
}

// LoadAll parses the configured documents concurrently and registers them in
// configuration order. Failures are logged and skipped. It returns the number
// of documents loaded.
func (m *Manager) LoadAll(ctx context.Context, docs []config.DocumentConfig) (int, error) {
	specs := make([]*openapi3.T, len(docs))
	errs := make([]error, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.parallelism)
	for i, d := range docs {
		g.Go(func() error {
			specs[i], errs[i] = m.parser.Parse(gctx, d.Location)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	loaded := 0
	for i, d := range docs {
		doc := models.Document{
			Name:            d.Name,
			Location:        d.Location,
			OverrideBaseURL: d.OverrideURL,
			AdjustmentsFile: d.AdjustmentsFile,
		}
		err := errs[i]
		if err != nil {
			err = parseError(d.Location, err)
		} else if err = m.checkNew(doc); err == nil {
			err = m.addParsed(doc, specs[i], "")
		}
		if err != nil {
			logger.Error("Failed to load document", zap.String("document", d.Name), zap.Error(err))
			continue
		}
		loaded++
	}
	return loaded, nil
}

func (m *Manager) checkNew(doc models.Document) error {
	if strings.TrimSpace(doc.Name) == "" {
		return invalidError("Document name is required")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.documents[doc.Name]; ok {
		return duplicateError(doc.Name)
	}
	return nil
}

func (m *Manager) addParsed(doc models.Document, spec *openapi3.T, uploadPath string) error {
	adjuster, err := parser.LoadAdjuster(doc.AdjustmentsFile)
	if err != nil {
		return fmt.Errorf("failed to load adjustments for %s: %w", doc.Name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// the name may have been taken while parsing
	if _, ok := m.documents[doc.Name]; ok {
		return duplicateError(doc.Name)
	}

	ops := ExtractOperations(doc, spec, adjuster)
	for _, op := range ops {
		m.claim(op)
	}

	registered := 0
	for _, op := range ops {
		if err := m.registrar.RegisterOperation(op); err != nil {
			logger.Error("Failed to register tool",
				zap.String("operation", op.ID),
				zap.String("document", doc.Name),
				zap.Error(err),
			)
			continue
		}
		registered++
	}

	m.documents[doc.Name] = doc
	if uploadPath != "" {
		// recorded with the document so a concurrent remove sees both
		m.uploads[doc.Name] = uploadPath
	}
	m.metrics.SetDocuments(len(m.documents))

	logger.Info("Loaded OpenAPI document",
		zap.String("document", doc.Name),
		zap.String("location", doc.Location),
		zap.Int("operations", len(ops)),
		zap.Int("tools", registered),
	)
	return nil
}

// claim stores op in the catalog. A record from another document under the
// same id is replaced and its tool retracted so the new one can be published.
func (m *Manager) claim(op *catalog.Operation) {
	previous := m.catalog.Put(op)
	if previous == nil {
		return
	}

	logger.Warn("Operation id already registered, replacing",
		zap.String("operation", op.ID),
		zap.String("previous_document", previous.Document),
		zap.String("document", op.Document),
	)
	if err := m.registrar.UnregisterOperation(op.ID); err != nil {
		logger.Error("Failed to unregister replaced tool", zap.String("operation", op.ID), zap.Error(err))
	}
	m.converter.InvalidateResponse(op.ID)
}

// ExtractOperations returns the selected operations of spec in path then method order.
// A nil adjuster selects everything.
// Operations without an id cannot be addressed and are skipped.
func ExtractOperations(doc models.Document, spec *openapi3.T, adjuster *parser.Adjuster) []*catalog.Operation {
	if spec == nil || spec.Paths == nil {
		return nil
	}

	paths := make([]string, 0, spec.Paths.Len())
	for path := range spec.Paths.Map() {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var ops []*catalog.Operation
	seen := make(map[string]struct{})
	for _, path := range paths {
		item := spec.Paths.Value(path)
		if item == nil {
			continue
		}
		for _, method := range methodOrder {
			def := item.GetOperation(method)
			if def == nil {
				continue
			}
			if def.OperationID == "" {
				logger.Debug("Skipping operation without operationId",
					zap.String("document", doc.Name),
					zap.String("method", method),
					zap.String("path", path),
				)
				continue
			}
			if !adjuster.Selected(def.OperationID) {
				continue
			}
			if _, ok := seen[def.OperationID]; ok {
				logger.Warn("Duplicate operationId in document, keeping the first",
					zap.String("document", doc.Name),
					zap.String("operation", def.OperationID),
				)
				continue
			}
			seen[def.OperationID] = struct{}{}

			ops = append(ops, &catalog.Operation{
				ID:              def.OperationID,
				Document:        doc.Name,
				Spec:            spec,
				Path:            path,
				Method:          method,
				Definition:      def,
				PathParameters:  item.Parameters,
				Description:     adjuster.Description(def.OperationID, ""),
				Location:        doc.Location,
				OverrideBaseURL: doc.OverrideBaseURL,
			})
		}
	}
	return ops
}

// RemoveDocument unregisters every tool of the named document and forgets it
func (m *Manager) RemoveDocument(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.documents[name]; !ok {
		return notFoundError(name)
	}

	ops := m.catalog.ByDocument(name)
	for _, op := range ops {
		if err := m.registrar.UnregisterOperation(op.ID); err != nil {
			logger.Error("Failed to unregister tool",
				zap.String("operation", op.ID),
				zap.String("document", name),
				zap.Error(err),
			)
		}
		m.catalog.Delete(op.ID)
	}

	delete(m.documents, name)
	m.metrics.SetDocuments(len(m.documents))
	m.converter.Purge()

	if path, ok := m.uploads[name]; ok {
		delete(m.uploads, name)
		if err := m.storage.Remove(path); err != nil {
			logger.Warn("Failed to remove uploaded document", zap.String("path", path), zap.Error(err))
		}
	}

	logger.Info("Removed OpenAPI document", zap.String("document", name), zap.Int("operations", len(ops)))
	return nil
}

// ListOperations returns every registered operation sorted by id
func (m *Manager) ListOperations() []models.OperationInfo {
	ops := m.catalog.List()
	out := make([]models.OperationInfo, 0, len(ops))
	for _, op := range ops {
		out = append(out, operationInfo(op))
	}
	return out
}

// ListDocuments returns the loaded documents sorted by name
func (m *Manager) ListDocuments() []models.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Document, 0, len(m.documents))
	for _, doc := range m.documents {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Document returns the loaded document called name
func (m *Manager) Document(name string) (models.Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[name]
	return doc, ok
}

// GetOperation returns the detail view of the operation, including its
// published input schema and advisory response schema
func (m *Manager) GetOperation(id string) (*OperationDetail, error) {
	op, ok := m.catalog.Get(id)
	if !ok {
		return nil, operationNotFoundError(id)
	}

	detail := &OperationDetail{
		OperationInfo:  operationInfo(op),
		Method:         op.Method,
		Path:           op.Path,
		ResponseSchema: m.converter.ResponseSchema(op.ID, op.Definition),
	}
	if tool, ok := m.registrar.Get(op.ID); ok {
		detail.InputSchema = tool.InputSchema
	}
	return detail, nil
}

func operationInfo(op *catalog.Operation) models.OperationInfo {
	return models.OperationInfo{
		OperationID:  op.ID,
		Description:  op.ToolDescription(),
		DocumentName: op.Document,
	}
}
