package documents

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/brizzai/mcp-openapi-hub/internal/catalog"
	"github.com/brizzai/mcp-openapi-hub/internal/config"
	"github.com/brizzai/mcp-openapi-hub/internal/models"
	"github.com/brizzai/mcp-openapi-hub/internal/parser"
	"github.com/brizzai/mcp-openapi-hub/internal/registry"
	"github.com/brizzai/mcp-openapi-hub/internal/schema"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstoreYAML = `openapi: 3.0.3
info:
  title: Petstore
  version: 1.0.0
servers:
  - url: https://petstore.example.com/v1
paths:
  /pets:
    get:
      operationId: listPets
      summary: List all pets
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Pet'
    post:
      operationId: createPet
      requestBody:
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Pet'
      responses:
        '201':
          description: created
  /pets/{petId}:
    get:
      operationId: showPetById
      parameters:
        - name: petId
          in: path
          required: true
          schema:
            type: string
      responses:
        '200':
          description: ok
    delete:
      summary: No operation id
      responses:
        '204':
          description: deleted
components:
  schemas:
    Pet:
      type: object
      properties:
        id:
          type: integer
        name:
          type: string
`

const storeYAML = `openapi: 3.0.3
info:
  title: Store
  version: 1.0.0
paths:
  /pets:
    get:
      operationId: listPets
      summary: List store pets
      responses:
        '200':
          description: ok
  /orders:
    get:
      operationId: listOrders
      responses:
        '200':
          description: ok
`

type fakeHost struct {
	mu        sync.Mutex
	published map[string]registry.Tool
	retracts  []string
}

func newFakeHost() *fakeHost {
	return &fakeHost{published: make(map[string]registry.Tool)}
}

func (h *fakeHost) Publish(tool registry.Tool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.published[tool.Name] = tool
	return nil
}

func (h *fakeHost) Retract(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.retracts = append(h.retracts, name)
	if _, ok := h.published[name]; !ok {
		return fmt.Errorf("tool %s not published", name)
	}
	delete(h.published, name)
	return nil
}

func (h *fakeHost) names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.published))
	for name := range h.published {
		names = append(names, name)
	}
	return names
}

func (h *fakeHost) tool(name string) (registry.Tool, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	tool, ok := h.published[name]
	return tool, ok
}

type fixture struct {
	manager   *Manager
	catalog   *catalog.Catalog
	converter *schema.Converter
	host      *fakeHost
	uploadDir string
}

func newFixture(t *testing.T, p parser.Parser, opts ...Option) *fixture {
	t.Helper()
	if p == nil {
		p = parser.NewSwaggerParser()
	}
	c := catalog.New()
	host := newFakeHost()
	converter := schema.NewConverter(schema.NewResolver(c))
	uploadDir := filepath.Join(t.TempDir(), "uploads")
	m := NewManager(p, c, registry.NewRegistrar(host, converter), converter, NewFileStorage(uploadDir), opts...)
	return &fixture{manager: m, catalog: c, converter: converter, host: host, uploadDir: uploadDir}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func operationIDs(infos []models.OperationInfo) []string {
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.OperationID
	}
	return ids
}

func TestManager_AddDocument(t *testing.T) {
	f := newFixture(t, nil)
	path := writeFile(t, "petstore.yaml", petstoreYAML)

	err := f.manager.AddDocument(context.Background(), models.Document{Name: "petstore", Location: path})
	require.NoError(t, err)

	ops := f.manager.ListOperations()
	assert.Equal(t, []string{"createPet", "listPets", "showPetById"}, operationIDs(ops))
	assert.Equal(t, "List all pets", ops[1].Description)
	assert.Equal(t, "Operation: createPet", ops[0].Description)
	assert.Equal(t, "petstore", ops[0].DocumentName)

	assert.ElementsMatch(t, []string{"createPet", "listPets", "showPetById"}, f.host.names())

	docs := f.manager.ListDocuments()
	require.Len(t, docs, 1)
	assert.Equal(t, path, docs[0].Location)
}

func TestManager_AddDocument_Duplicate(t *testing.T) {
	f := newFixture(t, nil)
	path := writeFile(t, "petstore.yaml", petstoreYAML)
	require.NoError(t, f.manager.AddDocument(context.Background(), models.Document{Name: "petstore", Location: path}))

	err := f.manager.AddDocument(context.Background(), models.Document{Name: "petstore", Location: path})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateDocument)
	assert.EqualError(t, err, "OpenAPI document with name 'petstore' already exists")
	assert.Len(t, f.manager.ListDocuments(), 1)
}

func TestManager_AddDocument_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     models.Document
		content string
		wantErr error
	}{
		{
			name:    "missing name",
			doc:     models.Document{Location: "petstore.yaml"},
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "missing file",
			doc:     models.Document{Name: "missing", Location: "/does/not/exist.yaml"},
			wantErr: ErrParse,
		},
		{
			name:    "not openapi",
			doc:     models.Document{Name: "garbage"},
			content: "just: yaml\n",
			wantErr: ErrParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			doc := tt.doc
			if tt.content != "" {
				doc.Location = writeFile(t, "doc.yaml", tt.content)
			}

			err := f.manager.AddDocument(context.Background(), doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.manager.ListDocuments())
			assert.Empty(t, f.host.names())
		})
	}
}

func TestManager_AddDocument_Adjustments(t *testing.T) {
	f := newFixture(t, nil)
	path := writeFile(t, "petstore.yaml", petstoreYAML)
	adjustments := writeFile(t, "adjustments.yaml", `operations:
  - listPets
  - showPetById
descriptions:
  - operation_id: showPetById
    new_description: Fetch one pet
`)

	err := f.manager.AddDocument(context.Background(), models.Document{
		Name:            "petstore",
		Location:        path,
		AdjustmentsFile: adjustments,
	})
	require.NoError(t, err)

	ops := f.manager.ListOperations()
	assert.Equal(t, []string{"listPets", "showPetById"}, operationIDs(ops))
	assert.Equal(t, "Fetch one pet", ops[1].Description)

	tool, ok := f.host.tool("showPetById")
	require.True(t, ok)
	assert.Equal(t, "Fetch one pet", tool.Description)
}

func TestManager_OperationIDCollision(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.manager.AddDocument(ctx, models.Document{Name: "petstore", Location: writeFile(t, "petstore.yaml", petstoreYAML)}))
	require.NoError(t, f.manager.AddDocument(ctx, models.Document{Name: "store", Location: writeFile(t, "store.yaml", storeYAML)}))

	op, ok := f.catalog.Get("listPets")
	require.True(t, ok)
	assert.Equal(t, "store", op.Document)

	tool, ok := f.host.tool("listPets")
	require.True(t, ok)
	assert.Equal(t, "List store pets", tool.Description)

	// the older document no longer owns the id, removing it keeps the tool
	require.NoError(t, f.manager.RemoveDocument(ctx, "petstore"))
	assert.ElementsMatch(t, []string{"listPets", "listOrders"}, f.host.names())

	require.NoError(t, f.manager.RemoveDocument(ctx, "store"))
	assert.Empty(t, f.host.names())
	assert.Zero(t, f.catalog.Len())
}

func TestManager_RemoveDocument(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.manager.AddDocument(ctx, models.Document{Name: "petstore", Location: writeFile(t, "petstore.yaml", petstoreYAML)}))

	_, err := f.manager.GetOperation("listPets")
	require.NoError(t, err)
	resolved, converted, responses := f.converter.CacheStats()
	assert.Positive(t, resolved+converted+responses)

	require.NoError(t, f.manager.RemoveDocument(ctx, "petstore"))

	assert.Empty(t, f.manager.ListOperations())
	assert.Empty(t, f.manager.ListDocuments())
	assert.Empty(t, f.host.names())
	resolved, converted, responses = f.converter.CacheStats()
	assert.Zero(t, resolved+converted+responses)

	// the name can be reused
	require.NoError(t, f.manager.AddDocument(ctx, models.Document{Name: "petstore", Location: writeFile(t, "petstore.yaml", petstoreYAML)}))
	assert.Len(t, f.manager.ListOperations(), 3)
}

func TestManager_RemoveDocument_NotFound(t *testing.T) {
	f := newFixture(t, nil)

	err := f.manager.RemoveDocument(context.Background(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "OpenAPI document not found: ghost")
}

func TestManager_AddDocumentContent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	err := f.manager.AddDocumentContent(ctx, "petstore", "../../petstore.yaml", petstoreYAML, "https://override.example.com")
	require.NoError(t, err)

	doc, ok := f.manager.Document("petstore")
	require.True(t, ok)
	assert.Equal(t, "https://override.example.com", doc.OverrideBaseURL)
	assert.True(t, filepath.IsAbs(doc.Location))
	assert.Equal(t, f.uploadDir, filepath.Dir(doc.Location))
	assert.Regexp(t, `^\d+_[0-9a-f]{8}_petstore\.yaml$`, filepath.Base(doc.Location))
	assert.FileExists(t, doc.Location)
	assert.Len(t, f.manager.ListOperations(), 3)

	require.NoError(t, f.manager.RemoveDocument(ctx, "petstore"))
	assert.NoFileExists(t, doc.Location)
}

func TestManager_AddDocumentContent_Errors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	err := f.manager.AddDocumentContent(ctx, "empty", "spec.json", "  \n", "")
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.EqualError(t, err, "File content is empty")

	err = f.manager.AddDocumentContent(ctx, "broken", "", "{not json", "")
	assert.ErrorIs(t, err, ErrParse)

	// failed uploads leave nothing behind
	entries, err := os.ReadDir(f.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, f.manager.ListDocuments())
}

func TestManager_AddDocumentContent_ConcurrentRemove(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for i := range 20 {
		name := fmt.Sprintf("petstore-%d", i)
		var wg sync.WaitGroup
		var addErr, removeErr error
		added := make(chan struct{})
		wg.Add(2)
		go func() {
			defer wg.Done()
			defer close(added)
			addErr = f.manager.AddDocumentContent(ctx, name, "petstore.yaml", petstoreYAML, "")
		}()
		go func() {
			defer wg.Done()
			// retry until the document becomes visible
			for {
				removeErr = f.manager.RemoveDocument(ctx, name)
				if !errors.Is(removeErr, ErrNotFound) {
					return
				}
				select {
				case <-added:
					if addErr != nil {
						return
					}
				default:
				}
				runtime.Gosched()
			}
		}()
		wg.Wait()
		require.NoError(t, addErr)
		require.NoError(t, removeErr)
	}

	// every removed upload took its stored file with it
	entries, err := os.ReadDir(f.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, f.manager.ListDocuments())
}

func TestManager_GetOperation(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.manager.AddDocument(context.Background(), models.Document{Name: "petstore", Location: writeFile(t, "petstore.yaml", petstoreYAML)}))

	detail, err := f.manager.GetOperation("listPets")
	require.NoError(t, err)
	assert.Equal(t, "GET", detail.Method)
	assert.Equal(t, "/pets", detail.Path)
	assert.Equal(t, "petstore", detail.DocumentName)
	assert.JSONEq(t, `{"type":"object","properties":{}}`, string(detail.InputSchema))
	assert.Equal(t, "array", detail.ResponseSchema["type"])

	_, err = f.manager.GetOperation("nope")
	assert.ErrorIs(t, err, ErrOperationNotFound)
}

// stubParser returns canned results per location
type stubParser struct {
	mu     sync.Mutex
	specs  map[string]*openapi3.T
	calls  int
	failOn string
}

func (p *stubParser) Parse(_ context.Context, location string) (*openapi3.T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if location == p.failOn {
		return nil, errors.New("boom")
	}
	spec, ok := p.specs[location]
	if !ok {
		return nil, fmt.Errorf("unknown location %s", location)
	}
	return spec, nil
}

func loadSpec(t *testing.T, data string) *openapi3.T {
	t.Helper()
	spec, err := openapi3.NewLoader().LoadFromData([]byte(data))
	require.NoError(t, err)
	return spec
}

func TestManager_LoadAll(t *testing.T) {
	p := &stubParser{
		specs: map[string]*openapi3.T{
			"petstore.yaml": loadSpec(t, petstoreYAML),
			"store.yaml":    loadSpec(t, storeYAML),
		},
		failOn: "broken.yaml",
	}
	f := newFixture(t, p, WithParallelism(2))

	loaded, err := f.manager.LoadAll(context.Background(), []config.DocumentConfig{
		{Name: "petstore", Location: "petstore.yaml"},
		{Name: "broken", Location: "broken.yaml"},
		{Name: "store", Location: "store.yaml", OverrideURL: "http://localhost:9000"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)
	assert.Equal(t, 3, p.calls)

	docs := f.manager.ListDocuments()
	require.Len(t, docs, 2)
	assert.Equal(t, "petstore", docs[0].Name)
	assert.Equal(t, "http://localhost:9000", docs[1].OverrideBaseURL)

	// configuration order decides collisions
	op, ok := f.catalog.Get("listPets")
	require.True(t, ok)
	assert.Equal(t, "store", op.Document)
}

func TestManager_LoadAll_Canceled(t *testing.T) {
	f := newFixture(t, &stubParser{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.manager.LoadAll(ctx, []config.DocumentConfig{{Name: "a", Location: "a.yaml"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.manager.ListDocuments())
}

func TestManager_ConcurrentAdds(t *testing.T) {
	spec := loadSpec(t, storeYAML)
	p := &stubParser{specs: map[string]*openapi3.T{"store.yaml": spec}}
	f := newFixture(t, p)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = f.manager.AddDocument(context.Background(), models.Document{
				Name:     fmt.Sprintf("store-%d", i%4),
				Location: "store.yaml",
			})
		}()
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrDuplicateDocument)
			failed++
		}
	}
	assert.Equal(t, 4, failed)
	assert.Len(t, f.manager.ListDocuments(), 4)
	assert.ElementsMatch(t, []string{"listPets", "listOrders"}, f.host.names())
}
