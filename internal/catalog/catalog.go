// Package catalog holds the operation records extracted from loaded OpenAPI documents.
package catalog

import (
	"sort"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

// Operation is the immutable record of one path+method entry, keyed by its operation id
type Operation struct {
	ID         string
	Document   string
	Spec       *openapi3.T
	Path       string
	Method     string
	Definition *openapi3.Operation
	// PathParameters are declared on the path item and shared by all its methods
	PathParameters openapi3.Parameters
	// Description overrides the tool description derived from the definition
	Description string
	// Location and OverrideBaseURL are copied from the owning document
	Location        string
	OverrideBaseURL string
}

// ToolDescription returns the override, else the summary, else "Operation: <id>"
func (o *Operation) ToolDescription() string {
	if o.Description != "" {
		return o.Description
	}
	if o.Definition != nil && o.Definition.Summary != "" {
		return o.Definition.Summary
	}
	return "Operation: " + o.ID
}

// Parameters returns the path-level parameters merged with the operation's own,
// the operation's declaration winning on the same name and location
func (o *Operation) Parameters() openapi3.Parameters {
	if len(o.PathParameters) == 0 {
		return o.Definition.Parameters
	}
	params := make(openapi3.Parameters, 0, len(o.PathParameters)+len(o.Definition.Parameters))
	for _, p := range o.PathParameters {
		if p.Value != nil && o.Definition.Parameters.GetByInAndName(p.Value.In, p.Value.Name) != nil {
			continue
		}
		params = append(params, p)
	}
	return append(params, o.Definition.Parameters...)
}

// Catalog is the authoritative operation id to record mapping, safe for concurrent use
type Catalog struct {
	mu         sync.RWMutex
	operations map[string]*Operation
}

// New creates an empty Catalog
func New() *Catalog {
	return &Catalog{
		operations: make(map[string]*Operation),
	}
}

// Put stores op and returns the record it replaced, if any
func (c *Catalog) Put(op *Operation) *Operation {
	c.mu.Lock()
	defer c.mu.Unlock()
	previous := c.operations[op.ID]
	c.operations[op.ID] = op
	return previous
}

// Get returns the record for id
func (c *Catalog) Get(id string) (*Operation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	op, ok := c.operations[id]
	return op, ok
}

// Delete removes the record for id, reporting whether it existed
func (c *Catalog) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.operations[id]
	delete(c.operations, id)
	return ok
}

// ByDocument returns the records owned by document, sorted by id
func (c *Catalog) ByDocument(document string) []*Operation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var ops []*Operation
	for _, op := range c.operations {
		if op.Document == document {
			ops = append(ops, op)
		}
	}
	sortByID(ops)
	return ops
}

// List returns every record sorted by id
func (c *Catalog) List() []*Operation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ops := make([]*Operation, 0, len(c.operations))
	for _, op := range c.operations {
		ops = append(ops, op)
	}
	sortByID(ops)
	return ops
}

// RootSpecs returns each distinct root spec once, ordered by owning document name
func (c *Catalog) RootSpecs() []*openapi3.T {
	c.mu.RLock()
	type owned struct {
		document string
		spec     *openapi3.T
	}
	seen := make(map[*openapi3.T]struct{})
	var specs []owned
	for _, op := range c.operations {
		if op.Spec == nil {
			continue
		}
		if _, ok := seen[op.Spec]; ok {
			continue
		}
		seen[op.Spec] = struct{}{}
		specs = append(specs, owned{document: op.Document, spec: op.Spec})
	}
	c.mu.RUnlock()

	sort.Slice(specs, func(i, j int) bool { return specs[i].document < specs[j].document })
	out := make([]*openapi3.T, len(specs))
	for i, s := range specs {
		out[i] = s.spec
	}
	return out
}

// Len returns the number of records
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.operations)
}

func sortByID(ops []*Operation) {
	sort.Slice(ops, func(i, j int) bool { return ops[i].ID < ops[j].ID })
}
