// Package model holds the data shapes shared across the OneMCP pipeline:
// handbook structure, knowledge graph records, prompt schemas, plans, and
// cache entries. Types here carry no behavior beyond small invariant helpers;
// the packages that own a concern (indexer, orchestrator, plancache, ...)
// operate on them.
package model

import "time"

// AgentDescriptor is the parsed agent.<ext> file at a handbook root: provider
// defaults, per-stage timeouts, and the list of services the agent knows about.
type AgentDescriptor struct {
	Provider string            `json:"provider" yaml:"provider"`
	Model    string            `json:"model" yaml:"model"`
	Timeouts map[string]string `json:"timeouts" yaml:"timeouts"`
	Services []string          `json:"services" yaml:"services"`
}

// APIDescriptor binds one OpenAPI document to a service slug and declares the
// entities it exposes, each with OpenAPI tag bindings and an operation kind hint.
type APIDescriptor struct {
	Slug     string         `json:"slug" yaml:"slug"`
	Name     string         `json:"name" yaml:"name"`
	Ref      string         `json:"ref" yaml:"ref"`
	Entities []EntityBinding `json:"entities" yaml:"entities"`
}

// EntityBinding maps a handbook-declared entity name to the OpenAPI tags that
// identify its operations.
type EntityBinding struct {
	Entity string   `json:"entity" yaml:"entity"`
	Tags   []string `json:"tags" yaml:"tags"`
}

// Service is a loaded API: its descriptor plus the resolved OpenAPI document's
// operations, keyed by operationId for O(1) lookup.
type Service struct {
	Slug       string
	Name       string
	Descriptor APIDescriptor
	Operations map[string]*Operation // keyed by operationId
}

// Category is the derived operation classification used by the knowledge
// graph and the graph query service to filter operations by intent.
type Category string

const (
	CategoryRetrieve Category = "Retrieve"
	CategoryCreate   Category = "Create"
	CategoryUpdate   Category = "Update"
	CategoryDelete   Category = "Delete"
	CategoryCompute  Category = "Compute"
)

// Operation is one OpenAPI endpoint, identified by (service slug, operationId).
type Operation struct {
	ServiceSlug  string
	OperationID  string
	Method       string
	Path         string
	Summary      string
	Description  string
	Tags         []string
	Category     Category
	Parameters   []Parameter
	RequestBody  *SchemaNode
	ResponseBody *SchemaNode
	Examples     []OperationExample
}

// Parameter is a resolved OpenAPI parameter (path, query, header, or cookie).
type Parameter struct {
	Name        string
	In          string
	Required    bool
	Description string
	Schema      *SchemaNode
}

// SchemaNode is a serialized JSON schema tree with $ref resolved one level,
// matching the depth the knowledge graph stores operation input/output as.
type SchemaNode struct {
	Type        string                 `json:"type,omitempty"`
	Format      string                 `json:"format,omitempty"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*SchemaNode `json:"properties,omitempty"`
	Items       *SchemaNode            `json:"items,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Enum        []any                  `json:"enum,omitempty"`
}

// OperationExample is one named request/response example carried on an
// operation, mirrored into an API_OPERATION_EXAMPLE graph node.
type OperationExample struct {
	Name            string `json:"name"`
	RequestBody     any    `json:"requestBody,omitempty"`
	ResponseBody    any    `json:"responseBody,omitempty"`
	ResponseStatus  int    `json:"responseStatus,omitempty"`
}

// RegressionCase is one entry of the optional regression-suite tree: a prompt
// and the normalized schema it is expected to produce.
type RegressionCase struct {
	Name             string   `json:"name" yaml:"name"`
	Prompt           string   `json:"prompt" yaml:"prompt"`
	ExpectedAction   string   `json:"expectedAction" yaml:"expectedAction"`
	ExpectedEntities []string `json:"expectedEntities" yaml:"expectedEntities"`
}

// Handbook is the immutable, loaded bundle: services, doc tree root, and
// optional regression cases, plus a content-derived version used to key plan
// cache entries and invalidate them on handbook change.
type Handbook struct {
	Root          string
	Agent         AgentDescriptor
	Services      map[string]*Service // keyed by slug
	DocsRoot      string
	Regression    []RegressionCase
	LoadedAt      time.Time
	version       string
}

// NewHandbook constructs a Handbook with a precomputed version hash.
func NewHandbook(root string, agent AgentDescriptor, services map[string]*Service, docsRoot string, regression []RegressionCase, version string) *Handbook {
	return &Handbook{
		Root:       root,
		Agent:      agent,
		Services:   services,
		DocsRoot:   docsRoot,
		Regression: regression,
		LoadedAt:   time.Now(),
		version:    version,
	}
}

// Version returns the content hash this handbook was built from; a plan cache
// entry is only valid for the version that produced it.
func (h *Handbook) Version() string { return h.version }

// ResolveOperation looks up an operation by (service slug, operationId),
// returning ok=false if either is unresolvable from the loaded handbook.
func (h *Handbook) ResolveOperation(serviceSlug, operationID string) (*Operation, bool) {
	svc, ok := h.Services[serviceSlug]
	if !ok {
		return nil, false
	}
	op, ok := svc.Operations[operationID]
	return op, ok
}
