package model

// NodeType tags a knowledge graph node with the kind of content it carries.
type NodeType string

const (
	NodeAPIDocumentation          NodeType = "API_DOCUMENTATION"
	NodeAPIOperationDocumentation NodeType = "API_OPERATION_DOCUMENTATION"
	NodeAPIOperationInput         NodeType = "API_OPERATION_INPUT"
	NodeAPIOperationOutput        NodeType = "API_OPERATION_OUTPUT"
	NodeAPIOperationExample       NodeType = "API_OPERATION_EXAMPLE"
	NodeDocsChunk                 NodeType = "DOCS_CHUNK"
)

// ContentFormat names the encoding of Node.Payload.
type ContentFormat string

const (
	ContentFormatJSON     ContentFormat = "json"
	ContentFormatMarkdown ContentFormat = "markdown"
	ContentFormatText     ContentFormat = "text"
)

// Node is a tagged knowledge graph record. Key is deterministic from NodeType
// and identity (e.g. "API_OPERATION_DOCUMENTATION_<service>_<operationId>")
// so upserts are idempotent.
type Node struct {
	Key           string
	NodeType      NodeType
	APISlug       string
	Entities      []string
	Operations    []string // operationIds this node documents
	ContentFormat ContentFormat
	Payload       string
	Metadata      map[string]string // internal bookkeeping, stripped before returning to callers
}

// EdgeKind names the relation a graph edge carries.
type EdgeKind string

const (
	EdgeHasEntity    EdgeKind = "HAS_ENTITY"
	EdgeHasOperation EdgeKind = "HAS_OPERATION"
)

// Edge is a flat Node -> target record. Nodes and edges are stored and
// traversed as flat rows via the graph store, never as in-memory pointers,
// per the "cyclic references" re-architecture guidance.
type Edge struct {
	Kind   EdgeKind
	From   string // node key
	To     string // entity name or operationId, depending on Kind
}

// StrippedNode is the public projection of a Node returned by graph queries,
// with internal Metadata removed.
type StrippedNode struct {
	Key           string
	NodeType      NodeType
	APISlug       string
	Entities      []string
	Operations    []string
	ContentFormat ContentFormat
	Payload       string
}

// Strip removes internal bookkeeping fields before a node crosses the
// Graph Query Service's public boundary.
func (n *Node) Strip() StrippedNode {
	return StrippedNode{
		Key:           n.Key,
		NodeType:      n.NodeType,
		APISlug:       n.APISlug,
		Entities:      n.Entities,
		Operations:    n.Operations,
		ContentFormat: n.ContentFormat,
		Payload:       n.Payload,
	}
}
