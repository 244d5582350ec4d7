package ports

import (
	"context"
	"time"

	"topicgraph/domain/events"
	"topicgraph/domain/graph"
	"topicgraph/domain/workspace"
)

// CompletionOptions configures a single LLM completion
type CompletionOptions struct {
	Temperature float64
	MaxTokens   int
	// Format is "json" when the caller requires a JSON object back
	Format string
	// System is an optional system instruction
	System string
}

// LLMProvider is a text-completion backend
type LLMProvider interface {
	// Complete sends prompt and returns the raw text of the reply
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)

	// IsAvailable reports whether the provider is configured and reachable
	IsAvailable(ctx context.Context) bool

	// Name identifies the provider in logs and metrics
	Name() string
}

// Embedder turns text into a fixed-length vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// SearchResult is one similarity match
type SearchResult struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// GraphStore is the durable system of record for generated graphs.
// Implementations open a scoped session per call and close it on every path.
type GraphStore interface {
	// SaveNodes upserts nodes by id; label and embedding are overwritten
	SaveNodes(ctx context.Context, nodes []graph.Node) error

	// SaveEdges upserts relationships keyed by edge id. Edges whose endpoints
	// are not stored are skipped.
	SaveEdges(ctx context.Context, edges []graph.Edge) error

	// LoadAll returns every stored node and relationship. Positions are not
	// stored, so returned nodes carry zero positions.
	LoadAll(ctx context.Context) (graph.Graph, error)

	// Search returns up to limit nodes ordered by descending similarity
	Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error)

	// Ping checks connectivity
	Ping(ctx context.Context) error

	Close(ctx context.Context) error
}

// VectorIndex is an optional external similarity index kept alongside the
// graph store
type VectorIndex interface {
	Upsert(ctx context.Context, nodes []graph.Node) error
	Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error)
}

// WorkspaceRepository persists versioned working graphs
type WorkspaceRepository interface {
	// Get returns workspace.ErrNotFound when id is unknown
	Get(ctx context.Context, id string) (workspace.Workspace, error)

	// Create stores a new workspace; it fails if the id exists
	Create(ctx context.Context, ws workspace.Workspace) error

	// Save stores ws only if the stored version equals expectedVersion,
	// otherwise it returns workspace.ErrVersionConflict
	Save(ctx context.Context, ws workspace.Workspace, expectedVersion int64) error

	Delete(ctx context.Context, id string) error
}

// EventBus publishes domain events
type EventBus interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// WebSearcher fetches short textual context about a topic
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]string, error)
}

// Clock abstracts time for deterministic tests
type Clock interface {
	Now() time.Time
}
