package services

import (
	"context"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"topicgraph/application/ports"
	"topicgraph/domain/events"
	"topicgraph/domain/graph"
	apperrors "topicgraph/pkg/errors"

	"go.uber.org/zap"
)

const (
	// DefaultSearchLimit is used when a search does not name a limit
	DefaultSearchLimit = 10
	// MaxSearchLimit caps caller-supplied limits
	MaxSearchLimit = 100

	// loaded nodes are scattered over this area until a layout runs
	scatterWidth  = 800.0
	scatterHeight = 600.0
)

// PersistenceMetrics observes the save queue
type PersistenceMetrics interface {
	SetPersistQueueDepth(depth int)
	IncPersistFailure(stage string)
}

type noopPersistenceMetrics struct{}

func (noopPersistenceMetrics) SetPersistQueueDepth(int) {}
func (noopPersistenceMetrics) IncPersistFailure(string) {}

// PersistenceOptions sizes the background save pool
type PersistenceOptions struct {
	// Workers is the number of background savers. Zero saves inline on the
	// calling goroutine, which suits runtimes that freeze after a response.
	Workers     int
	QueueSize   int
	SaveTimeout time.Duration
}

type saveJob struct {
	source   string
	fragment graph.Fragment
}

// PersistenceService is the gateway to durable storage: it embeds and saves
// fragments, reloads the stored graph and answers similarity searches.
type PersistenceService struct {
	store    ports.GraphStore
	embedder ports.Embedder
	index    ports.VectorIndex
	eventBus ports.EventBus
	metrics  PersistenceMetrics
	clock    ports.Clock
	logger   *zap.Logger
	opts     PersistenceOptions

	jobs      chan saveJob
	wg        sync.WaitGroup
	startOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewPersistenceService creates the service. index and metrics may be nil.
func NewPersistenceService(
	store ports.GraphStore,
	embedder ports.Embedder,
	index ports.VectorIndex,
	eventBus ports.EventBus,
	metrics PersistenceMetrics,
	clock ports.Clock,
	opts PersistenceOptions,
	logger *zap.Logger,
) *PersistenceService {
	if metrics == nil {
		metrics = noopPersistenceMetrics{}
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 30 * time.Second
	}
	return &PersistenceService{
		store:    store,
		embedder: embedder,
		index:    index,
		eventBus: eventBus,
		metrics:  metrics,
		clock:    clock,
		logger:   logger.Named("persistence"),
		opts:     opts,
		jobs:     make(chan saveJob, opts.QueueSize),
	}
}

// Start launches the background workers. It is safe to call more than once.
func (s *PersistenceService) Start() {
	s.startOnce.Do(func() {
		for i := 0; i < s.opts.Workers; i++ {
			s.wg.Add(1)
			go s.worker()
		}
		s.logger.Info("Persistence workers started", zap.Int("workers", s.opts.Workers), zap.Int("queue", s.opts.QueueSize))
	})
}

func (s *PersistenceService) worker() {
	defer s.wg.Done()
	for job := range s.jobs {
		s.metrics.SetPersistQueueDepth(len(s.jobs))
		s.run(job)
	}
}

func (s *PersistenceService) run(job saveJob) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.SaveTimeout)
	defer cancel()

	if err := s.Save(ctx, job.fragment.Nodes, job.fragment.Edges); err != nil {
		// The caller already has its graph; storage failures stay server-side.
		s.logger.Error("Background save failed",
			zap.String("source", job.source),
			zap.Int("nodes", len(job.fragment.Nodes)),
			zap.Int("edges", len(job.fragment.Edges)),
			zap.Error(err),
		)
		return
	}

	if s.eventBus != nil {
		evt := events.NewGraphPersisted(job.source, job.fragment.Graph().Stats(), s.clock.Now())
		if err := s.eventBus.Publish(ctx, evt); err != nil {
			s.logger.Warn("Failed to publish persisted event", zap.Error(err))
		}
	}
}

// Enqueue schedules f for saving and returns immediately. It reports false
// when the job was dropped because the queue is full or the service is
// shutting down.
func (s *PersistenceService) Enqueue(source string, f graph.Fragment) bool {
	if f.IsEmpty() {
		return true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.Warn("Persistence is shutting down, dropping save", zap.String("source", source))
		return false
	}

	job := saveJob{source: source, fragment: f}
	if s.opts.Workers == 0 {
		s.run(job)
		return true
	}

	select {
	case s.jobs <- job:
		s.metrics.SetPersistQueueDepth(len(s.jobs))
		return true
	default:
		s.metrics.IncPersistFailure("queue_full")
		s.logger.Warn("Persistence queue full, dropping save",
			zap.String("source", source),
			zap.Int("queue", s.opts.QueueSize),
		)
		return false
	}
}

// Shutdown stops accepting jobs and waits for queued saves until ctx ends.
func (s *PersistenceService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.jobs)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Save embeds every node label and upserts nodes, then edges. An embedding
// failure stores the node with an empty vector instead of aborting.
func (s *PersistenceService) Save(ctx context.Context, nodes []graph.Node, edges []graph.Edge) error {
	embedded := make([]graph.Node, len(nodes))
	for i, n := range nodes {
		vec, err := s.embedder.Embed(ctx, n.Label())
		if err != nil {
			s.metrics.IncPersistFailure("embedding")
			s.logger.Warn("Embedding failed, storing node without vector",
				zap.String("nodeID", n.ID),
				zap.Error(err),
			)
			vec = []float32{}
		}
		n.Embedding = vec
		embedded[i] = n
	}

	if err := s.store.SaveNodes(ctx, embedded); err != nil {
		s.metrics.IncPersistFailure("nodes")
		return apperrors.NewPersistenceError("save nodes", err)
	}
	if err := s.store.SaveEdges(ctx, edges); err != nil {
		s.metrics.IncPersistFailure("edges")
		return apperrors.NewPersistenceError("save edges", err)
	}

	if s.index != nil {
		if err := s.index.Upsert(ctx, embedded); err != nil {
			s.metrics.IncPersistFailure("index")
			return apperrors.NewPersistenceError("index nodes", err)
		}
	}
	return nil
}

// LoadAll returns the stored graph. Stored graphs have no layout, so nodes
// are scattered at random positions.
func (s *PersistenceService) LoadAll(ctx context.Context) (graph.Graph, error) {
	g, err := s.store.LoadAll(ctx)
	if err != nil {
		return graph.Graph{}, apperrors.NewPersistenceError("load all", err)
	}

	for i := range g.Nodes {
		g.Nodes[i].Position = graph.Position{
			X: rand.Float64() * scatterWidth,
			Y: rand.Float64() * scatterHeight,
		}
		g.Nodes[i].Embedding = nil
	}
	return g, nil
}

// Search embeds query and returns up to limit stored nodes ordered by
// descending similarity.
func (s *PersistenceService) Search(ctx context.Context, query string, limit int) ([]ports.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("query is required")
	}
	limit = ClampSearchLimit(limit)

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, apperrors.NewPersistenceError("embed query", err)
	}

	var results []ports.SearchResult
	if s.index != nil {
		results, err = s.index.Search(ctx, vec, limit)
	} else {
		results, err = s.store.Search(ctx, vec, limit)
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("search", err)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []ports.SearchResult{}
	}
	return results, nil
}

// Ping checks the graph store
func (s *PersistenceService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ClampSearchLimit applies the default and maximum search limits
func ClampSearchLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return limit
}

// SystemClock is the wall clock
type SystemClock struct{}

// Now returns the current UTC time
func (SystemClock) Now() time.Time { return time.Now().UTC() }
