package services

import (
	"context"
	"strings"
	"time"

	"topicgraph/application/ports"
	"topicgraph/domain/graph"
	apperrors "topicgraph/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerationOptions tunes prompting
type GenerationOptions struct {
	Temperature      float64
	MaxTokens        int
	WebSearch        bool
	SearchMaxResults int
	SearchTimeout    time.Duration
}

// GenerationService turns topics and expand requests into graph fragments
// using an LLM provider.
type GenerationService struct {
	llm    ports.LLMProvider
	web    ports.WebSearcher
	opts   GenerationOptions
	newID  func() string
	logger *zap.Logger
}

// NewGenerationService creates a generation service. web may be nil.
func NewGenerationService(llm ports.LLMProvider, web ports.WebSearcher, opts GenerationOptions, logger *zap.Logger) *GenerationService {
	if opts.SearchMaxResults <= 0 {
		opts.SearchMaxResults = 5
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = 10 * time.Second
	}
	return &GenerationService{
		llm:    llm,
		web:    web,
		opts:   opts,
		newID:  uuid.NewString,
		logger: logger.Named("generation"),
	}
}

// Generate asks the model for a graph about topic. An empty topic fails
// with a validation error before anything is sent.
func (s *GenerationService) Generate(ctx context.Context, topic string) (graph.Fragment, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return graph.Fragment{}, apperrors.NewValidationError("topic is required")
	}

	prompt := buildGeneratePrompt(topic, s.webContext(ctx, topic))
	return s.complete(ctx, "generate", prompt)
}

// Expand asks the model for new nodes around nodeID. The node must exist in
// full; otherwise a not-found error is returned and the model is not called.
// The returned fragment contains only nodes and edges absent from full. A
// new concept that reuses an id of full gets a fresh id instead of being
// mistaken for the existing node.
func (s *GenerationService) Expand(ctx context.Context, full graph.Graph, nodeID string) (graph.Fragment, error) {
	target, ok := full.FindNode(nodeID)
	if !ok {
		return graph.Fragment{}, apperrors.NewNotFoundError("node " + nodeID)
	}

	prompt, err := buildExpandPrompt(full, target)
	if err != nil {
		return graph.Fragment{}, apperrors.NewGenerationError(err)
	}

	f, err := s.complete(ctx, "expand", prompt)
	if err != nil {
		return graph.Fragment{}, err
	}
	return s.Reconcile(full, f).NewOnly(full), nil
}

// Reconcile gives fresh ids to nodes of f that reuse an id of base for a
// different concept, so merging f into base cannot lose them.
func (s *GenerationService) Reconcile(base graph.Graph, f graph.Fragment) graph.Fragment {
	f, renamed := f.Reassign(base, s.newID)
	if len(renamed) > 0 {
		s.logger.Warn("Model reused existing node ids for new concepts",
			zap.Any("reassigned", renamed),
		)
	}
	return f
}

// Ready reports whether the underlying provider is usable
func (s *GenerationService) Ready(ctx context.Context) bool {
	return s.llm.IsAvailable(ctx)
}

// Provider returns the provider name
func (s *GenerationService) Provider() string {
	return s.llm.Name()
}

func (s *GenerationService) complete(ctx context.Context, operation, prompt string) (graph.Fragment, error) {
	reply, err := s.llm.Complete(ctx, prompt, ports.CompletionOptions{
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
		Format:      "json",
		System:      systemPrompt,
	})
	if err != nil {
		s.logger.Error("LLM call failed",
			zap.String("operation", operation),
			zap.String("provider", s.llm.Name()),
			zap.Error(err),
		)
		return graph.Fragment{}, apperrors.NewGenerationError(err)
	}

	f, dropped, err := ParseFragment(reply)
	if err != nil {
		s.logger.Error("Unparseable LLM reply",
			zap.String("operation", operation),
			zap.String("provider", s.llm.Name()),
			zap.Int("replyBytes", len(reply)),
			zap.Error(err),
		)
		return graph.Fragment{}, apperrors.NewGenerationError(err)
	}
	if len(dropped) > 0 {
		s.logger.Warn("Dropped invalid edges from LLM reply",
			zap.String("operation", operation),
			zap.Int("dropped", len(dropped)),
			zap.Any("edges", dropped),
		)
	}
	return f, nil
}

func (s *GenerationService) webContext(ctx context.Context, topic string) []string {
	if !s.opts.WebSearch || s.web == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
	defer cancel()

	lines, err := s.web.Search(ctx, topic, s.opts.SearchMaxResults)
	if err != nil {
		s.logger.Warn("Web search failed, generating without context",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return nil
	}
	return lines
}
