package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"topicgraph/application/commands/bus"
	"topicgraph/application/commands/handlers"
	"topicgraph/application/ports"
	"topicgraph/application/queries"
	querybus "topicgraph/application/queries/bus"
	"topicgraph/application/services"
	"topicgraph/domain/graph"
	"topicgraph/domain/layout"
	"topicgraph/domain/workspace"
	"topicgraph/infrastructure/embedding"
	"topicgraph/infrastructure/llm"
	"topicgraph/infrastructure/persistence/memory"
	"topicgraph/interfaces/http/rest/middleware"
	"topicgraph/pkg/auth"
	apperrors "topicgraph/pkg/errors"
	"topicgraph/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	rootReply  = `{"nodes":[{"id":"1","data":{"label":"Photosynthesis"},"position":{"x":0,"y":0}}],"edges":[]}`
	childReply = `{"nodes":[{"id":"2","data":{"label":"Chlorophyll"},"position":{"x":0,"y":0}}],
		"edges":[{"id":"e1-2","source":"1","target":"2","data":{"label":"uses"}}]}`
)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) }

type server struct {
	handler http.Handler
	llm     *llm.MockProvider
	store   *memory.GraphStore
	cors    *middleware.CORS
}

type option func(*Dependencies)

func withAPIKey(key string) option {
	return func(d *Dependencies) { d.Authenticator = auth.NewAuthenticator(key, nil) }
}

func withLimiter(l *auth.KeyedLimiter) option {
	return func(d *Dependencies) { d.Limiter = l }
}

func withMetrics(c *observability.Collector) option {
	return func(d *Dependencies) {
		d.Metrics = c
		d.MetricsHandler = c.Handler()
	}
}

func newServer(t *testing.T, replies []string, opts ...option) *server {
	t.Helper()
	logger := zap.NewNop()

	s := &server{
		llm:   llm.NewMockProvider(replies...),
		store: memory.NewGraphStore(),
		cors:  middleware.NewCORS([]string{"http://localhost:5173"}),
	}
	repo := memory.NewWorkspaceRepository()
	gen := services.NewGenerationService(s.llm, nil, services.GenerationOptions{}, logger)
	graphs := services.NewGraphService(layout.NewEngine(layout.DefaultOptions()), logger)
	persistence := services.NewPersistenceService(s.store, embedding.NewHashEmbedder(64), nil, nil, nil,
		fixedClock{}, services.PersistenceOptions{Workers: 0}, logger)

	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	require.NoError(t, handlers.NewGraphHandlers(gen, graphs, persistence, nil, fixedClock{}, logger).Register(commandBus))
	require.NoError(t, handlers.NewWorkspaceHandlers(repo, gen, graphs, persistence, nil, fixedClock{}, logger).Register(commandBus))
	queryBus := querybus.NewQueryBus(nil)
	require.NoError(t, queries.NewHandlers(persistence, graphs, repo).Register(queryBus))

	deps := Dependencies{
		CommandBus:    commandBus,
		QueryBus:      queryBus,
		ErrorHandler:  apperrors.NewErrorHandler(logger, false),
		Authenticator: auth.NewAuthenticator("", nil),
		CORS:          s.cors,
		LLM:           gen,
		Store:         persistence,
		Clock:         fixedClock{},
		Logger:        logger,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	s.handler = NewRouter(deps).Setup()
	return s
}

func (s *server) do(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestGenerate(t *testing.T) {
	s := newServer(t, []string{rootReply})

	rec := s.do(http.MethodPost, "/api/generate", map[string]string{"topic": "Photosynthesis"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	g := decode[graph.Graph](t, rec)
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "1", g.Nodes[0].ID)
	assert.Equal(t, "Photosynthesis", g.Nodes[0].Label())
	assert.NotNil(t, g.Edges)

	stored := s.do(http.MethodGet, "/api/neo4j/all", nil)
	require.Equal(t, http.StatusOK, stored.Code)
	assert.Len(t, decode[graph.Graph](t, stored).Nodes, 1, "generated fragment is persisted")
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    interface{}
		fail    error
		status  int
		message string
	}{
		{"missing topic", map[string]string{}, nil, http.StatusBadRequest, "topic is required"},
		{"blank topic", map[string]string{"topic": "   "}, nil, http.StatusBadRequest, "topic is required"},
		{"malformed body", `{"topic":`, nil, http.StatusBadRequest, "Invalid request body"},
		{"empty body", nil, nil, http.StatusBadRequest, "request body is empty"},
		{"bad direction", map[string]string{"topic": "x", "direction": "diagonal"}, nil, http.StatusBadRequest, "direction"},
		{"model failure", map[string]string{"topic": "x"}, errors.New("connection refused"),
			http.StatusInternalServerError, apperrors.GenerationFailedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t, []string{rootReply})
			if tt.fail != nil {
				s.llm.FailWith(tt.fail)
			}
			rec := s.do(http.MethodPost, "/api/generate", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			body := decode[apperrors.ErrorResponse](t, rec)
			assert.Contains(t, body.Error, tt.message)
			assert.NotContains(t, rec.Body.String(), "connection refused", "causes stay server-side")
		})
	}

	t.Run("unparseable reply", func(t *testing.T) {
		s := newServer(t, []string{"I cannot draw graphs"})
		rec := s.do(http.MethodPost, "/api/generate", map[string]string{"topic": "x"})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, apperrors.GenerationFailedMessage, decode[apperrors.ErrorResponse](t, rec).Error)
	})
}

func TestExpand(t *testing.T) {
	full := graph.Graph{Nodes: []graph.Node{graph.NewNode("1", "Photosynthesis")}, Edges: []graph.Edge{}}

	t.Run("returns new nodes only", func(t *testing.T) {
		s := newServer(t, []string{childReply})
		rec := s.do(http.MethodPost, "/api/expand", map[string]interface{}{
			"fullGraph": full, "selectedNodeId": "1",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		f := decode[graph.Fragment](t, rec)
		require.Len(t, f.Nodes, 1)
		assert.Equal(t, "2", f.Nodes[0].ID)
		require.Len(t, f.Edges, 1)
		assert.Equal(t, "1", f.Edges[0].Source)
		assert.Equal(t, "2", f.Edges[0].Target)

		merged := graph.Merge(full, f)
		assert.Len(t, merged.Nodes, 2)
		assert.Len(t, merged.Edges, 1)
	})

	t.Run("unknown node is not found without a model call", func(t *testing.T) {
		s := newServer(t, []string{childReply})
		rec := s.do(http.MethodPost, "/api/expand", map[string]interface{}{
			"fullGraph": full, "selectedNodeId": "42",
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, 0, s.llm.Calls())
	})

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing node id", map[string]interface{}{"fullGraph": full}},
		{"missing graph", map[string]interface{}{"selectedNodeId": "1"}},
		{"node without id", `{"fullGraph":{"nodes":[{"data":{"label":"x"}}],"edges":[]},"selectedNodeId":"1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t, []string{childReply})
			rec := s.do(http.MethodPost, "/api/expand", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, 0, s.llm.Calls())
		})
	}
}

func TestSearch(t *testing.T) {
	s := newServer(t, []string{`{"nodes":[
		{"id":"1","data":{"label":"Photosynthesis"},"position":{"x":0,"y":0}},
		{"id":"2","data":{"label":"Gravity"},"position":{"x":0,"y":0}},
		{"id":"3","data":{"label":"Sunlight"},"position":{"x":0,"y":0}}],"edges":[]}`})
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/generate", map[string]string{"topic": "t"}).Code)

	rec := s.do(http.MethodPost, "/api/neo4j/search", map[string]interface{}{"query": "light", "limit": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	results := decode[[]ports.SearchResult](t, rec)
	require.LessOrEqual(t, len(results), 2)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}

	rec = s.do(http.MethodPost, "/api/neo4j/search", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_EmptyStoreReturnsArray(t *testing.T) {
	s := newServer(t, nil)
	rec := s.do(http.MethodPost, "/api/neo4j/search", map[string]string{"query": "anything"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestLoadAll_LaidOut(t *testing.T) {
	s := newServer(t, []string{rootReply, childReply})
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/generate", map[string]string{"topic": "p"}).Code)
	full := graph.Graph{Nodes: []graph.Node{graph.NewNode("1", "Photosynthesis")}}
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/expand",
		map[string]interface{}{"fullGraph": full, "selectedNodeId": "1"}).Code)

	rec := s.do(http.MethodGet, "/api/neo4j/all?direction=TB", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	g := decode[graph.Graph](t, rec)
	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	one, _ := g.FindNode("1")
	two, _ := g.FindNode("2")
	assert.Less(t, one.Position.Y, two.Position.Y)

	rec = s.do(http.MethodGet, "/api/neo4j/all?view=3d", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, n := range decode[graph.Graph](t, rec).Nodes {
		assert.NotNil(t, n.Position3D, n.ID)
	}

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/neo4j/all?direction=up", nil).Code)
}

func TestWorkspaces(t *testing.T) {
	s := newServer(t, []string{rootReply, childReply})

	rec := s.do(http.MethodPost, "/api/workspaces", map[string]string{"topic": "Photosynthesis"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ws := decode[workspace.Workspace](t, rec)
	assert.Equal(t, int64(1), ws.Version)
	assert.Equal(t, `"1"`, rec.Header().Get("ETag"))
	base := "/api/workspaces/" + ws.ID

	rec = s.do(http.MethodPost, base+"/expand", map[string]interface{}{"nodeId": "1", "version": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	expanded := decode[workspace.Workspace](t, rec)
	assert.Equal(t, int64(2), expanded.Version)
	assert.Len(t, expanded.Graph.Nodes, 2)

	t.Run("stale version conflicts", func(t *testing.T) {
		calls := s.llm.Calls()
		rec := s.do(http.MethodPost, base+"/expand", map[string]interface{}{"nodeId": "1", "version": 1})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, calls, s.llm.Calls())
	})

	t.Run("stale If-Match conflicts", func(t *testing.T) {
		rec := s.do(http.MethodDelete, base+"/nodes/2", nil, "If-Match", `"1"`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("bad version", func(t *testing.T) {
		rec := s.do(http.MethodDelete, base+"/nodes/2?version=abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete cascades", func(t *testing.T) {
		rec := s.do(http.MethodDelete, base+"/nodes/2?version=2", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		after := decode[workspace.Workspace](t, rec)
		assert.Equal(t, int64(3), after.Version)
		assert.Len(t, after.Graph.Nodes, 1)
		assert.Empty(t, after.Graph.Edges)
	})

	t.Run("unknown node", func(t *testing.T) {
		rec := s.do(http.MethodDelete, base+"/nodes/zzz", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("load without body", func(t *testing.T) {
		rec := s.do(http.MethodPost, base+"/load", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		loaded := decode[workspace.Workspace](t, rec)
		assert.Len(t, loaded.Graph.Nodes, 2, "stored node comes back")
	})

	t.Run("get", func(t *testing.T) {
		rec := s.do(http.MethodGet, base, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, ws.ID, decode[workspace.Workspace](t, rec).ID)
		assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/workspaces/missing", nil).Code)
	})
}

func TestCreateWorkspace_Empty(t *testing.T) {
	s := newServer(t, nil)
	rec := s.do(http.MethodPost, "/api/workspaces", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ws := decode[workspace.Workspace](t, rec)
	assert.Empty(t, ws.Graph.Nodes)
	assert.Equal(t, 0, s.llm.Calls())
}

func TestGenerateStream(t *testing.T) {
	t.Run("events in order", func(t *testing.T) {
		s := newServer(t, []string{childReply})
		rec := s.do(http.MethodPost, "/api/generate/stream", map[string]string{"topic": "Photosynthesis"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

		body := rec.Body.String()
		started := strings.Index(body, "event: started")
		progress := strings.Index(body, "event: progress")
		completed := strings.Index(body, "event: completed")
		require.True(t, started >= 0 && progress > started && completed > progress, body)
		assert.Equal(t, 1, strings.Count(body, "event: progress"), "one progress event per node")
		assert.NotContains(t, body, "event: error")
	})

	t.Run("failure becomes an error event", func(t *testing.T) {
		s := newServer(t, []string{rootReply})
		s.llm.FailWith(errors.New("boom"))
		rec := s.do(http.MethodPost, "/api/generate/stream", map[string]string{"topic": "x"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "event: error")
		assert.Contains(t, rec.Body.String(), apperrors.GenerationFailedMessage)
		assert.NotContains(t, rec.Body.String(), "event: completed")
	})

	t.Run("missing topic is a plain 400", func(t *testing.T) {
		s := newServer(t, nil)
		rec := s.do(http.MethodPost, "/api/generate/stream", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotContains(t, rec.Body.String(), "event:")
	})
}

func TestAuthentication(t *testing.T) {
	s := newServer(t, []string{rootReply}, withAPIKey("secret"))
	body := map[string]string{"topic": "x"}

	tests := []struct {
		name   string
		header []string
		status int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"wrong key", []string{"Authorization", "Bearer nope"}, http.StatusUnauthorized},
		{"wrong scheme", []string{"Authorization", "Basic secret"}, http.StatusUnauthorized},
		{"valid", []string{"Authorization", "Bearer secret"}, http.StatusOK},
		{"lowercase scheme", []string{"Authorization", "bearer secret"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/generate", body, tt.header...)
			require.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
				assert.JSONEq(t, `{"error":"Invalid authentication credentials"}`, rec.Body.String())
			}
		})
	}

	t.Run("health is public", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", nil).Code)
	})
}

func TestRateLimit(t *testing.T) {
	s := newServer(t, []string{rootReply}, withLimiter(auth.NewKeyedLimiter(0.01, 1)))

	first := s.do(http.MethodPost, "/api/neo4j/search", map[string]string{"query": "x"})
	assert.Equal(t, http.StatusOK, first.Code)

	second := s.do(http.MethodPost, "/api/neo4j/search", map[string]string{"query": "x"})
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	other := s.do(http.MethodPost, "/api/neo4j/search", map[string]string{"query": "x"},
		"X-Real-IP", "203.0.113.9")
	assert.Equal(t, http.StatusOK, other.Code, "buckets are per client IP")
}

func TestSystemEndpoints(t *testing.T) {
	s := newServer(t, nil)

	rec := s.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"topicgraph API is running","version":"1.0.0"}`, rec.Body.String())

	health := decode[map[string]string](t, s.do(http.MethodGet, "/health", nil))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "healthy", health["llm_service"])
	assert.Equal(t, "2025-01-01T12:00:00Z", health["timestamp"])

	s.llm.FailWith(errors.New("down"))
	health = decode[map[string]string](t, s.do(http.MethodGet, "/health", nil))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "unhealthy", health["llm_service"])

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/ready", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/nope", nil).Code)

	viewer := s.do(http.MethodGet, "/viewer", nil)
	require.Equal(t, http.StatusOK, viewer.Code)
	assert.Contains(t, viewer.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, viewer.Body.String(), "/api/generate")
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestReady_StoreDown(t *testing.T) {
	logger := zap.NewNop()
	gen := services.NewGenerationService(llm.NewMockProvider(), nil, services.GenerationOptions{}, logger)
	handler := NewRouter(Dependencies{
		CommandBus:    bus.NewCommandBus(),
		QueryBus:      querybus.NewQueryBus(nil),
		ErrorHandler:  apperrors.NewErrorHandler(logger, false),
		Authenticator: auth.NewAuthenticator("", nil),
		LLM:           gen,
		Store:         downStore{},
		Clock:         fixedClock{},
		Logger:        logger,
	}).Setup()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestCORS(t *testing.T) {
	s := newServer(t, nil)
	preflight := func(origin string) *httptest.ResponseRecorder {
		return s.do(http.MethodOptions, "/api/generate", nil,
			"Origin", origin, "Access-Control-Request-Method", http.MethodPost)
	}

	assert.Equal(t, "http://localhost:5173", preflight("http://localhost:5173").Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, preflight("https://evil.example").Header().Get("Access-Control-Allow-Origin"))

	s.cors.SetOrigins([]string{"https://*.example.com"})
	assert.Equal(t, "https://app.example.com", preflight("https://app.example.com").Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, preflight("http://localhost:5173").Header().Get("Access-Control-Allow-Origin"), "reloaded list replaces the old one")
}

func TestMetricsEndpoint(t *testing.T) {
	collector := observability.NewCollector("topicgraph")
	s := newServer(t, []string{rootReply}, withMetrics(collector))

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/generate", map[string]string{"topic": "x"}).Code)

	rec := s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `topicgraph_http_requests_total{method="POST",route="/api/generate",status="200"} 1`)
}

func TestGenerate_IntoWorkingGraph(t *testing.T) {
	s := newServer(t, []string{rootReply, `{"nodes":[{"id":"1","data":{"label":"Gravity"}}],"edges":[]}`})

	rec := s.do(http.MethodPost, "/api/generate", map[string]string{"topic": "Photosynthesis", "direction": "TB"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[graph.Graph](t, rec)
	require.Len(t, first.Nodes, 1)

	rec = s.do(http.MethodPost, "/api/generate", map[string]interface{}{
		"topic": "Gravity", "baseGraph": first, "direction": "TB",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := decode[graph.Graph](t, rec)
	require.Len(t, second.Nodes, 1)
	assert.Equal(t, "Gravity", second.Nodes[0].Label())
	assert.NotEqual(t, "1", second.Nodes[0].ID)
	assert.NotEqual(t, first.Nodes[0].Position, second.Nodes[0].Position)
}

func TestLayout(t *testing.T) {
	s := newServer(t, nil)
	g := graph.Graph{
		Nodes: []graph.Node{graph.NewNode("1", "Photosynthesis"), graph.NewNode("2", "Chlorophyll")},
		Edges: []graph.Edge{graph.NewEdge("e1-2", "1", "2", "uses")},
	}

	rec := s.do(http.MethodPost, "/api/layout", map[string]interface{}{"graph": g, "direction": "TB"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[graph.Graph](t, rec)
	one, _ := out.FindNode("1")
	two, _ := out.FindNode("2")
	assert.Less(t, one.Position.Y, two.Position.Y)
	assert.Equal(t, 0, s.llm.Calls())

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing graph", map[string]string{"direction": "TB"}},
		{"node without id", `{"graph":{"nodes":[{"data":{"label":"x"}}],"edges":[]}}`},
		{"bad view", map[string]interface{}{"graph": g, "view": "4d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/layout", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}
