// Package config loads service configuration. Sources, lowest priority
// first: built-in defaults, an optional YAML file named by CONFIG_FILE, a
// .env file in the working directory, then process environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// DefaultLLMBaseURL is a local OpenAI-compatible server such as LM Studio
const DefaultLLMBaseURL = "http://localhost:1234/v1"

// Supported backends
var (
	LLMProviders       = []string{"openai", "anthropic", "gemini", "ollama", "deepseek", "mock"}
	EmbeddingProviders = []string{"openai", "ollama", "hash"}
	GraphStores        = []string{"neo4j", "sqlite", "memory"}
	WorkspaceStores    = []string{"memory", "dynamodb"}
)

// Config holds all configuration for the service
type Config struct {
	Environment   Environment   `yaml:"environment"`
	Server        Server        `yaml:"server"`
	Logging       Logging       `yaml:"logging"`
	Security      Security      `yaml:"security"`
	RateLimit     RateLimit     `yaml:"rate_limit"`
	LLM           LLM           `yaml:"llm"`
	Embedding     Embedding     `yaml:"embedding"`
	GraphStore    GraphStore    `yaml:"graph_store"`
	Workspaces    Workspaces    `yaml:"workspaces"`
	AWS           AWS           `yaml:"aws"`
	Qdrant        Qdrant        `yaml:"qdrant"`
	Events        Events        `yaml:"events"`
	WebSearch     WebSearch     `yaml:"web_search"`
	Observability Observability `yaml:"observability"`
	Persistence   Persistence   `yaml:"persistence"`

	// ConfigFile is the YAML file this config was read from, if any
	ConfigFile string `yaml:"-"`
}

// Server configures the HTTP listener
type Server struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// Logging configures zap
type Logging struct {
	Level string `yaml:"level"`
}

// Security configures authentication and CORS
type Security struct {
	StaticAPIKey   string   `yaml:"static_api_key"`
	JWTSecret      string   `yaml:"jwt_secret"`
	JWTIssuer      string   `yaml:"jwt_issuer"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RateLimit configures the per-client limiter. Zero RPS disables it.
type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// LLM selects and tunes the completion provider
type LLM struct {
	Provider    string        `yaml:"provider"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`

	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	GeminiAPIKey    string `yaml:"gemini_api_key"`
	DeepSeekAPIKey  string `yaml:"deepseek_api_key"`

	// Breaker opens after this many consecutive failures
	BreakerFailures uint32        `yaml:"breaker_failures"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
}

// Embedding selects the embedding model
type Embedding struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
}

// GraphStore selects the system of record
type GraphStore struct {
	Backend    string `yaml:"backend"`
	Neo4j      Neo4j  `yaml:"neo4j"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Neo4j connection settings
type Neo4j struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Workspaces selects the workspace repository
type Workspaces struct {
	Backend string `yaml:"backend"`
	Table   string `yaml:"dynamodb_table"`
}

// AWS settings shared by DynamoDB and EventBridge
type AWS struct {
	Region string `yaml:"region"`
}

// Qdrant configures the optional vector index. An empty host disables it.
type Qdrant struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
	UseTLS     bool   `yaml:"use_tls"`
}

// Events configures publication. An empty bus name logs events instead.
type Events struct {
	BusName string `yaml:"bus_name"`
}

// WebSearch configures prompt context from the web
type WebSearch struct {
	Enabled    bool          `yaml:"enabled"`
	MaxResults int           `yaml:"max_results"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Observability toggles metrics and tracing. Prometheus metrics are
// served on /metrics; CloudWatch metrics are pushed, which is what a Lambda
// deployment uses. An empty namespace becomes TopicGraph/<environment>.
type Observability struct {
	MetricsEnabled      bool    `yaml:"metrics_enabled"`
	CloudWatchEnabled   bool    `yaml:"cloudwatch_enabled"`
	CloudWatchNamespace string  `yaml:"cloudwatch_namespace"`
	TracingEnabled      bool    `yaml:"tracing_enabled"`
	OTLPEndpoint        string  `yaml:"otlp_endpoint"`
	SampleRate          float64 `yaml:"sample_rate"`
}

// Persistence sizes the background save pool
type Persistence struct {
	Workers     int           `yaml:"workers"`
	QueueSize   int           `yaml:"queue_size"`
	SaveTimeout time.Duration `yaml:"save_timeout"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Environment: Development,
		Server: Server{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    8 << 20,
		},
		Logging: Logging{Level: "info"},
		Security: Security{
			JWTIssuer: "topicgraph",
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://localhost:8080",
			},
		},
		RateLimit: RateLimit{RPS: 5, Burst: 10},
		LLM: LLM{
			Provider:        "openai",
			BaseURL:         DefaultLLMBaseURL,
			Timeout:         30 * time.Second,
			Temperature:     0.7,
			MaxTokens:       2048,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Embedding: Embedding{
			Provider:   "hash",
			Dimensions: 384,
		},
		GraphStore: GraphStore{
			Backend:    "memory",
			Neo4j:      Neo4j{Username: "neo4j", Database: "neo4j"},
			SQLitePath: "topicgraph.db",
		},
		Workspaces: Workspaces{Backend: "memory", Table: "topicgraph-workspaces"},
		AWS:        AWS{Region: "us-east-1"},
		Qdrant:     Qdrant{Port: 6334, Collection: "topicgraph_nodes"},
		WebSearch:  WebSearch{MaxResults: 5, Timeout: 10 * time.Second},
		Observability: Observability{
			OTLPEndpoint: "localhost:4317",
		},
		Persistence: Persistence{Workers: 2, QueueSize: 64, SaveTimeout: 30 * time.Second},
	}
}

// Load reads .env, the optional CONFIG_FILE and the environment, then
// validates the result.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile is Load without the .env step, reading YAML from path when set
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	cfg.applyModelDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.ConfigFile = path
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = Environment(strings.ToLower(v))
	}

	envString("HOST", &c.Server.Host)
	envInt("PORT", &c.Server.Port)
	envString("LOG_LEVEL", &c.Logging.Level)

	envList("ALLOWED_ORIGINS", &c.Security.AllowedOrigins)
	envString("STATIC_API_KEY", &c.Security.StaticAPIKey)
	envString("JWT_SECRET", &c.Security.JWTSecret)
	envFloat("RATE_LIMIT_RPS", &c.RateLimit.RPS)
	envInt("RATE_LIMIT_BURST", &c.RateLimit.Burst)

	envString("LLM_PROVIDER", &c.LLM.Provider)
	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
	envString("LLM_BASE_URL", &c.LLM.BaseURL)
	envString("LLM_API_KEY", &c.LLM.APIKey)
	envString("LLM_MODEL", &c.LLM.Model)
	envDuration("LLM_TIMEOUT", &c.LLM.Timeout)
	envFloat("LLM_TEMPERATURE", &c.LLM.Temperature)
	envInt("LLM_MAX_TOKENS", &c.LLM.MaxTokens)
	envString("OPENAI_API_KEY", &c.LLM.OpenAIAPIKey)
	envString("ANTHROPIC_API_KEY", &c.LLM.AnthropicAPIKey)
	envString("GEMINI_API_KEY", &c.LLM.GeminiAPIKey)
	envString("DEEPSEEK_API_KEY", &c.LLM.DeepSeekAPIKey)

	envString("EMBEDDING_PROVIDER", &c.Embedding.Provider)
	c.Embedding.Provider = strings.ToLower(c.Embedding.Provider)
	envString("EMBEDDING_MODEL", &c.Embedding.Model)
	envInt("EMBEDDING_DIMENSIONS", &c.Embedding.Dimensions)
	envString("EMBEDDING_BASE_URL", &c.Embedding.BaseURL)

	envString("GRAPH_STORE", &c.GraphStore.Backend)
	c.GraphStore.Backend = strings.ToLower(c.GraphStore.Backend)
	envString("NEO4J_URI", &c.GraphStore.Neo4j.URI)
	envString("NEO4J_USERNAME", &c.GraphStore.Neo4j.Username)
	envString("NEO4J_PASSWORD", &c.GraphStore.Neo4j.Password)
	envString("NEO4J_DATABASE", &c.GraphStore.Neo4j.Database)
	envString("SQLITE_PATH", &c.GraphStore.SQLitePath)

	envString("WORKSPACE_STORE", &c.Workspaces.Backend)
	c.Workspaces.Backend = strings.ToLower(c.Workspaces.Backend)
	envString("DYNAMODB_TABLE", &c.Workspaces.Table)
	envString("AWS_REGION", &c.AWS.Region)

	envString("QDRANT_HOST", &c.Qdrant.Host)
	envInt("QDRANT_PORT", &c.Qdrant.Port)
	envString("QDRANT_API_KEY", &c.Qdrant.APIKey)
	envString("QDRANT_COLLECTION", &c.Qdrant.Collection)
	envBool("QDRANT_USE_TLS", &c.Qdrant.UseTLS)

	envString("EVENT_BUS_NAME", &c.Events.BusName)

	envBool("ENABLE_WEB_SEARCH", &c.WebSearch.Enabled)
	envInt("SEARCH_MAX_RESULTS", &c.WebSearch.MaxResults)
	envDuration("SEARCH_TIMEOUT", &c.WebSearch.Timeout)

	envBool("ENABLE_METRICS", &c.Observability.MetricsEnabled)
	envBool("ENABLE_CLOUDWATCH_METRICS", &c.Observability.CloudWatchEnabled)
	envString("CLOUDWATCH_NAMESPACE", &c.Observability.CloudWatchNamespace)
	envBool("ENABLE_TRACING", &c.Observability.TracingEnabled)
	envString("OTEL_EXPORTER_OTLP_ENDPOINT", &c.Observability.OTLPEndpoint)

	envInt("PERSIST_WORKERS", &c.Persistence.Workers)
	envInt("PERSIST_QUEUE", &c.Persistence.QueueSize)
}

// applyModelDefaults picks a model and key per provider when none is set
func (c *Config) applyModelDefaults() {
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case "anthropic":
			c.LLM.Model = "claude-3-5-haiku-latest"
		case "gemini":
			c.LLM.Model = "gemini-2.0-flash"
		case "ollama":
			c.LLM.Model = "llama3.2"
		case "deepseek":
			c.LLM.Model = "deepseek-chat"
		default:
			c.LLM.Model = "local-model"
		}
	}
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "openai":
			c.LLM.APIKey = c.LLM.OpenAIAPIKey
		case "anthropic":
			c.LLM.APIKey = c.LLM.AnthropicAPIKey
		case "gemini":
			c.LLM.APIKey = c.LLM.GeminiAPIKey
		case "deepseek":
			c.LLM.APIKey = c.LLM.DeepSeekAPIKey
		}
	}

	if c.Embedding.Model == "" {
		switch c.Embedding.Provider {
		case "openai":
			c.Embedding.Model = "text-embedding-3-small"
		case "ollama":
			c.Embedding.Model = "nomic-embed-text"
		}
	}
	if c.Embedding.BaseURL == "" && c.Embedding.Provider == "openai" {
		c.Embedding.BaseURL = c.LLM.BaseURL
	}
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = c.LLM.OpenAIAPIKey
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = c.LLM.APIKey
		}
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	var errs []error

	switch c.Environment {
	case Development, Staging, Production:
	default:
		errs = append(errs, fmt.Errorf("unknown environment %q", c.Environment))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Server.Port))
	}
	if !oneOf(c.LLM.Provider, LLMProviders) {
		errs = append(errs, fmt.Errorf("unknown LLM provider %q", c.LLM.Provider))
	}
	if !oneOf(c.Embedding.Provider, EmbeddingProviders) {
		errs = append(errs, fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider))
	}
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, errors.New("embedding dimensions must be positive"))
	}
	if !oneOf(c.GraphStore.Backend, GraphStores) {
		errs = append(errs, fmt.Errorf("unknown graph store %q", c.GraphStore.Backend))
	}
	if c.GraphStore.Backend == "neo4j" && c.GraphStore.Neo4j.URI == "" {
		errs = append(errs, errors.New("NEO4J_URI is required for the neo4j graph store"))
	}
	if c.GraphStore.Backend == "sqlite" && c.GraphStore.SQLitePath == "" {
		errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite graph store"))
	}
	if !oneOf(c.Workspaces.Backend, WorkspaceStores) {
		errs = append(errs, fmt.Errorf("unknown workspace store %q", c.Workspaces.Backend))
	}
	if c.Workspaces.Backend == "dynamodb" && c.Workspaces.Table == "" {
		errs = append(errs, errors.New("DYNAMODB_TABLE is required for the dynamodb workspace store"))
	}
	if c.IsProduction() && c.Security.StaticAPIKey == "" && c.Security.JWTSecret == "" {
		errs = append(errs, errors.New("STATIC_API_KEY or JWT_SECRET is required in production"))
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("rate limits must not be negative"))
	}
	if c.Persistence.Workers < 0 || c.Persistence.QueueSize < 0 {
		errs = append(errs, errors.New("persistence pool sizes must not be negative"))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("LLM timeout must be positive"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// Addr returns host:port for the listener
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Reloadable is the subset of configuration applied without a restart
type Reloadable struct {
	LogLevel       string
	AllowedOrigins []string
	RateLimit      RateLimit
}

// Reloadable returns the hot-reloadable settings
func (c *Config) Reloadable() Reloadable {
	return Reloadable{
		LogLevel:       c.Logging.Level,
		AllowedOrigins: append([]string(nil), c.Security.AllowedOrigins...),
		RateLimit:      c.RateLimit,
	}
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// envDuration accepts Go durations ("30s") or plain seconds ("30", "2.5")
func envDuration(key string, dst *time.Duration) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = time.Duration(secs * float64(time.Second))
	}
}

func envList(key string, dst *[]string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}
