package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the bookrag service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Index      IndexConfig      `yaml:"index"`
	Search     SearchConfig     `yaml:"search"`
	Cache      CacheConfig      `yaml:"cache"`
	Warmup     WarmupConfig     `yaml:"warmup"`
	Budget     BudgetConfig     `yaml:"budget"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds bearer keys for the ops router. Empty disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds the ops server settings (/healthz, /metrics, /usage).
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	ClientName       string   `yaml:"client_name"`
}

// IndexConfig holds HNSW index settings for the book index.
type IndexConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"`
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	Cache            bool   `yaml:"cache"`
	CacheTTLSec      int    `yaml:"cache_ttl_sec"` // 0 = no expiry
}

// GenerationConfig holds the language model settings.
type GenerationConfig struct {
	Provider     string        `yaml:"provider"`
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	Model        string        `yaml:"model"`
	Temperature  float32       `yaml:"temperature"`
	MaxTokens    int           `yaml:"max_tokens"`
	SystemPrompt string        `yaml:"system_prompt"`
	Breaker      BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds circuit breaker settings for the generation provider.
type BreakerConfig struct {
	MinRequests  uint32  `yaml:"min_requests"`
	FailureRatio float64 `yaml:"failure_ratio"`
	IntervalSec  int     `yaml:"interval_sec"`
	TimeoutSec   int     `yaml:"timeout_sec"`
}

// SearchConfig holds retrieval, fusion and candidate selection settings.
type SearchConfig struct {
	RetrievalK         int     `yaml:"retrieval_k"`
	RRFK               int     `yaml:"rrf_k"`
	CandidateThreshold float64 `yaml:"candidate_threshold"`
	MaxCandidates      int     `yaml:"max_candidates"`
	FallbackCandidates int     `yaml:"fallback_candidates"`
	DescriptionChars   int     `yaml:"description_chars"`
	FullText           bool    `yaml:"full_text"`
}

// CacheConfig holds semantic cache settings.
type CacheConfig struct {
	Backend             string  `yaml:"backend"` // memory, redis (default: redis)
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	TTLSec              int     `yaml:"ttl_sec"` // negative = never expire
	MaxIdentities       int     `yaml:"max_identities"`
}

// WarmupConfig holds warm-up coordination settings.
type WarmupConfig struct {
	InFlight       string   `yaml:"inflight"` // memory, redis (default: redis)
	InFlightTTLSec int      `yaml:"inflight_ttl_sec"`
	Concurrency    int      `yaml:"concurrency"`
	TimeoutSec     int      `yaml:"timeout_sec"` // 0 = no deadline
	SeedKeywords   []string `yaml:"seed_keywords"`
}

// BudgetConfig caps model tokens shared by embedding and generation calls.
// Zero limits are unlimited.
type BudgetConfig struct {
	DailyTokens   int64  `yaml:"daily_tokens"`
	MonthlyTokens int64  `yaml:"monthly_tokens"`
	Action        string `yaml:"action"` // warn | reject
}

// CatalogConfig points at a JSON lines book file imported at startup. Empty disables import.
type CatalogConfig struct {
	SeedFile  string `yaml:"seed_file"`
	BatchSize int    `yaml:"batch_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = c.Embedding.Provider
	}
	if c.Generation.APIKey == "" {
		c.Generation.APIKey = c.Embedding.APIKey
	}
	if c.Generation.BaseURL == "" {
		c.Generation.BaseURL = c.Embedding.BaseURL
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 1024
	}
	if c.Generation.Breaker.MinRequests == 0 {
		c.Generation.Breaker.MinRequests = 5
	}
	if c.Generation.Breaker.FailureRatio <= 0 {
		c.Generation.Breaker.FailureRatio = 0.6
	}
	if c.Generation.Breaker.IntervalSec <= 0 {
		c.Generation.Breaker.IntervalSec = 60
	}
	if c.Generation.Breaker.TimeoutSec <= 0 {
		c.Generation.Breaker.TimeoutSec = 30
	}
	if c.Search.RetrievalK <= 0 {
		c.Search.RetrievalK = 100
	}
	if c.Search.RRFK <= 0 {
		c.Search.RRFK = 60
	}
	if c.Search.CandidateThreshold <= 0 {
		c.Search.CandidateThreshold = 0.02
	}
	if c.Search.MaxCandidates <= 0 {
		c.Search.MaxCandidates = 5
	}
	if c.Search.FallbackCandidates <= 0 {
		c.Search.FallbackCandidates = 3
	}
	if c.Search.DescriptionChars <= 0 {
		c.Search.DescriptionChars = 400
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "redis"
	}
	if c.Cache.SimilarityThreshold <= 0 {
		c.Cache.SimilarityThreshold = 0.98
	}
	if c.Cache.TTLSec == 0 {
		c.Cache.TTLSec = 24 * 60 * 60
	}
	if c.Warmup.InFlight == "" {
		c.Warmup.InFlight = "redis"
	}
	if c.Warmup.InFlightTTLSec <= 0 {
		c.Warmup.InFlightTTLSec = 300
	}
	if c.Warmup.Concurrency <= 0 {
		c.Warmup.Concurrency = 4
	}
	if c.Budget.Action == "" {
		c.Budget.Action = "warn"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Catalog.BatchSize < 0 {
		return fmt.Errorf("catalog.batch_size must not be negative, got %d", c.Catalog.BatchSize)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Generation.Model == "" {
		return fmt.Errorf("generation.model is required")
	}
	if r := c.Generation.Breaker.FailureRatio; r > 1 {
		return fmt.Errorf("generation.breaker.failure_ratio must be in (0, 1], got %v", r)
	}
	if t := c.Cache.SimilarityThreshold; t > 1 {
		return fmt.Errorf("cache.similarity_threshold must be in (0, 1], got %v", t)
	}
	if err := oneOf("cache.backend", c.Cache.Backend, "memory", "redis"); err != nil {
		return err
	}
	if err := oneOf("warmup.inflight", c.Warmup.InFlight, "memory", "redis"); err != nil {
		return err
	}
	if c.Budget.DailyTokens < 0 || c.Budget.MonthlyTokens < 0 {
		return fmt.Errorf("budget limits must not be negative")
	}
	if err := oneOf("budget.action", c.Budget.Action, "warn", "reject"); err != nil {
		return err
	}
	if c.Warmup.TimeoutSec < 0 {
		return fmt.Errorf("warmup.timeout_sec must not be negative, got %d", c.Warmup.TimeoutSec)
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %q, got %q", field, allowed, value)
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
