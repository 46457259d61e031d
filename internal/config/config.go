package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverValkey   = "valkey"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the vecsync API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	LLM         LLMConfig         `yaml:"llm"`
	Index       IndexConfig       `yaml:"index"`
	Storage     StorageConfig     `yaml:"storage"`
	Timeouts    TimeoutsConfig    `yaml:"timeouts"`
	Sync        SyncConfig        `yaml:"sync"`
	Search      SearchConfig      `yaml:"search"`
	Collections CollectionsConfig `yaml:"collections"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port               int     `yaml:"port"`
	ReadTimeoutSec     int     `yaml:"read_timeout_sec"`
	WriteTimeoutSec    int     `yaml:"write_timeout_sec"`
	ShutdownSec        int     `yaml:"shutdown_timeout_sec"`
	SyncRateLimitRPS   float64 `yaml:"sync_rate_limit_rps"` // 0 = unlimited
	SyncRateLimitBurst int     `yaml:"sync_rate_limit_burst"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, postgres, memory (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	DSN              string   `yaml:"dsn"` // postgres only
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds HNSW index settings.
type IndexConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds the embedding server settings.
type EmbeddingConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	CacheTTLSec int    `yaml:"cache_ttl_sec"` // 0 = no expiry
}

// LLMConfig holds the chat-completion provider settings. An empty key disables it.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// TimeoutsConfig bounds calls to external systems.
type TimeoutsConfig struct {
	EmbeddingSec int `yaml:"embedding_sec"`
	IndexSec     int `yaml:"index_sec"`
}

// Embedding returns the embedding call timeout.
func (t TimeoutsConfig) Embedding() time.Duration {
	return time.Duration(t.EmbeddingSec) * time.Second
}

// Index returns the vector index call timeout.
func (t TimeoutsConfig) Index() time.Duration {
	return time.Duration(t.IndexSec) * time.Second
}

// SyncConfig holds bulk synchronization settings.
type SyncConfig struct {
	BulkConcurrency int `yaml:"bulk_concurrency"`
	MaxBulkItems    int `yaml:"max_bulk_items"`
}

// SearchConfig holds search settings.
type SearchConfig struct {
	DefaultResourceType string            `yaml:"default_resource_type"`
	ResourceTypes       map[string]string `yaml:"resource_types"` // resource type -> collection
	DefaultTopK         int               `yaml:"default_top_k"`
	MaxTopK             int               `yaml:"max_top_k"`
}

// CollectionsConfig declares the collections the service manages.
type CollectionsConfig struct {
	AutoCreate  bool                        `yaml:"auto_create"`
	Definitions map[string]CollectionConfig `yaml:"definitions"`
}

// CollectionConfig is the schema of one collection.
type CollectionConfig struct {
	VectorSize int           `yaml:"vector_size"` // 0 = embedding.dimensions
	Fields     []FieldConfig `yaml:"fields"`
}

// FieldConfig is a filterable metadata field.
type FieldConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"` // tag, numeric
}

// Load reads configuration from a YAML file by environment name (local, docker, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, substituting ${VAR} and ${VAR:-default}
// from the environment, then applies defaults and validates.
func Parse(data []byte) (Config, error) {
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.SyncRateLimitRPS > 0 && c.HTTP.SyncRateLimitBurst <= 0 {
		c.HTTP.SyncRateLimitBurst = int(c.HTTP.SyncRateLimitRPS) + 1
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 32
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 400
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "vecsync:"
	}
	if c.Timeouts.EmbeddingSec <= 0 {
		c.Timeouts.EmbeddingSec = 10
	}
	if c.Timeouts.IndexSec <= 0 {
		c.Timeouts.IndexSec = 10
	}
	if c.Sync.BulkConcurrency <= 0 {
		c.Sync.BulkConcurrency = 4
	}
	if c.Sync.MaxBulkItems <= 0 {
		c.Sync.MaxBulkItems = 1000
	}
	if c.Search.DefaultResourceType == "" {
		c.Search.DefaultResourceType = "learning_path"
	}
	if len(c.Search.ResourceTypes) == 0 {
		c.Search.ResourceTypes = map[string]string{
			"learning_path":   "learning_paths",
			"learning_paths":  "learning_paths",
			"reflection":      "reflection_tree",
			"reflection_tree": "reflection_tree",
		}
	}
	if c.Search.DefaultTopK <= 0 {
		c.Search.DefaultTopK = 7
	}
	if c.Search.MaxTopK <= 0 {
		c.Search.MaxTopK = 20
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.SyncRateLimitRPS < 0 {
		return fmt.Errorf("http.sync_rate_limit_rps must not be negative")
	}

	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %s", c.Database.Driver)
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be one of valkey, redis, postgres, memory, got %q", c.Database.Driver)
	}

	if c.Embedding.BaseURL == "" {
		return fmt.Errorf("embedding.base_url is required")
	}
	if c.Embedding.CacheTTLSec < 0 {
		return fmt.Errorf("embedding.cache_ttl_sec must not be negative")
	}

	if c.Search.DefaultTopK > c.Search.MaxTopK {
		return fmt.Errorf("search.default_top_k (%d) exceeds search.max_top_k (%d)",
			c.Search.DefaultTopK, c.Search.MaxTopK)
	}
	if _, ok := c.Search.ResourceTypes[c.Search.DefaultResourceType]; !ok {
		return fmt.Errorf("search.default_resource_type %q is not in search.resource_types",
			c.Search.DefaultResourceType)
	}

	for name, def := range c.Collections.Definitions {
		if def.VectorSize < 0 {
			return fmt.Errorf("collections.definitions.%s.vector_size must not be negative", name)
		}
		for _, f := range def.Fields {
			switch f.Type {
			case "tag", "numeric":
			default:
				return fmt.Errorf(
					"collections.definitions.%s.fields.%s.type must be \"tag\" or \"numeric\", got %q",
					name, f.Name, f.Type,
				)
			}
		}
	}
	return nil
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
