package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the jobmatch service configuration.
type Config struct {
	HTTP           HTTPConfig           `yaml:"http"`
	Cache          CacheConfig          `yaml:"cache"`
	Postgres       PostgresConfig       `yaml:"postgres"`
	Embedding      EmbeddingConfig      `yaml:"embedding"`
	Search         SearchConfig         `yaml:"search"`
	Recommendation RecommendationConfig `yaml:"recommendation"`
	Auth           AuthConfig           `yaml:"auth"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig holds the cache store connection settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // redis, badger (default: redis)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	BadgerPath       string   `yaml:"badger_path"` // empty = in-memory
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	TagTTLHours      int      `yaml:"tag_ttl_hours"`
}

// PostgresConfig holds candidate store settings.
type PostgresConfig struct {
	DSN                string `yaml:"dsn"`
	MaxConns           int32  `yaml:"max_conns"`
	MinConns           int32  `yaml:"min_conns"`
	MaxConnLifetimeMin int    `yaml:"max_conn_lifetime_min"`
	MaxConnIdleMin     int    `yaml:"max_conn_idle_min"`
	NotifyChannel      string `yaml:"notify_channel"` // empty disables the listener
}

// ProviderConfig holds embedding provider credentials.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Provider      string                    `yaml:"provider"` // openai, gemini
	Providers     map[string]ProviderConfig `yaml:"providers"`
	Model         string                    `yaml:"model"`
	Dimensions    int                       `yaml:"dimensions"`
	MaxInputChars int                       `yaml:"max_input_chars"`
	TimeoutMs     int                       `yaml:"timeout_ms"`
	Concurrency   int                       `yaml:"concurrency"`
	CacheTTLHours int                       `yaml:"cache_ttl_hours"`
}

// SearchWeights blends the two search signals.
type SearchWeights struct {
	Semantic float64 `yaml:"semantic"`
	Lexical  float64 `yaml:"lexical"`
}

// SearchConfig holds query engine settings.
type SearchConfig struct {
	DefaultLimit     int           `yaml:"default_limit"`
	MaxLimit         int           `yaml:"max_limit"`
	DefaultThreshold float64       `yaml:"default_threshold"`
	MaxCandidates    int           `yaml:"max_candidates"`
	ResultTTLMin     int           `yaml:"result_ttl_min"`
	Weights          SearchWeights `yaml:"weights"`
}

// RecommendationWeights blends the five recommendation signals.
type RecommendationWeights struct {
	Semantic   float64 `yaml:"semantic"`
	Skills     float64 `yaml:"skills"`
	Experience float64 `yaml:"experience"`
	Location   float64 `yaml:"location"`
	Salary     float64 `yaml:"salary"`
}

// ReasonBars are the per-signal values a signal must exceed to produce a reason.
type ReasonBars struct {
	Semantic   float64 `yaml:"semantic"`
	Skills     float64 `yaml:"skills"`
	Experience float64 `yaml:"experience"`
	Location   float64 `yaml:"location"`
	Salary     float64 `yaml:"salary"`
}

// RecommendationConfig holds recommendation engine settings.
type RecommendationConfig struct {
	DefaultLimit  int                   `yaml:"default_limit"`
	MaxLimit      int                   `yaml:"max_limit"`
	MinScore      float64               `yaml:"min_score"`
	CandidatePool int                   `yaml:"candidate_pool"`
	ResultTTLMin  int                   `yaml:"result_ttl_min"`
	Weights       RecommendationWeights `yaml:"weights"`
	ReasonBars    ReasonBars            `yaml:"reason_bars"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in raw YAML, then decodes, defaults and validates it.
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

	if c.Cache.Driver == "" {
		c.Cache.Driver = "redis"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "jobmatch:"
	}
	if c.Cache.TagTTLHours <= 0 {
		c.Cache.TagTTLHours = 168
	}

	if c.Postgres.MaxConns <= 0 {
		c.Postgres.MaxConns = 25
	}
	if c.Postgres.MinConns <= 0 {
		c.Postgres.MinConns = 5
	}
	if c.Postgres.MaxConnLifetimeMin <= 0 {
		c.Postgres.MaxConnLifetimeMin = 60
	}
	if c.Postgres.MaxConnIdleMin <= 0 {
		c.Postgres.MaxConnIdleMin = 30
	}

	c.applyEmbeddingDefaults()
	c.applySearchDefaults()
	c.applyRecommendationDefaults()
}

func (c *Config) applyEmbeddingDefaults() {
	e := &c.Embedding
	if e.Provider == "" {
		e.Provider = "openai"
	}
	if e.Model == "" {
		switch e.Provider {
		case "gemini":
			e.Model = "gemini-embedding-001"
		default:
			e.Model = "text-embedding-3-small"
		}
	}
	if e.Dimensions <= 0 {
		e.Dimensions = 1536
	}
	if e.MaxInputChars <= 0 {
		e.MaxInputChars = 8000
	}
	if e.TimeoutMs <= 0 {
		e.TimeoutMs = 10000
	}
	if e.Concurrency <= 0 {
		e.Concurrency = 16
	}
	if e.CacheTTLHours <= 0 {
		e.CacheTTLHours = 168
	}
}

func (c *Config) applySearchDefaults() {
	s := &c.Search
	if s.DefaultLimit <= 0 {
		s.DefaultLimit = 20
	}
	if s.MaxLimit <= 0 {
		s.MaxLimit = 100
	}
	if s.DefaultThreshold == 0 {
		s.DefaultThreshold = 0.7
	}
	if s.MaxCandidates <= 0 {
		s.MaxCandidates = 100
	}
	if s.ResultTTLMin <= 0 {
		s.ResultTTLMin = 15
	}
	if s.Weights == (SearchWeights{}) {
		s.Weights = SearchWeights{Semantic: 0.7, Lexical: 0.3}
	}
}

func (c *Config) applyRecommendationDefaults() {
	r := &c.Recommendation
	if r.DefaultLimit <= 0 {
		r.DefaultLimit = 10
	}
	if r.MaxLimit <= 0 {
		r.MaxLimit = 50
	}
	if r.MinScore == 0 {
		r.MinScore = 0.6
	}
	if r.CandidatePool <= 0 {
		r.CandidatePool = 100
	}
	if r.ResultTTLMin <= 0 {
		r.ResultTTLMin = 60
	}
	if r.Weights == (RecommendationWeights{}) {
		r.Weights = RecommendationWeights{
			Semantic:   0.40,
			Skills:     0.25,
			Experience: 0.15,
			Location:   0.10,
			Salary:     0.10,
		}
	}
	if r.ReasonBars == (ReasonBars{}) {
		r.ReasonBars = ReasonBars{
			Semantic:   0.8,
			Skills:     0.6,
			Experience: 0.8,
			Location:   0.8,
			Salary:     0.8,
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Cache.Driver {
	case "redis":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for the redis driver")
		}
	case "badger":
	default:
		return fmt.Errorf("cache.driver must be \"redis\" or \"badger\", got %q", c.Cache.Driver)
	}
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required")
	}
	if c.Postgres.MinConns > c.Postgres.MaxConns {
		return fmt.Errorf("postgres.min_conns (%d) exceeds postgres.max_conns (%d)",
			c.Postgres.MinConns, c.Postgres.MaxConns)
	}
	if err := c.validateEmbedding(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	return c.validateRecommendation()
}

func (c *Config) validateEmbedding() error {
	switch c.Embedding.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("embedding.provider must be \"openai\" or \"gemini\", got %q", c.Embedding.Provider)
	}
	if _, ok := c.Embedding.Providers[c.Embedding.Provider]; !ok {
		return fmt.Errorf("embedding.providers.%s is not configured", c.Embedding.Provider)
	}
	return nil
}

func (c *Config) validateSearch() error {
	s := c.Search
	if s.DefaultLimit > s.MaxLimit {
		return fmt.Errorf("search.default_limit (%d) exceeds search.max_limit (%d)", s.DefaultLimit, s.MaxLimit)
	}
	if !unit(s.DefaultThreshold) {
		return fmt.Errorf("search.default_threshold must be in [0, 1], got %g", s.DefaultThreshold)
	}
	return checkWeights("search.weights", s.Weights.Semantic, s.Weights.Lexical)
}

func (c *Config) validateRecommendation() error {
	r := c.Recommendation
	if r.DefaultLimit > r.MaxLimit {
		return fmt.Errorf("recommendation.default_limit (%d) exceeds recommendation.max_limit (%d)",
			r.DefaultLimit, r.MaxLimit)
	}
	if !unit(r.MinScore) {
		return fmt.Errorf("recommendation.min_score must be in [0, 1], got %g", r.MinScore)
	}
	b := r.ReasonBars
	for name, v := range map[string]float64{
		"semantic": b.Semantic, "skills": b.Skills, "experience": b.Experience,
		"location": b.Location, "salary": b.Salary,
	} {
		if !unit(v) {
			return fmt.Errorf("recommendation.reason_bars.%s must be in [0, 1], got %g", name, v)
		}
	}
	w := r.Weights
	return checkWeights("recommendation.weights", w.Semantic, w.Skills, w.Experience, w.Location, w.Salary)
}

func checkWeights(name string, ws ...float64) error {
	var sum float64
	for _, w := range ws {
		if math.IsNaN(w) || w < 0 {
			return fmt.Errorf("%s must be non-negative numbers", name)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("%s must sum to 1, got %g", name, sum)
	}
	return nil
}

// unit reports whether v lies in [0, 1]; NaN fails both comparisons.
func unit(v float64) bool { return v >= 0 && v <= 1 }

// EmbeddingTimeout returns the per-call provider timeout.
func (c *Config) EmbeddingTimeout() time.Duration {
	return time.Duration(c.Embedding.TimeoutMs) * time.Millisecond
}

// EmbeddingTTL returns how long a computed vector stays cached.
func (c *Config) EmbeddingTTL() time.Duration {
	return time.Duration(c.Embedding.CacheTTLHours) * time.Hour
}

// TagTTL returns the lifetime of cache tag index sets.
func (c *Config) TagTTL() time.Duration {
	return time.Duration(c.Cache.TagTTLHours) * time.Hour
}

// SearchTTL returns the search result cache TTL.
func (c *Config) SearchTTL() time.Duration {
	return time.Duration(c.Search.ResultTTLMin) * time.Minute
}

// RecommendationTTL returns the recommendation result cache TTL.
func (c *Config) RecommendationTTL() time.Duration {
	return time.Duration(c.Recommendation.ResultTTLMin) * time.Minute
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

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
