package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/TrendCrawler/internal/temporal"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources       Sources       `yaml:"sources"`
	Collect       Collect       `yaml:"collect"`
	Scoring       Scoring       `yaml:"scoring"`
	Temporal      Temporal      `yaml:"temporal"`
	Cache         Cache         `yaml:"cache"`
	Fetch         Fetch         `yaml:"fetch"`
	Summarization Summarization `yaml:"summarization"`
	Output        Output        `yaml:"output"`
	Server        Server        `yaml:"server"`
}

type Sources struct {
	Feeds   []Feed        `yaml:"feeds"`
	NewsAPI NewsAPIConfig `yaml:"newsapi"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type NewsAPIConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIKeyEnv string `yaml:"api_key_env"`
	Query     string `yaml:"query"`
	PageSize  int    `yaml:"page_size"`
}

type Collect struct {
	MaxConcurrent int           `yaml:"max_concurrent"`
	MaxPerFeed    int           `yaml:"max_per_feed"`
	Retries       int           `yaml:"retries"`
	Backoff       time.Duration `yaml:"backoff"`
	Timeout       time.Duration `yaml:"timeout"`
}

type Scoring struct {
	MinDocumentFrequency   int  `yaml:"min_document_frequency"`
	UnigramTopN            int  `yaml:"unigram_top_n"`
	BigramTopN             int  `yaml:"bigram_top_n"`
	CorroborationThreshold int  `yaml:"corroboration_threshold"`
	MaxTopics              int  `yaml:"max_topics"`
	MaxArticles            int  `yaml:"max_articles"`
	Fallback               bool `yaml:"fallback"`
}

type Temporal struct {
	Buckets     []temporal.Bucket `yaml:"buckets"`
	DigestChars int               `yaml:"digest_chars"`
}

type Cache struct {
	// Backend is "memory", "redis" or "none".
	Backend    string      `yaml:"backend"`
	MaxEntries int         `yaml:"max_entries"`
	Redis      RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	PasswordEnv string        `yaml:"password_env"`
	DB          int           `yaml:"db"`
	TTL         time.Duration `yaml:"ttl"`
}

type Fetch struct {
	Enabled           bool          `yaml:"enabled"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

type Summarization struct {
	// Provider is "ollama", "openai" or "none".
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	MaxTokens   int    `yaml:"max_tokens"`
}

type Output struct {
	DataDir     string `yaml:"data_dir"`
	SnapshotDir string `yaml:"snapshot_dir"`
	PostsDir    string `yaml:"posts_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

// ConfigDir returns the XDG config directory for trendcrawler.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "trendcrawler")
}

// DataDir returns the XDG data directory for trendcrawler.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "trendcrawler")
}

// LoadEnv reads .env files from the config directory and the working
// directory. Variables already set in the environment win.
func LoadEnv() {
	for _, path := range []string{filepath.Join(ConfigDir(), ".env"), ".env"} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/trendcrawler/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'trendcrawler init' to create a default config",
		xdgConfig,
	)
}

// Load reads, parses and validates a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in configuration without feeds.
func Default() *Config {
	return &Config{
		Sources: Sources{
			NewsAPI: NewsAPIConfig{
				APIKeyEnv: "NEWSAPI_KEY",
				PageSize:  100,
			},
		},
		Collect: Collect{
			MaxConcurrent: 8,
			MaxPerFeed:    10,
			Retries:       2,
			Backoff:       2 * time.Second,
			Timeout:       30 * time.Second,
		},
		Scoring: Scoring{
			MinDocumentFrequency:   2,
			UnigramTopN:            50,
			BigramTopN:             30,
			CorroborationThreshold: 3,
			MaxTopics:              10,
			MaxArticles:            10,
		},
		Temporal: Temporal{
			Buckets:     temporal.DefaultBuckets(),
			DigestChars: temporal.DefaultDigestChars,
		},
		Cache: Cache{
			Backend:    "memory",
			MaxEntries: 256,
			Redis: RedisConfig{
				Addr:        "localhost:6379",
				PasswordEnv: "REDIS_PASSWORD",
				TTL:         24 * time.Hour,
			},
		},
		Fetch: Fetch{
			Enabled:           true,
			Timeout:           15 * time.Second,
			RequestsPerSecond: 2,
		},
		Summarization: Summarization{
			Provider:    "ollama",
			Model:       "qwen2.5:7b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxTokens:   1500,
		},
		Server: Server{Port: 8000},
	}
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the scoring core cannot run with.
func (c *Config) Validate() error {
	if c.Scoring.CorroborationThreshold < 1 {
		return fmt.Errorf("scoring.corroboration_threshold must be at least 1, got %d", c.Scoring.CorroborationThreshold)
	}
	if c.Scoring.MinDocumentFrequency < 0 {
		return fmt.Errorf("scoring.min_document_frequency must not be negative, got %d", c.Scoring.MinDocumentFrequency)
	}
	if err := temporal.ValidateBuckets(c.Temporal.Buckets); err != nil {
		return fmt.Errorf("temporal.buckets: %w", err)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "none", "":
	default:
		return fmt.Errorf("cache.backend %q: must be memory, redis or none", c.Cache.Backend)
	}
	switch c.Summarization.Provider {
	case "ollama", "openai", "none", "":
	default:
		return fmt.Errorf("summarization.provider %q: must be ollama, openai or none", c.Summarization.Provider)
	}
	if c.Collect.MaxConcurrent < 1 {
		return errors.New("collect.max_concurrent must be at least 1")
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// GetSnapshotDir returns where daily briefing JSON files are written.
func (c *Config) GetSnapshotDir() string {
	if c.Output.SnapshotDir != "" {
		return c.Output.SnapshotDir
	}
	return filepath.Join(c.GetDataDir(), "snapshots")
}

// GetPostsDir returns where digest markdown files are written.
func (c *Config) GetPostsDir() string {
	if c.Output.PostsDir != "" {
		return c.Output.PostsDir
	}
	return filepath.Join(c.GetDataDir(), "posts")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
