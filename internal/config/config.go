// Package config loads and validates application configuration from
// environment variables, an optional .env file, and an optional config
// file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	DefaultModel           = "claude-sonnet-4-20250514"
	DefaultFetchTimeout    = 30 * time.Second
	DefaultInferTimeout    = 60 * time.Second
	DefaultDelay           = 1 * time.Second
	DefaultServerAddr      = ":8080"
	DefaultLogLevel        = "info"
	DefaultLogEncoding     = "console"
	DefaultElasticIndex    = "scraper-records"
	defaultShutdownTimeout = 10 * time.Second
)

// Config is the resolved application configuration.
type Config struct {
	// Anthropic holds inference credentials and model selection.
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	// Crawl holds engine-level crawl settings.
	Crawl CrawlConfig `mapstructure:"crawl"`
	// Server holds the HTTP API settings.
	Server ServerConfig `mapstructure:"server"`
	// Elasticsearch holds the optional record indexer settings.
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	// Log holds logging settings.
	Log LogConfig `mapstructure:"log"`
}

// AnthropicConfig holds inference settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
	// Timeout bounds one inference call.
	Timeout time.Duration `mapstructure:"timeout"`
}

// CrawlConfig holds engine-level crawl settings.
type CrawlConfig struct {
	// Headless selects the browser-backed fetch adapter.
	Headless bool `mapstructure:"headless"`
	// RespectRobots enables robots.txt checks in the HTTP fetcher.
	RespectRobots bool `mapstructure:"respect_robots"`
	// FetchTimeout bounds one page fetch.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	// Delay is the minimum delay between consecutive fetches.
	Delay time.Duration `mapstructure:"delay"`
	// UserAgent is sent with every HTTP fetch.
	UserAgent string `mapstructure:"user_agent"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ElasticsearchConfig holds the optional record indexer settings.
// Indexing is enabled when Addresses is non-empty.
type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// Enabled reports whether record indexing is configured.
func (c ElasticsearchConfig) Enabled() bool {
	return len(c.Addresses) > 0
}

// Load builds the configuration from defaults, an optional config file,
// and the environment. A .env file in the working directory is loaded
// first when present. cfgFile may be empty.
func Load(cfgFile string) (*Config, error) {
	// Best effort; absence of a .env file is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	// Environment values arrive as strings; cast them to the type of the
	// corresponding default before unmarshalling.
	v.SetTypeByDefaultValue(true)
	setDefaults(v)

	v.SetEnvPrefix("SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional names without the prefix.
	_ = v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY", "SCRAPER_ANTHROPIC_API_KEY")
	_ = v.BindEnv("log.level", "LOG_LEVEL", "SCRAPER_LOG_LEVEL")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a crawl.
func (c *Config) Validate() error {
	if c.Anthropic.Model == "" {
		return errors.New("anthropic model must not be empty")
	}
	if c.Crawl.FetchTimeout < 0 {
		return errors.New("fetch_timeout must be non-negative")
	}
	if c.Crawl.Delay < 0 {
		return errors.New("delay must be non-negative")
	}
	if c.Server.Addr == "" {
		return errors.New("server addr must not be empty")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch c.Log.Encoding {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log encoding %q", c.Log.Encoding)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.model", DefaultModel)
	v.SetDefault("anthropic.timeout", DefaultInferTimeout)
	v.SetDefault("crawl.headless", false)
	v.SetDefault("crawl.respect_robots", true)
	v.SetDefault("crawl.fetch_timeout", DefaultFetchTimeout)
	v.SetDefault("crawl.delay", DefaultDelay)
	v.SetDefault("crawl.user_agent", "agentic-ai-scraper-crawler/1.0")
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("elasticsearch.index", DefaultElasticIndex)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.encoding", DefaultLogEncoding)
}
