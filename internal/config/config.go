package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Failure policies for feed fetches.
const (
	PolicyIsolate = "isolate"
	PolicyAbort   = "abort"
)

const (
	addrEnv          = "NEWS_ADDR"
	databaseDSNEnv   = "NEWS_DATABASE_DSN"
	logLevelEnv      = "NEWS_LOG_LEVEL"
	failurePolicyEnv = "NEWS_FAILURE_POLICY"
)

// DefaultFeeds are the crowdfunding and crypto feeds shown on the dashboard news page.
var DefaultFeeds = []string{
	"https://www.crowdfundinsider.com/feed/",
	"https://www.kickstarter.com/blog?format=rss",
	"https://go.indiegogo.com/blog/feed",
	"https://www.coindesk.com/arc/outboundfeeds/rss/?outputType=xml",
	"https://cointelegraph.com/rss",
	"https://bitcoinmagazine.com/.rss/full/",
}

// Config хранит список RSS-лент, интервал опроса архива и настройки сервиса.
type Config struct {
	RSSFeeds     []string       `json:"rss_feeds" yaml:"rss_feeds" toml:"rss_feeds"`
	PollInterval int            `json:"poll_interval" yaml:"poll_interval" toml:"poll_interval"`
	LogLevel     string         `json:"log_level" yaml:"log_level" toml:"log_level"`
	Server       ServerConfig   `json:"server" yaml:"server" toml:"server"`
	Fetch        FetchConfig    `json:"fetch" yaml:"fetch" toml:"fetch"`
	Database     DatabaseConfig `json:"database" yaml:"database" toml:"database"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
	// ShutdownTimeout is in seconds.
	ShutdownTimeout int `json:"shutdown_timeout" yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// FetchConfig tunes upstream feed requests.
type FetchConfig struct {
	// Timeout is the per-feed request timeout in seconds.
	Timeout       int    `json:"timeout" yaml:"timeout" toml:"timeout"`
	Retries       int    `json:"retries" yaml:"retries" toml:"retries"`
	RetryDelayMS  int    `json:"retry_delay_ms" yaml:"retry_delay_ms" toml:"retry_delay_ms"`
	Concurrency   int    `json:"concurrency" yaml:"concurrency" toml:"concurrency"`
	FailurePolicy string `json:"failure_policy" yaml:"failure_policy" toml:"failure_policy"`
}

// DatabaseConfig enables the archive when DSN is set.
type DatabaseConfig struct {
	DSN string `json:"dsn" yaml:"dsn" toml:"dsn"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	feeds := make([]string, len(DefaultFeeds))
	copy(feeds, DefaultFeeds)
	return &Config{
		RSSFeeds:     feeds,
		PollInterval: 0,
		LogLevel:     "info",
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5,
		},
		Fetch: FetchConfig{
			Timeout:       10,
			Retries:       0,
			RetryDelayMS:  500,
			Concurrency:   0,
			FailurePolicy: PolicyIsolate,
		},
	}
}

// Validate проверяет, что PollInterval либо 0, либо не меньше 5 минут, и все RSSFeeds — валидные URL.
func (cfg *Config) Validate() error {
	if cfg.PollInterval != 0 && cfg.PollInterval < 5 {
		return errors.New("poll interval must be 0 or ≥ 5 minutes")
	}
	for _, u := range cfg.RSSFeeds {
		parsed, err := url.ParseRequestURI(u)
		if err != nil || parsed.Host == "" {
			return fmt.Errorf("invalid RSS URL: %s", u)
		}
	}
	switch cfg.Fetch.FailurePolicy {
	case PolicyIsolate, PolicyAbort:
	default:
		return fmt.Errorf("unknown failure policy: %q", cfg.Fetch.FailurePolicy)
	}
	if cfg.Fetch.Timeout < 0 || cfg.Fetch.Retries < 0 || cfg.Fetch.RetryDelayMS < 0 || cfg.Fetch.Concurrency < 0 {
		return errors.New("fetch settings must not be negative")
	}
	if cfg.Server.Addr == "" {
		return errors.New("server address is required")
	}
	return nil
}

// LoadConfig reads the file at path over Default(), picking the decoder by extension
// (.json, .yaml/.yml, .toml), then applies environment overrides. An empty path
// yields the defaults with overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".toml":
		return toml.Unmarshal(data, cfg)
	case ".json", "":
		return json.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

func (cfg *Config) applyEnvOverrides() {
	if v := os.Getenv(addrEnv); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(failurePolicyEnv); v != "" {
		cfg.Fetch.FailurePolicy = v
	}
}
