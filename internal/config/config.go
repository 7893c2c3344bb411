package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure. Every pipeline toggle is
// an explicit field here; nothing inside the pipeline reads the process
// environment.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Providers ProvidersConfig `yaml:"providers"`
	Scan      ScanConfig      `yaml:"scan"`
	Filter    FilterConfig    `yaml:"filter"`
	Debug     bool            `yaml:"debug"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// ProvidersConfig selects and configures the outbound balance/price
// providers. All providers are optional; wallet imports degrade to an
// explicit configuration error when none is usable.
type ProvidersConfig struct {
	// Override forces a single provider ("indexer" or "explorer") instead of
	// the indexer-first preference order. Empty means automatic.
	Override string              `yaml:"override"`
	Indexer  IndexerConfig       `yaml:"indexer"`
	Explorer ExplorerConfig      `yaml:"explorer"`
	Registry PriceRegistryConfig `yaml:"registry"`
}

// IndexerConfig configures the primary wallet-balance indexer (cursor
// paginated).
type IndexerConfig struct {
	BaseURL              string `yaml:"baseURL"`
	APIKey               string `yaml:"apiKey"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	MaxPages             int    `yaml:"maxPages"`
	MaxRetries           int    `yaml:"maxRetries"`
	RetryDelayMillis     int64  `yaml:"retryDelayMillis"`
}

// ExplorerConfig configures the fallback block-explorer provider
// (native-balance + transfer-history endpoints).
type ExplorerConfig struct {
	APIKey               string `yaml:"apiKey"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	MaxTransferWindow    int    `yaml:"maxTransferWindow"`
	PageSize             int    `yaml:"pageSize"`
	MaxRetries           int    `yaml:"maxRetries"`
	RetryDelayMillis     int64  `yaml:"retryDelayMillis"`
}

// PriceRegistryConfig configures the price/identity registry client.
type PriceRegistryConfig struct {
	BaseURL              string `yaml:"baseURL"`
	APIKey               string `yaml:"apiKey"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	MaxRetries           int    `yaml:"maxRetries"`
	RetryDelayMillis     int64  `yaml:"retryDelayMillis"`
	MaxSymbolsPerRequest int    `yaml:"maxSymbolsPerRequest"`
}

// ScanConfig controls wallet scan scope and balance reconciliation.
type ScanConfig struct {
	// DefaultScope is used when the request does not name a chain:
	// "auto" scans all free-tier chains.
	DefaultScope           string `yaml:"defaultScope"`
	VerifyAllChains        bool   `yaml:"verifyAllChains"`
	ReconcileMinDelayMs    int64  `yaml:"reconcileMinDelayMs"`
	BalanceCacheTTLMinutes int    `yaml:"balanceCacheTTLMinutes"`
	MaxConcurrentChains    int    `yaml:"maxConcurrentChains"`
}

// FilterConfig controls the position filter stage.
type FilterConfig struct {
	Strict            bool `yaml:"strict"`
	ExcludeSpam       bool `yaml:"excludeSpam"`
	ExcludeUnverified bool `yaml:"excludeUnverified"`
	// OfficialContracts maps an upper-case symbol to its verified contract
	// addresses. When a symbol is listed, positions carrying a different
	// contract are rejected as impersonators.
	OfficialContracts map[string][]string `yaml:"officialContracts"`
}

// HasIndexer reports whether the indexer provider has usable credentials.
func (p *ProvidersConfig) HasIndexer() bool {
	return p.Indexer.BaseURL != "" && p.Indexer.APIKey != ""
}

// HasExplorer reports whether the explorer provider is configured.
func (p *ProvidersConfig) HasExplorer() bool {
	return p.Explorer.APIKey != ""
}

// HasRegistry reports whether the price registry is configured.
func (p *ProvidersConfig) HasRegistry() bool {
	return p.Registry.BaseURL != "" && p.Registry.APIKey != ""
}

// Load reads the YAML configuration file from the given path, unmarshals it
// and applies defaults.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	cfg.ApplyDefaults()

	if cfg.Providers.Override != "" {
		override := strings.ToLower(cfg.Providers.Override)
		if override != "indexer" && override != "explorer" {
			return nil, fmt.Errorf("invalid provider override %q: expected \"indexer\" or \"explorer\"", cfg.Providers.Override)
		}
		cfg.Providers.Override = override
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

// ApplyDefaults fills zero-valued fields with sane defaults. Exposed so
// tests can build configs without a file.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 15
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 30
	}
	if c.Server.IdleTimeout <= 0 {
		c.Server.IdleTimeout = 60
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Providers.Indexer.RequestTimeoutMillis <= 0 {
		c.Providers.Indexer.RequestTimeoutMillis = 10000
	}
	if c.Providers.Indexer.MaxPages <= 0 {
		c.Providers.Indexer.MaxPages = 5
	}
	if c.Providers.Indexer.MaxRetries <= 0 {
		c.Providers.Indexer.MaxRetries = 3
	}
	if c.Providers.Indexer.RetryDelayMillis <= 0 {
		c.Providers.Indexer.RetryDelayMillis = 500
	}

	if c.Providers.Explorer.RequestTimeoutMillis <= 0 {
		c.Providers.Explorer.RequestTimeoutMillis = 10000
	}
	if c.Providers.Explorer.MaxTransferWindow <= 0 {
		c.Providers.Explorer.MaxTransferWindow = 10000
	}
	if c.Providers.Explorer.PageSize <= 0 {
		c.Providers.Explorer.PageSize = 1000
	}
	if c.Providers.Explorer.MaxRetries <= 0 {
		c.Providers.Explorer.MaxRetries = 3
	}
	if c.Providers.Explorer.RetryDelayMillis <= 0 {
		c.Providers.Explorer.RetryDelayMillis = 1000
	}

	if c.Providers.Registry.RequestTimeoutMillis <= 0 {
		c.Providers.Registry.RequestTimeoutMillis = 10000
	}
	if c.Providers.Registry.MaxRetries <= 0 {
		c.Providers.Registry.MaxRetries = 2
	}
	if c.Providers.Registry.RetryDelayMillis <= 0 {
		c.Providers.Registry.RetryDelayMillis = 1000
	}
	if c.Providers.Registry.MaxSymbolsPerRequest <= 0 {
		c.Providers.Registry.MaxSymbolsPerRequest = 100
	}

	if c.Scan.DefaultScope == "" {
		c.Scan.DefaultScope = "auto"
	}
	if c.Scan.ReconcileMinDelayMs <= 0 {
		c.Scan.ReconcileMinDelayMs = 250
	}
	if c.Scan.BalanceCacheTTLMinutes <= 0 {
		c.Scan.BalanceCacheTTLMinutes = 10
	}
	if c.Scan.MaxConcurrentChains <= 0 {
		c.Scan.MaxConcurrentChains = 4
	}
}
