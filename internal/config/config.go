package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the application.
type Config struct {
	Server    ServerConfig       `yaml:"server"`
	RPC       RPCConfig          `yaml:"rpc"`
	PriceSvc  PriceServiceConfig `yaml:"priceService"`
	TokenList TokenListConfig    `yaml:"tokenList"`
	Fetcher   FetcherConfig      `yaml:"fetcher"`
	Logging   LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// RPCConfig holds the Solana RPC client configuration.
type RPCConfig struct {
	Endpoint               string  `yaml:"endpoint"`
	RequestTimeoutMs       int64   `yaml:"requestTimeoutMs"`
	MaxRetries             int     `yaml:"maxRetries"`
	RetryBaseDelayMs       int64   `yaml:"retryBaseDelayMs"`
	RetryBackoffMultiplier float64 `yaml:"retryBackoffMultiplier"`
	MaxRetryDelayMs        int64   `yaml:"maxRetryDelayMs"`
	RateLimit              int     `yaml:"rateLimit"`
	BurstLimit             int     `yaml:"burstLimit"`
}

// PriceServiceConfig holds configuration for the price source and cache.
type PriceServiceConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	CacheTTLMinutes      int    `yaml:"cacheTTLMinutes"`
	MaxMintsPerBatch     int    `yaml:"maxMintsPerBatchRequest"`
}

// TokenListConfig holds configuration for the bulk token list source.
type TokenListConfig struct {
	URL                  string `yaml:"url"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// FetcherConfig holds configuration for the transaction fetcher.
type FetcherConfig struct {
	TransactionLimit     int `yaml:"transactionLimit"`
	MaxConcurrentFetches int `yaml:"maxConcurrentFetches"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g. "debug", "info", "warn", "error"
	File  string `yaml:"file"`
}

// LoadConfig loads configuration from a YAML file and applies defaults for
// unset values.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	if cfg.RPC.Endpoint == "" {
		cfg.RPC.Endpoint = "https://api.mainnet-beta.solana.com"
		logrus.Infof("RPC.Endpoint not set, defaulting to %s", cfg.RPC.Endpoint)
	}
	if cfg.RPC.RequestTimeoutMs == 0 {
		cfg.RPC.RequestTimeoutMs = 10000
		logrus.Infof("RPC.RequestTimeoutMs not set, defaulting to %d ms", cfg.RPC.RequestTimeoutMs)
	}
	if cfg.RPC.MaxRetries == 0 {
		cfg.RPC.MaxRetries = 3
		logrus.Infof("RPC.MaxRetries not set, defaulting to %d", cfg.RPC.MaxRetries)
	}
	if cfg.RPC.RetryBaseDelayMs == 0 {
		cfg.RPC.RetryBaseDelayMs = 500
	}
	if cfg.RPC.RetryBackoffMultiplier == 0 {
		cfg.RPC.RetryBackoffMultiplier = 2.0
	}
	if cfg.RPC.MaxRetryDelayMs == 0 {
		cfg.RPC.MaxRetryDelayMs = 8000
	}
	if cfg.RPC.RateLimit == 0 {
		cfg.RPC.RateLimit = 10
	}
	if cfg.RPC.BurstLimit == 0 {
		cfg.RPC.BurstLimit = 20
	}

	if cfg.PriceSvc.BaseURL == "" {
		cfg.PriceSvc.BaseURL = "https://lite-api.jup.ag"
		logrus.Infof("PriceService.BaseURL not set, defaulting to %s", cfg.PriceSvc.BaseURL)
	}
	if cfg.PriceSvc.RequestTimeoutMillis == 0 {
		cfg.PriceSvc.RequestTimeoutMillis = 10000
	}
	if cfg.PriceSvc.CacheTTLMinutes == 0 {
		cfg.PriceSvc.CacheTTLMinutes = 5
		logrus.Infof("PriceService.CacheTTLMinutes not set, defaulting to %d minutes", cfg.PriceSvc.CacheTTLMinutes)
	}
	if cfg.PriceSvc.MaxMintsPerBatch == 0 {
		cfg.PriceSvc.MaxMintsPerBatch = 50
	}

	if cfg.TokenList.URL == "" {
		cfg.TokenList.URL = "https://tokens.jup.ag/tokens?tags=verified"
		logrus.Infof("TokenList.URL not set, defaulting to %s", cfg.TokenList.URL)
	}
	if cfg.TokenList.RequestTimeoutMillis == 0 {
		cfg.TokenList.RequestTimeoutMillis = 15000
	}

	if cfg.Fetcher.TransactionLimit == 0 {
		cfg.Fetcher.TransactionLimit = 25
		logrus.Infof("Fetcher.TransactionLimit not set, defaulting to %d", cfg.Fetcher.TransactionLimit)
	}
	if cfg.Fetcher.MaxConcurrentFetches == 0 {
		cfg.Fetcher.MaxConcurrentFetches = 4
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}
