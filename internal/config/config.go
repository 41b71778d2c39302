package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	RPC     RPCConfig     `yaml:"rpc"`
	Display DisplayConfig `yaml:"display"`
	Index   IndexConfig   `yaml:"index"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// RPCConfig represents the Baseline node RPC endpoint configuration
type RPCConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	UseHTTPS       bool   `yaml:"use_https"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// URL returns the node endpoint URL.
func (r RPCConfig) URL() string {
	scheme := "http"
	if r.UseHTTPS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, r.Host, r.Port)
}

// DisplayConfig holds page sizes and presentation settings
type DisplayConfig struct {
	RecentBlocks        int    `yaml:"recent_blocks"`
	TransactionsPerPage int    `yaml:"transactions_per_page"`
	AddressPerPage      int    `yaml:"address_per_page"`
	BlocksPerPage       int    `yaml:"blocks_per_page"`
	RichListPerPage     int    `yaml:"rich_list_per_page"`
	NetworkName         string `yaml:"network_name"`
	AddressVersion      byte   `yaml:"address_version"`
}

// IndexConfig configures the optional incremental balance index
type IndexConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Path         string `yaml:"path"`
	PollInterval int    `yaml:"poll_interval"` // seconds between tip polls (default: 10)
	StartHeight  int64  `yaml:"start_height"`
	RPCRateLimit int    `yaml:"rpc_rate_limit"` // max RPC calls per second while scanning (default: 50)
}

// Load loads configuration from a YAML file and environment variables
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		RPC: RPCConfig{
			Host:           "127.0.0.1",
			Port:           8832,
			TimeoutSeconds: 15,
			MaxRetries:     2,
		},
		Display: DisplayConfig{
			RecentBlocks:        10,
			TransactionsPerPage: 25,
			AddressPerPage:      15,
			NetworkName:         "Baseline",
			AddressVersion:      0x35,
		},
		Index: IndexConfig{
			Path:         "./data/index",
			PollInterval: 10,
			RPCRateLimit: 50,
		},
	}

	// Load from YAML file if it exists
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.fillDerived()

	// Override with environment variables
	cfg.loadEnv()

	return cfg, nil
}

// fillDerived backfills page sizes that default to other display settings.
func (c *Config) fillDerived() {
	if c.Display.BlocksPerPage <= 0 {
		c.Display.BlocksPerPage = c.Display.RecentBlocks
	}
	if c.Display.AddressPerPage <= 0 {
		c.Display.AddressPerPage = 15
	}
	if c.Display.RichListPerPage <= 0 {
		c.Display.RichListPerPage = 25
	}
	if c.Display.TransactionsPerPage <= 0 {
		c.Display.TransactionsPerPage = 25
	}
}

func (c *Config) loadEnv() {
	// Server config
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}

	// RPC config
	if host := os.Getenv("BASELINE_RPC_HOST"); host != "" {
		c.RPC.Host = host
	}
	if port := os.Getenv("BASELINE_RPC_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.RPC.Port = p
		}
	}
	if user := os.Getenv("BASELINE_RPC_USER"); user != "" {
		c.RPC.Username = user
	}
	if pass := os.Getenv("BASELINE_RPC_PASS"); pass != "" {
		c.RPC.Password = pass
	}
	if https := os.Getenv("BASELINE_RPC_HTTPS"); https != "" {
		c.RPC.UseHTTPS = https == "true" || https == "1"
	}
	if timeout := os.Getenv("BASELINE_RPC_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			c.RPC.TimeoutSeconds = t
		}
	}

	// Index config
	if enabled := os.Getenv("INDEX_ENABLED"); enabled != "" {
		c.Index.Enabled = enabled == "true" || enabled == "1"
	}
	if path := os.Getenv("INDEX_PATH"); path != "" {
		c.Index.Path = path
	}
	if poll := os.Getenv("INDEX_POLL_INTERVAL"); poll != "" {
		if p, err := strconv.Atoi(poll); err == nil {
			c.Index.PollInterval = p
		}
	}
	if start := os.Getenv("INDEX_START_HEIGHT"); start != "" {
		if h, err := strconv.ParseInt(start, 10, 64); err == nil {
			c.Index.StartHeight = h
		}
	}
}
