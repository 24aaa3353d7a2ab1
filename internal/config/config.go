// Package config loads daemon settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nicheai/luxbin/internal/network"
)

// Config holds all daemon configuration.
type Config struct {
	Server    ServerConfig        `yaml:"server"`
	Service   ServiceConfig       `yaml:"service"`
	Storage   StorageConfig       `yaml:"storage"`
	Logging   LoggingConfig       `yaml:"logging"`
	Entropy   EntropyConfig       `yaml:"entropy"`
	Providers network.Credentials `yaml:"providers"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	APIKeys     []string `yaml:"api_keys,omitempty"` // empty means the demo key only
	AdminKey    string   `yaml:"admin_key"`          // empty disables admin endpoints
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
	RatePerMin  int      `yaml:"rate_per_min"`
}

// ServiceConfig configures the tick loop and the network.
type ServiceConfig struct {
	Interval   time.Duration `yaml:"interval"`
	BlockEvery uint64        `yaml:"block_every"`
	Seed       int64         `yaml:"seed"`
	StatusFile string        `yaml:"status_file"` // empty disables the status file
}

// StorageConfig configures persistence.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// EntropyConfig configures the randomness source.
type EntropyConfig struct {
	RandomOrgAPIKey string `yaml:"random_org_api_key"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:       8080,
			RatePerMin: 60,
		},
		Service: ServiceConfig{
			Interval:   5 * time.Second,
			BlockEvery: 6,
			Seed:       42,
			StatusFile: "quantum_blockchain_status.json",
		},
		Storage: StorageConfig{
			DBPath: "data/luxbin.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Providers: network.Credentials{
			AWSRegion:      "us-west-1",
			AzureWorkspace: "luxbin-quantum-workspace",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks settings that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.RatePerMin <= 0 {
		errs = append(errs, errors.New("server.rate_per_min must be positive"))
	}
	if c.Service.Interval <= 0 {
		errs = append(errs, errors.New("service.interval must be positive"))
	}
	if err := c.Logging.validate(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LUXBIN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("LUXBIN_API_KEYS"); v != "" {
		c.Server.APIKeys = splitList(v)
	}
	if v := os.Getenv("LUXBIN_ADMIN_KEY"); v != "" {
		c.Server.AdminKey = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	if v := os.Getenv("LUXBIN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Service.Interval = d
		}
	}
	if v := os.Getenv("LUXBIN_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Service.Seed = seed
		}
	}
	if v := os.Getenv("LUXBIN_STATUS_FILE"); v != "" {
		c.Service.StatusFile = v
	}
	if v := os.Getenv("LUXBIN_DB"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("LUXBIN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LUXBIN_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}

	if v := os.Getenv("RANDOM_ORG_API_KEY"); v != "" {
		c.Entropy.RandomOrgAPIKey = v
	}

	p := &c.Providers
	setIf(&p.IBMToken, "IBM_TOKEN")
	setIf(&p.IBMToken, "QISKIT_IBM_TOKEN")
	setIf(&p.IonQAPIKey, "IONQ_API_KEY")
	setIf(&p.RigettiAPIKey, "RIGETTI_API_KEY")
	setIf(&p.AWSAccessKeyID, "AWS_ACCESS_KEY_ID")
	setIf(&p.AWSSecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	setIf(&p.AWSRegion, "AWS_REGION")
	setIf(&p.AzureSubscription, "AZURE_SUBSCRIPTION_ID")
	setIf(&p.AzureResourceGroup, "AZURE_RESOURCE_GROUP_QUANTINUUM")
	setIf(&p.AzureWorkspace, "AZURE_QUANTUM_WORKSPACE")
}

func setIf(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
