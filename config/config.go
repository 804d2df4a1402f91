// Package config loads the runtime settings of the pharma-ledger CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvCSVPath   = "PHARMA_LEDGER_CSV"
	EnvStorePath = "PHARMA_LEDGER_STORE"
	EnvLogLevel  = "PHARMA_LEDGER_LOG_LEVEL"
	EnvBatchID   = "PHARMA_LEDGER_BATCH"
)

// Config captures where the ledger is written and how the CLI behaves.
type Config struct {
	Ledger struct {
		CSVPath   string `yaml:"csv_path"`
		StorePath string `yaml:"store_path"`
	} `yaml:"ledger"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Simulation struct {
		BatchID string `yaml:"batch_id"`
	} `yaml:"simulation"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load reads and validates config from disk. An empty path yields the
// defaults. Environment overrides are applied after the file.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}
	cfg.expandEnv()
	cfg.applyOverrides()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) expandEnv() {
	c.Ledger.CSVPath = os.ExpandEnv(c.Ledger.CSVPath)
	c.Ledger.StorePath = os.ExpandEnv(c.Ledger.StorePath)
}

func (c *Config) applyOverrides() {
	if v, ok := os.LookupEnv(EnvCSVPath); ok {
		c.Ledger.CSVPath = v
	}
	if v, ok := os.LookupEnv(EnvStorePath); ok {
		c.Ledger.StorePath = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvBatchID); ok {
		c.Simulation.BatchID = v
	}
}

func (c *Config) applyDefaults() {
	if c.Ledger.CSVPath == "" {
		c.Ledger.CSVPath = "my_ledger.csv"
	}
	if c.Ledger.StorePath == "" {
		c.Ledger.StorePath = "ledger-db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	switch strings.TrimSpace(strings.ToLower(c.Log.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("log.level must be one of debug|info|warn|error")
	}
	if strings.TrimSpace(c.Ledger.CSVPath) == "" {
		return errors.New("ledger.csv_path is required")
	}
	return nil
}
