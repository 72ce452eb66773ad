// Package config loads application configuration from an optional YAML file
// overridden by LIQ_-prefixed environment variables, applies defaults, and
// validates the result at startup.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"liqrisk/internal/engine"
)

// Config is the complete application configuration.
type Config struct {
	Engine    EngineConfig    `yaml:"engine" envconfig:"ENGINE"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Narrative NarrativeConfig `yaml:"narrative" envconfig:"NARRATIVE"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
}

// EngineConfig holds the evaluation horizon and management targets.
type EngineConfig struct {
	HorizonDays        int     `yaml:"horizon_days" envconfig:"HORIZON_DAYS"`
	LCRTarget          float64 `yaml:"lcr_target" envconfig:"LCR_TARGET"`
	SurvivalTargetDays int     `yaml:"survival_target_days" envconfig:"SURVIVAL_TARGET_DAYS"`
}

// Targets converts the configured targets into the engine's form.
func (e EngineConfig) Targets() engine.Targets {
	return engine.Targets{
		LCRTargetRatio:     e.LCRTarget,
		SurvivalTargetDays: e.SurvivalTargetDays,
	}
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// NarrativeConfig configures the external narrative service client.
type NarrativeConfig struct {
	Enabled           bool          `yaml:"enabled" envconfig:"ENABLED"`
	BaseURL           string        `yaml:"base_url" envconfig:"BASE_URL"`
	APIKey            string        `yaml:"api_key" envconfig:"API_KEY"`
	Model             string        `yaml:"model" envconfig:"MODEL"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	RequestsPerMinute int           `yaml:"requests_per_minute" envconfig:"REQUESTS_PER_MINUTE"`
}

// PathsConfig contains filesystem paths.
type PathsConfig struct {
	OutDir string `yaml:"out_dir" envconfig:"OUT_DIR"`
}

// DefaultConfigFile is consulted when LIQ_CONFIG_FILE is unset.
const DefaultConfigFile = "liqrisk.yml"

// Load builds the configuration: YAML file first (if present), environment
// variables on top, defaults for everything still unset, then validation.
func Load() (*Config, error) {
	var cfg Config

	if path := configFilePath(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("LIQ", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func configFilePath() string {
	if path := os.Getenv("LIQ_CONFIG_FILE"); path != "" {
		return path
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

func (c *Config) applyDefaults() {
	if c.Engine.HorizonDays == 0 {
		c.Engine.HorizonDays = engine.DefaultHorizonDays
	}
	if c.Engine.LCRTarget == 0 {
		c.Engine.LCRTarget = engine.DefaultLCRTarget
	}
	if c.Engine.SurvivalTargetDays == 0 {
		c.Engine.SurvivalTargetDays = engine.DefaultSurvivalTargetDays
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "console"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/liqrisk.log"
	}

	if c.Narrative.Timeout == 0 {
		c.Narrative.Timeout = 30 * time.Second
	}
	if c.Narrative.RequestsPerMinute == 0 {
		c.Narrative.RequestsPerMinute = 30
	}

	if c.Paths.OutDir == "" {
		c.Paths.OutDir = "out"
	}
}

func (c *Config) validate() error {
	if c.Engine.HorizonDays < 30 {
		return fmt.Errorf("engine horizon must be at least 30 days, got %d", c.Engine.HorizonDays)
	}
	if c.Engine.LCRTarget <= 0 {
		return fmt.Errorf("lcr target must be positive, got %v", c.Engine.LCRTarget)
	}
	if c.Engine.SurvivalTargetDays <= 0 {
		return fmt.Errorf("survival target must be positive, got %d", c.Engine.SurvivalTargetDays)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Narrative.Enabled && c.Narrative.APIKey == "" {
		return fmt.Errorf("narrative enabled but LIQ_NARRATIVE_API_KEY is not set")
	}
	return nil
}
