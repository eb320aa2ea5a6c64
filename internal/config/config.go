package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const envPrefix = "FORGELINE_"

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	LLM       LLMConfig       `yaml:"llm"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	MQ        MQConfig        `yaml:"mq"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// TransportConfig selects how the MCP surface is served: "http" or "stdio".
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type DBConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver    string        `yaml:"driver"`
	Path      string        `yaml:"path"`
	DSN       string        `yaml:"dsn"`
	SlowQuery time.Duration `yaml:"slow_query"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// LLMConfig configures the provider gateway.
type LLMConfig struct {
	Timeout         time.Duration             `yaml:"timeout"`
	DefaultProvider string                    `yaml:"default_provider"`
	Providers       map[string]ProviderConfig `yaml:"providers"`
	// Stages maps a stage name (e.g. "document_generation") to a provider name.
	Stages  map[string]string `yaml:"stages"`
	Breaker BreakerConfig     `yaml:"breaker"`
}

// ProviderConfig describes one named provider.
type ProviderConfig struct {
	// Type is the wire protocol: "openai" or "anthropic".
	Type        string   `yaml:"type"`
	BaseURL     string   `yaml:"base_url"`
	Model       string   `yaml:"model"`
	APIKeyEnv   string   `yaml:"api_key_env"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
}

// APIKey resolves the provider key from the configured environment variable.
func (p ProviderConfig) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}

type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	Cooldown         time.Duration `yaml:"cooldown"`
}

type PipelineConfig struct {
	// Serialize enables a per-(project, stage) lock around stage invocations.
	Serialize          bool        `yaml:"serialize"`
	Retry              RetryConfig `yaml:"retry"`
	QualityConcurrency int         `yaml:"quality_concurrency"`
	RenderPDF          bool        `yaml:"render_pdf"`
}

type RetryConfig struct {
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

type StorageConfig struct {
	Dir string `yaml:"dir"`
}

// RedisConfig enables the distributed stage lock when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MQConfig enables AMQP event publishing when URL is set.
type MQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when no file or environment overrides are present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		DB: DBConfig{
			Driver:    "sqlite",
			Path:      "data/forgeline.db",
			SlowQuery: 100 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
		LLM: LLMConfig{
			Timeout:         30 * time.Second,
			DefaultProvider: "primary",
			Providers: map[string]ProviderConfig{
				"primary": {
					Type:      "openai",
					Model:     "gpt-4o-mini",
					APIKeyEnv: "OPENAI_API_KEY",
					MaxTokens: 2048,
				},
				"alternate": {
					Type:      "anthropic",
					Model:     "claude-3-5-haiku-latest",
					APIKeyEnv: "ANTHROPIC_API_KEY",
					MaxTokens: 2048,
				},
			},
			Stages: map[string]string{
				"document_generation": "primary",
				"code_generation":     "alternate",
				"consistency_check":   "primary",
				"quality_check":       "primary",
				"work_estimation":     "primary",
				"progress_report":     "alternate",
				"proposal_creation":   "primary",
			},
			Breaker: BreakerConfig{
				FailureThreshold: 5,
				Cooldown:         30 * time.Second,
			},
		},
		Pipeline: PipelineConfig{
			Retry: RetryConfig{
				Attempts:   1,
				Backoff:    time.Second,
				MaxBackoff: 10 * time.Second,
			},
			QualityConcurrency: 4,
			RenderPDF:          true,
		},
		Storage: StorageConfig{
			Dir: "data/blobs",
		},
		MQ: MQConfig{
			Exchange: "forgeline.events",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(envPrefix + "CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks cross-field references.
func (c Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported db driver %q", c.DB.Driver)
	}
	if c.DB.Driver == "postgres" && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required for postgres")
	}
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("unsupported transport mode %q", c.Transport.Mode)
	}
	if len(c.LLM.Providers) < 2 {
		return fmt.Errorf("at least two llm providers are required, got %d", len(c.LLM.Providers))
	}
	for name, p := range c.LLM.Providers {
		switch p.Type {
		case "openai", "anthropic":
		default:
			return fmt.Errorf("provider %q: unsupported type %q", name, p.Type)
		}
		if p.Model == "" {
			return fmt.Errorf("provider %q: model is required", name)
		}
	}
	if _, ok := c.LLM.Providers[c.LLM.DefaultProvider]; !ok {
		return fmt.Errorf("default provider %q is not configured", c.LLM.DefaultProvider)
	}
	for stage, name := range c.LLM.Stages {
		if _, ok := c.LLM.Providers[name]; !ok {
			return fmt.Errorf("stage %q references unknown provider %q", stage, name)
		}
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv(envPrefix + "SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv(envPrefix + "SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid %sSERVER_PORT: %w", envPrefix, err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv(envPrefix + "TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if driver := os.Getenv(envPrefix + "DB_DRIVER"); driver != "" {
		cfg.DB.Driver = driver
	}
	if dbPath := os.Getenv(envPrefix + "DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if dsn := os.Getenv(envPrefix + "DB_DSN"); dsn != "" {
		cfg.DB.DSN = dsn
	}
	if level := os.Getenv(envPrefix + "LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv(envPrefix + "LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if provider := os.Getenv(envPrefix + "LLM_DEFAULT_PROVIDER"); provider != "" {
		cfg.LLM.DefaultProvider = provider
	}
	if timeoutStr := os.Getenv(envPrefix + "LLM_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return fmt.Errorf("invalid %sLLM_TIMEOUT: %w", envPrefix, err)
		}
		cfg.LLM.Timeout = timeout
	}
	if dir := os.Getenv(envPrefix + "STORAGE_DIR"); dir != "" {
		cfg.Storage.Dir = dir
	}
	if addr := os.Getenv(envPrefix + "REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if url := os.Getenv(envPrefix + "MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}
	if serialize := os.Getenv(envPrefix + "PIPELINE_SERIALIZE"); serialize != "" {
		v, err := strconv.ParseBool(serialize)
		if err != nil {
			return fmt.Errorf("invalid %sPIPELINE_SERIALIZE: %w", envPrefix, err)
		}
		cfg.Pipeline.Serialize = v
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
