// Package config loads and validates the research service's configuration:
// a YAML file overlaid by RESEARCH_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the job-lifecycle HTTP surface.
type ServerConfig struct {
	Port        string `yaml:"port"`
	MetricsPort string `yaml:"metrics_port"`
}

// ResearchConfig supplies defaults for a Job's Limits when a ResearchInput
// omits them.
type ResearchConfig struct {
	DefaultMode                  string `yaml:"default_mode"`
	DefaultStrategy              string `yaml:"default_strategy"`
	MaxStepsDefault              int    `yaml:"max_steps_default"`
	MaxWebCallsDefault           int    `yaml:"max_web_calls_default"`
	TimeoutSecondsPerStepDefault int    `yaml:"timeout_seconds_per_step_default"`
	MaxParallelAgentsDefault     int    `yaml:"max_parallel_agents_default"`
}

// LLMConfig configures the narrative-generation adapter.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	Timeout     time.Duration `yaml:"-"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float32       `yaml:"temperature"`
}

// DatabaseConfig configures the Postgres connection pool.
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"-"`
	ConnMaxIdleTime time.Duration `yaml:"-"`
}

// SearchConfig selects and configures the SearchProvider adapter.
type SearchConfig struct {
	Provider string        `yaml:"provider"`
	APIKey   string        `yaml:"api_key"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"-"`
}

// GeocodeConfig selects and configures the Geocoder adapter.
type GeocodeConfig struct {
	Provider string        `yaml:"provider"`
	APIKey   string        `yaml:"api_key"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"-"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the top-level configuration for the research service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Research ResearchConfig `yaml:"research"`
	LLM      LLMConfig      `yaml:"llm"`
	Database DatabaseConfig `yaml:"database"`
	Search   SearchConfig   `yaml:"search"`
	Geocode  GeocodeConfig  `yaml:"geocode"`
	Logging  LoggingConfig  `yaml:"logging"`

	// Warnings collects unknown top-level YAML keys encountered while
	// loading, surfaced to the caller instead of silently dropped.
	Warnings []string `yaml:"-"`
}

// rawDurations shadows the Duration fields that yaml.v3 cannot unmarshal
// directly from strings like "30s".
type rawDurations struct {
	LLM struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"llm"`
	Database struct {
		ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		ConnMaxIdleTime string `yaml:"conn_max_idle_time"`
	} `yaml:"database"`
	Search struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"search"`
	Geocode struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"geocode"`
}

var knownTopLevelKeys = map[string]bool{
	"server": true, "research": true, "llm": true, "database": true,
	"search": true, "geocode": true, "logging": true,
}

// Load reads, parses, and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	var raw rawDurations
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyDurations(cfg, raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Warnings = append(cfg.Warnings, unknownKeyWarnings(data)...)

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", MetricsPort: "9090"},
		Research: ResearchConfig{
			DefaultMode:                  "pipeline",
			DefaultStrategy:              "wholesale",
			MaxStepsDefault:              9,
			MaxWebCallsDefault:           30,
			TimeoutSecondsPerStepDefault: 20,
			MaxParallelAgentsDefault:     1,
		},
		LLM: LLMConfig{
			Provider:    "anthropic",
			Timeout:     30 * time.Second,
			MaxTokens:   1024,
			Temperature: 0.3,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            "5432",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Search:  SearchConfig{Provider: "null", Timeout: 20 * time.Second},
		Geocode: GeocodeConfig{Provider: "null", Timeout: 10 * time.Second},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

func applyDurations(cfg *Config, raw rawDurations) error {
	set := func(field *time.Duration, value string) error {
		if value == "" {
			return nil
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*field = d
		return nil
	}

	if err := set(&cfg.LLM.Timeout, raw.LLM.Timeout); err != nil {
		return err
	}
	if err := set(&cfg.Database.ConnMaxLifetime, raw.Database.ConnMaxLifetime); err != nil {
		return err
	}
	if err := set(&cfg.Database.ConnMaxIdleTime, raw.Database.ConnMaxIdleTime); err != nil {
		return err
	}
	if err := set(&cfg.Search.Timeout, raw.Search.Timeout); err != nil {
		return err
	}
	if err := set(&cfg.Geocode.Timeout, raw.Geocode.Timeout); err != nil {
		return err
	}
	return nil
}

func unknownKeyWarnings(data []byte) []string {
	var generic map[string]interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil
	}
	var warnings []string
	for key := range generic {
		if !knownTopLevelKeys[key] {
			warnings = append(warnings, fmt.Sprintf("unknown configuration key: %s", key))
		}
	}
	return warnings
}

// loadFromEnv overlays RESEARCH_*-prefixed environment variables onto cfg.
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("RESEARCH_SERVER_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("RESEARCH_METRICS_PORT"); v != "" {
		cfg.Server.MetricsPort = v
	}
	if v := os.Getenv("RESEARCH_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("RESEARCH_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("RESEARCH_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("RESEARCH_DATABASE_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("RESEARCH_DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("RESEARCH_SEARCH_API_KEY"); v != "" {
		cfg.Search.APIKey = v
	}
	if v := os.Getenv("RESEARCH_GEOCODE_API_KEY"); v != "" {
		cfg.Geocode.APIKey = v
	}
	if v := os.Getenv("RESEARCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RESEARCH_MAX_PARALLEL_AGENTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RESEARCH_MAX_PARALLEL_AGENTS: %w", err)
		}
		cfg.Research.MaxParallelAgentsDefault = n
	}
	return nil
}

var validSearchProviders = map[string]bool{"exa": true, "null": true}
var validGeocodeProviders = map[string]bool{"google": true, "null": true}
var validLLMProviders = map[string]bool{"anthropic": true, "langchain-openai": true}
var validStrategies = map[string]bool{"flip": true, "rental": true, "wholesale": true}

// validate enforces the invariants that Load and tests rely on.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if !validLLMProviders[cfg.LLM.Provider] {
		return fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}
	if cfg.LLM.Temperature < 0.0 || cfg.LLM.Temperature > 1.0 {
		return fmt.Errorf("LLM temperature must be between 0.0 and 1.0")
	}
	if cfg.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM max tokens must be greater than 0")
	}
	if !validStrategies[cfg.Research.DefaultStrategy] {
		return fmt.Errorf("unsupported default strategy: %s", cfg.Research.DefaultStrategy)
	}
	if cfg.Research.MaxParallelAgentsDefault <= 0 {
		return fmt.Errorf("max parallel agents must be greater than 0")
	}
	if cfg.Research.MaxStepsDefault <= 0 {
		return fmt.Errorf("max steps must be greater than 0")
	}
	if !validSearchProviders[cfg.Search.Provider] {
		return fmt.Errorf("unsupported search provider: %s", cfg.Search.Provider)
	}
	if !validGeocodeProviders[cfg.Geocode.Provider] {
		return fmt.Errorf("unsupported geocode provider: %s", cfg.Geocode.Provider)
	}
	if cfg.Database.Database == "" && cfg.Database.Host != "" {
		// database name defaults when unset but a host was configured
		cfg.Database.Database = "agentic_research"
	}
	return nil
}

// DSN builds a libpq-style connection string from DatabaseConfig.
func (c DatabaseConfig) DSN() string {
	parts := []string{
		fmt.Sprintf("host=%s", c.Host),
		fmt.Sprintf("port=%s", c.Port),
		fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	if c.User != "" {
		parts = append(parts, fmt.Sprintf("user=%s", c.User))
	}
	if c.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", c.Password))
	}
	if c.Database != "" {
		parts = append(parts, fmt.Sprintf("dbname=%s", c.Database))
	}
	return strings.Join(parts, " ")
}
