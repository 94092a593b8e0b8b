// Package config defines the explicit runtime configuration passed into
// orchestrator construction. There is no ambient global state: Load returns a
// validated Config value and callers hand it to the constructors that need
// it. Files (YAML) and SKILLMESH_* environment variables are read via viper.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hupe1980/skillmesh/core"
	"github.com/hupe1980/skillmesh/skill"
)

// ModelConfig selects and tunes the LLM backend.
type ModelConfig struct {
	Provider          string        `mapstructure:"provider"` // openai, anthropic, scripted
	Name              string        `mapstructure:"name"`
	APIKey            string        `mapstructure:"api_key"`
	Temperature       float64       `mapstructure:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	ConnectionTimeout time.Duration `mapstructure:"connection_timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBaseDelay    time.Duration `mapstructure:"retry_base_delay"`
}

// AgentConfig bounds the reasoning loop.
type AgentConfig struct {
	MaxSteps     int           `mapstructure:"max_steps"`
	SkillTimeout time.Duration `mapstructure:"skill_timeout"`
	Instructions string        `mapstructure:"instructions"`
}

// MemoryConfig tunes the three memory tiers.
type MemoryConfig struct {
	MaxContextTokens      int     `mapstructure:"max_context_tokens"`
	TokenWarningThreshold float64 `mapstructure:"token_warning_threshold"`
	ChunkSize             int     `mapstructure:"chunk_size"`
	ChunkOverlap          int     `mapstructure:"chunk_overlap"`
	TopK                  int     `mapstructure:"top_k"`
	SessionBackend        string  `mapstructure:"session_backend"` // memory, redis
	RedisAddr             string  `mapstructure:"redis_addr"`
}

// Config aggregates all runtime configuration.
type Config struct {
	Model  ModelConfig  `mapstructure:"model"`
	Agent  AgentConfig  `mapstructure:"agent"`
	Memory MemoryConfig `mapstructure:"memory"`
	Skills skill.Policy `mapstructure:"skills"`
}

// Default returns the baseline configuration suitable for local development.
func Default() Config {
	return Config{
		Model: ModelConfig{
			Provider:          "openai",
			Temperature:       0.7,
			MaxTokens:         4096,
			RequestTimeout:    60 * time.Second,
			ConnectionTimeout: 10 * time.Second,
			MaxRetries:        2,
			RetryBaseDelay:    500 * time.Millisecond,
		},
		Agent: AgentConfig{
			MaxSteps:     10,
			SkillTimeout: 30 * time.Second,
		},
		Memory: MemoryConfig{
			MaxContextTokens:      8192,
			TokenWarningThreshold: 0.8,
			ChunkSize:             800,
			ChunkOverlap:          200,
			TopK:                  4,
			SessionBackend:        "memory",
		},
	}
}

// Load reads the optional config file at path (YAML) plus SKILLMESH_*
// environment variables, layered over Default(). The result is validated; an
// invalid configuration is fatal at startup.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SKILLMESH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Default()
	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, core.NewConfigurationError("read config %s: %v", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, core.NewConfigurationError("decode config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("model.provider", cfg.Model.Provider)
	v.SetDefault("model.temperature", cfg.Model.Temperature)
	v.SetDefault("model.max_tokens", cfg.Model.MaxTokens)
	v.SetDefault("model.request_timeout", cfg.Model.RequestTimeout)
	v.SetDefault("model.connection_timeout", cfg.Model.ConnectionTimeout)
	v.SetDefault("model.max_retries", cfg.Model.MaxRetries)
	v.SetDefault("model.retry_base_delay", cfg.Model.RetryBaseDelay)
	v.SetDefault("agent.max_steps", cfg.Agent.MaxSteps)
	v.SetDefault("agent.skill_timeout", cfg.Agent.SkillTimeout)
	v.SetDefault("memory.max_context_tokens", cfg.Memory.MaxContextTokens)
	v.SetDefault("memory.token_warning_threshold", cfg.Memory.TokenWarningThreshold)
	v.SetDefault("memory.chunk_size", cfg.Memory.ChunkSize)
	v.SetDefault("memory.chunk_overlap", cfg.Memory.ChunkOverlap)
	v.SetDefault("memory.top_k", cfg.Memory.TopK)
	v.SetDefault("memory.session_backend", cfg.Memory.SessionBackend)
}

// Validate rejects configurations that would misbehave at runtime. All
// violations are configuration errors, fatal at startup.
func (c Config) Validate() error {
	if err := c.Skills.Validate(); err != nil {
		return err
	}
	if c.Agent.MaxSteps <= 0 {
		return core.NewConfigurationError("agent.max_steps must be positive, got %d", c.Agent.MaxSteps)
	}
	if c.Memory.TokenWarningThreshold <= 0 || c.Memory.TokenWarningThreshold > 1 {
		return core.NewConfigurationError("memory.token_warning_threshold must be in (0, 1], got %v", c.Memory.TokenWarningThreshold)
	}
	if c.Memory.ChunkSize <= 0 {
		return core.NewConfigurationError("memory.chunk_size must be positive, got %d", c.Memory.ChunkSize)
	}
	if c.Memory.ChunkOverlap < 0 || c.Memory.ChunkOverlap >= c.Memory.ChunkSize {
		return core.NewConfigurationError("memory.chunk_overlap must be in [0, chunk_size), got %d", c.Memory.ChunkOverlap)
	}
	switch c.Memory.SessionBackend {
	case "", "memory":
	case "redis":
		if c.Memory.RedisAddr == "" {
			return core.NewConfigurationError("memory.redis_addr is required for the redis session backend")
		}
	default:
		return core.NewConfigurationError("unknown session backend %q", c.Memory.SessionBackend)
	}
	return nil
}

// ShortTermBudget derives the short-term eviction threshold in tokens.
func (c Config) ShortTermBudget() int {
	return int(float64(c.Memory.MaxContextTokens) * c.Memory.TokenWarningThreshold)
}
