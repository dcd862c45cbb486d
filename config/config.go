// Package config loads engine configuration: defaults, overlaid by an
// optional TOML file, overlaid by environment variables (env wins).
package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config is the full engine configuration.
type Config struct {
	Model   ModelConfig   `toml:"model"`
	Routing RoutingConfig `toml:"routing"`
	Trim    TrimConfig    `toml:"trim"`
	Task    TaskConfig    `toml:"task"`
	Logging LoggingConfig `toml:"logging"`
}

// ModelConfig selects the model provider backing the agents.
type ModelConfig struct {
	Provider string `toml:"provider"` // "openai" or "anthropic"
	Name     string `toml:"name"`
	APIKey   string `toml:"api_key"`
}

// RoutingConfig mirrors router.Config.
type RoutingConfig struct {
	MaxSteps            int     `toml:"max_steps"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	MaxRedos            int     `toml:"max_redos"`
	EnableReflect       bool    `toml:"enable_reflect"`
	EnableSummarize     bool    `toml:"enable_summarize"`
}

// TrimConfig bounds conversation history per turn.
type TrimConfig struct {
	MaxTokens int `toml:"max_tokens"`
}

// TaskConfig tunes the background pipeline.
type TaskConfig struct {
	Workers          int    `toml:"workers"`
	QueueSize        int    `toml:"queue_size"`
	RetentionSeconds int    `toml:"retention_seconds"`
	PollIntervalMS   int    `toml:"poll_interval_ms"`
	PollMaxWaitMS    int    `toml:"poll_max_wait_ms"`
	SQLitePath       string `toml:"sqlite_path"` // empty selects the in-memory store
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // json or text
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Model: ModelConfig{Provider: "openai", Name: "gpt-4o-mini"},
		Routing: RoutingConfig{
			MaxSteps:            50,
			ConfidenceThreshold: 0.5,
			MaxRedos:            1,
		},
		Trim: TrimConfig{MaxTokens: 16000},
		Task: TaskConfig{
			Workers:          2,
			QueueSize:        64,
			RetentionSeconds: 3600,
			PollIntervalMS:   1000,
			PollMaxWaitMS:    30000,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "tripmesh.toml"
	}

	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	if v := os.Getenv("TRIPMESH_MODEL_PROVIDER"); v != "" {
		cfg.Model.Provider = v
	}
	if v := os.Getenv("TRIPMESH_MODEL_NAME"); v != "" {
		cfg.Model.Name = v
	}
	if v := os.Getenv("TRIPMESH_MODEL_API_KEY"); v != "" {
		cfg.Model.APIKey = v
	}
	if v := os.Getenv("TRIPMESH_SQLITE_PATH"); v != "" {
		cfg.Task.SQLitePath = v
	}
	if v := os.Getenv("TRIPMESH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TRIPMESH_TASK_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Task.Workers = n
		}
	}

	return cfg
}
