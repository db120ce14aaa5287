package config

import (
	"context"
	"time"
)

const (
	DefaultConfigFile = "dispatch.yaml"

	PolicyFailFast = "fail-fast"
	PolicyContinue = "continue"
)

// Config represents the complete configuration for the dispatcher.
type Config struct {
	Manager ManagerConfig `koanf:"manager"`
	Paths   PathsConfig   `koanf:"paths"`
	Run     RunConfig     `koanf:"run"`
	Clean   CleanConfig   `koanf:"clean"`
	Log     LogConfig     `koanf:"log"`
	EnvFile string        `koanf:"env_file" env:"DISPATCH_ENV_FILE"`
	CWD     string        `koanf:"cwd"      env:"DISPATCH_CWD"`
}

// ManagerConfig controls environment manager detection.
type ManagerConfig struct {
	// Force pins the manager and skips the PATH probe when set.
	Force string `koanf:"force" validate:"omitempty,oneof=uv pip" env:"DISPATCH_MANAGER"`
}

// PathsConfig holds the project paths command templates refer to.
type PathsConfig struct {
	Source string `koanf:"source" validate:"required" env:"DISPATCH_SOURCE_DIR"`
	Tests  string `koanf:"tests"  validate:"required" env:"DISPATCH_TESTS_DIR"`
}

// RunConfig controls how a resolved chain is executed.
type RunConfig struct {
	Policy string `koanf:"policy"  validate:"oneof=fail-fast continue" env:"DISPATCH_POLICY"`
	DryRun bool   `koanf:"dry_run"                                     env:"DISPATCH_DRY_RUN"`
}

// CleanConfig lists the doublestar patterns removed by the clean task.
type CleanConfig struct {
	Patterns []string `koanf:"patterns" validate:"min=1,dive,required" env:"DISPATCH_CLEAN_PATTERNS"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string `koanf:"level"  validate:"oneof=debug info warn error disabled" env:"DISPATCH_LOG_LEVEL"`
	JSON   bool   `koanf:"json"                                                   env:"DISPATCH_LOG_JSON"`
	Source bool   `koanf:"source"                                                 env:"DISPATCH_LOG_SOURCE"`
	File   string `koanf:"file"                                                   env:"DISPATCH_LOG_FILE"`
}

// Service defines the configuration loading contract.
type Service interface {
	// Load loads configuration from the specified sources with precedence order.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	// Validate checks if the configuration meets all validation requirements.
	Validate(config *Config) error
	// GetSource returns the source type that provided a configuration key.
	GetSource(key string) SourceType
	// Sources returns the source of every loaded key.
	Sources() map[string]SourceType
}

// Source is a configuration source.
type Source interface {
	Load() (map[string]any, error)
	Type() SourceType
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Metadata contains metadata about configuration sources.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Manager: ManagerConfig{},
		Paths: PathsConfig{
			Source: "src",
			Tests:  "tests",
		},
		Run: RunConfig{
			Policy: PolicyFailFast,
		},
		Clean: CleanConfig{
			Patterns: []string{
				".pytest_cache",
				".mypy_cache",
				".ruff_cache",
				"**/__pycache__",
				".coverage",
				"htmlcov",
				"dist",
				"build",
				"*.egg-info",
			},
		},
		Log: LogConfig{
			Level: "info",
		},
		EnvFile: ".env",
	}
}
