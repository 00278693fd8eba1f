// Package config loads runtime settings from a metagen.{yaml,toml,json}
// file, METAGEN_* environment variables and built-in defaults, in
// increasing order of precedence: defaults, file, environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/andishehs/MetaGen/logging"
)

const (
	configName = "metagen"
	envPrefix  = "METAGEN"
)

// Builder selections.
const (
	BuilderAuto     = "auto"
	BuilderModel    = "model"
	BuilderTemplate = "template"
)

// BreakerConfig configures the per-agent circuit breaker.
type BreakerConfig struct {
	Failures uint32        `mapstructure:"failures"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Exporter string `mapstructure:"exporter"`
}

// Config holds every runtime setting.
type Config struct {
	DBPath      string `mapstructure:"db_path"`
	ArtifactDir string `mapstructure:"artifact_dir"`

	MaxRounds          int           `mapstructure:"max_rounds"`
	CallTimeout        time.Duration `mapstructure:"call_timeout"`
	RetryBudget        int           `mapstructure:"retry_budget"`
	RetryDelay         time.Duration `mapstructure:"retry_delay"`
	MaxCapabilityCalls int           `mapstructure:"max_capability_calls"`
	TerminationMarker  string        `mapstructure:"termination_marker"`
	Kickoff            bool          `mapstructure:"kickoff"`
	MaxConcurrent      int           `mapstructure:"max_concurrent"`

	Builder         string  `mapstructure:"builder"`
	Provider        string  `mapstructure:"provider"`
	Model           string  `mapstructure:"model"`
	Temperature     float64 `mapstructure:"temperature"`
	OpenAIAPIKey    string  `mapstructure:"openai_api_key"`
	AnthropicAPIKey string  `mapstructure:"anthropic_api_key"`
	RateLimit       float64 `mapstructure:"rate_limit"`
	Burst           int     `mapstructure:"burst"`

	Breaker BreakerConfig `mapstructure:"breaker"`
	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("db_path", "orchestra.db")
	v.SetDefault("artifact_dir", "./log")
	v.SetDefault("max_rounds", 12)
	v.SetDefault("call_timeout", 60*time.Second)
	v.SetDefault("retry_budget", 2)
	v.SetDefault("retry_delay", time.Duration(0))
	v.SetDefault("max_capability_calls", 0)
	v.SetDefault("termination_marker", "TERMINATE")
	v.SetDefault("kickoff", true)
	v.SetDefault("max_concurrent", 4)
	v.SetDefault("builder", BuilderAuto)
	v.SetDefault("provider", "openai")
	v.SetDefault("model", "gpt-4o-mini")
	v.SetDefault("temperature", 0.0)
	v.SetDefault("openai_api_key", "")
	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("rate_limit", 0.0)
	v.SetDefault("burst", 1)
	v.SetDefault("breaker.failures", 5)
	v.SetDefault("breaker.timeout", 60*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
}

// Default returns the built-in defaults, ignoring files and environment.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// LoadOptions configures Load.
type LoadOptions struct {
	// File is an explicit config file; when set, it must exist.
	File string
	// Paths are searched for metagen.{yaml,toml,json} when File is empty.
	Paths []string
	// Viper allows callers (the CLI) to pre-bind flags.
	Viper *viper.Viper
}

// Load reads the configuration. A missing config file is not an error.
func Load(optFns ...func(o *LoadOptions)) (*Config, error) {
	opts := LoadOptions{Paths: defaultPaths()}

	for _, fn := range optFns {
		fn(&opts)
	}

	v := opts.Viper
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName(configName)
		for _, p := range opts.Paths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".metagen"))
	}
	return paths
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxRounds < 0 {
		errs = append(errs, fmt.Errorf("max_rounds must be >= 0, got %d", c.MaxRounds))
	}
	if c.RetryBudget < 0 {
		errs = append(errs, fmt.Errorf("retry_budget must be >= 0, got %d", c.RetryBudget))
	}
	if c.CallTimeout <= 0 {
		errs = append(errs, fmt.Errorf("call_timeout must be > 0, got %s", c.CallTimeout))
	}
	if c.MaxConcurrent < 1 {
		errs = append(errs, fmt.Errorf("max_concurrent must be >= 1, got %d", c.MaxConcurrent))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be within [0, 2], got %g", c.Temperature))
	}
	switch c.Builder {
	case BuilderAuto, BuilderModel, BuilderTemplate:
	default:
		errs = append(errs, fmt.Errorf("builder must be auto, model or template, got %q", c.Builder))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// UseModelBuilder reports whether orchestras are designed by a model rather
// than the offline template.
func (c *Config) UseModelBuilder() bool {
	switch c.Builder {
	case BuilderModel:
		return true
	case BuilderTemplate:
		return false
	default:
		return c.Provider == "openai" || c.Provider == "anthropic"
	}
}

// Logger builds the structured logger described by the log section.
func (c *Config) Logger() *logging.StructuredLogger {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.NewSlogLogger(level, c.Log.Format, false)
}
