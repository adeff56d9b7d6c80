// Package config loads novelist settings from defaults, an optional YAML
// file, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Anthropic   AnthropicConfig `mapstructure:"anthropic"`
	Stability   StabilityConfig `mapstructure:"stability"`
	Book        BookConfig      `mapstructure:"book"`
	Pipeline    PipelineConfig  `mapstructure:"pipeline"`
	Store       StoreConfig     `mapstructure:"store"`
	Log         LogConfig       `mapstructure:"log"`
	HTTPTimeout time.Duration   `mapstructure:"http_timeout"`
}

type AnthropicConfig struct {
	APIKey           string  `mapstructure:"api_key"`
	BaseURL          string  `mapstructure:"base_url"`
	Model            string  `mapstructure:"model"`
	MaxTokens        int     `mapstructure:"max_tokens"`
	ChapterMaxTokens int     `mapstructure:"chapter_max_tokens"`
	Temperature      float64 `mapstructure:"temperature"`
}

type StabilityConfig struct {
	APIKey string `mapstructure:"api_key"`
	Host   string `mapstructure:"host"`
	Engine string `mapstructure:"engine"`
}

type BookConfig struct {
	Author    string `mapstructure:"author"`
	Language  string `mapstructure:"language"`
	OutputDir string `mapstructure:"output_dir"`
	CoverFile string `mapstructure:"cover_file"`
}

type PipelineConfig struct {
	ChapterCooldown   time.Duration `mapstructure:"chapter_cooldown"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"` // 0 means no cap

}

type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Driver  string `mapstructure:"driver"`
	Path    string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration. Values are resolved in this order, later
// sources winning: defaults, the YAML file, .env, the process environment.
// An empty path looks for novelist.yaml in the working directory and
// ~/.novelist; a missing file is not an error unless path was given.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("novelist")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".novelist"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("NOVELIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range map[string]string{
		"anthropic.api_key": "ANTHROPIC_API_KEY",
		"stability.api_key": "STABILITY_API_KEY",
		"stability.host":    "API_HOST",
	} {
		if err := v.BindEnv(key, env, "NOVELIST_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.base_url", "https://api.anthropic.com")
	v.SetDefault("anthropic.model", "claude-3-haiku-20240307")
	v.SetDefault("anthropic.max_tokens", 2000)
	v.SetDefault("anthropic.chapter_max_tokens", 4000)
	v.SetDefault("anthropic.temperature", 0.7)

	v.SetDefault("stability.api_key", "")
	v.SetDefault("stability.host", "https://api.stability.ai")
	v.SetDefault("stability.engine", "stable-diffusion-xl-beta-v2-2-2")

	v.SetDefault("book.author", "AI")
	v.SetDefault("book.language", "en")
	v.SetDefault("book.output_dir", ".")
	v.SetDefault("book.cover_file", "cover.png")

	v.SetDefault("pipeline.chapter_cooldown", "1s")
	v.SetDefault("pipeline.max_retries", 0)
	v.SetDefault("pipeline.requests_per_minute", 0)

	v.SetDefault("store.enabled", false)
	v.SetDefault("store.driver", "duckdb")
	v.SetDefault("store.path", defaultStorePath())

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("http_timeout", "0s")
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "novelist.db"
	}
	return filepath.Join(home, ".novelist", "novelist.db")
}

// Validate checks the values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Anthropic.MaxTokens <= 0 || c.Anthropic.ChapterMaxTokens <= 0 {
		return fmt.Errorf("anthropic max tokens must be positive")
	}
	if c.Anthropic.Temperature < 0 || c.Anthropic.Temperature > 1 {
		return fmt.Errorf("anthropic temperature must be within [0, 1], got %g", c.Anthropic.Temperature)
	}
	if c.Pipeline.ChapterCooldown < 0 {
		return fmt.Errorf("pipeline chapter cooldown cannot be negative")
	}
	if c.Pipeline.MaxRetries < 0 {
		return fmt.Errorf("pipeline max retries cannot be negative")
	}
	if c.Pipeline.RequestsPerMinute < 0 {
		return fmt.Errorf("pipeline requests per minute cannot be negative")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http timeout cannot be negative")
	}
	switch c.Store.Driver {
	case "duckdb", "sqlite":
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
	if c.Book.CoverFile == "" {
		return fmt.Errorf("book cover file cannot be empty")
	}
	if filepath.Base(c.Book.CoverFile) != c.Book.CoverFile {
		return fmt.Errorf("book cover file %q must be a plain file name", c.Book.CoverFile)
	}
	return nil
}
