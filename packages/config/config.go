package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultConfigPath = "config/development.yaml"

// Config represents the application configuration
type Config struct {
	AI         AIConfig         `yaml:"ai"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Extract    ExtractConfig    `yaml:"extract"`
	Repository RepositoryConfig `yaml:"repository"`
	Providers  ProvidersConfig  `yaml:"providers"`
	HTTP       HTTPConfig       `yaml:"http"`
	Log        LogConfig        `yaml:"log"`

	// Credentials are never read from YAML; see LoadCredentials.
	Credentials Credentials `yaml:"-"`
}

// AIConfig contains completion endpoint settings
type AIConfig struct {
	Backend         string  `yaml:"backend"`  // openai | gemini
	Endpoint        string  `yaml:"endpoint"` // chat | completions
	BaseURL         string  `yaml:"base_url"`
	Model           string  `yaml:"model"` // empty selects the backend default
	SystemPrompt    string  `yaml:"system_prompt"`
	Temperature     float32 `yaml:"temperature"`
	TopK            int32   `yaml:"top_k"`
	TopP            float32 `yaml:"top_p"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

// AnalysisConfig controls chunking and the per-chunk driver
type AnalysisConfig struct {
	MaxChars          int     `yaml:"max_chars"`
	Concurrency       int     `yaml:"concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	FailFast          bool    `yaml:"fail_fast"`
}

// ExtractConfig controls how archive entries become corpus text
type ExtractConfig struct {
	// Extensions overrides the built-in set of recognized text extensions.
	Extensions  []string `yaml:"extensions"`
	FileHeaders bool     `yaml:"file_headers"`
}

// RepositoryConfig contains repository-related configuration
type RepositoryConfig struct {
	DefaultBranch string `yaml:"default_branch"`
}

type ProvidersConfig struct {
	GitHub ProviderConfig `yaml:"github"`
	GitLab ProviderConfig `yaml:"gitlab"`
}

type ProviderConfig struct {
	ArchiveBaseURL string `yaml:"archive_base_url"`
	APIBaseURL     string `yaml:"api_base_url"`
}

type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		AI: AIConfig{
			Backend:         "openai",
			Endpoint:        "chat",
			BaseURL:         "https://api.openai.com",
			Temperature:     0.5,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 100,
		},
		Analysis: AnalysisConfig{
			MaxChars:    8192,
			Concurrency: 1,
		},
		Repository: RepositoryConfig{
			DefaultBranch: "main",
		},
		Providers: ProvidersConfig{
			GitHub: ProviderConfig{
				ArchiveBaseURL: "https://github.com",
				APIBaseURL:     "https://api.github.com/",
			},
			GitLab: ProviderConfig{
				ArchiveBaseURL: "https://gitlab.com",
			},
		},
		HTTP: HTTPConfig{
			Timeout:   5 * time.Minute,
			UserAgent: "git-analyse",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from the specified file on top of Default.
// An empty path falls back to DefaultConfigPath, which may be absent.
func LoadConfig(configPath string) (*Config, error) {
	cfg := Default()

	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside the pipeline.
func (c *Config) Validate() error {
	if c.Analysis.MaxChars <= 0 {
		return fmt.Errorf("analysis.max_chars must be positive, got %d", c.Analysis.MaxChars)
	}
	if c.Analysis.Concurrency <= 0 {
		return fmt.Errorf("analysis.concurrency must be positive, got %d", c.Analysis.Concurrency)
	}
	if c.Analysis.RequestsPerSecond < 0 {
		return fmt.Errorf("analysis.requests_per_second must not be negative")
	}
	switch c.AI.Backend {
	case "openai":
		switch c.AI.Endpoint {
		case "chat", "completions":
		default:
			return fmt.Errorf("unknown ai.endpoint %q (want chat or completions)", c.AI.Endpoint)
		}
	case "gemini":
	default:
		return fmt.Errorf("unknown ai.backend %q (want openai or gemini)", c.AI.Backend)
	}
	if c.Repository.DefaultBranch == "" {
		return fmt.Errorf("repository.default_branch must not be empty")
	}
	return nil
}
