package config

import (
	"log/slog"
	"os"

	"git-analyse/types"

	"github.com/joho/godotenv"
)

const (
	EnvOpenAIKey   = "OPENAI_API_KEY"
	EnvGeminiKey   = "GEMINI_API_KEY"
	EnvGitHubToken = "GITHUB_TOKEN"
)

// Credentials holds secrets taken from the process environment.
type Credentials struct {
	APIKey      string
	GitHubToken string
}

// LoadDotEnv loads a .env file if present. A missing file is not an error.
func LoadDotEnv(paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}
}

// LoadCredentials reads the API key for the configured backend. The key is
// required; the GitHub token is optional.
func (c *Config) LoadCredentials() error {
	name := EnvOpenAIKey
	if c.AI.Backend == "gemini" {
		name = EnvGeminiKey
	}

	key := os.Getenv(name)
	if key == "" {
		return &types.MissingCredentialError{Name: name}
	}

	c.Credentials = Credentials{
		APIKey:      key,
		GitHubToken: os.Getenv(EnvGitHubToken),
	}
	return nil
}
