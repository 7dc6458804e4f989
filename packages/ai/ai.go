package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"git-analyse/packages/config"
	"git-analyse/types"
)

const defaultSystemPrompt = "You are an AI language model that can analyze codebases and provide insights."

// Completer sends one prompt to a language model and returns its answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// New builds the completer selected by cfg.Backend. The returned cleanup
// function releases backend resources and is never nil.
func New(ctx context.Context, cfg config.AIConfig, apiKey string, httpClient *http.Client) (Completer, func(), error) {
	switch cfg.Backend {
	case "", "openai":
		c, err := NewOpenAICompleter(httpClient, OpenAIConfig{
			BaseURL:      cfg.BaseURL,
			Endpoint:     cfg.Endpoint,
			Model:        cfg.Model,
			SystemPrompt: cfg.SystemPrompt,
			Temperature:  cfg.Temperature,
			MaxTokens:    cfg.MaxOutputTokens,
			APIKey:       apiKey,
		})
		if err != nil {
			return nil, func() {}, err
		}
		return c, func() {}, nil
	case "gemini":
		c, err := NewGeminiCompleter(ctx, cfg, apiKey)
		if err != nil {
			return nil, func() {}, err
		}
		return c, func() { c.Close() }, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown AI backend %q", cfg.Backend)
	}
}

const fence = "```"

// BuildChunkPrompt renders the prompt for one chunk of the corpus.
func BuildChunkPrompt(repoURL string, chunk types.Chunk, fileTypes []string) string {
	extensions := "none"
	if len(fileTypes) > 0 {
		extensions = strings.Join(fileTypes, ", ")
	}

	return fmt.Sprintf(`Analyze the following truncated code from the repository at %s.
This is part %d of %d.

# File Types
The repository contains files with extensions: %s

# Your Task
Provide an in-depth analysis of this code: what it does, how it fits into the repository,
and whether anything in it looks suspicious or could be considered malware.

# Code
%s
%s
%s
`,
		repoURL,
		chunk.Index+1,
		chunk.Total,
		extensions,
		fence,
		chunk.Text,
		fence,
	)
}
