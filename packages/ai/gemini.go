package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"git-analyse/packages/config"
	"git-analyse/types"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiCompleter drives Google Gemini through the generative-ai-go SDK.
type GeminiCompleter struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

func NewGeminiCompleter(ctx context.Context, cfg config.AIConfig, apiKey string) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, &types.MissingCredentialError{Name: "GEMINI_API_KEY"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		slog.Error("Failed to create Gemini client", "error", err)
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	name := cfg.Model
	if name == "" {
		name = defaultGeminiModel
	}
	model := client.GenerativeModel(name)

	// Configure model settings
	model.SetTemperature(cfg.Temperature)
	if cfg.TopK > 0 {
		model.SetTopK(cfg.TopK)
	}
	if cfg.TopP > 0 {
		model.SetTopP(cfg.TopP)
	}
	if cfg.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(cfg.MaxOutputTokens)
	}

	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	return &GeminiCompleter{client: client, model: model, name: name}, nil
}

func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	slog.Debug("Sending request to Gemini API", "model", g.name, "promptLength", len(prompt))

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &types.RemoteAnalysisFailedError{Message: err.Error()}
	}
	return responseText(resp), nil
}

func (g *GeminiCompleter) Close() error {
	return g.client.Close()
}

// responseText joins the text parts of the first candidate; "" when the
// response carries none.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String())
}
