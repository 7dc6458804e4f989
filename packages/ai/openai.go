package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"git-analyse/types"
)

const (
	defaultOpenAIBaseURL     = "https://api.openai.com"
	defaultOpenAIChatModel   = "gpt-3.5-turbo"
	defaultOpenAILegacyModel = "gpt-3.5-turbo-instruct"

	EndpointChat        = "chat"
	EndpointCompletions = "completions"
)

// OpenAIConfig holds the settings for an OpenAI-compatible completion endpoint
type OpenAIConfig struct {
	BaseURL      string
	Endpoint     string // chat | completions
	Model        string
	SystemPrompt string
	Temperature  float32
	MaxTokens    int32
	APIKey       string
}

// OpenAICompleter talks to /v1/chat/completions or the legacy /v1/completions.
type OpenAICompleter struct {
	config OpenAIConfig
	client *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages,omitempty"`
	Prompt      string        `json:"prompt,omitempty"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int32         `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func NewOpenAICompleter(client *http.Client, config OpenAIConfig) (*OpenAICompleter, error) {
	if config.APIKey == "" {
		return nil, &types.MissingCredentialError{Name: "OPENAI_API_KEY"}
	}
	if client == nil {
		client = http.DefaultClient
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultOpenAIBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Endpoint == "" {
		config.Endpoint = EndpointChat
	}
	if config.Model == "" {
		config.Model = defaultOpenAIChatModel
		if config.Endpoint == EndpointCompletions {
			config.Model = defaultOpenAILegacyModel
		}
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = defaultSystemPrompt
	}
	return &OpenAICompleter{config: config, client: client}, nil
}

func (c *OpenAICompleter) url() string {
	if c.config.Endpoint == EndpointCompletions {
		return c.config.BaseURL + "/v1/completions"
	}
	return c.config.BaseURL + "/v1/chat/completions"
}

func (c *OpenAICompleter) request(prompt string) completionRequest {
	req := completionRequest{
		Model:       c.config.Model,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}
	if c.config.Endpoint == EndpointCompletions {
		req.Prompt = prompt
		return req
	}
	req.Messages = []chatMessage{
		{Role: "system", Content: c.config.SystemPrompt},
		{Role: "user", Content: prompt},
	}
	return req
}

// Complete issues a single completion request. An "error" object in the
// response becomes a RemoteAnalysisFailedError; a response without the
// expected text field yields "".
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	requestBody, err := json.Marshal(c.request(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(), bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call completion endpoint: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	slog.Debug("Completion response received",
		"statusCode", resp.StatusCode,
		"contentLength", len(responseBody))

	var parsed completionResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", &types.RemoteAnalysisFailedError{
				Message: fmt.Sprintf("status %d: %s", resp.StatusCode, string(responseBody)),
			}
		}
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if parsed.Error != nil {
		message := parsed.Error.Message
		if message == "" {
			message = "Unknown error"
		}
		return "", &types.RemoteAnalysisFailedError{Message: message}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &types.RemoteAnalysisFailedError{
			Message: fmt.Sprintf("status %d: %s", resp.StatusCode, string(responseBody)),
		}
	}

	if len(parsed.Choices) == 0 {
		return "", nil
	}
	choice := parsed.Choices[0]
	if c.config.Endpoint == EndpointCompletions {
		return strings.TrimSpace(choice.Text), nil
	}
	if choice.Message == nil {
		return "", nil
	}
	return strings.TrimSpace(choice.Message.Content), nil
}
