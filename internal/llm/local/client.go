// Package local talks to an OpenAI-compatible completion server (llama.cpp
// server, LocalAI, Ollama) hosting the quantized invoice model.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/deffeddef/invoice-extractor-app/internal/llm"
	"github.com/deffeddef/invoice-extractor-app/internal/utils"
)

// Config for the local completion client.
type Config struct {
	BaseURL string        // default http://localhost:8080
	Model   string        // model name the server was started with
	APIKey  string        // optional bearer token
	Timeout time.Duration // 0 = no timeout
	// ModelPath, when set, must exist before the client is considered loaded.
	ModelPath string
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type completionRequest struct {
	Model          string          `json:"model,omitempty"`
	Prompt         string          `json:"prompt"`
	MaxTokens      int             `json:"max_tokens"`
	Temperature    float64         `json:"temperature"`
	Stop           []string        `json:"stop,omitempty"`
	Echo           bool            `json:"echo"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type completionResponse struct {
	Choices []struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage,omitempty"`
}

// Generate implements llm.Generator with POST /v1/completions.
func (c *Client) Generate(ctx context.Context, prompt string, params llm.GenerateParams) (string, error) {
	body := completionRequest{
		Model:       c.cfg.Model,
		Prompt:      prompt,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		Stop:        params.Stop,
	}
	if params.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	raw, status, err := utils.SendJSON(ctx, c.http, http.MethodPost, c.cfg.BaseURL+"/v1/completions", body, c.headers(), c.logger)
	if err != nil {
		if status != 0 {
			return "", fmt.Errorf("local inference status %d: %s", status, truncate(string(raw), 512))
		}
		return "", fmt.Errorf("local inference: %w", err)
	}

	var cr completionResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	choice := cr.Choices[0]
	if choice.FinishReason == "length" {
		c.logger.Warn("llm.local.truncated", "max_tokens", params.MaxTokens)
	}
	if cr.Usage != nil {
		c.logger.Debug("llm.local.usage", "prompt_tokens", cr.Usage.PromptTokens, "completion_tokens", cr.Usage.CompletionTokens)
	}
	return strings.TrimSpace(choice.Text), nil
}

// Ping checks that the server is up and serving models.
func (c *Client) Ping(ctx context.Context) error {
	_, status, err := utils.SendJSON(ctx, c.http, http.MethodGet, c.cfg.BaseURL+"/v1/models", nil, c.headers(), c.logger)
	if err != nil {
		return fmt.Errorf("ping local inference server (status %d): %w", status, err)
	}
	return nil
}

func (c *Client) headers() map[string]string {
	if c.cfg.APIKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
}

// NewLoader returns an llm.Loader that verifies the model file and the
// server before handing out the client.
func NewLoader(cfg Config, logger *slog.Logger) llm.Loader {
	return func(ctx context.Context) (llm.Generator, error) {
		if cfg.ModelPath != "" {
			if _, err := os.Stat(cfg.ModelPath); err != nil {
				return nil, fmt.Errorf("model file not found at %s: %w", cfg.ModelPath, err)
			}
		}
		c := NewClient(cfg, logger)
		if err := c.Ping(ctx); err != nil {
			return nil, err
		}
		return c, nil
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
