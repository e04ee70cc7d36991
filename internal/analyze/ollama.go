package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultOllamaURL is the local Ollama server address.
const DefaultOllamaURL = "http://localhost:11434"

// DefaultOllamaModel is used when no local model override is configured.
const DefaultOllamaModel = "llama3"

// Ollama implements Backend against a local Ollama server using the
// non-streaming /api/generate endpoint.
type Ollama struct {
	endpoint string
	model    string
	system   string
	client   *http.Client
}

// NewOllama creates a local backend. Empty endpoint and model fall back to
// the defaults; a non-positive timeout falls back to two minutes.
func NewOllama(endpoint, model, systemPrompt string, timeout time.Duration) *Ollama {
	if endpoint == "" {
		endpoint = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Ollama{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		system:   systemPrompt,
		client:   &http.Client{Timeout: timeout},
	}
}

// Name identifies the backend and model.
func (o *Ollama) Name() string {
	return fmt.Sprintf("ollama (%s)", o.model)
}

// Ping checks that the server is reachable. An unreachable server is
// returned as a BackendUnavailableError; when Ollama is the only configured
// backend this is fatal at startup.
func (o *Ollama) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", o.endpoint+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return &BackendUnavailableError{
			Backend: "ollama",
			Reason:  fmt.Sprintf("server at %s unreachable: %v", o.endpoint, err),
		}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &BackendUnavailableError{
			Backend: "ollama",
			Reason:  fmt.Sprintf("server at %s returned status %d", o.endpoint, resp.StatusCode),
		}
	}
	return nil
}

// Analyze sends the snippet to /api/generate and returns the model's
// response text.
func (o *Ollama) Analyze(ctx context.Context, snippet string) (string, error) {
	req := ollamaGenerateRequest{
		Model:  o.model,
		Prompt: snippet,
		System: o.system,
		Stream: false,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, truncate(string(bodyBytes), 500))
	}

	var result ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	text := strings.TrimSpace(result.Response)
	if text == "" {
		return "", fmt.Errorf("empty response from ollama model %s", o.model)
	}
	return text, nil
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}
