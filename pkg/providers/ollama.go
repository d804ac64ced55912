package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ollamaGenerator talks to a local Ollama daemon. No credentials; an
// unreachable daemon surfaces as a transport error and gets tagged at
// the SafeGenerate boundary like any remote failure.
type ollamaGenerator struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func newOllamaGenerator(baseURL, model string) (*ollamaGenerator, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("ollama base URL not configured")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("ollama model not configured")
	}
	return &ollamaGenerator{
		baseURL:    baseURL,
		model:      strings.TrimSpace(model),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}, nil
}

func (g *ollamaGenerator) Name() string { return "ollama" }

func (g *ollamaGenerator) Generate(ctx context.Context, prompt, instructions string) (string, error) {
	requestBody := map[string]interface{}{
		"model":  g.model,
		"prompt": prompt,
		"stream": false,
	}
	if strings.TrimSpace(instructions) != "" {
		requestBody["system"] = instructions
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("create ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send ollama request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama request failed: status %d: %s", resp.StatusCode, extractAPIError(body))
	}

	var apiResponse struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", fmt.Errorf("parse ollama response: %w", err)
	}
	return apiResponse.Response, nil
}
